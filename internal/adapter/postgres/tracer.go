package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// QueryObserver receives one call per finished query.
type QueryObserver func(operation string, duration time.Duration, err error)

// QueryTracer reports query timings keyed by SQL verb, keeping label
// cardinality bounded.
type QueryTracer struct {
	observe QueryObserver
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

func NewQueryTracer(observe QueryObserver) *QueryTracer {
	return &QueryTracer{observe: observe}
}

type traceKey struct{}

type traceStart struct {
	at        time.Time
	operation string
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{at: time.Now(), operation: operationName(data.SQL)})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok || t.observe == nil {
		return
	}
	t.observe(start.operation, time.Since(start.at), data.Err)
}

// operationName returns the lowercased leading SQL keyword.
func operationName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	verb := strings.ToLower(fields[0])
	if len(verb) > 20 {
		verb = verb[:20]
	}
	return verb
}
