package redis

import (
	"context"
	"errors"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CommandObserver receives one call per command or pipeline. status is
// "success" or "error"; a nil reply counts as success.
type CommandObserver func(operation, status string, duration time.Duration)

type MetricsHook struct {
	observe     CommandObserver
	onDialError func()
}

var _ goredis.Hook = (*MetricsHook)(nil)

func NewMetricsHook(observe CommandObserver, onDialError func()) *MetricsHook {
	if observe == nil {
		observe = func(string, string, time.Duration) {}
	}
	if onDialError == nil {
		onDialError = func() {}
	}
	return &MetricsHook{observe: observe, onDialError: onDialError}
}

func (h *MetricsHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.onDialError()
		}
		return conn, err
	}
}

func (h *MetricsHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(cmd.Name(), status(err), time.Since(start))
		return err
	}
}

func (h *MetricsHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe("pipeline", status(err), time.Since(start))
		return err
	}
}

func status(err error) string {
	if err != nil && !errors.Is(err, goredis.Nil) {
		return "error"
	}
	return "success"
}
