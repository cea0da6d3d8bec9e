// Package chatgateway delivers outbound chat messages to an HTTP chat gateway.
package chatgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/google/uuid"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	maxErrorBody      = 512
)

type outbound struct {
	To    string `json:"to"`
	Body  string `json:"body"`
	XHTML bool   `json:"xhtml"`
}

// StateObserver is told about circuit breaker transitions.
type StateObserver func(from, to circuitbreaker.State)

// Notifier POSTs each message as JSON to the gateway's /messages endpoint.
// Every send carries a fresh idempotency key.
type Notifier struct {
	endpoint   string
	xhtml      bool
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker[any]
	newKey     func() string
}

// NewNotifier opens its breaker when 60% of at least five sends within ten
// seconds fail, and probes again after thirty seconds.
func NewNotifier(gatewayURL string, xhtml bool, timeout time.Duration, onState StateObserver) *Notifier {
	cb := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "chat_gateway",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			if onState != nil {
				onState(e.OldState, e.NewState)
			}
		}).
		Build()

	return &Notifier{
		endpoint:   strings.TrimRight(gatewayURL, "/") + "/messages",
		xhtml:      xhtml,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    cb,
		newKey:     func() string { return uuid.NewString() },
	}
}

func (n *Notifier) Send(ctx context.Context, to, body string) error {
	if !n.breaker.TryAcquirePermit() {
		return fmt.Errorf("chat gateway unavailable: %w", circuitbreaker.ErrOpen)
	}

	if err := n.post(ctx, outbound{To: to, Body: body, XHTML: n.xhtml}); err != nil {
		n.breaker.RecordError(err)
		return err
	}
	n.breaker.RecordSuccess()
	return nil
}

func (n *Notifier) post(ctx context.Context, msg outbound) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyHeader, n.newKey())

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach chat gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("chat gateway responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// LogNotifier writes messages to the log instead of sending them. Used when
// no gateway is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, to, body string) error {
	slog.InfoContext(ctx, "Outbound chat message", "to", to, "body", body)
	return nil
}
