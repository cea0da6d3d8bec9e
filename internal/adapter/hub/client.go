// Package hub speaks the subscriber side of PubSubHubbub: form-encoded
// subscribe and unsubscribe requests sent to a hub.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	breakerMaxRequests = 1
	breakerInterval    = 60 * time.Second
	breakerTimeout     = 30 * time.Second
	breakerTripAfter   = 5
	maxErrorBody       = 512
)

// StatusError is a non-2xx answer from the hub.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hub responded %d: %s", e.Code, e.Body)
}

// StateObserver is told about circuit breaker transitions.
type StateObserver func(from, to gobreaker.State)

type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient returns a hub client. A hub that fails five requests in a row is
// left alone for thirty seconds; 4xx rejections do not count as failures.
func NewClient(timeout time.Duration, onState StateObserver) *Client {
	settings := gobreaker.Settings{
		Name:        "hub",
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			if onState != nil {
				onState(from, to)
			}
		},
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

func (c *Client) Subscribe(ctx context.Context, topicURL, hubURL, callbackURL string) error {
	return c.send(ctx, "subscribe", topicURL, hubURL, callbackURL)
}

func (c *Client) Unsubscribe(ctx context.Context, topicURL, hubURL, callbackURL string) error {
	return c.send(ctx, "unsubscribe", topicURL, hubURL, callbackURL)
}

func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) send(ctx context.Context, mode, topicURL, hubURL, callbackURL string) error {
	form := url.Values{
		"hub.mode":     {mode},
		"hub.topic":    {topicURL},
		"hub.callback": {callbackURL},
		"hub.verify":   {"async"},
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, hubURL, form)
	})
	if err != nil {
		return fmt.Errorf("hub %s for %s failed: %w", mode, topicURL, err)
	}

	slog.DebugContext(ctx, "Hub request accepted", "mode", mode, "topic", topicURL, "callback", callbackURL)
	return nil
}

func (c *Client) post(ctx context.Context, hubURL string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach hub: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
