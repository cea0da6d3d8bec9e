package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/pscheid92/buzzbot/internal/domain"
)

const (
	hubModeSubscribe   = "subscribe"
	hubModeUnsubscribe = "unsubscribe"
)

type TrackerConfig struct {
	// SearchAPIBase is the scheme, host and path prefix topics hang off,
	// e.g. "https://www.googleapis.com/buzz/v1".
	SearchAPIBase  string
	HubURL         string
	ServiceBaseURL string
}

// Tracker is the only writer of subscriptions.
type Tracker struct {
	subs    domain.SubscriptionRepository
	hub     domain.HubSubscriber
	cfg     TrackerConfig
	metrics Metrics
}

func NewTracker(subs domain.SubscriptionRepository, hub domain.HubSubscriber, cfg TrackerConfig, metrics Metrics) *Tracker {
	cfg.ServiceBaseURL = strings.TrimRight(cfg.ServiceBaseURL, "/")
	cfg.SearchAPIBase = strings.TrimRight(cfg.SearchAPIBase, "/")
	return &Tracker{subs: subs, hub: hub, cfg: cfg, metrics: orNop(metrics)}
}

// topicEscaper undoes the two places where query escaping differs from
// path-style quoting: spaces stay %20 and slashes stay literal.
var topicEscaper = strings.NewReplacer("+", "%20", "%2F", "/")

// TopicURL is the canonical search topic for term. Everything but
// unreserved characters and "/" is percent-encoded.
func (t *Tracker) TopicURL(term string) string {
	q := topicEscaper.Replace(url.QueryEscape(term))
	return t.cfg.SearchAPIBase + "/activities/track?q=" + q
}

func (t *Tracker) CallbackURL(id domain.SubscriptionID) string {
	return fmt.Sprintf("%s/posts?id=%d", t.cfg.ServiceBaseURL, id)
}

// Track persists a subscription for the trimmed term and then asks the hub
// to start delivering. A blank term returns ErrInvalidSubscription. Hub
// failures are logged; the subscription stands.
func (t *Tracker) Track(ctx context.Context, sender, term string) (*domain.Subscription, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		t.metrics.SubscriptionChanged("track", "rejected")
		return nil, domain.ErrInvalidSubscription
	}

	sub, err := t.subs.Create(ctx, t.TopicURL(term), term, sender)
	if err != nil {
		t.metrics.SubscriptionChanged("track", "error")
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	t.metrics.SubscriptionChanged("track", "ok")

	slog.InfoContext(ctx, "Subscription created", "subscription_id", sub.ID, "subscriber", sender, "topic", sub.TopicURL)

	t.callHub(ctx, hubModeSubscribe, sub)
	return sub, nil
}

// Untrack deletes the sender's subscription identified by idText and then
// withdraws it from the hub. Malformed ids, unknown ids and subscriptions
// owned by somebody else all return ErrUntrackFailed.
func (t *Tracker) Untrack(ctx context.Context, sender, idText string) (*domain.Subscription, error) {
	id, ok := ParseSubscriptionID(idText)
	if !ok {
		t.metrics.SubscriptionChanged("untrack", "rejected")
		return nil, domain.ErrUntrackFailed
	}

	sub, err := t.subs.DeleteOwned(ctx, id, sender)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		t.metrics.SubscriptionChanged("untrack", "rejected")
		return nil, domain.ErrUntrackFailed
	}
	if err != nil {
		t.metrics.SubscriptionChanged("untrack", "error")
		return nil, fmt.Errorf("failed to delete subscription %d: %w", id, err)
	}
	t.metrics.SubscriptionChanged("untrack", "ok")

	slog.InfoContext(ctx, "Subscription deleted", "subscription_id", sub.ID, "subscriber", sender)

	t.callHub(ctx, hubModeUnsubscribe, sub)
	return sub, nil
}

// Remove deletes id regardless of owner and withdraws it from the hub. It is
// the operator path; chat users go through Untrack.
func (t *Tracker) Remove(ctx context.Context, id domain.SubscriptionID) (*domain.Subscription, error) {
	sub, err := t.subs.Get(ctx, id)
	if err == nil {
		err = t.subs.Delete(ctx, id)
	}
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		t.metrics.SubscriptionChanged("remove", "rejected")
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		t.metrics.SubscriptionChanged("remove", "error")
		return nil, fmt.Errorf("failed to remove subscription %d: %w", id, err)
	}
	t.metrics.SubscriptionChanged("remove", "ok")

	slog.InfoContext(ctx, "Subscription removed by operator", "subscription_id", sub.ID, "subscriber", sub.Subscriber)

	t.callHub(ctx, hubModeUnsubscribe, sub)
	return sub, nil
}

func (t *Tracker) List(ctx context.Context, sender string) ([]domain.Subscription, error) {
	subs, err := t.subs.ListBySubscriber(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// Lookup returns domain.ErrSubscriptionNotFound when id is unknown.
func (t *Tracker) Lookup(ctx context.Context, id domain.SubscriptionID) (*domain.Subscription, error) {
	return t.subs.Get(ctx, id)
}

func (t *Tracker) Exists(ctx context.Context, id domain.SubscriptionID) (bool, error) {
	_, err := t.subs.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (t *Tracker) callHub(ctx context.Context, mode string, sub *domain.Subscription) {
	callback := t.CallbackURL(sub.ID)

	var err error
	if mode == hubModeSubscribe {
		err = t.hub.Subscribe(ctx, sub.TopicURL, t.cfg.HubURL, callback)
	} else {
		err = t.hub.Unsubscribe(ctx, sub.TopicURL, t.cfg.HubURL, callback)
	}

	if err != nil {
		t.metrics.HubRequest(mode, "error")
		slog.WarnContext(ctx, "Hub request failed", "mode", mode, "subscription_id", sub.ID, "callback", callback, "error", err)
		return
	}
	t.metrics.HubRequest(mode, "ok")
}

// ParseSubscriptionID accepts ASCII decimal digits only.
func ParseSubscriptionID(s string) (domain.SubscriptionID, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return domain.SubscriptionID(n), true
}
