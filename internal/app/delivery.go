package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/buzzbot/internal/domain"
	"github.com/pscheid92/buzzbot/internal/message"
)

var ErrUnknownHubMode = errors.New("unknown hub mode")

// MalformedDeliveryError lists the entries the content parser rejected.
type MalformedDeliveryError struct {
	Entries []string
}

func (e *MalformedDeliveryError) Error() string {
	return fmt.Sprintf("malformed delivery: %s", strings.Join(e.Entries, "; "))
}

func (e *MalformedDeliveryError) Unwrap() error {
	return domain.ErrMalformedDelivery
}

// DeliveryReport summarises one fan-out.
type DeliveryReport struct {
	SubscriptionID domain.SubscriptionID `json:"subscription_id"`
	Delivered      int                   `json:"delivered"`
	Duplicates     int                   `json:"duplicates"`
	Failed         int                   `json:"failed"`
}

// Delivery is the hub-facing side of a subscription: challenge
// verification and content fan-out.
type Delivery struct {
	tracker  *Tracker
	parser   domain.ContentParser
	notifier domain.Notifier
	deduper  domain.DeliveryDeduper
	mode     message.Mode
	clock    clockwork.Clock
	metrics  Metrics
}

// NewDelivery wires the fan-out path. deduper may be nil to deliver every post.
func NewDelivery(tracker *Tracker, parser domain.ContentParser, notifier domain.Notifier, deduper domain.DeliveryDeduper, mode message.Mode, clock clockwork.Clock, metrics Metrics) *Delivery {
	return &Delivery{
		tracker:  tracker,
		parser:   parser,
		notifier: notifier,
		deduper:  deduper,
		mode:     mode,
		clock:    clock,
		metrics:  orNop(metrics),
	}
}

// VerifyChallenge reports whether the hub's claimed state change matches
// local state: subscribe needs id to exist, unsubscribe needs it gone.
func (d *Delivery) VerifyChallenge(ctx context.Context, mode string, id domain.SubscriptionID) (bool, error) {
	if mode != hubModeSubscribe && mode != hubModeUnsubscribe {
		return false, ErrUnknownHubMode
	}

	exists, err := d.tracker.Exists(ctx, id)
	if err != nil {
		d.metrics.HubChallenge(mode, "error")
		return false, fmt.Errorf("failed to look up subscription %d: %w", id, err)
	}

	accepted := exists == (mode == hubModeSubscribe)
	if accepted {
		d.metrics.HubChallenge(mode, "accepted")
	} else {
		d.metrics.HubChallenge(mode, "rejected")
	}

	slog.InfoContext(ctx, "Hub challenge verified", "mode", mode, "subscription_id", id, "exists", exists, "accepted", accepted)
	return accepted, nil
}

// Deliver parses body and notifies the subscriber once per post. Unknown
// ids return domain.ErrSubscriptionNotFound. A body with invalid entries
// returns *MalformedDeliveryError and nothing is sent.
func (d *Delivery) Deliver(ctx context.Context, id domain.SubscriptionID, body []byte) (*DeliveryReport, error) {
	sub, err := d.tracker.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := d.parser.Parse(body, domain.FeedDefaults{TopicURL: sub.TopicURL})
	if err != nil {
		return nil, &MalformedDeliveryError{Entries: []string{err.Error()}}
	}
	if !result.Valid() {
		return nil, &MalformedDeliveryError{Entries: result.Errors}
	}

	started := d.clock.Now()
	report := &DeliveryReport{SubscriptionID: sub.ID}
	builder := message.NewBuilder(d.mode)

	for _, post := range result.Posts {
		if !d.firstDelivery(ctx, sub.ID, post.URL) {
			report.Duplicates++
			d.metrics.Notification("duplicate")
			continue
		}

		if err := d.notifier.Send(ctx, sub.Subscriber, builder.BuildFromPost(post, sub.SearchTerm)); err != nil {
			report.Failed++
			d.metrics.Notification("error")
			slog.WarnContext(ctx, "Notification failed", "subscription_id", sub.ID, "subscriber", sub.Subscriber, "post_url", post.URL, "error", err)
			continue
		}
		report.Delivered++
		d.metrics.Notification("ok")
	}

	slog.InfoContext(ctx, "Delivery fanned out",
		"subscription_id", sub.ID,
		"posts", len(result.Posts),
		"delivered", report.Delivered,
		"duplicates", report.Duplicates,
		"failed", report.Failed,
		"duration", d.clock.Since(started))
	return report, nil
}

// firstDelivery fails open: a broken deduper never suppresses a post.
func (d *Delivery) firstDelivery(ctx context.Context, id domain.SubscriptionID, postURL string) bool {
	if d.deduper == nil || postURL == "" {
		return true
	}
	first, err := d.deduper.FirstDelivery(ctx, id, postURL)
	if err != nil {
		slog.WarnContext(ctx, "Delivery de-duplication unavailable", "subscription_id", id, "error", err)
		return true
	}
	return first
}
