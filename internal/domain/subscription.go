package domain

import (
	"context"
	"time"
)

// SubscriptionID is issued monotonically by the store and never reused.
type SubscriptionID int64

// Subscription records that Subscriber wants new posts matching SearchTerm.
// Records are immutable once created.
type Subscription struct {
	ID         SubscriptionID
	TopicURL   string
	SearchTerm string
	Subscriber string
	CreatedAt  time.Time
}

type SubscriptionRepository interface {
	Create(ctx context.Context, topicURL, searchTerm, subscriber string) (*Subscription, error)
	Get(ctx context.Context, id SubscriptionID) (*Subscription, error)
	ListBySubscriber(ctx context.Context, subscriber string) ([]Subscription, error)

	// DeleteOwned removes id only when it belongs to subscriber, returning the
	// removed record. Check and delete are atomic: of several concurrent
	// callers at most one succeeds.
	DeleteOwned(ctx context.Context, id SubscriptionID, subscriber string) (*Subscription, error)

	// Delete removes id regardless of owner. Reserved for the operator path.
	Delete(ctx context.Context, id SubscriptionID) error
}

// HubSubscriber registers and withdraws topic callbacks with a PubSubHubbub hub.
type HubSubscriber interface {
	Subscribe(ctx context.Context, topicURL, hubURL, callbackURL string) error
	Unsubscribe(ctx context.Context, topicURL, hubURL, callbackURL string) error
}
