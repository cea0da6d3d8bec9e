package domain

import (
	"context"
	"time"
)

type Post struct {
	URL         string
	FeedURL     string
	Title       string
	Content     string
	PublishedAt time.Time
	Author      string
}

// FeedDefaults fill in fields a hub delivery may omit.
type FeedDefaults struct {
	TopicURL string
}

// ParseResult holds either the parsed posts or, when Errors is non-empty,
// the reasons individual entries were rejected.
type ParseResult struct {
	Posts  []Post
	Errors []string
}

func (r *ParseResult) Valid() bool {
	return len(r.Errors) == 0
}

type ContentParser interface {
	Parse(body []byte, defaults FeedDefaults) (*ParseResult, error)
}

// Notifier hands a rendered chat message to the transport.
type Notifier interface {
	Send(ctx context.Context, to, body string) error
}

// DeliveryDeduper reports whether a post URL is new for a subscription.
// The first call for a pair returns true; repeats inside the window return false.
type DeliveryDeduper interface {
	FirstDelivery(ctx context.Context, id SubscriptionID, postURL string) (bool, error)
}
