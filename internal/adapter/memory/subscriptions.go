// Package memory holds process-local repositories for development and tests.
// Nothing survives a restart.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/buzzbot/internal/domain"
)

// SubscriptionStore is safe for concurrent use. Ids start at 1 and are never reused.
type SubscriptionStore struct {
	mu     sync.RWMutex
	lastID domain.SubscriptionID
	subs   map[domain.SubscriptionID]domain.Subscription
	clock  clockwork.Clock
}

func NewSubscriptionStore(clock clockwork.Clock) *SubscriptionStore {
	return &SubscriptionStore{
		subs:  make(map[domain.SubscriptionID]domain.Subscription),
		clock: clock,
	}
}

func (s *SubscriptionStore) Create(ctx context.Context, topicURL, searchTerm, subscriber string) (*domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	sub := domain.Subscription{
		ID:         s.lastID,
		TopicURL:   topicURL,
		SearchTerm: searchTerm,
		Subscriber: subscriber,
		CreatedAt:  s.clock.Now(),
	}
	s.subs[sub.ID] = sub
	return &sub, nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id domain.SubscriptionID) (*domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	return &sub, nil
}

// ListBySubscriber returns the subscriber's subscriptions in creation order.
func (s *SubscriptionStore) ListBySubscriber(ctx context.Context, subscriber string) ([]domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Subscription{}
	for _, sub := range s.subs {
		if sub.Subscriber == subscriber {
			out = append(out, sub)
		}
	}
	slices.SortFunc(out, func(a, b domain.Subscription) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *SubscriptionStore) DeleteOwned(ctx context.Context, id domain.SubscriptionID, subscriber string) (*domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok || sub.Subscriber != subscriber {
		return nil, domain.ErrSubscriptionNotFound
	}
	delete(s.subs, id)
	return &sub, nil
}

func (s *SubscriptionStore) Delete(ctx context.Context, id domain.SubscriptionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[id]; !ok {
		return domain.ErrSubscriptionNotFound
	}
	delete(s.subs, id)
	return nil
}
