package memory

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/buzzbot/internal/domain"
)

type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]domain.UserToken
	clock  clockwork.Clock
}

func NewTokenStore(clock clockwork.Clock) *TokenStore {
	return &TokenStore{tokens: make(map[string]domain.UserToken), clock: clock}
}

func (s *TokenStore) FindByEmail(ctx context.Context, email string) (*domain.UserToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[email]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return &token, nil
}

// Upsert stamps CreatedAt when the caller left it zero.
func (s *TokenStore) Upsert(ctx context.Context, token domain.UserToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token.CreatedAt.IsZero() {
		token.CreatedAt = s.clock.Now()
	}
	s.tokens[token.Email] = token
	return nil
}

func (s *TokenStore) Delete(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, email)
	return nil
}
