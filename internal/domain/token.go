package domain

import (
	"context"
	"time"
)

// UserToken is the activity API grant for a chat address. An empty
// AccessToken means the grant was started but never completed.
type UserToken struct {
	Email       string
	AccessToken string
	CreatedAt   time.Time
}

type TokenRepository interface {
	FindByEmail(ctx context.Context, email string) (*UserToken, error)
	Upsert(ctx context.Context, token UserToken) error
	Delete(ctx context.Context, email string) error
}

// Poster publishes body on behalf of the token owner and returns the URL of the new post.
type Poster interface {
	Post(ctx context.Context, token *UserToken, body string) (string, error)
}
