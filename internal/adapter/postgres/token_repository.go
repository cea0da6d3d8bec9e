package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/buzzbot/internal/domain"
)

type TokenRepo struct {
	pool *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

func (r *TokenRepo) FindByEmail(ctx context.Context, email string) (*domain.UserToken, error) {
	var token domain.UserToken
	err := r.pool.QueryRow(ctx,
		`SELECT email, access_token, created_at FROM user_tokens WHERE email = $1`, email).
		Scan(&token.Email, &token.AccessToken, &token.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// Upsert keeps the original created_at of an existing row.
func (r *TokenRepo) Upsert(ctx context.Context, token domain.UserToken) error {
	var createdAt *time.Time
	if !token.CreatedAt.IsZero() {
		createdAt = &token.CreatedAt
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_tokens (email, access_token, created_at)
		 VALUES ($1, $2, COALESCE($3, now()))
		 ON CONFLICT (email) DO UPDATE SET access_token = EXCLUDED.access_token`,
		token.Email, token.AccessToken, createdAt)
	if err != nil {
		return fmt.Errorf("failed to upsert token: %w", err)
	}
	return nil
}

func (r *TokenRepo) Delete(ctx context.Context, email string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_tokens WHERE email = $1`, email); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
