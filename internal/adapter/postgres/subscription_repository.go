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

type subscriptionRow struct {
	ID         int64     `db:"id"`
	TopicURL   string    `db:"topic_url"`
	SearchTerm string    `db:"search_term"`
	Subscriber string    `db:"subscriber"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r subscriptionRow) toDomain() *domain.Subscription {
	return &domain.Subscription{
		ID:         domain.SubscriptionID(r.ID),
		TopicURL:   r.TopicURL,
		SearchTerm: r.SearchTerm,
		Subscriber: r.Subscriber,
		CreatedAt:  r.CreatedAt,
	}
}

const subscriptionColumns = "id, topic_url, search_term, subscriber, created_at"

// SubscriptionRepo relies on an identity column, so ids are never reused.
type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

func (r *SubscriptionRepo) Create(ctx context.Context, topicURL, searchTerm, subscriber string) (*domain.Subscription, error) {
	rows, _ := r.pool.Query(ctx,
		`INSERT INTO subscriptions (topic_url, search_term, subscriber)
		 VALUES ($1, $2, $3)
		 RETURNING `+subscriptionColumns,
		topicURL, searchTerm, subscriber)

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[subscriptionRow])
	if err != nil {
		return nil, fmt.Errorf("failed to insert subscription: %w", err)
	}
	return row.toDomain(), nil
}

func (r *SubscriptionRepo) Get(ctx context.Context, id domain.SubscriptionID) (*domain.Subscription, error) {
	rows, _ := r.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, int64(id))

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[subscriptionRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *SubscriptionRepo) ListBySubscriber(ctx context.Context, subscriber string) ([]domain.Subscription, error) {
	rows, _ := r.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE subscriber = $1 ORDER BY id`, subscriber)

	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[subscriptionRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs := make([]domain.Subscription, len(found))
	for i, row := range found {
		subs[i] = *row.toDomain()
	}
	return subs, nil
}

// DeleteOwned folds the ownership check into the DELETE itself; row locking
// lets exactly one concurrent caller see the returned row.
func (r *SubscriptionRepo) DeleteOwned(ctx context.Context, id domain.SubscriptionID, subscriber string) (*domain.Subscription, error) {
	rows, _ := r.pool.Query(ctx,
		`DELETE FROM subscriptions WHERE id = $1 AND subscriber = $2
		 RETURNING `+subscriptionColumns,
		int64(id), subscriber)

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[subscriptionRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete subscription %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *SubscriptionRepo) Delete(ctx context.Context, id domain.SubscriptionID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete subscription %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}
