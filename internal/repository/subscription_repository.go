package repository

import (
	"context"
	"time"

	"pricecast/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type SubscriptionRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSubscriptionRepository(pool PgxPool, tracer trace.Tracer) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool, tracer: tracer}
}

func (r *SubscriptionRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "subscription-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS subscriptions (
		     id             BIGSERIAL PRIMARY KEY,
		     phone_number   TEXT NOT NULL,
		     desired_price  DOUBLE PRECISION NOT NULL,
		     description    TEXT NOT NULL DEFAULT '',
		     model_id       TEXT NOT NULL,
		     url            TEXT NOT NULL DEFAULT '',
		     current_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
		     created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		     notified_at    TIMESTAMPTZ,
		     notified_price DOUBLE PRECISION
		 );
		 CREATE INDEX IF NOT EXISTS subscriptions_pending_idx
		     ON subscriptions (created_at) WHERE notified_at IS NULL`,
	)
	return err
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	_, span := r.tracer.Start(ctx, "subscription-repo.create")
	defer span.End()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (phone_number, desired_price, description, model_id, url, current_price)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		sub.PhoneNumber, sub.DesiredPrice, sub.Description, sub.ModelID, sub.URL, sub.CurrentPrice,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return domain.Subscription{}, err
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return sub, nil
}

// ListPending returns subscriptions that have not been alerted yet, oldest first.
func (r *SubscriptionRepository) ListPending(ctx context.Context) ([]domain.Subscription, error) {
	_, span := r.tracer.Start(ctx, "subscription-repo.list-pending")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, phone_number, desired_price, description, model_id, url, current_price, created_at
		 FROM subscriptions
		 WHERE notified_at IS NULL
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(
			&s.ID, &s.PhoneNumber, &s.DesiredPrice, &s.Description,
			&s.ModelID, &s.URL, &s.CurrentPrice, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		s.CreatedAt = s.CreatedAt.UTC()
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepository) MarkNotified(ctx context.Context, id int64, price float64, at time.Time) error {
	_, span := r.tracer.Start(ctx, "subscription-repo.mark-notified")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE subscriptions
		 SET notified_at = $2, notified_price = $3
		 WHERE id = $1 AND notified_at IS NULL`,
		id, at.UTC(), price,
	)
	return err
}
