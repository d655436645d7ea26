package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"pricecast/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestSubscriptionCreateReturnsID(t *testing.T) {
	created := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	pool := &stubPool{row: &stubRow{values: []any{int64(42), created}}}
	repo := NewSubscriptionRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	sub, err := repo.Create(context.Background(), domain.Subscription{
		PhoneNumber:  "0501234567",
		DesiredPrice: 1400,
		ModelID:      "1226219",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.ID != 42 || !sub.CreatedAt.Equal(created) {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if len(pool.row.args) != 6 || pool.row.args[0] != "0501234567" {
		t.Fatalf("unexpected insert args: %v", pool.row.args)
	}
}

func TestSubscriptionListPendingScansRows(t *testing.T) {
	created := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	pool := &stubPool{rowsData: [][]any{
		{int64(1), "0501234567", 1400.0, "TV", "1226219", "https://example.test", 1499.0, created},
	}}
	repo := NewSubscriptionRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	subs, err := repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 1 || subs[0].DesiredPrice != 1400 || subs[0].URL != "https://example.test" {
		t.Fatalf("unexpected subscriptions: %+v", subs)
	}
}

func TestSubscriptionMarkNotified(t *testing.T) {
	pool := &stubPool{}
	repo := NewSubscriptionRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	at := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	if err := repo.MarkNotified(context.Background(), 7, 1399.5, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 || !strings.Contains(pool.execSQL[0], "notified_at IS NULL") {
		t.Fatalf("unexpected SQL: %v", pool.execSQL)
	}
	if pool.execArgs[0][0] != int64(7) || pool.execArgs[0][2] != 1399.5 {
		t.Fatalf("unexpected args: %v", pool.execArgs[0])
	}
}

func TestSubscriptionRunMigrations(t *testing.T) {
	pool := &stubPool{}
	repo := NewSubscriptionRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))
	if err := repo.RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 || !strings.Contains(pool.execSQL[0], "subscriptions") {
		t.Fatalf("unexpected migration SQL: %v", pool.execSQL)
	}
}

func TestMemorySubscriptionLifecycle(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemorySubscriptionRepository(func() time.Time { return now })
	ctx := context.Background()

	first, _ := repo.Create(ctx, domain.Subscription{PhoneNumber: "1", DesiredPrice: 100})
	second, _ := repo.Create(ctx, domain.Subscription{PhoneNumber: "2", DesiredPrice: 200})
	if first.ID != 1 || second.ID != 2 || !first.CreatedAt.Equal(now) {
		t.Fatalf("unexpected ids or timestamps: %+v %+v", first, second)
	}

	if err := repo.MarkNotified(ctx, first.ID, 99, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pending, err := repo.ListPending(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("expected only second pending, got %+v", pending)
	}
	if repo.Len() != 2 {
		t.Fatalf("expected 2 stored, got %d", repo.Len())
	}

	// Marking twice or marking an unknown id is a no-op.
	if err := repo.MarkNotified(ctx, first.ID, 50, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.MarkNotified(ctx, 99, 50, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
