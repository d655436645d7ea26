package repository

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"pricecast/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"
)

type HistoryReader interface {
	History(ctx context.Context) ([]domain.PricePoint, error)
}

type SubscriptionStore interface {
	Create(ctx context.Context, sub domain.Subscription) (domain.Subscription, error)
	ListPending(ctx context.Context) ([]domain.Subscription, error)
	MarkNotified(ctx context.Context, id int64, price float64, at time.Time) error
}

// OpenStores picks Postgres when a pool is available, importing the CSV
// dataset into it, and falls back to reading the CSV directly with
// subscriptions kept in memory.
func OpenStores(ctx context.Context, pool *pgxpool.Pool, datasetPath string, tracer trace.Tracer) (HistoryReader, SubscriptionStore, error) {
	csvSource := NewCSVHistorySource(datasetPath, tracer)
	if pool == nil {
		return csvSource, NewMemorySubscriptionRepository(time.Now), nil
	}

	priceRepo := NewPriceRepository(pool, tracer)
	if err := priceRepo.RunMigrations(ctx); err != nil {
		return nil, nil, err
	}
	subRepo := NewSubscriptionRepository(pool, tracer)
	if err := subRepo.RunMigrations(ctx); err != nil {
		return nil, nil, err
	}
	if err := ImportDataset(ctx, csvSource, priceRepo); err != nil {
		return nil, nil, err
	}
	return priceRepo, subRepo, nil
}

type priceWriter interface {
	UpsertPrices(ctx context.Context, points []domain.PricePoint) error
}

// ImportDataset copies the CSV history into the price store. A missing file
// is not an error.
func ImportDataset(ctx context.Context, src *CSVHistorySource, dst priceWriter) error {
	points, err := src.History(ctx)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("dataset %s not found, using stored history only", src.path)
		return nil
	}
	if err != nil {
		return err
	}
	if err := dst.UpsertPrices(ctx, points); err != nil {
		return err
	}
	log.Printf("imported %d price points from %s", len(points), src.path)
	return nil
}
