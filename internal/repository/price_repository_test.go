package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"pricecast/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

func TestRunMigrationsCreatesPriceHistory(t *testing.T) {
	pool := &stubPool{}
	repo := NewPriceRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	if err := repo.RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 || !strings.Contains(pool.execSQL[0], "price_history") {
		t.Fatalf("unexpected migration SQL: %v", pool.execSQL)
	}
}

func TestUpsertPricesBatchesStatements(t *testing.T) {
	batchResults := &stubBatchResults{}
	pool := &stubPool{batchResults: batchResults}
	repo := NewPriceRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	points := []domain.PricePoint{
		{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Price: 1499},
		{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Price: 1469},
	}
	if err := repo.UpsertPrices(context.Background(), points); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.queuedBatch == nil || pool.queuedBatch.Len() != len(points) {
		t.Fatalf("expected batch of size %d", len(points))
	}
	if batchResults.execCalls != len(points) {
		t.Fatalf("expected %d Exec calls, got %d", len(points), batchResults.execCalls)
	}
}

func TestUpsertPricesEmptyIsNoop(t *testing.T) {
	pool := &stubPool{}
	repo := NewPriceRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))
	if err := repo.UpsertPrices(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.queuedBatch != nil {
		t.Fatal("expected no batch for empty input")
	}
}

func TestHistoryReturnsRows(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	pool := &stubPool{rowsData: [][]any{
		{day, 1499.0},
		{day.AddDate(0, 0, 1), 1469.0},
	}}
	repo := NewPriceRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))

	points, err := repo.History(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 || points[1].Price != 1469 {
		t.Fatalf("unexpected points: %+v", points)
	}
}

func TestHistoryPropagatesQueryError(t *testing.T) {
	pool := &stubPool{queryErr: fmt.Errorf("boom")}
	repo := NewPriceRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))
	if _, err := repo.History(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type stubPool struct {
	batchResults pgx.BatchResults
	queuedBatch  *pgx.Batch
	rowsData     [][]any
	queryErr     error
	row          *stubRow

	execSQL  []string
	execArgs [][]any
}

func (s *stubPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execSQL = append(s.execSQL, sql)
	s.execArgs = append(s.execArgs, args)
	return pgconn.CommandTag{}, nil
}

func (s *stubPool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	s.queuedBatch = b
	if s.batchResults != nil {
		return s.batchResults
	}
	return &stubBatchResults{}
}

func (s *stubPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if s.rowsData == nil {
		return &stubRows{}, nil
	}
	dataCopy := make([][]any, len(s.rowsData))
	for i := range s.rowsData {
		row := make([]any, len(s.rowsData[i]))
		copy(row, s.rowsData[i])
		dataCopy[i] = row
	}
	return &stubRows{data: dataCopy}, nil
}

func (s *stubPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.row != nil {
		s.row.args = args
		return s.row
	}
	return &stubRow{}
}

type stubBatchResults struct {
	execCalls int
}

func (s *stubBatchResults) Exec() (pgconn.CommandTag, error) {
	s.execCalls++
	return pgconn.CommandTag{}, nil
}

func (s *stubBatchResults) Query() (pgx.Rows, error) { return &stubRows{}, nil }

func (s *stubBatchResults) QueryRow() pgx.Row { return &stubRow{} }

func (s *stubBatchResults) Close() error { return nil }

type stubRows struct {
	data [][]any
	idx  int
}

func (r *stubRows) Close() {}

func (r *stubRows) Err() error { return nil }

func (r *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *stubRows) Next() bool {
	if len(r.data) == 0 || r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return fmt.Errorf("invalid scan index")
	}
	return assignScan(r.data[r.idx-1], dest)
}

func (r *stubRows) Values() ([]any, error) { return nil, nil }

func (r *stubRows) RawValues() [][]byte { return nil }

func (r *stubRows) Conn() *pgx.Conn { return nil }

type stubRow struct {
	values []any
	err    error
	args   []any
}

func (r *stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.values == nil {
		return nil
	}
	return assignScan(r.values, dest)
}

func assignScan(row []any, dest []any) error {
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = row[i].(string)
		case *time.Time:
			*ptr = row[i].(time.Time)
		case *float64:
			*ptr = row[i].(float64)
		case *int64:
			*ptr = row[i].(int64)
		case *int:
			*ptr = row[i].(int)
		case *bool:
			*ptr = row[i].(bool)
		case **time.Time:
			if v, ok := row[i].(time.Time); ok {
				*ptr = &v
			} else {
				*ptr = nil
			}
		default:
			return fmt.Errorf("unsupported dest type %T", d)
		}
	}
	return nil
}
