package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pricecast/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

func TestParseOptionsDefaults(t *testing.T) {
	getenv := func(key string) string {
		if key == "DATASET_PATH" {
			return "/srv/prices.csv"
		}
		return ""
	}
	opts, err := parseOptions(nil, getenv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.dataset != "/srv/prices.csv" || opts.lag != 7 || opts.horizon != 7 || opts.warm {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestParseOptionsFlags(t *testing.T) {
	getenv := func(string) string { return "" }
	opts, err := parseOptions([]string{"-dataset", "x.csv", "-lag", "3", "-horizon", "5", "-warm"}, getenv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.dataset != "x.csv" || opts.lag != 3 || opts.horizon != 5 || !opts.warm {
		t.Fatalf("unexpected options: %+v", opts)
	}

	if _, err := parseOptions([]string{"-lag", "0"}, getenv); err == nil {
		t.Fatal("expected error for zero lag")
	}
	if _, err := parseOptions([]string{"-dataset", " "}, getenv); err == nil {
		t.Fatal("expected error for empty dataset")
	}
}

func TestEnvInt(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "GOOD":
			return " 14 "
		case "BAD":
			return "x"
		case "NEG":
			return "-2"
		}
		return ""
	}
	if got := envInt(getenv, "GOOD", 7); got != 14 {
		t.Fatalf("expected 14, got %d", got)
	}
	for _, key := range []string{"BAD", "NEG", "MISSING"} {
		if got := envInt(getenv, key, 7); got != 7 {
			t.Fatalf("expected fallback for %s, got %d", key, got)
		}
	}
}

func TestRedisFromEnv(t *testing.T) {
	if redisFromEnv(func(string) string { return "" }) != nil {
		t.Fatal("expected nil client without REDIS_URL")
	}
	rdb := redisFromEnv(func(string) string { return "localhost:6379" })
	if rdb == nil {
		t.Fatal("expected client with REDIS_URL")
	}
	_ = rdb.Close()
}

func TestRunImportsAndWarms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.csv")
	var csv strings.Builder
	csv.WriteString("date,price\n")
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	var rows [][]any
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i)
		fmt.Fprintf(&csv, "%s,1000\n", d.Format("2006-01-02"))
		rows = append(rows, []any{d, 1000.0})
	}
	if err := os.WriteFile(path, []byte(csv.String()), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	var out bytes.Buffer
	origStdout := stdout
	stdout = &out
	defer func() { stdout = origStdout }()

	pool := &stubPool{rows: rows}
	opts := options{dataset: path, lag: 7, horizon: 7, warm: true}
	if err := run(context.Background(), opts, pool, rdb, trace.NewNoopTracerProvider().Tracer("test")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if pool.execs != 1 {
		t.Fatalf("expected migration exec, got %d", pool.execs)
	}
	if pool.batched != 10 {
		t.Fatalf("expected 10 upserts, got %d", pool.batched)
	}
	if !mr.Exists(cache.ForecastKey) {
		t.Fatal("expected forecast cached in redis")
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 7 || !strings.HasPrefix(lines[0], "11 Jul 2025\t1000.00") {
		t.Fatalf("unexpected forecast output:\n%s", out.String())
	}
}

func TestRunWithoutWarmSkipsForecast(t *testing.T) {
	pool := &stubPool{}
	opts := options{dataset: filepath.Join(t.TempDir(), "missing.csv"), lag: 7, horizon: 7}
	if err := run(context.Background(), opts, pool, nil, trace.NewNoopTracerProvider().Tracer("test")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if pool.batched != 0 || pool.queries != 0 {
		t.Fatalf("expected no import or history query, got %+v", pool)
	}
}

// --- stubs ---

type stubPool struct {
	rows    [][]any
	execs   int
	batched int
	queries int
}

func (s *stubPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execs++
	return pgconn.CommandTag{}, nil
}

func (s *stubPool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	s.batched += b.Len()
	return stubBatchResults{}
}

func (s *stubPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.queries++
	return &stubRows{data: s.rows}, nil
}

func (s *stubPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

type stubBatchResults struct{}

func (stubBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (stubBatchResults) Query() (pgx.Rows, error)         { return &stubRows{}, nil }
func (stubBatchResults) QueryRow() pgx.Row                { return nil }
func (stubBatchResults) Close() error                     { return nil }

type stubRows struct {
	data [][]any
	idx  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	*dest[0].(*time.Time) = row[0].(time.Time)
	*dest[1].(*float64) = row[1].(float64)
	return nil
}
