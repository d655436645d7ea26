package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"pricecast/internal/cache"
	"pricecast/internal/forecast"
	"pricecast/internal/repository"
	"pricecast/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const defaultDatasetPath = "data/dataset.csv"

var (
	loadEnvFunc = godotenv.Load
	openPool    = pgxpool.New
	stdout      io.Writer = os.Stdout
)

type options struct {
	dataset string
	lag     int
	horizon int
	warm    bool
}

// backfill imports the price dataset into Postgres and, with -warm, computes
// the week-ahead forecast and stores it in Redis.
func main() {
	loadEnvFunc()

	opts, err := parseOptions(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("parse options: %v", err)
	}

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := openPool(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}

	tracer := trace.NewNoopTracerProvider().Tracer("backfill")
	if err := run(ctx, opts, pool, redisFromEnv(os.Getenv), tracer); err != nil {
		log.Fatalf("backfill: %v", err)
	}
}

func run(ctx context.Context, opts options, pool repository.PgxPool, rdb *redis.Client, tracer trace.Tracer) error {
	priceRepo := repository.NewPriceRepository(pool, tracer)
	if err := priceRepo.RunMigrations(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	log.Printf("importing dataset %s", opts.dataset)
	if err := repository.ImportDataset(ctx, repository.NewCSVHistorySource(opts.dataset, tracer), priceRepo); err != nil {
		return fmt.Errorf("import dataset: %w", err)
	}

	if !opts.warm {
		return nil
	}

	forecasts := service.NewForecastService(
		tracer,
		priceRepo,
		forecast.New(opts.lag, opts.horizon),
		cache.NewForecastCache(rdb, time.Hour),
		nil,
	)
	series, err := forecasts.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh forecast: %w", err)
	}
	for _, p := range series {
		fmt.Fprintf(stdout, "%s\t%.2f\n", p.Date, p.Price)
	}
	log.Printf("forecast warmed: %d days", len(series))
	return nil
}

func parseOptions(args []string, getenv func(string) string) (options, error) {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	dataset := fs.String("dataset", envOr(getenv, "DATASET_PATH", defaultDatasetPath), "CSV file with date and price columns (default from DATASET_PATH)")
	lag := fs.Int("lag", envInt(getenv, "FORECAST_LAG", 7), "autoregressive lag in days")
	horizon := fs.Int("horizon", envInt(getenv, "FORECAST_HORIZON", 7), "forecast horizon in days")
	warm := fs.Bool("warm", false, "compute the forecast after importing and store it in Redis when REDIS_URL is set")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if strings.TrimSpace(*dataset) == "" {
		return options{}, fmt.Errorf("dataset cannot be empty")
	}
	if *lag <= 0 || *horizon <= 0 {
		return options{}, fmt.Errorf("lag and horizon must be > 0")
	}

	return options{
		dataset: strings.TrimSpace(*dataset),
		lag:     *lag,
		horizon: *horizon,
		warm:    *warm,
	}, nil
}

func redisFromEnv(getenv func(string) string) *redis.Client {
	addr := strings.TrimSpace(getenv("REDIS_URL"))
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(getenv func(string) string, key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
