package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"

	"pricecast/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ForecastKey holds the JSON-encoded next-week forecast.
const ForecastKey = "forecast:next_week"

var Client *redis.Client

// InitRedis connects the package-level client. An empty REDIS_URL leaves
// Client nil and callers fall back to computing on every request.
func InitRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		log.Println("REDIS_URL not set, skipping Redis connection")
		return
	}
	Client = redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := Client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
}

// ForecastCache stores the last computed forecast series.
type ForecastCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewForecastCache returns nil when rdb is nil so callers can treat a
// missing cache the same as a miss.
func NewForecastCache(rdb *redis.Client, ttl time.Duration) *ForecastCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ForecastCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached series, or nil with no error on a miss.
func (c *ForecastCache) Get(ctx context.Context) (domain.ForecastSeries, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, ForecastKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var series domain.ForecastSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, err
	}
	return series, nil
}

func (c *ForecastCache) Set(ctx context.Context, series domain.ForecastSeries) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(series)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, ForecastKey, raw, c.ttl).Err()
}

func (c *ForecastCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, ForecastKey).Err()
}
