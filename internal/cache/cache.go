// Package cache publishes price aggregates and the station leaderboard to
// Redis and serves the read side of both. Entries here are disposable; their
// absence only costs freshness, never correctness.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akajianguo/evemarket/configs"
	"github.com/akajianguo/evemarket/internal/models"
)

// Leaderboard keys. The lists and the timestamp carry no TTL; each successful
// run overwrites them.
const (
	KeySellTop    = "fp-sell"
	KeyBuyTop     = "fp-buy"
	KeyLastUpdate = "fp-lastupdate"
)

// Cache wraps the Redis client used by both the pipeline and the read API.
// The underlying client is safe for concurrent pipelined writes.
type Cache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg configs.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// aggregateValue renders the fixed-order delimited cache value:
// weighted average | depth price | max | min | volume.
func aggregateValue(r models.AggregateRecord) string {
	return formatFloat(r.WeightedAverage) + "|" +
		formatFloat(r.FivePercent) + "|" +
		formatFloat(r.MaxVal) + "|" +
		formatFloat(r.MinVal) + "|" +
		strconv.FormatInt(r.Volume, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PublishAggregates writes one cache entry per aggregate record, keyed by the
// group key, in a single pipelined round trip. The TTL bounds staleness if a
// later run fails.
func (c *Cache) PublishAggregates(ctx context.Context, records []models.AggregateRecord, ttl time.Duration) error {
	if len(records) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, r := range records {
		pipe.Set(ctx, r.What, aggregateValue(r), ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// PublishStations writes both leaderboard sides and the freshness timestamp
// in one pipelined round trip.
func (c *Cache) PublishStations(ctx context.Context, sell, buy []models.StationActivity, lastUpdate time.Time) error {
	if sell == nil {
		sell = []models.StationActivity{}
	}
	if buy == nil {
		buy = []models.StationActivity{}
	}

	sellJSON, err := json.Marshal(sell)
	if err != nil {
		return err
	}
	buyJSON, err := json.Marshal(buy)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, KeySellTop, sellJSON, 0)
	pipe.Set(ctx, KeyBuyTop, buyJSON, 0)
	pipe.Set(ctx, KeyLastUpdate, lastUpdate.UTC().Format(time.RFC3339), 0)
	_, err = pipe.Exec(ctx)
	return err
}

// GetString returns the value at key, or "" when the key is absent.
func (c *Cache) GetString(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
