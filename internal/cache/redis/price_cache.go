package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skewmarket/skewd/internal/domain"
)

// defaultPriceTTL bounds how long a mirrored price outlives the feed that
// wrote it. Readers in other processes must never act on hours-old quotes.
const defaultPriceTTL = 5 * time.Minute

// PriceCache implements domain.PriceCache using Redis hashes. Each feed key's
// latest price lives at "skewd:price:{key}" with fields "price" and "ts"
// (Unix nanoseconds), expiring after the TTL.
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ domain.PriceCache = (*PriceCache)(nil)

// NewPriceCache creates a PriceCache backed by the given Client. A zero ttl
// uses the default.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = defaultPriceTTL
	}
	return &PriceCache{rdb: c.rdb, ttl: ttl}
}

func priceKey(key string) string {
	return "skewd:price:" + key
}

// SetPrice stores the latest price and timestamp for a feed key.
func (pc *PriceCache) SetPrice(ctx context.Context, key string, price float64, ts time.Time) error {
	k := priceKey(key)
	pipe := pc.rdb.Pipeline()
	pipe.HSet(ctx, k, map[string]interface{}{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	})
	pipe.Expire(ctx, k, pc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set price %s: %w", key, err)
	}
	return nil
}

// GetPrices retrieves the latest prices for multiple feed keys using a
// pipeline. Keys that are missing or expired are omitted from the result.
func (pc *PriceCache) GetPrices(ctx context.Context, keys []string) (map[string]float64, error) {
	if len(keys) == 0 {
		return map[string]float64{}, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(keys))
	for _, key := range keys {
		cmds[key] = pipe.HGetAll(ctx, priceKey(key))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get prices pipeline: %w", err)
	}

	result := make(map[string]float64, len(keys))
	for key, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(vals["price"], 64)
		if err != nil {
			continue
		}
		result[key] = price
	}
	return result, nil
}
