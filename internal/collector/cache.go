package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/model"
)

const defaultCandleTTL = time.Minute

// CachingSource caches candle series in Redis in front of another Source.
// Cache failures fall through to the wrapped source.
type CachingSource struct {
	Source
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	logger    zerolog.Logger
}

func NewCachingSource(src Source, rdb *redis.Client, ttl time.Duration, namespace string) *CachingSource {
	if ttl <= 0 {
		ttl = defaultCandleTTL
	}
	if namespace == "" {
		namespace = "market"
	}
	return &CachingSource{
		Source:    src,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		logger:    log.With().Str("component", "candle_cache").Logger(),
	}
}

func (c *CachingSource) Name() string { return c.Source.Name() + "+redis" }

func (c *CachingSource) candleKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("%s:candles:%s:%s:%d", c.namespace, symbol, interval, limit)
}

func (c *CachingSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	key := c.candleKey(symbol, interval, limit)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var candles []model.Candle
		if jsonErr := json.Unmarshal([]byte(cached), &candles); jsonErr == nil {
			return candles, nil
		}
		c.logger.Warn().Str("key", key).Msg("corrupted cache entry")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("key", key).Msg("candle cache read failed")
	}

	candles, err := c.Source.Candles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(candles)
	if err != nil {
		return candles, nil
	}
	if err := c.rdb.Set(ctx, key, string(data), c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("candle cache write failed")
	}
	return candles, nil
}
