package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stock-ledger-go/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// Cache is the subset of *redis.Client the quote cache needs.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedProvider is a read-through cache in front of another Provider.
// Cache errors are logged and fall through to the upstream provider.
type CachedProvider struct {
	upstream Provider
	cache    Cache
	ttl      time.Duration
}

func NewCachedProvider(upstream Provider, cache Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedProvider{upstream: upstream, cache: cache, ttl: ttl}
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("quote:%s", symbol)
}

func (p *CachedProvider) Lookup(ctx context.Context, symbol string) (*models.Quote, error) {
	key := cacheKey(symbol)

	cached, err := p.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		var q models.Quote
		jsonErr := json.Unmarshal([]byte(cached), &q)
		if jsonErr == nil {
			zap.L().Debug("Quote cache hit", zap.String("symbol", symbol))
			return &q, nil
		}
		zap.L().Warn("Discarding malformed cached quote", zap.String("symbol", symbol), zap.Error(jsonErr))
	case errors.Is(err, redis.Nil):
		// miss
	default:
		zap.L().Warn("Quote cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}

	q, err := p.upstream.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(q)
	if err != nil {
		zap.L().Warn("Failed to encode quote for cache", zap.String("symbol", symbol), zap.Error(err))
		return q, nil
	}
	if err := p.cache.Set(ctx, key, data, p.ttl).Err(); err != nil {
		zap.L().Warn("Quote cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return q, nil
}
