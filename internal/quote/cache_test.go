package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-ledger-go/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type fakeCache struct {
	values  map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	if c.getErr != nil {
		return redis.NewStringResult("", c.getErr)
	}
	v, ok := c.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if c.setErr != nil {
		return redis.NewStatusResult("", c.setErr)
	}
	c.values[key] = string(value.([]byte))
	c.lastTTL = expiration
	return redis.NewStatusResult("OK", nil)
}

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Lookup(_ context.Context, symbol string) (*models.Quote, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &models.Quote{Symbol: symbol, Name: symbol + " Corp", Price: decimal.RequireFromString("42.10")}, nil
}

func TestCachedProvider_ReadThrough(t *testing.T) {
	upstream := &countingProvider{}
	cache := newFakeCache()
	provider := NewCachedProvider(upstream, cache, 0)

	for i := 0; i < 3; i++ {
		q, err := provider.Lookup(context.Background(), "IBM")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if !q.Price.Equal(decimal.RequireFromString("42.10")) {
			t.Errorf("Expected price 42.10, got %s", q.Price.String())
		}
	}

	if upstream.calls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", upstream.calls)
	}
	if cache.lastTTL != defaultCacheTTL {
		t.Errorf("Expected TTL %v, got %v", defaultCacheTTL, cache.lastTTL)
	}
}

func TestCachedProvider_CacheDown(t *testing.T) {
	upstream := &countingProvider{}
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	provider := NewCachedProvider(upstream, cache, time.Minute)

	if _, err := provider.Lookup(context.Background(), "IBM"); err != nil {
		t.Fatalf("Lookup should fall through to upstream, got %v", err)
	}
	if upstream.calls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", upstream.calls)
	}
}

func TestCachedProvider_UpstreamFailureNotCached(t *testing.T) {
	upstream := &countingProvider{err: ErrUnavailable}
	cache := newFakeCache()
	provider := NewCachedProvider(upstream, cache, time.Minute)

	_, err := provider.Lookup(context.Background(), "IBM")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
	if len(cache.values) != 0 {
		t.Errorf("Expected nothing cached, got %d entries", len(cache.values))
	}
}
