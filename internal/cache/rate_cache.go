package cache

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"currency-bot/internal/model"
)

type entry struct {
	rate      decimal.Decimal
	fetchedAt time.Time
}

// RateCache keeps fetched rates per ordered pair for a fixed TTL.
// Expired entries are only dropped by ClearExpired, which is expected to run periodically.
type RateCache struct {
	mu    sync.RWMutex
	rates map[model.Pair]entry
	ttl   time.Duration
	now   func() time.Time
}

func NewRateCache(ttl time.Duration) *RateCache {
	return NewRateCacheWithClock(ttl, time.Now)
}

// NewRateCacheWithClock lets callers control time, mostly for tests.
func NewRateCacheWithClock(ttl time.Duration, now func() time.Time) *RateCache {
	return &RateCache{
		rates: make(map[model.Pair]entry),
		ttl:   ttl,
		now:   now,
	}
}

// Get returns the cached rate while it is younger than the TTL.
func (c *RateCache) Get(pair model.Pair) (decimal.Decimal, bool) {
	pair = model.NewPair(pair.From, pair.To)

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.rates[pair]
	if !ok {
		return decimal.Zero, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		return decimal.Zero, false
	}
	return e.rate, true
}

// Set stores rate with the current time.
func (c *RateCache) Set(pair model.Pair, rate decimal.Decimal) {
	pair = model.NewPair(pair.From, pair.To)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.rates[pair] = entry{rate: rate, fetchedAt: c.now()}
}

// ClearExpired drops stale entries and returns how many were removed.
func (c *RateCache) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for pair, e := range c.rates {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.rates, pair)
			removed++
		}
	}
	return removed
}

func (c *RateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rates)
}
