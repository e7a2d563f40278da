package rates

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"currency-bot/internal/cache"
	"currency-bot/internal/logger"
	"currency-bot/internal/metrics"
)

type MockProvider struct {
	NameValue string
	RateFunc  func(ctx context.Context, from, to string) (decimal.Decimal, error)

	mu    sync.Mutex
	calls int
}

func (m *MockProvider) Name() string {
	return m.NameValue
}

func (m *MockProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.RateFunc(ctx, from, to)
}

func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func okProvider(name, rate string) *MockProvider {
	return &MockProvider{
		NameValue: name,
		RateFunc: func(context.Context, string, string) (decimal.Decimal, error) {
			return decimal.RequireFromString(rate), nil
		},
	}
}

func failingProvider(name string) *MockProvider {
	return &MockProvider{
		NameValue: name,
		RateFunc: func(context.Context, string, string) (decimal.Decimal, error) {
			return decimal.Zero, errors.New("connection refused")
		},
	}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newFetcher(providers ...Provider) (*Fetcher, *clock) {
	clk := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	rateCache := cache.NewRateCacheWithClock(300*time.Second, clk.Now)
	m := metrics.New(prometheus.NewRegistry())
	return NewFetcher(providers, rateCache, time.Second, m, logger.Discard()), clk
}

func TestFetcher_IdentityPairSkipsProviders(t *testing.T) {
	p := okProvider("p1", "42")
	f, _ := newFetcher(p)

	for _, pair := range [][2]string{{"USD", "USD"}, {"usd", "USD"}, {" btc", "BTC "}} {
		rate, err := f.GetRate(context.Background(), pair[0], pair[1])
		if err != nil {
			t.Fatalf("GetRate(%q, %q): %v", pair[0], pair[1], err)
		}
		if !rate.Equal(decimal.NewFromInt(1)) {
			t.Errorf("GetRate(%q, %q) = %s, want 1", pair[0], pair[1], rate)
		}
	}
	if p.Calls() != 0 {
		t.Errorf("provider called %d times, want 0", p.Calls())
	}
}

func TestFetcher_CacheHitThenExpiry(t *testing.T) {
	p := okProvider("p1", "92.15")
	f, clk := newFetcher(p)
	ctx := context.Background()

	if _, err := f.GetRate(ctx, "usd", "rub"); err != nil {
		t.Fatalf("first GetRate: %v", err)
	}
	clk.Advance(299 * time.Second)
	rate, err := f.GetRate(ctx, "USD", "RUB")
	if err != nil {
		t.Fatalf("cached GetRate: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("92.15")) {
		t.Errorf("cached rate = %s, want 92.15", rate)
	}
	if p.Calls() != 1 {
		t.Fatalf("provider calls = %d, want 1 (second call served from cache)", p.Calls())
	}

	clk.Advance(2 * time.Second)
	if _, err := f.GetRate(ctx, "USD", "RUB"); err != nil {
		t.Fatalf("expired GetRate: %v", err)
	}
	if p.Calls() != 2 {
		t.Errorf("provider calls = %d, want 2 after TTL", p.Calls())
	}
}

func TestFetcher_FallbackStopsAtFirstSuccess(t *testing.T) {
	p1 := failingProvider("p1")
	p2 := okProvider("p2", "0.91")
	p3 := okProvider("p3", "0.5")
	f, _ := newFetcher(p1, p2, p3)

	rate, err := f.GetRate(context.Background(), "USD", "EUR")
	if err != nil {
		t.Fatalf("GetRate: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.91")) {
		t.Errorf("rate = %s, want provider 2 value 0.91", rate)
	}
	if p1.Calls() != 1 || p2.Calls() != 1 {
		t.Errorf("calls p1=%d p2=%d, want 1 and 1", p1.Calls(), p2.Calls())
	}
	if p3.Calls() != 0 {
		t.Errorf("provider 3 called %d times, want 0", p3.Calls())
	}
}

func TestFetcher_AllProvidersFail(t *testing.T) {
	p1 := failingProvider("p1")
	p2 := failingProvider("p2")
	f, _ := newFetcher(p1, p2)

	_, err := f.GetRate(context.Background(), "XXX", "RUB")
	if !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("error = %v, want ErrRateNotFound", err)
	}
	if p1.Calls() != 1 || p2.Calls() != 1 {
		t.Errorf("calls p1=%d p2=%d, want each tried once", p1.Calls(), p2.Calls())
	}
	if f.CacheSize() != 0 {
		t.Errorf("failed lookup must not be cached, size = %d", f.CacheSize())
	}
}

func TestFetcher_AppliesPerCallTimeout(t *testing.T) {
	slow := &MockProvider{
		NameValue: "slow",
		RateFunc: func(ctx context.Context, _, _ string) (decimal.Decimal, error) {
			<-ctx.Done()
			return decimal.Zero, ctx.Err()
		},
	}
	fast := okProvider("fast", "3")
	f, _ := newFetcher(slow, fast)
	f.timeout = 20 * time.Millisecond

	rate, err := f.GetRate(context.Background(), "AAA", "BBB")
	if err != nil {
		t.Fatalf("GetRate: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(3)) {
		t.Errorf("rate = %s, want 3 from the fallback provider", rate)
	}
}

func TestFetcher_ClearExpired(t *testing.T) {
	f, clk := newFetcher(okProvider("p1", "2"))
	ctx := context.Background()
	if _, err := f.GetRate(ctx, "USD", "EUR"); err != nil {
		t.Fatalf("GetRate: %v", err)
	}
	clk.Advance(301 * time.Second)
	if removed := f.ClearExpired(); removed != 1 {
		t.Errorf("ClearExpired() = %d, want 1", removed)
	}
	if f.CacheSize() != 0 {
		t.Errorf("CacheSize() = %d, want 0", f.CacheSize())
	}
}
