package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"currency-bot/internal/cache"
	"currency-bot/internal/metrics"
	"currency-bot/internal/model"
)

// Fetcher resolves a rate from the cache or the first provider that answers.
type Fetcher struct {
	providers []Provider
	cache     *cache.RateCache
	timeout   time.Duration
	metrics   *metrics.Metrics
	log       *logrus.Logger
}

func NewFetcher(providers []Provider, rateCache *cache.RateCache, timeout time.Duration, m *metrics.Metrics, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		providers: providers,
		cache:     rateCache,
		timeout:   timeout,
		metrics:   m,
		log:       log,
	}
}

// GetRate returns how many units of to one unit of from buys.
// Provider failures are logged and suppressed; if all fail the error wraps ErrRateNotFound.
func (f *Fetcher) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	pair := model.NewPair(from, to)
	if pair.IsIdentity() {
		return decimal.NewFromInt(1), nil
	}

	f.metrics.RateRequestsTotal.Inc()

	if rate, ok := f.cache.Get(pair); ok {
		f.metrics.CacheHitsTotal.Inc()
		f.log.WithField("pair", pair.String()).Debug("rate cache hit")
		return rate, nil
	}
	f.metrics.CacheMissesTotal.Inc()

	for _, p := range f.providers {
		rate, err := f.fetch(ctx, p, pair)
		if err == nil {
			f.cache.Set(pair, rate)
			f.metrics.CacheEntries.Set(float64(f.cache.Len()))
			f.log.WithFields(logrus.Fields{
				"pair":     pair.String(),
				"provider": p.Name(),
				"rate":     rate.String(),
			}).Info("rate fetched")
			return rate, nil
		}

		f.log.WithError(err).WithField("pair", pair.String()).Warn("provider failed, trying next")
		if ctx.Err() != nil {
			break
		}
	}

	f.metrics.RateNotFoundTotal.Inc()
	return decimal.Zero, fmt.Errorf("%w: %s", ErrRateNotFound, pair)
}

// ClearExpired sweeps the cache and refreshes the size gauge.
func (f *Fetcher) ClearExpired() int {
	removed := f.cache.ClearExpired()
	f.metrics.CacheEntries.Set(float64(f.cache.Len()))
	if removed > 0 {
		f.log.WithField("count", removed).Info("cleared expired rate cache entries")
	}
	return removed
}

// CacheSize reports how many pairs are cached right now.
func (f *Fetcher) CacheSize() int {
	return f.cache.Len()
}

func (f *Fetcher) fetch(ctx context.Context, p Provider, pair model.Pair) (decimal.Decimal, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	rate, err := p.Rate(callCtx, pair.From, pair.To)
	f.metrics.ProviderRequestDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		f.metrics.ProviderRequestsTotal.WithLabelValues(p.Name(), metrics.OutcomeFailure).Inc()
		var perr *ProviderError
		if errors.As(err, &perr) {
			return decimal.Zero, err
		}
		return decimal.Zero, &ProviderError{Provider: p.Name(), Err: err}
	}

	f.metrics.ProviderRequestsTotal.WithLabelValues(p.Name(), metrics.OutcomeSuccess).Inc()
	return rate, nil
}
