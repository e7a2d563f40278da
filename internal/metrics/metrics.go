package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Metrics struct {
	UpdatesTotal      *prometheus.CounterVec
	UpdateErrorsTotal prometheus.Counter

	RateRequestsTotal prometheus.Counter
	RateNotFoundTotal prometheus.Counter
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter
	CacheEntries      prometheus.Gauge

	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	SettingsWritesTotal *prometheus.CounterVec
}

// New registers collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_updates_total",
				Help: "Total number of Telegram updates handled",
			},
			[]string{"kind"},
		),

		UpdateErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_update_errors_total",
				Help: "Updates that ended with an unhandled error or panic",
			},
		),

		RateRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_requests_total",
				Help: "Total number of exchange rate lookups",
			},
		),

		RateNotFoundTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_not_found_total",
				Help: "Lookups where every provider failed",
			},
		),

		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_cache_hits_total",
				Help: "Rate lookups served from cache",
			},
		),

		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_cache_misses_total",
				Help: "Rate lookups that required a provider call",
			},
		),

		CacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rate_cache_entries",
				Help: "Number of pairs currently held in the rate cache",
			},
		),

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_requests_total",
				Help: "Requests to external rate providers",
			},
			[]string{"provider", "outcome"},
		),

		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_request_duration_seconds",
				Help:    "External rate provider latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		SettingsWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settings_writes_total",
				Help: "User settings mutations by key",
			},
			[]string{"key"},
		),
	}
}
