package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the lookup pipeline.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	Lookups              *prometheus.CounterVec
	LookupDuration       *prometheus.HistogramVec
	FetchAttempts        *prometheus.CounterVec
	StrategyFallbacks    *prometheus.CounterVec
	Normalizations       *prometheus.CounterVec
	DirectoryCache       *prometheus.CounterVec
	DirectoryFetchErrors prometheus.Counter
}

// New creates and registers all lookup metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainlens_lookups_total",
			Help: "Total number of lookups by operation and outcome",
		}, []string{"operation", "outcome"}),
		LookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domainlens_lookup_duration_seconds",
			Help:    "End-to-end lookup latency including retries and fallbacks",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		FetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainlens_fetch_attempts_total",
			Help: "Fetch attempts per strategy and result category",
		}, []string{"strategy", "result"}),
		StrategyFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainlens_strategy_fallbacks_total",
			Help: "Times a strategy failed terminally and the next one was tried",
		}, []string{"from"}),
		Normalizations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainlens_normalizations_total",
			Help: "Normalizations by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		DirectoryCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainlens_directory_cache_total",
			Help: "Directory cache lookups by result",
		}, []string{"result"}),
		DirectoryFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "domainlens_directory_fetch_errors_total",
			Help: "Failed bootstrap directory fetches",
		}),
	}
}

func (m *Metrics) RecordLookup(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(operation, outcome).Inc()
	m.LookupDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) RecordAttempt(strategy, result string) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(strategy, result).Inc()
}

func (m *Metrics) RecordFallback(from string) {
	if m == nil {
		return
	}
	m.StrategyFallbacks.WithLabelValues(from).Inc()
}

func (m *Metrics) RecordNormalization(strategy, outcome string) {
	if m == nil {
		return
	}
	m.Normalizations.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.DirectoryCache.WithLabelValues("hit").Inc()
}

func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.DirectoryCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) IncrementDirectoryFetchErrors() {
	if m == nil {
		return
	}
	m.DirectoryFetchErrors.Inc()
}
