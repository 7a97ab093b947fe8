package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteComputeTotal counts quote computations by mode and outcome.
	QuoteComputeTotal *prometheus.CounterVec
	// RecommendNoSolutionTotal counts searches that ended with an empty cart.
	RecommendNoSolutionTotal prometheus.Counter
	// RecommendDuration records search latency in milliseconds.
	RecommendDuration prometheus.Histogram
	// CatalogReloadTotal counts catalog snapshot loads by source and outcome.
	CatalogReloadTotal *prometheus.CounterVec
	// CatalogWarnings tracks the data-quality warning count of the current snapshot.
	CatalogWarnings prometheus.Gauge
	// PriceFeedFallbackTotal counts quotes answered from catalog prices
	// because the remote feed was unavailable.
	PriceFeedFallbackTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers the domain collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteComputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_compute_total",
			Help:      "Count of quote computations by mode and result.",
		}, []string{"mode", "result"})
		RecommendNoSolutionTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_no_solution_total",
			Help:      "Number of recommendation searches that returned no valid combination.",
		})
		RecommendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_ms",
			Help:      "Recommendation search latency in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50},
		})
		CatalogReloadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reload_total",
			Help:      "Count of catalog snapshot loads by source and result.",
		}, []string{"source", "result"})
		CatalogWarnings = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_warnings",
			Help:      "Data-quality warnings attached to the active catalog snapshot.",
		})
		PriceFeedFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_feed_fallback_total",
			Help:      "Quotes priced from the static catalog because the feed was down.",
		})

		mustRegisterCollector(reg, QuoteComputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteComputeTotal = v
			}
		})
		mustRegisterCollector(reg, RecommendNoSolutionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RecommendNoSolutionTotal = v
			}
		})
		mustRegisterCollector(reg, RecommendDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				RecommendDuration = v
			}
		})
		mustRegisterCollector(reg, CatalogReloadTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogReloadTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogWarnings, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				CatalogWarnings = v
			}
		})
		mustRegisterCollector(reg, PriceFeedFallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PriceFeedFallbackTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
