package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// survey aggregation pipeline.
type Metrics struct {
	WorkbooksProcessed  prometheus.Counter
	WorkbooksFailed     prometheus.Counter
	DetailRowsPublished prometheus.Counter
	RunActive           prometheus.Gauge

	SiteWarnings *prometheus.CounterVec // label: kind
	RunDuration  prometheus.Histogram
	SiteDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		WorkbooksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tmc_etl",
			Name:      "workbooks_processed_total",
			Help:      "Total survey workbooks aggregated successfully.",
		}),
		WorkbooksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tmc_etl",
			Name:      "workbooks_failed_total",
			Help:      "Total survey workbooks that aborted processing.",
		}),
		DetailRowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tmc_etl",
			Name:      "detail_rows_published_total",
			Help:      "Total detail rows published to the Kafka sink.",
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tmc_etl",
			Name:      "run_active",
			Help:      "1 while an aggregation run is in flight, 0 otherwise.",
		}),
		SiteWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tmc_etl",
			Name:      "site_warnings_total",
			Help:      "Recoverable conditions recorded per site by kind.",
		}, []string{"kind"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tmc_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete discover-aggregate-report run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SiteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tmc_etl",
			Name:      "site_duration_seconds",
			Help:      "Duration of a single workbook read-and-aggregate.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tmc_etl",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tmc_etl",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tmc_etl",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tmc_etl",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.WorkbooksProcessed,
		m.WorkbooksFailed,
		m.DetailRowsPublished,
		m.RunActive,
		m.SiteWarnings,
		m.RunDuration,
		m.SiteDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with nothing registered, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		WorkbooksProcessed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tmc_etl", Name: "workbooks_processed_total"}),
		WorkbooksFailed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tmc_etl", Name: "workbooks_failed_total"}),
		DetailRowsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tmc_etl", Name: "detail_rows_published_total"}),
		RunActive:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "tmc_etl", Name: "run_active"}),
		SiteWarnings:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "tmc_etl", Name: "site_warnings_total"}, []string{"kind"}),
		RunDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "tmc_etl", Name: "run_duration_seconds"}),
		SiteDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "tmc_etl", Name: "site_duration_seconds"}),
		GeocodeRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "tmc_etl", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "tmc_etl", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "tmc_etl", Name: "geocode_api_duration_seconds"}),
		GeocodeEnabled:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "tmc_etl", Name: "geocode_enabled"}),
	}
}
