package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// flood-exposure analysis pipeline.
type Metrics struct {
	AnalysesStarted  prometheus.Counter
	AnalysesFailed   prometheus.Counter
	AnalysesRunning  prometheus.Gauge
	AnalysisDuration prometheus.Histogram

	FeaturesTagged *prometheus.CounterVec // labels: kind={building,road,parcel}
	FeatureCount   *prometheus.HistogramVec

	// Upstream fetch metrics.
	RasterFetches    *prometheus.CounterVec   // labels: tier, outcome={success,error}
	FetchDuration    *prometheus.HistogramVec // labels: source={overpass,wms,wfs}
	EndpointFailover *prometheus.CounterVec   // labels: endpoint, reason={timeout,rate-limited,network}

	// Partial-success accounting.
	SectionsUnavailable *prometheus.CounterVec // labels: section={transportation,landcover,population}
	CommunesSkipped     prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AnalysesStarted,
		m.AnalysesFailed,
		m.AnalysesRunning,
		m.AnalysisDuration,
		m.FeaturesTagged,
		m.FeatureCount,
		m.RasterFetches,
		m.FetchDuration,
		m.EndpointFailover,
		m.SectionsUnavailable,
		m.CommunesSkipped,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so parallel
// tests do not trip "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AnalysesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_exposure",
			Name:      "analyses_started_total",
			Help:      "Total analysis runs started.",
		}),
		AnalysesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_exposure",
			Name:      "analyses_failed_total",
			Help:      "Total analysis runs that aborted on the mandatory path.",
		}),
		AnalysesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_exposure",
			Name:      "analyses_running",
			Help:      "Number of analysis runs currently in flight.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_exposure",
			Name:      "analysis_duration_seconds",
			Help:      "Wall-clock duration of a complete analysis run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		FeaturesTagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_exposure",
			Name:      "features_tagged_total",
			Help:      "Features classified against the hazard raster, by kind.",
		}, []string{"kind"}),
		FeatureCount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flood_exposure",
			Name:      "feature_count",
			Help:      "Features per tagging pass, by kind.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"kind"}),
		RasterFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_exposure",
			Name:      "raster_fetches_total",
			Help:      "Hazard raster loads by tier and outcome.",
		}, []string{"tier", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flood_exposure",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream request duration by source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		EndpointFailover: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_exposure",
			Name:      "endpoint_failover_total",
			Help:      "Retries and endpoint advances in the vector-source fallback chain.",
		}, []string{"endpoint", "reason"}),
		SectionsUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_exposure",
			Name:      "sections_unavailable_total",
			Help:      "Optional enrichment sections degraded to unavailable.",
		}, []string{"section"}),
		CommunesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_exposure",
			Name:      "communes_skipped_total",
			Help:      "Communes skipped during apportionment due to geometry errors.",
		}),
	}
}
