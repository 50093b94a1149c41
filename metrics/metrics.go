// Package metrics exposes Prometheus instrumentation for the tracking API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pagetrail"

// Metrics holds the collectors for ingestion and request handling. Build it
// with New and register it once.
type Metrics struct {
	// EventsIngested counts accepted telemetry by event type.
	EventsIngested *prometheus.CounterVec
	// IngestErrors counts failed telemetry writes by operation.
	IngestErrors *prometheus.CounterVec
	// PageViewDuration observes closed page-view durations in seconds.
	PageViewDuration prometheus.Histogram
	// PageViewScrollDepth observes closed page-view scroll depth in percent.
	PageViewScrollDepth prometheus.Histogram
	// RequestsTotal counts HTTP requests by route and status code.
	RequestsTotal *prometheus.CounterVec
	// RateLimited counts requests rejected by the per-client limiter.
	RateLimited prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		EventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Telemetry records accepted by event type",
		}, []string{"event_type"}),
		IngestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "errors_total",
			Help:      "Telemetry writes that failed by operation",
		}, []string{"operation"}),
		PageViewDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "page_view",
			Name:      "duration_seconds",
			Help:      "Duration of closed page views",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		PageViewScrollDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "page_view",
			Name:      "scroll_depth_percent",
			Help:      "Maximum scroll depth of closed page views",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.EventsIngested,
		m.IngestErrors,
		m.PageViewDuration,
		m.PageViewScrollDepth,
		m.RequestsTotal,
		m.RateLimited,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObservePageView(durationSeconds, scrollDepth int) {
	m.PageViewDuration.Observe(float64(durationSeconds))
	m.PageViewScrollDepth.Observe(float64(scrollDepth))
}
