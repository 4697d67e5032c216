// Package metrics holds the prometheus collectors exported on /metrics.
// All methods are no-ops on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cityguide"

type Metrics struct {
	Registry *prometheus.Registry

	cacheRequests  *prometheus.CounterVec
	scrapeRuns     *prometheus.CounterVec
	scrapeRecords  prometheus.Counter
	activeRuns     prometheus.Gauge
	ingestRequests *prometheus.CounterVec
}

// New creates the collectors on a fresh registry. If collectProcessMetrics is
// true the Go and process collectors are registered too.
func New(collectProcessMetrics bool) *Metrics {
	registry := prometheus.NewRegistry()
	if collectProcessMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		Registry: registry,
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Location cache lookups by result",
		}, []string{"result"}),
		scrapeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_runs_total",
			Help:      "Finished scrape runs by terminal status",
		}, []string{"status"}),
		scrapeRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_records_total",
			Help:      "Scraped records upserted into locations",
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scrape_runs_active",
			Help:      "Scrape runs currently being polled",
		}),
		ingestRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_requests_total",
			Help:      "Ingestion webhook requests by result",
		}, []string{"result"}),
	}
	registry.MustRegister(m.cacheRequests, m.scrapeRuns, m.scrapeRecords, m.activeRuns, m.ingestRequests)
	return m
}

func (m *Metrics) Hit(string) {
	if m != nil {
		m.cacheRequests.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) Miss(string) {
	if m != nil {
		m.cacheRequests.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) RunStarted() {
	if m != nil {
		m.activeRuns.Inc()
	}
}

func (m *Metrics) RunFinished(status string, processed int) {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
	m.scrapeRuns.WithLabelValues(status).Inc()
	m.scrapeRecords.Add(float64(processed))
}

func (m *Metrics) Ingest(result string) {
	if m != nil {
		m.ingestRequests.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
