package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Visit outcomes recorded by the orchestrator.
const (
	OutcomeSuccess    = "success"
	OutcomeEmpty      = "empty"
	OutcomeTimeout    = "timeout"
	OutcomeNavigation = "navigation"
	OutcomeError      = "error"
)

// Metrics is a per-process registry of scrape counters. It is written to a
// node-exporter textfile rather than served.
type Metrics struct {
	registry      *prometheus.Registry
	visits        *prometheus.CounterVec
	fieldOrigins  *prometheus.CounterVec
	visitDuration prometheus.Histogram
	catalogItems  prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		visits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uiverse_visits_total",
				Help: "Component page visits by outcome.",
			},
			[]string{"outcome"},
		),
		fieldOrigins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uiverse_field_origin_total",
				Help: "Which extraction strategy supplied each persisted field.",
			},
			[]string{"field", "origin"},
		),
		visitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "uiverse_visit_duration_seconds",
				Help:    "Wall time of one component page visit.",
				Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
			},
		),
		catalogItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "uiverse_catalog_items",
				Help: "Successful items in the last written catalog.",
			},
		),
	}
	m.registry.MustRegister(m.visits, m.fieldOrigins, m.visitDuration, m.catalogItems)
	return m
}

func (m *Metrics) ObserveVisit(outcome string, d time.Duration) {
	m.visits.WithLabelValues(outcome).Inc()
	m.visitDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveOrigin(field, origin string) {
	if origin == "" {
		return
	}
	m.fieldOrigins.WithLabelValues(field, origin).Inc()
}

func (m *Metrics) SetCatalogItems(n int) {
	m.catalogItems.Set(float64(n))
}

// Registry exposes the underlying registry for tests and gatherers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the registry in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
