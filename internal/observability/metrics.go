// Package observability records data-quality and fetch metrics.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry            *prometheus.Registry
	cycleWarnings       prometheus.Counter
	contributionAnomaly prometheus.Counter
	truncations         *prometheus.CounterVec
	fetchDuration       *prometheus.HistogramVec
	fetchErrors         *prometheus.CounterVec
	allocations         *prometheus.CounterVec
}

// NewMetrics registers the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycleWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "h2prov_graph_cycle_warnings_total",
			Help: "Total provenance cycles detected at ingestion.",
		}),
		contributionAnomaly: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "h2prov_contribution_warnings_total",
			Help: "Total batches whose predecessor contributions exceed their own amount.",
		}),
		truncations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "h2prov_traversal_truncations_total",
			Help: "Total graph traversals stopped by a depth or node bound.",
		}, []string{"op"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "h2prov_fetch_duration_seconds",
			Help:    "Histogram of data-source read durations by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "h2prov_fetch_errors_total",
			Help: "Total failed data-source reads by operation.",
		}, []string{"op"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "h2prov_allocations_total",
			Help: "Total bottling allocations by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.cycleWarnings,
		m.contributionAnomaly,
		m.truncations,
		m.fetchDuration,
		m.fetchErrors,
		m.allocations,
	)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) CycleWarnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cycleWarnings.Add(float64(n))
}

func (m *Metrics) ContributionWarnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.contributionAnomaly.Add(float64(n))
}

// TraversalTruncated implements provgraph.Observer.
func (m *Metrics) TraversalTruncated(op string) {
	if m == nil {
		return
	}
	m.truncations.WithLabelValues(op).Inc()
}

// FetchObserved records one data-source read.
func (m *Metrics) FetchObserved(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		m.fetchErrors.WithLabelValues(op).Inc()
	}
}

// Allocation records the outcome of a bottling request.
func (m *Metrics) Allocation(outcome string) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes the registry in the text exposition format, for
// collection by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
