// Package metrics exposes run counters in Prometheus form. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quickgen"

// Modes label which pass processed a file.
const (
	ModeDocs      = "docs"
	ModeKnowledge = "knowledge"
)

// Metrics owns a private registry so runs never leak into the global one.
type Metrics struct {
	registry   *prometheus.Registry
	files      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	components prometheus.Counter
	symbols    prometheus.Counter
	calls      prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Files processed, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent on a single file.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"mode"}),
		components: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_total",
			Help:      "Components documented.",
		}),
		symbols: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_total",
			Help:      "Symbols recorded in the knowledge base.",
		}),
		calls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Call sites recorded in the knowledge base.",
		}),
	}
	m.registry.MustRegister(m.files, m.duration, m.components, m.symbols, m.calls)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// FileProcessed records one file's outcome ("updated", "skipped", "errored",
// "extracted").
func (m *Metrics) FileProcessed(mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(mode, outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(d.Seconds())
}

// ComponentsDocumented adds n documented components.
func (m *Metrics) ComponentsDocumented(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.components.Add(float64(n))
}

// KnowledgeRecorded adds symbol and call counts from one file.
func (m *Metrics) KnowledgeRecorded(symbols, calls int) {
	if m == nil {
		return
	}
	m.symbols.Add(float64(symbols))
	m.calls.Add(float64(calls))
}

// WriteTextfile writes the registry in text exposition format, for the node
// exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
