// Package metrics exposes Prometheus instrumentation for a polishing run
// and a small HTTP server to scrape it.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "polisher"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"
)

type Metrics struct {
	// Collector state
	contigsAccumulating prometheus.Gauge
	contigsFlushed      prometheus.Counter
	basesProcessed      prometheus.Counter
	variantsWritten     prometheus.Counter

	// Worker pool
	windowsProcessed     *prometheus.CounterVec
	windowDuration       prometheus.Histogram
	placeholderIntervals prometheus.Counter
}

// New creates a Metrics instance and registers everything with the
// provided registerer. Returns an error if any registration fails.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		contigsAccumulating: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "contigs_accumulating",
			Help:      "Number of contigs with chunks received but not yet flushed",
		}),
		contigsFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "contigs_flushed_total",
			Help:      "Total contigs completed and written to output",
		}),
		basesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bases_processed_total",
			Help:      "Total reference bases covered by received consensus chunks",
		}),
		variantsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "variants_written_total",
			Help:      "Total variants handed to variant writers",
		}),
		windowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "windows_processed_total",
			Help:      "Total windows processed by the worker pool, by status",
		}, []string{"status"}),
		windowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "window_duration_seconds",
			Help:      "Time to compute the consensus for a single window",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		placeholderIntervals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "placeholder_intervals_total",
			Help:      "Total coverage gaps filled with a no-evidence consensus",
		}),
	}

	err := errors.Join(
		reg.Register(m.contigsAccumulating),
		reg.Register(m.contigsFlushed),
		reg.Register(m.basesProcessed),
		reg.Register(m.variantsWritten),
		reg.Register(m.windowsProcessed),
		reg.Register(m.windowDuration),
		reg.Register(m.placeholderIntervals),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordWindow records one completed window: its outcome, duration, and
// how many of its intervals needed a placeholder consensus.
func (m *Metrics) RecordWindow(err error, durationSeconds float64, placeholders int) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.windowsProcessed.WithLabelValues(status).Inc()
	m.windowDuration.Observe(durationSeconds)
	m.placeholderIntervals.Add(float64(placeholders))
}

// RecordChunk records a received consensus chunk.
func (m *Metrics) RecordChunk(bases int, contigsAccumulating int) {
	if m == nil {
		return
	}
	m.basesProcessed.Add(float64(bases))
	m.contigsAccumulating.Set(float64(contigsAccumulating))
}

// RecordFlush records a completed contig.
func (m *Metrics) RecordFlush(variants int, contigsAccumulating int) {
	if m == nil {
		return
	}
	m.contigsFlushed.Inc()
	m.variantsWritten.Add(float64(variants))
	m.contigsAccumulating.Set(float64(contigsAccumulating))
}
