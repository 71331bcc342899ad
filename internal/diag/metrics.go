package diag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters for extraction and nesting. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	PiecesExtracted    *prometheus.CounterVec
	ExtractionFailures *prometheus.CounterVec
	PatternsCreated    *prometheus.CounterVec
	PiecesRejected     *prometheus.CounterVec
	WasteMillimeters   *prometheus.CounterVec
	NestingDuration    *prometheus.HistogramVec
}

// NewMetrics creates the counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PiecesExtracted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcut_pieces_extracted_total",
				Help: "Total number of pieces extracted from geometry",
			},
			[]string{"method"},
		),
		ExtractionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcut_extraction_failures_total",
				Help: "Total number of elements that produced no piece",
			},
			[]string{"kind"},
		),
		PatternsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcut_cutting_patterns_total",
				Help: "Total number of stock bars consumed",
			},
			[]string{"profile"},
		),
		PiecesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcut_pieces_rejected_total",
				Help: "Total number of pieces that could not be nested",
			},
			[]string{"profile"},
		),
		WasteMillimeters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcut_waste_millimeters_total",
				Help: "Total offcut length left on consumed bars",
			},
			[]string{"profile"},
		),
		NestingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "barcut_nesting_duration_seconds",
				Help:    "Time taken to nest one profile group",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"algorithm"},
		),
	}
}

// RecordExtracted counts a piece produced by the given method.
func (m *Metrics) RecordExtracted(method string) {
	if m == nil {
		return
	}
	m.PiecesExtracted.WithLabelValues(method).Inc()
}

// RecordExtractionFailure counts an element that yielded no piece.
func (m *Metrics) RecordExtractionFailure(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.ExtractionFailures.WithLabelValues(kind).Inc()
}

// RecordNesting records the outcome of nesting one profile group.
func (m *Metrics) RecordNesting(profile, algorithm string, patterns, rejected int, waste, seconds float64) {
	if m == nil {
		return
	}
	m.PatternsCreated.WithLabelValues(profile).Add(float64(patterns))
	m.PiecesRejected.WithLabelValues(profile).Add(float64(rejected))
	if waste > 0 {
		m.WasteMillimeters.WithLabelValues(profile).Add(waste)
	}
	m.NestingDuration.WithLabelValues(algorithm).Observe(seconds)
}

// WriteTextfile writes everything gathered by g to path in the node-exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
