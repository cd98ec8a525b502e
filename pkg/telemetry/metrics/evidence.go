package metrics

import (
	"time"

	"relay-hq/gemini/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Evidence write results.
const (
	EvidenceStored  = "stored"
	EvidenceFailed  = "failed"
	EvidenceDropped = "dropped"
)

// EvidenceMetrics tracks the audit trail writer.
//
// Metrics:
//   - gemini_relay_evidence_records_total: records by write result
//   - gemini_relay_evidence_write_duration_seconds: storage write latency
//   - gemini_relay_evidence_pruned_total: records removed by retention
type EvidenceMetrics struct {
	recordsTotal  *prometheus.CounterVec
	writeDuration prometheus.Histogram
	prunedTotal   prometheus.Counter
}

// NewEvidenceMetrics creates and registers evidence metrics with the provided registry.
func NewEvidenceMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *EvidenceMetrics {
	em := &EvidenceMetrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_records_total",
				Help:      "Total number of evidence records by write result",
			},
			[]string{"result"},
		),

		writeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_write_duration_seconds",
				Help:      "Duration of evidence storage writes in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8), // 0.5ms to 8s
			},
		),

		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_pruned_total",
				Help:      "Total number of evidence records removed by retention",
			},
		),
	}

	registry.MustRegister(
		em.recordsTotal,
		em.writeDuration,
		em.prunedTotal,
	)

	return em
}

// RecordWrite records the result of one evidence write. Duration is
// observed for attempted writes only.
func (em *EvidenceMetrics) RecordWrite(result string, duration time.Duration) {
	em.recordsTotal.WithLabelValues(result).Inc()
	if result != EvidenceDropped {
		em.writeDuration.Observe(duration.Seconds())
	}
}

// RecordPruned records records removed by one pruning run.
func (em *EvidenceMetrics) RecordPruned(count int64) {
	em.prunedTotal.Add(float64(count))
}
