package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initRecallMetrics initializes recall pipeline metrics.
func (m *Manager) initRecallMetrics(cfg Config) {
	m.recallPathHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lira_recall_path_hits_total",
			Help: "Total number of memories returned by each recall path",
		},
		[]string{"path"},
	)

	m.recallPathErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lira_recall_path_errors_total",
			Help: "Total number of failed recall path executions",
		},
		[]string{"path"},
	)

	m.recallResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lira_recall_results",
			Help:    "Number of memories returned per recall after merging",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		},
	)

	m.recallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lira_recall_duration_seconds",
			Help:    "Recall pipeline duration in seconds",
			Buckets: cfg.RecallDurationBuckets,
		},
	)

	m.registry.MustRegister(m.recallPathHits)
	m.registry.MustRegister(m.recallPathErrors)
	m.registry.MustRegister(m.recallResults)
	m.registry.MustRegister(m.recallDuration)
}

// initStoreMetrics initializes long-term store metrics.
func (m *Manager) initStoreMetrics() {
	m.gateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lira_gate_decisions_total",
			Help: "Total number of persistence gate decisions",
		},
		[]string{"decision"},
	)

	m.storeWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lira_store_writes_total",
			Help: "Total number of long-term store writes",
		},
		[]string{"store", "status"},
	)

	m.registry.MustRegister(m.gateDecisions)
	m.registry.MustRegister(m.storeWrites)
}

// RecordPathHits records how many memories a recall path produced.
func (m *Manager) RecordPathHits(path string, hits int) {
	if !m.enabled {
		return
	}
	m.recallPathHits.WithLabelValues(path).Add(float64(hits))
}

// RecordPathError records a failed recall path.
func (m *Manager) RecordPathError(path string) {
	if !m.enabled {
		return
	}
	m.recallPathErrors.WithLabelValues(path).Inc()
}

// RecordResults records the merged recall size.
func (m *Manager) RecordResults(n int) {
	if !m.enabled {
		return
	}
	m.recallResults.Observe(float64(n))
}

// RecordDuration records the duration of one recall.
func (m *Manager) RecordDuration(d time.Duration) {
	if !m.enabled {
		return
	}
	m.recallDuration.Observe(d.Seconds())
}

// RecordGateDecision records whether a turn was persisted.
func (m *Manager) RecordGateDecision(persist bool) {
	if !m.enabled {
		return
	}
	m.gateDecisions.WithLabelValues(strconv.FormatBool(persist)).Inc()
}

// RecordStoreWrite records a write to a long-term store.
func (m *Manager) RecordStoreWrite(store, status string) {
	if !m.enabled {
		return
	}
	m.storeWrites.WithLabelValues(store, status).Inc()
}
