package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pantry"

// Metrics holds the collectors recorded by the reconciliation engine, the
// scorer and the shelf-life estimator.
type Metrics struct {
	Adjustments     *prometheus.CounterVec
	LineOutcomes    *prometheus.CounterVec
	Estimates       *prometheus.CounterVec
	LockWait        prometheus.Histogram
	RankDuration    prometheus.Histogram
	TasksGenerated  *prometheus.CounterVec
	ConflictRetries prometheus.Counter
}

// New creates the collectors and registers them on reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjustments_total",
			Help:      "Committed quantity adjustments by ledger action.",
		}, []string{"action"}),
		LineOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_lines_total",
			Help:      "Batch line outcomes by operation and status.",
		}, []string{"operation", "status"}),
		Estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shelf_life_estimates_total",
			Help:      "Shelf life estimates by source (rule, collaborator, default).",
		}, []string{"source"}),
		LockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_lock_wait_seconds",
			Help:      "Time spent waiting for the per-item lock.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		RankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_duration_seconds",
			Help:      "Priority ranking latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		TasksGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_tasks_generated_total",
			Help:      "Shopping tasks created by automated generators.",
		}, []string{"source"}),
		ConflictRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjust_conflict_retries_total",
			Help:      "Adjustments retried after a concurrent version change.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Adjustments,
			m.LineOutcomes,
			m.Estimates,
			m.LockWait,
			m.RankDuration,
			m.TasksGenerated,
			m.ConflictRetries,
		)
	}
	return m
}

// NewNop returns unregistered collectors.
func NewNop() *Metrics {
	return New(nil)
}
