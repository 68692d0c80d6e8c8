package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Deletion lifecycle metrics
	DeletionsStarted   prometheus.Counter
	DeletionsUndone    prometheus.Counter
	DeletionsConfirmed *prometheus.CounterVec
	DeletionFailures   prometheus.Counter
	ActiveSessions     prometheus.Gauge

	// Reconciliation metrics
	ReconcileAttempts  *prometheus.CounterVec
	ReconcileRetries   prometheus.Counter
	ReconcileFallbacks prometheus.Counter
	ReconcileFailures  prometheus.Counter
	ReconcileDuration  prometheus.Histogram

	// Impact analysis metrics
	ImpactWarnings prometheus.Counter

	// Notification metrics
	EventsPublished *prometheus.CounterVec

	// Transaction metrics
	TransactionsCreated *prometheus.CounterVec

	// Classifier metrics
	ClassifierRequests *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		DeletionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moment_deletions_started_total",
			Help: "Total number of soft deletes started",
		}),
		DeletionsUndone: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moment_deletions_undone_total",
			Help: "Total number of deletions undone within the undo window",
		}),
		DeletionsConfirmed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moment_deletions_confirmed_total",
				Help: "Total number of permanent deletions by trigger",
			},
			[]string{"trigger"},
		),
		DeletionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moment_deletion_failures_total",
			Help: "Total number of deletion lifecycles halted at ERROR",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "moment_deletion_sessions_active",
			Help: "Current number of in-flight deletion sessions",
		}),

		ReconcileAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moment_reconcile_attempts_total",
				Help: "Total balance reconciliation attempts by direction",
			},
			[]string{"direction"},
		),
		ReconcileRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moment_reconcile_retries_total",
			Help: "Total reconciliation write+verify cycles retried",
		}),
		ReconcileFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moment_reconcile_fallbacks_total",
			Help: "Total raw balance writes issued after the verified path exhausted retries",
		}),
		ReconcileFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moment_reconcile_failures_total",
			Help: "Total reconciliations that failed even on the fallback path",
		}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "moment_reconcile_duration_seconds",
			Help:    "Duration of balance reconciliation operations",
			Buckets: prometheus.DefBuckets,
		}),

		ImpactWarnings: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moment_impact_warnings_total",
			Help: "Total deletions flagged with dependent transfers",
		}),

		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moment_events_published_total",
				Help: "Total lifecycle events broadcast on the notification channel",
			},
			[]string{"event"},
		),

		TransactionsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moment_transactions_created_total",
				Help: "Total transactions created by kind",
			},
			[]string{"kind"},
		),

		ClassifierRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moment_classifier_requests_total",
				Help: "Total category suggestion requests by outcome",
			},
			[]string{"status"},
		),
	}
}
