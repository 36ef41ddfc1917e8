package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	TransactionsMutated *prometheus.CounterVec
	MutationDuration    *prometheus.HistogramVec
	TransactionAmount   prometheus.Histogram
	ValidationFailures  *prometheus.CounterVec
	OrphanedDeltas      *prometheus.CounterVec
	VersionConflicts    prometheus.Counter
	Compensations       prometheus.Counter
	PersistenceFailures *prometheus.CounterVec

	// Record metrics
	RecordsCreated    *prometheus.CounterVec
	AccountOperations *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	PublishErrors   prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates the metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		TransactionsMutated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_transactions_mutated_total",
				Help: "Ledger transactions created, updated or deleted",
			},
			[]string{"operation", "type"},
		),
		MutationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gofinance_mutation_duration_seconds",
				Help:    "Duration of ledger mutations including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		TransactionAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gofinance_transaction_amount",
			Help:    "Transaction amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		}),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_validation_failures_total",
				Help: "Rejected transactions by validation kind",
			},
			[]string{"kind"},
		),
		OrphanedDeltas: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_orphaned_deltas_total",
				Help: "Deltas dropped because their target record no longer exists",
			},
			[]string{"target"},
		),
		VersionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "gofinance_version_conflicts_total",
			Help: "Optimistic concurrency conflicts detected on write",
		}),
		Compensations: factory.NewCounter(prometheus.CounterOpts{
			Name: "gofinance_compensations_total",
			Help: "Compensation steps executed after a failed mutation",
		}),
		PersistenceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_persistence_failures_total",
				Help: "Failed mutations by stage",
			},
			[]string{"stage"},
		),

		// Record metrics
		RecordsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_records_created_total",
				Help: "Accounts, debts, goals and categories created",
			},
			[]string{"kind"},
		),
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),

		// Cache metrics
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_cache_hits_total",
				Help: "Record cache hits",
			},
			[]string{"kind"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_cache_misses_total",
				Help: "Record cache misses",
			},
			[]string{"kind"},
		),

		// Outbox metrics
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_events_published_total",
				Help: "Outbox events published",
			},
			[]string{"event_type"},
		),
		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "gofinance_event_publish_errors_total",
			Help: "Outbox events that failed to publish",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gofinance_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gofinance_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"owner"},
		),
	}
}
