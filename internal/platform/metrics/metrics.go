package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Skipped
// counts are the primary data-quality signal of an ingestion run and
// must always be visible, so they get first-class counters next to the
// inserted totals.
type Metrics struct {
	OperatorsInserted prometheus.Counter
	OperatorsSkipped  prometheus.Counter
	ExpensesInserted  prometheus.Counter
	ExpensesSkipped   prometheus.Counter
	BatchesCommitted  prometheus.Counter
	BatchCommitSecs   prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on reg. Pass
// prometheus.DefaultRegisterer outside of tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperatorsInserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthspend_operators_inserted_total",
			Help: "Operator rows persisted across ingestion runs",
		}),
		OperatorsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthspend_operators_skipped_total",
			Help: "Operator rows rejected for unusable identifiers or duplicates",
		}),
		ExpensesInserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthspend_expenses_inserted_total",
			Help: "Expense rows persisted across ingestion runs",
		}),
		ExpensesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthspend_expenses_skipped_total",
			Help: "Expense rows skipped because no operator matched their identifier",
		}),
		BatchesCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "healthspend_expense_batches_committed_total",
			Help: "Bulk-insert batches committed",
		}),
		BatchCommitSecs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "healthspend_expense_batch_commit_seconds",
			Help:    "Latency of bulk-insert batch commits",
			Buckets: prometheus.DefBuckets,
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healthspend_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "status"}),
	}
}
