// Package ingest drives a full ingestion run: purge both tables
// (full-refresh semantics), load the operator registry, build the
// in-memory registry index from the persisted registry, then stream
// every expense file through the batch loader.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	exploader "healthspend/internal/expense/loader"
	expmodels "healthspend/internal/expense/models"
	expstore "healthspend/internal/expense/store"
	oploader "healthspend/internal/operator/loader"
	opstore "healthspend/internal/operator/store"
	"healthspend/internal/platform/metrics"
	"healthspend/internal/reconcile"
	"healthspend/internal/source"
	"healthspend/internal/stats"
)

// NamedSource is one expense file: a name for logging plus its rows.
type NamedSource struct {
	Name string
	Rows source.RowReader
}

// Sources holds everything a run ingests.
type Sources struct {
	Operators source.RowReader
	Expenses  []NamedSource
}

// Report is the outcome of a run. The per-table skipped counts are the
// primary data-quality signal and are always populated, even for runs
// that end in error.
type Report struct {
	RunID     uuid.UUID         `json:"run_id"`
	Operators oploader.Summary  `json:"operators"`
	Expenses  exploader.Summary `json:"expenses"`
	Duration  time.Duration     `json:"duration"`
}

// Runner owns one ingestion pipeline. The stores are passed in; the
// runner never shares a batch buffer or transaction between files.
type Runner struct {
	operators   opstore.Store
	expenses    expstore.Store
	logger      *slog.Logger
	metrics     *metrics.Metrics
	cache       stats.Cache
	batchSize   int
	commitEvery int
	parallelism int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMetrics wires run counters into Prometheus.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithStatsCache registers a statistics cache flushed after a
// successful run, so reports never serve pre-refresh aggregates for a
// full TTL.
func WithStatsCache(c stats.Cache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithBatchSize overrides the expense bulk-insert batch size.
func WithBatchSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithCommitEvery overrides the operator periodic-commit interval.
func WithCommitEvery(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.commitEvery = n
		}
	}
}

// WithParallelism loads up to n expense files concurrently. Each file
// gets its own loader, pending buffer and transactions; only the final
// counts are merged.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// NewRunner creates a Runner over the two stores.
func NewRunner(operators opstore.Store, expenses expstore.Store, opts ...Option) (*Runner, error) {
	if operators == nil {
		return nil, fmt.Errorf("operator store is required")
	}
	if expenses == nil {
		return nil, fmt.Errorf("expense store is required")
	}
	r := &Runner{
		operators:   operators,
		expenses:    expenses,
		logger:      slog.Default(),
		batchSize:   exploader.DefaultBatchSize,
		commitEvery: oploader.DefaultCommitEvery,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes a full ingestion. On error the report still carries the
// progress of every completed stage; committed batches are retained.
func (r *Runner) Run(ctx context.Context, src Sources) (*Report, error) {
	report := &Report{RunID: uuid.New()}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	log := r.logger.With("run_id", report.RunID)
	log.InfoContext(ctx, "ingestion run starting",
		"expense_files", len(src.Expenses),
		"parallelism", r.parallelism,
	)

	// Full refresh: expenses first so no window exists where they
	// reference a purged registry.
	if err := r.expenses.Purge(ctx); err != nil {
		return report, fmt.Errorf("purge expenses: %w", err)
	}
	if err := r.operators.Purge(ctx); err != nil {
		return report, fmt.Errorf("purge operators: %w", err)
	}

	if src.Operators != nil {
		opl, err := oploader.New(r.operators,
			oploader.WithLogger(log),
			oploader.WithCommitEvery(r.commitEvery),
		)
		if err != nil {
			return report, err
		}
		report.Operators, err = opl.Load(ctx, src.Operators)
		if err != nil {
			return report, fmt.Errorf("load operators: %w", err)
		}
		if r.metrics != nil {
			r.metrics.OperatorsInserted.Add(float64(report.Operators.Inserted))
			r.metrics.OperatorsSkipped.Add(float64(report.Operators.Skipped))
		}
	}

	// The index reads persisted state, strictly after the operator
	// batches commit; it is immutable for the rest of the run.
	entries, err := r.operators.RegistryEntries(ctx)
	if err != nil {
		return report, fmt.Errorf("build registry index: %w", err)
	}
	index := reconcile.BuildIndex(entries)
	log.InfoContext(ctx, "registry index built",
		"operators", index.Operators(),
		"registry_codes", index.RegistryCodes(),
	)

	summary, err := r.loadExpenses(ctx, log, index, src.Expenses)
	report.Expenses = summary
	if r.metrics != nil {
		r.metrics.ExpensesInserted.Add(float64(summary.Inserted))
		r.metrics.ExpensesSkipped.Add(float64(summary.Skipped))
	}
	if err != nil {
		return report, err
	}

	if r.cache != nil {
		if err := r.cache.Flush(ctx); err != nil {
			log.WarnContext(ctx, "statistics cache flush failed", "error", err.Error())
		}
	}

	log.InfoContext(ctx, "ingestion run finished",
		"operators_inserted", report.Operators.Inserted,
		"operators_skipped", report.Operators.Skipped,
		"expenses_inserted", report.Expenses.Inserted,
		"expenses_skipped", report.Expenses.Skipped,
		"duration", time.Since(start).String(),
	)
	return report, nil
}

func (r *Runner) loadExpenses(ctx context.Context, log *slog.Logger, index *reconcile.Index, files []NamedSource) (exploader.Summary, error) {
	var (
		mu  sync.Mutex
		sum exploader.Summary
	)

	commitHook := func(n int) {
		if r.metrics != nil {
			r.metrics.BatchesCommitted.Inc()
		}
	}
	writer := expstore.BatchWriter(r.expenses)
	if r.metrics != nil {
		writer = timedWriter{inner: writer, observe: r.metrics.BatchCommitSecs.Observe}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for _, f := range files {
		g.Go(func() error {
			l, err := exploader.New(writer, index,
				exploader.WithLogger(log.With("file", f.Name)),
				exploader.WithBatchSize(r.batchSize),
				exploader.WithCommitHook(commitHook),
			)
			if err != nil {
				return err
			}
			fileSum, err := l.Load(gctx, f.Rows)
			mu.Lock()
			sum.Add(fileSum)
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("load %s: %w", f.Name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return sum, err
}

// timedWriter records bulk-insert commit latency.
type timedWriter struct {
	inner   expstore.BatchWriter
	observe func(float64)
}

func (t timedWriter) InsertBatch(ctx context.Context, batch []expmodels.Expense) error {
	start := time.Now()
	if err := t.inner.InsertBatch(ctx, batch); err != nil {
		return err
	}
	t.observe(time.Since(start).Seconds())
	return nil
}
