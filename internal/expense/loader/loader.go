// Package loader ingests quarterly expense filings: each row is
// reconciled against the operator registry index, sanitized, and
// accumulated into fixed-size batches committed as atomic bulk inserts.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"healthspend/internal/expense/models"
	"healthspend/internal/expense/store"
	"healthspend/internal/reconcile"
	"healthspend/internal/sanitize"
	"healthspend/internal/source"
)

// DefaultBatchSize bounds the pending batch. 10k rows keeps memory flat
// on the multi-hundred-thousand-row quarterly files while amortizing
// the per-commit cost.
const DefaultBatchSize = 10000

// Summary reports one expense load. Skipped rows are the primary
// data-quality signal of a run and are never silently dropped.
type Summary struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Add merges another summary, for callers that load several files.
func (s *Summary) Add(other Summary) {
	s.Inserted += other.Inserted
	s.Skipped += other.Skipped
}

// Loader streams expense rows into the store in batches.
//
// Failure policy, by design asymmetric: anything that goes wrong while
// assembling a single record (missing identifier, unmatched reference)
// skips only that record, but a failure committing an assembled batch
// fails the whole batch and is returned to the caller; there is no
// per-record retry inside a bulk insert. Prior committed batches always
// survive, so a crash leaves a clean prefix and no partial batch.
type Loader struct {
	store     store.BatchWriter
	index     *reconcile.Index
	logger    *slog.Logger
	batchSize int

	// committed is invoked after each successful batch commit, mainly
	// for metrics.
	committed func(n int)
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize overrides the batch size.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithCommitHook registers a callback invoked with the size of each
// committed batch.
func WithCommitHook(fn func(n int)) Option {
	return func(l *Loader) { l.committed = fn }
}

// New creates an expense Loader resolving against index.
func New(st store.BatchWriter, index *reconcile.Index, opts ...Option) (*Loader, error) {
	if st == nil {
		return nil, fmt.Errorf("expense store is required")
	}
	if index == nil {
		return nil, fmt.Errorf("registry index is required")
	}
	l := &Loader{
		store:     st,
		index:     index,
		logger:    slog.Default(),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load ingests all rows, returning the summary accumulated so far even
// on error so partial progress stays observable. Cancellation is
// honored between batches only, never mid-batch, so an interrupted run
// still ends on a committed-batch boundary.
func (l *Loader) Load(ctx context.Context, rows source.RowReader) (Summary, error) {
	var (
		sum       Summary
		unmatched int
		pending   = make([]models.Expense, 0, l.batchSize)
		batchNo   = 0
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		batchNo++
		if err := l.store.InsertBatch(ctx, pending); err != nil {
			return fmt.Errorf("commit batch %d: %w", batchNo, err)
		}
		sum.Inserted += len(pending)
		if l.committed != nil {
			l.committed(len(pending))
		}
		pending = pending[:0]
		return nil
	}

	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("read expense row: %w", err)
		}

		// The reference column varies by file vintage: some carry a tax
		// id header, others a registry-code header. Either value feeds
		// the same resolution.
		ref := row.Get(source.ColIdentifier)
		if strings.TrimSpace(ref) == "" {
			ref = row.Get(source.ColRegistryCode)
		}
		taxID, ok := l.index.Resolve(ref)
		if !ok {
			sum.Skipped++
			unmatched++
			continue
		}

		pending = append(pending, models.Expense{
			TaxID:         taxID,
			LegalName:     sanitize.Clamp(row.Get(source.ColName), sanitize.MaxNameLen),
			Year:          sanitize.Int(row.Get(source.ColYear), 0),
			Quarter:       sanitize.Int(row.Get(source.ColQuarter), 0),
			Amount:        sanitize.Amount(row.Get(source.ColAmount)),
			QualityStatus: sanitize.Status(row.Get(source.ColStatus)),
		})

		if len(pending) >= l.batchSize {
			if err := flush(); err != nil {
				return sum, err
			}
			// Cancellation point: between batches, never mid-batch.
			if err := ctx.Err(); err != nil {
				return sum, err
			}
		}
	}

	if err := flush(); err != nil {
		return sum, err
	}

	l.logger.InfoContext(ctx, "expense load finished",
		"inserted", sum.Inserted,
		"skipped", sum.Skipped,
		"unmatched", unmatched,
		"batches", batchNo,
	)
	return sum, nil
}
