// Package loader ingests the operator registry filing. It is the
// simpler sibling of the expense batch loader: volumes are orders of
// magnitude smaller, so rows are inserted one-by-one with periodic
// commits instead of bulk COPY.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"healthspend/internal/operator/models"
	"healthspend/internal/operator/store"
	"healthspend/internal/reconcile"
	"healthspend/internal/sanitize"
	"healthspend/internal/source"
)

const (
	// DefaultCommitEvery is how many inserted rows share one commit.
	DefaultCommitEvery = 1000

	maxRegistryCodeLen = 10
)

// Summary reports an operator load: rows persisted and rows skipped for
// unusable identifiers, duplicates or insert failures.
type Summary struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Loader loads operator rows into the store.
type Loader struct {
	store       store.Store
	logger      *slog.Logger
	commitEvery int
}

// Option configures a Loader.
type Option func(*Loader)

// WithCommitEvery overrides the periodic commit interval.
func WithCommitEvery(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.commitEvery = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates an operator Loader.
func New(st store.Store, opts ...Option) (*Loader, error) {
	if st == nil {
		return nil, fmt.Errorf("operator store is required")
	}
	l := &Loader{
		store:       st,
		logger:      slog.Default(),
		commitEvery: DefaultCommitEvery,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load ingests all rows. Rows whose identifier does not normalize to a
// canonical 14-digit id are skipped, as are duplicates of an id already
// loaded in this run and rows whose insert fails; none of these abort
// the load. Read errors and commit failures do.
func (l *Loader) Load(ctx context.Context, rows source.RowReader) (Summary, error) {
	var sum Summary

	batch, err := l.store.Begin(ctx)
	if err != nil {
		return sum, err
	}
	defer func() { _ = batch.Rollback() }()

	seen := make(map[string]struct{})
	uncommitted := 0

	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("read operator row: %w", err)
		}

		raw := row.Get(source.ColIdentifier)
		taxID := reconcile.Normalize(raw)
		if !reconcile.IsCanonical(taxID) {
			sum.Skipped++
			continue
		}
		if _, dup := seen[taxID]; dup {
			sum.Skipped++
			continue
		}
		seen[taxID] = struct{}{}

		op := &models.Operator{
			TaxID:        taxID,
			LegalName:    sanitize.Clamp(row.Get(source.ColName), sanitize.MaxNameLen),
			RegistryCode: sanitize.Clamp(row.Get(source.ColRegistryCode), maxRegistryCodeLen),
			Category:     sanitize.Clamp(row.Get(source.ColCategory), sanitize.MaxCategoryLen),
			RegionCode:   sanitize.Clamp(row.Get(source.ColRegion), sanitize.MaxRegionLen),
		}

		if err := batch.Insert(ctx, op); err != nil {
			l.logger.WarnContext(ctx, "operator insert failed, skipping row",
				"tax_id", op.TaxID,
				"error", err.Error(),
			)
			sum.Skipped++
			continue
		}
		sum.Inserted++
		uncommitted++

		if uncommitted >= l.commitEvery {
			if err := batch.Commit(ctx); err != nil {
				return sum, fmt.Errorf("commit operators after %d rows: %w", sum.Inserted, err)
			}
			uncommitted = 0
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if batch, err = l.store.Begin(ctx); err != nil {
				return sum, err
			}
		}
	}

	if uncommitted > 0 {
		if err := batch.Commit(ctx); err != nil {
			return sum, fmt.Errorf("commit final operators: %w", err)
		}
	} else {
		_ = batch.Rollback()
	}

	l.logger.InfoContext(ctx, "operator load finished",
		"inserted", sum.Inserted,
		"skipped", sum.Skipped,
	)
	return sum, nil
}
