package store

import (
	"context"

	"healthspend/internal/operator/models"
	"healthspend/internal/reconcile"
)

// ListFilter narrows and pages the operator listing.
type ListFilter struct {
	Search     string // case-insensitive substring of the legal name
	RegionCode string
	Page       int // 1-based
	Limit      int
}

// Store persists the operator registry.
type Store interface {
	// Begin opens a load batch. The operator path inserts one-by-one
	// with periodic commits, so the batch exposes per-record Insert and
	// an explicit Commit; a failed Insert poisons only that record, not
	// the batch.
	Begin(ctx context.Context) (Batch, error)

	// Purge removes all operators (full-refresh precondition).
	Purge(ctx context.Context) error

	// RegistryEntries reads the persisted registry for index building.
	// It must only be called after the load batches are committed.
	RegistryEntries(ctx context.Context) ([]reconcile.Entry, error)

	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, f ListFilter) ([]models.Operator, int64, error)
	GetByTaxID(ctx context.Context, taxID string) (*models.Detail, error)
}

// Batch is an open unit of work for operator inserts.
type Batch interface {
	Insert(ctx context.Context, op *models.Operator) error
	Commit(ctx context.Context) error
	// Rollback discards uncommitted inserts; calling it after a
	// successful Commit is a no-op.
	Rollback() error
}
