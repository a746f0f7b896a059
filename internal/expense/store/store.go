package store

import (
	"context"

	"healthspend/internal/expense/models"
)

// ListFilter narrows and pages the expense listing.
type ListFilter struct {
	TaxID   string
	Year    int // 0 means any
	Quarter int // 0 means any
	Page    int // 1-based
	Limit   int
}

// BatchWriter is the slice of the store the batch loader needs: one
// atomic bulk insert per call. Implementations must commit the whole
// batch or none of it; there is no per-record recovery inside a batch.
type BatchWriter interface {
	InsertBatch(ctx context.Context, batch []models.Expense) error
}

// Store persists expense records.
type Store interface {
	BatchWriter

	// Purge removes all expenses (full-refresh precondition).
	Purge(ctx context.Context) error

	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, f ListFilter) ([]models.Expense, int64, error)
}
