package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"healthspend/internal/expense/models"
)

// ErrBatchFailed is returned by InMemory when a simulated commit
// failure is configured via FailAfterBatches.
var ErrBatchFailed = errors.New("batch commit failed")

// InMemory implements Store without a database. It records each
// committed batch separately so tests can assert on the batching
// discipline, not just the totals.
type InMemory struct {
	mu      sync.RWMutex
	batches [][]models.Expense

	// FailAfterBatches makes InsertBatch fail once this many batches
	// have been committed, simulating a mid-run commit failure.
	FailAfterBatches int
}

// NewInMemory creates an empty in-memory expense store.
func NewInMemory() *InMemory {
	return &InMemory{FailAfterBatches: -1}
}

func (s *InMemory) InsertBatch(ctx context.Context, batch []models.Expense) error {
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAfterBatches >= 0 && len(s.batches) >= s.FailAfterBatches {
		return ErrBatchFailed
	}
	cp := make([]models.Expense, len(batch))
	copy(cp, batch)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *InMemory) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = nil
	return nil
}

func (s *InMemory) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, b := range s.batches {
		n += int64(len(b))
	}
	return n, nil
}

func (s *InMemory) List(ctx context.Context, f ListFilter) ([]models.Expense, int64, error) {
	all := s.All()
	var filtered []models.Expense
	for _, e := range all {
		if f.TaxID != "" && e.TaxID != f.TaxID {
			continue
		}
		if f.Year != 0 && e.Year != f.Year {
			continue
		}
		if f.Quarter != 0 && e.Quarter != f.Quarter {
			continue
		}
		filtered = append(filtered, e)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Year != filtered[j].Year {
			return filtered[i].Year > filtered[j].Year
		}
		if filtered[i].Quarter != filtered[j].Quarter {
			return filtered[i].Quarter > filtered[j].Quarter
		}
		return filtered[i].TaxID < filtered[j].TaxID
	})

	total := int64(len(filtered))
	start := (f.Page - 1) * f.Limit
	if start >= len(filtered) {
		return nil, total, nil
	}
	end := start + f.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

// Batches returns the committed batches in commit order.
func (s *InMemory) Batches() [][]models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]models.Expense, len(s.batches))
	copy(out, s.batches)
	return out
}

// All returns every committed expense in commit order.
func (s *InMemory) All() []models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Expense
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}
