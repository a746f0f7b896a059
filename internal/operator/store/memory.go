package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"healthspend/internal/operator/models"
	"healthspend/internal/reconcile"
	"healthspend/pkg/platform/sentinel"
)

// InMemory implements Store without a database. It backs unit tests and
// mirrors the commit semantics of the Postgres store closely enough to
// assert on batch boundaries: only committed batches become visible.
type InMemory struct {
	mu        sync.RWMutex
	operators []models.Operator

	// Commits counts committed batches, for tests asserting the
	// periodic-commit discipline.
	Commits int

	// FailTaxIDs makes Insert fail for specific ids, simulating
	// per-record constraint violations.
	FailTaxIDs map[string]bool
}

// NewInMemory creates an empty in-memory operator store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Begin(ctx context.Context) (Batch, error) {
	return &memBatch{store: s}, nil
}

func (s *InMemory) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operators = nil
	return nil
}

func (s *InMemory) RegistryEntries(ctx context.Context) ([]reconcile.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]reconcile.Entry, 0, len(s.operators))
	for _, op := range s.operators {
		entries = append(entries, reconcile.Entry{TaxID: op.TaxID, RegistryCode: op.RegistryCode})
	}
	return entries, nil
}

func (s *InMemory) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.operators)), nil
}

func (s *InMemory) List(ctx context.Context, f ListFilter) ([]models.Operator, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []models.Operator
	search := strings.ToLower(f.Search)
	for _, op := range s.operators {
		if search != "" && !strings.Contains(strings.ToLower(op.LegalName), search) {
			continue
		}
		if f.RegionCode != "" && op.RegionCode != f.RegionCode {
			continue
		}
		filtered = append(filtered, op)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].LegalName != filtered[j].LegalName {
			return filtered[i].LegalName < filtered[j].LegalName
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

func (s *InMemory) GetByTaxID(ctx context.Context, taxID string) (*models.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, op := range s.operators {
		if op.TaxID == taxID {
			return &models.Detail{Operator: op}, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// All returns every committed operator, for test assertions.
func (s *InMemory) All() []models.Operator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Operator, len(s.operators))
	copy(out, s.operators)
	return out
}

type memBatch struct {
	store   *InMemory
	pending []models.Operator
	done    bool
}

func (b *memBatch) Insert(ctx context.Context, op *models.Operator) error {
	if b.store.FailTaxIDs[op.TaxID] {
		return sentinel.ErrConflict
	}
	b.pending = append(b.pending, *op)
	return nil
}

func (b *memBatch) Commit(ctx context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.operators = append(b.store.operators, b.pending...)
	b.store.Commits++
	b.pending = nil
	b.done = true
	return nil
}

func (b *memBatch) Rollback() error {
	b.pending = nil
	return nil
}
