// Package service exposes read operations over loaded expense records.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"healthspend/internal/expense/models"
	"healthspend/internal/expense/store"
	"healthspend/internal/reconcile"
	"healthspend/pkg/platform/sentinel"
)

// Page is one page of expense records with the total match count.
type Page struct {
	Items []models.Expense `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// Service answers expense queries against the store.
type Service struct {
	store        store.Store
	logger       *slog.Logger
	defaultLimit int
	maxLimit     int
}

// New creates a Service.
func New(st store.Store, logger *slog.Logger, defaultLimit, maxLimit int) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Service{store: st, logger: logger, defaultLimit: defaultLimit, maxLimit: maxLimit}, nil
}

// List returns a page of expenses, optionally filtered by operator,
// year and quarter. An operator filter is normalized before querying.
func (s *Service) List(ctx context.Context, f store.ListFilter) (*Page, error) {
	if f.TaxID != "" {
		taxID := reconcile.Normalize(f.TaxID)
		if !reconcile.IsCanonical(taxID) {
			return nil, fmt.Errorf("%w: operator %q", sentinel.ErrNotFound, f.TaxID)
		}
		f.TaxID = taxID
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = s.defaultLimit
	}
	if f.Limit > s.maxLimit {
		f.Limit = s.maxLimit
	}

	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return &Page{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}
