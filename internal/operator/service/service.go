// Package service exposes read operations over the operator registry.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"healthspend/internal/operator/models"
	"healthspend/internal/operator/store"
	"healthspend/internal/reconcile"
	"healthspend/pkg/platform/sentinel"
)

// Page is one page of operators with the total match count.
type Page struct {
	Items []models.Operator `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// Service answers operator queries against the store.
type Service struct {
	store        store.Store
	logger       *slog.Logger
	defaultLimit int
	maxLimit     int
}

// New creates a Service. defaultLimit and maxLimit bound page sizes.
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

// List returns a page of operators filtered by name search and region.
func (s *Service) List(ctx context.Context, f store.ListFilter) (*Page, error) {
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
		return nil, fmt.Errorf("list operators: %w", err)
	}
	return &Page{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// Get returns one operator with its expense aggregates. The identifier
// is normalized first, so formatted tax ids and unpadded values both
// resolve.
func (s *Service) Get(ctx context.Context, rawID string) (*models.Detail, error) {
	taxID := reconcile.Normalize(rawID)
	if !reconcile.IsCanonical(taxID) {
		return nil, fmt.Errorf("%w: operator %q", sentinel.ErrNotFound, rawID)
	}
	detail, err := s.store.GetByTaxID(ctx, taxID)
	if err != nil {
		return nil, fmt.Errorf("get operator %s: %w", taxID, err)
	}
	return detail, nil
}
