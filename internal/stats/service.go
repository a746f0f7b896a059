// Package stats computes market-level reports over the loaded expense
// data: overall totals, regional distribution and operators that spend
// above the market average. Reports are cached behind an injected Cache
// and recomputed after every ingestion run.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Overview is the headline report: market totals plus the five largest
// operators by total expenses.
type Overview struct {
	TotalAmount   float64       `json:"total_amount"`
	ExpenseRows   int64         `json:"expense_rows"`
	OperatorCount int64         `json:"operator_count"`
	AveragePerOp  float64       `json:"average_per_operator"`
	TopOperators  []OperatorSum `json:"top_operators"`
}

// OperatorSum is one operator's total inside a report.
type OperatorSum struct {
	TaxID     string  `json:"tax_id"`
	LegalName string  `json:"legal_name"`
	Total     float64 `json:"total"`
}

// RegionShare is one region's slice of the market. Expense rows whose
// operator carries no region code are grouped under an empty region.
type RegionShare struct {
	RegionCode string  `json:"region_code"`
	Total      float64 `json:"total"`
	Percent    float64 `json:"percent"`
	Operators  int64   `json:"operators"`
}

// AboveAverageOperator is an operator whose quarterly total beat the
// market's per-operator average in at least two quarters.
type AboveAverageOperator struct {
	TaxID         string  `json:"tax_id"`
	LegalName     string  `json:"legal_name"`
	QuartersAbove int     `json:"quarters_above"`
	Total         float64 `json:"total"`
}

// Service computes and caches the reports.
type Service struct {
	db     *sql.DB
	cache  Cache
	logger *slog.Logger
}

// NewService creates a Service. cache must not be nil; pass a
// MemoryCache when Redis is not configured.
func NewService(db *sql.DB, cache Cache, logger *slog.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, cache: cache, logger: logger}, nil
}

// Overview returns the headline report, from cache when fresh.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var cached Overview
	if hit, err := s.cache.Get(ctx, keyOverview, &cached); err != nil {
		s.logger.WarnContext(ctx, "stats cache read failed", "key", keyOverview, "error", err.Error())
	} else if hit {
		return &cached, nil
	}

	ov := &Overview{TopOperators: []OperatorSum{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses`,
	).Scan(&ov.TotalAmount, &ov.ExpenseRows)
	if err != nil {
		return nil, fmt.Errorf("overview totals: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operators`).Scan(&ov.OperatorCount)
	if err != nil {
		return nil, fmt.Errorf("overview operator count: %w", err)
	}
	if ov.OperatorCount > 0 {
		ov.AveragePerOp = ov.TotalAmount / float64(ov.OperatorCount)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.tax_id, COALESCE(o.legal_name, MAX(e.legal_name), ''), SUM(e.amount) AS total
		FROM expenses e
		LEFT JOIN operators o ON o.tax_id = e.tax_id
		GROUP BY e.tax_id, o.legal_name
		ORDER BY total DESC
		LIMIT 5`,
	)
	if err != nil {
		return nil, fmt.Errorf("overview top operators: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var op OperatorSum
		if err := rows.Scan(&op.TaxID, &op.LegalName, &op.Total); err != nil {
			return nil, fmt.Errorf("overview top operators: %w", err)
		}
		ov.TopOperators = append(ov.TopOperators, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("overview top operators: %w", err)
	}

	s.store(ctx, keyOverview, ov)
	return ov, nil
}

// RegionShares returns per-region totals with each region's percentage
// of the overall market, largest first.
func (s *Service) RegionShares(ctx context.Context) ([]RegionShare, error) {
	var cached []RegionShare
	if hit, err := s.cache.Get(ctx, keyRegionShare, &cached); err != nil {
		s.logger.WarnContext(ctx, "stats cache read failed", "key", keyRegionShare, "error", err.Error())
	} else if hit {
		return cached, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(o.region_code, ''), SUM(e.amount) AS total, COUNT(DISTINCT e.tax_id)
		FROM expenses e
		LEFT JOIN operators o ON o.tax_id = e.tax_id
		GROUP BY COALESCE(o.region_code, '')
		ORDER BY total DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("region shares: %w", err)
	}
	defer rows.Close()

	shares := []RegionShare{}
	var market float64
	for rows.Next() {
		var sh RegionShare
		if err := rows.Scan(&sh.RegionCode, &sh.Total, &sh.Operators); err != nil {
			return nil, fmt.Errorf("region shares: %w", err)
		}
		market += sh.Total
		shares = append(shares, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("region shares: %w", err)
	}
	if market > 0 {
		for i := range shares {
			shares[i].Percent = shares[i].Total / market * 100
		}
	}

	s.store(ctx, keyRegionShare, shares)
	return shares, nil
}

// AboveAverage lists operators whose quarterly total exceeded the
// market's per-operator average in at least two quarters.
func (s *Service) AboveAverage(ctx context.Context) ([]AboveAverageOperator, error) {
	var cached []AboveAverageOperator
	if hit, err := s.cache.Get(ctx, keyAboveAverage, &cached); err != nil {
		s.logger.WarnContext(ctx, "stats cache read failed", "key", keyAboveAverage, "error", err.Error())
	} else if hit {
		return cached, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		WITH per_quarter AS (
			SELECT tax_id, year, quarter, SUM(amount) AS total
			FROM expenses
			GROUP BY tax_id, year, quarter
		), market AS (
			SELECT year, quarter, AVG(total) AS avg_total
			FROM per_quarter
			GROUP BY year, quarter
		)
		SELECT p.tax_id, COALESCE(o.legal_name, ''), COUNT(*) AS quarters_above, SUM(p.total) AS total
		FROM per_quarter p
		JOIN market m ON m.year = p.year AND m.quarter = p.quarter
		LEFT JOIN operators o ON o.tax_id = p.tax_id
		WHERE p.total > m.avg_total
		GROUP BY p.tax_id, o.legal_name
		HAVING COUNT(*) >= 2
		ORDER BY quarters_above DESC, total DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("above average: %w", err)
	}
	defer rows.Close()

	out := []AboveAverageOperator{}
	for rows.Next() {
		var op AboveAverageOperator
		if err := rows.Scan(&op.TaxID, &op.LegalName, &op.QuartersAbove, &op.Total); err != nil {
			return nil, fmt.Errorf("above average: %w", err)
		}
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("above average: %w", err)
	}

	s.store(ctx, keyAboveAverage, out)
	return out, nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.WarnContext(ctx, "stats cache write failed", "key", key, "error", err.Error())
	}
}
