// Package export writes spreadsheet-friendly CSV extracts of the loaded
// data: a consolidated expense file joined with the operator registry,
// and a per-operator aggregate file.
package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
)

// Files are consumed by spreadsheet tools used by analysts, so they get
// a UTF-8 BOM and the regional semicolon delimiter.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Exporter runs export queries against the loaded tables.
type Exporter struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates an Exporter.
func New(db *sql.DB, logger *slog.Logger) (*Exporter, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{db: db, logger: logger}, nil
}

func newWriter(w io.Writer) (*csv.Writer, error) {
	if _, err := w.Write(utf8BOM); err != nil {
		return nil, fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return cw, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Consolidated writes every expense row joined with its operator's
// registry data. Returns the number of data rows written.
func (e *Exporter) Consolidated(ctx context.Context, w io.Writer) (int, error) {
	cw, err := newWriter(w)
	if err != nil {
		return 0, err
	}

	header := []string{
		"tax_id", "legal_name", "registry_code", "category", "region_code",
		"year", "quarter", "amount", "quality_status",
	}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT e.tax_id,
		       COALESCE(o.legal_name, e.legal_name),
		       COALESCE(o.registry_code, ''),
		       COALESCE(o.category, ''),
		       COALESCE(o.region_code, ''),
		       e.year, e.quarter, e.amount, e.quality_status
		FROM expenses e
		LEFT JOIN operators o ON o.tax_id = e.tax_id
		ORDER BY e.tax_id, e.year, e.quarter`,
	)
	if err != nil {
		return 0, fmt.Errorf("consolidated query: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			taxID, legalName, regCode, category, region, status string
			year, quarter                                        int
			amount                                               float64
		)
		if err := rows.Scan(&taxID, &legalName, &regCode, &category, &region,
			&year, &quarter, &amount, &status); err != nil {
			return count, fmt.Errorf("consolidated scan: %w", err)
		}
		record := []string{
			taxID, legalName, regCode, category, region,
			strconv.Itoa(year), strconv.Itoa(quarter), formatAmount(amount), status,
		}
		if err := cw.Write(record); err != nil {
			return count, fmt.Errorf("consolidated write: %w", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("consolidated rows: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("consolidated flush: %w", err)
	}
	e.logger.InfoContext(ctx, "consolidated export written", "rows", count)
	return count, nil
}

// Aggregates writes one row per operator with its expense totals.
func (e *Exporter) Aggregates(ctx context.Context, w io.Writer) (int, error) {
	cw, err := newWriter(w)
	if err != nil {
		return 0, err
	}

	header := []string{
		"tax_id", "legal_name", "region_code",
		"total_amount", "quarter_count", "average_per_quarter",
	}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT e.tax_id,
		       COALESCE(o.legal_name, MAX(e.legal_name), ''),
		       COALESCE(o.region_code, ''),
		       SUM(e.amount) AS total,
		       COUNT(DISTINCT (e.year, e.quarter)) AS quarters
		FROM expenses e
		LEFT JOIN operators o ON o.tax_id = e.tax_id
		GROUP BY e.tax_id, o.legal_name, o.region_code
		ORDER BY total DESC`,
	)
	if err != nil {
		return 0, fmt.Errorf("aggregate query: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			taxID, legalName, region string
			total                    float64
			quarters                 int
		)
		if err := rows.Scan(&taxID, &legalName, &region, &total, &quarters); err != nil {
			return count, fmt.Errorf("aggregate scan: %w", err)
		}
		avg := 0.0
		if quarters > 0 {
			avg = total / float64(quarters)
		}
		record := []string{
			taxID, legalName, region,
			formatAmount(total), strconv.Itoa(quarters), formatAmount(avg),
		}
		if err := cw.Write(record); err != nil {
			return count, fmt.Errorf("aggregate write: %w", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("aggregate rows: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("aggregate flush: %w", err)
	}
	e.logger.InfoContext(ctx, "aggregate export written", "rows", count)
	return count, nil
}
