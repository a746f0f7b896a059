package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"healthspend/internal/expense/models"
)

// Postgres persists expenses in PostgreSQL. Bulk inserts go through the
// COPY protocol: one transaction per batch, committed atomically.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed expense store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// InsertBatch writes the whole batch inside one transaction using COPY.
// Any failure rolls the whole batch back; prior committed batches are
// untouched.
func (s *Postgres) InsertBatch(ctx context.Context, batch []models.Expense) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin expense batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("expenses",
		"tax_id", "legal_name", "year", "quarter", "amount", "quality_status"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, e := range batch {
		if _, err := stmt.ExecContext(ctx, e.TaxID, e.LegalName, e.Year, e.Quarter, e.Amount, e.QualityStatus); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy expense row: %w", err)
		}
	}
	// Flush the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expense batch: %w", err)
	}
	return nil
}

func (s *Postgres) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("purge expenses: %w", err)
	}
	return nil
}

func (s *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM expenses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func (s *Postgres) List(ctx context.Context, f ListFilter) ([]models.Expense, int64, error) {
	where := `WHERE ($1 = '' OR tax_id = $1)
	            AND ($2 = 0 OR year = $2)
	            AND ($3 = 0 OR quarter = $3)`

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM expenses `+where, f.TaxID, f.Year, f.Quarter,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count expense page: %w", err)
	}

	offset := (f.Page - 1) * f.Limit
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tax_id, legal_name, year, quarter, amount, quality_status
		FROM expenses `+where+`
		ORDER BY year DESC, quarter DESC, tax_id, id
		LIMIT $4 OFFSET $5
	`, f.TaxID, f.Year, f.Quarter, f.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.TaxID, &e.LegalName, &e.Year, &e.Quarter, &e.Amount, &e.QualityStatus); err != nil {
			return nil, 0, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, total, nil
}
