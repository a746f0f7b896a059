package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthspend/internal/operator/models"
	"healthspend/internal/reconcile"
	"healthspend/pkg/platform/sentinel"
)

// Postgres persists operators in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed operator store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Begin(ctx context.Context) (Batch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin operator batch: %w", err)
	}
	return &pgBatch{tx: tx}, nil
}

func (s *Postgres) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM operators`); err != nil {
		return fmt.Errorf("purge operators: %w", err)
	}
	return nil
}

func (s *Postgres) RegistryEntries(ctx context.Context) ([]reconcile.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tax_id, COALESCE(registry_code, '')
		FROM operators
	`)
	if err != nil {
		return nil, fmt.Errorf("read registry entries: %w", err)
	}
	defer rows.Close()

	var entries []reconcile.Entry
	for rows.Next() {
		var e reconcile.Entry
		if err := rows.Scan(&e.TaxID, &e.RegistryCode); err != nil {
			return nil, fmt.Errorf("scan registry entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry entries: %w", err)
	}
	return entries, nil
}

func (s *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM operators`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	return n, nil
}

func (s *Postgres) List(ctx context.Context, f ListFilter) ([]models.Operator, int64, error) {
	where := `WHERE ($1 = '' OR legal_name ILIKE '%' || $1 || '%')
	            AND ($2 = '' OR region_code = $2)`

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM operators `+where, f.Search, f.RegionCode,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count operator page: %w", err)
	}

	offset := (f.Page - 1) * f.Limit
	rows, err := s.db.QueryContext(ctx, `
		SELECT tax_id, legal_name, COALESCE(registry_code, ''),
		       COALESCE(category, ''), COALESCE(region_code, ''), created_at
		FROM operators `+where+`
		ORDER BY legal_name, tax_id
		LIMIT $3 OFFSET $4
	`, f.Search, f.RegionCode, f.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list operators: %w", err)
	}
	defer rows.Close()

	var out []models.Operator
	for rows.Next() {
		var op models.Operator
		if err := rows.Scan(&op.TaxID, &op.LegalName, &op.RegistryCode,
			&op.Category, &op.RegionCode, &op.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan operator: %w", err)
		}
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate operators: %w", err)
	}
	return out, total, nil
}

func (s *Postgres) GetByTaxID(ctx context.Context, taxID string) (*models.Detail, error) {
	var d models.Detail
	err := s.db.QueryRowContext(ctx, `
		SELECT o.tax_id, o.legal_name, COALESCE(o.registry_code, ''),
		       COALESCE(o.category, ''), COALESCE(o.region_code, ''), o.created_at,
		       COALESCE(sum(e.amount), 0), count(e.id)
		FROM operators o
		LEFT JOIN expenses e ON e.tax_id = o.tax_id
		WHERE o.tax_id = $1
		GROUP BY o.tax_id, o.legal_name, o.registry_code, o.category, o.region_code, o.created_at
	`, taxID).Scan(&d.TaxID, &d.LegalName, &d.RegistryCode, &d.Category,
		&d.RegionCode, &d.CreatedAt, &d.TotalExpenses, &d.QuarterCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get operator %s: %w", taxID, err)
	}
	return &d, nil
}

// pgBatch inserts operators inside a transaction. Each insert is
// guarded by a savepoint so a constraint violation (duplicate registry
// code, for instance) poisons only that record and the surrounding
// transaction stays usable, matching the loader's skip-and-continue
// policy.
type pgBatch struct {
	tx   *sql.Tx
	done bool
}

func (b *pgBatch) Insert(ctx context.Context, op *models.Operator) error {
	if _, err := b.tx.ExecContext(ctx, `SAVEPOINT op_insert`); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO operators (tax_id, legal_name, registry_code, category, region_code)
		VALUES ($1, $2, $3, $4, $5)
	`, op.TaxID, op.LegalName, nullable(op.RegistryCode), nullable(op.Category), nullable(op.RegionCode))
	if err != nil {
		if _, rbErr := b.tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT op_insert`); rbErr != nil {
			return fmt.Errorf("rollback savepoint after %v: %w", err, rbErr)
		}
		return fmt.Errorf("insert operator %s: %w", op.TaxID, err)
	}
	if _, err := b.tx.ExecContext(ctx, `RELEASE SAVEPOINT op_insert`); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func (b *pgBatch) Commit(ctx context.Context) error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit operator batch: %w", err)
	}
	b.done = true
	return nil
}

func (b *pgBatch) Rollback() error {
	if b.done {
		return nil
	}
	if err := b.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
