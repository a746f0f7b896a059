//go:build integration

package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	expmodels "healthspend/internal/expense/models"
	expstore "healthspend/internal/expense/store"
	"healthspend/internal/export"
	opmodels "healthspend/internal/operator/models"
	opstore "healthspend/internal/operator/store"
	"healthspend/pkg/testutil/containers"
)

func seed(ctx context.Context, t *testing.T, pg *containers.PostgresContainer) {
	t.Helper()

	operators := opstore.NewPostgres(pg.DB)
	batch, err := operators.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, batch.Insert(ctx, &opmodels.Operator{
		TaxID: "00394460000141", LegalName: "Alfa",
		RegistryCode: "343889", Category: "Cooperativa Medica", RegionCode: "SP",
	}))
	require.NoError(t, batch.Commit(ctx))

	expenses := expstore.NewPostgres(pg.DB)
	require.NoError(t, expenses.InsertBatch(ctx, []expmodels.Expense{
		{TaxID: "00394460000141", Year: 2024, Quarter: 1, Amount: 1500.75, QualityStatus: "OK"},
		{TaxID: "00394460000141", Year: 2024, Quarter: 2, Amount: 980.10, QualityStatus: "OK"},
	}))
}

func parse(t *testing.T, raw []byte) [][]string {
	t.Helper()

	// Spreadsheet compatibility: the file must start with a UTF-8 BOM.
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))

	r := csv.NewReader(bytes.NewReader(raw[3:]))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestConsolidatedExport(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	seed(ctx, t, pg)

	exporter, err := export.New(pg.DB, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	var buf bytes.Buffer
	rows, err := exporter.Consolidated(ctx, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, rows)

	records := parse(t, buf.Bytes())
	require.Len(t, records, 3)
	require.Equal(t, "tax_id", records[0][0])

	require.Equal(t, "00394460000141", records[1][0])
	require.Equal(t, "Alfa", records[1][1])
	require.Equal(t, "343889", records[1][2])
	require.Equal(t, "SP", records[1][4])
	require.Equal(t, "1500.75", records[1][7])
}

func TestAggregateExport(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	seed(ctx, t, pg)

	exporter, err := export.New(pg.DB, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	var buf bytes.Buffer
	rows, err := exporter.Aggregates(ctx, &buf)
	require.NoError(t, err)
	require.Equal(t, 1, rows)

	records := parse(t, buf.Bytes())
	require.Len(t, records, 2)
	require.Equal(t, "00394460000141", records[1][0])
	require.Equal(t, "2480.85", records[1][3])
	require.Equal(t, "2", records[1][4])

	avg, err := strconv.ParseFloat(records[1][5], 64)
	require.NoError(t, err)
	require.InDelta(t, 1240.425, avg, 0.01)
}
