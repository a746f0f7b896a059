//go:build integration

package stats_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	expmodels "healthspend/internal/expense/models"
	expstore "healthspend/internal/expense/store"
	opmodels "healthspend/internal/operator/models"
	opstore "healthspend/internal/operator/store"
	"healthspend/internal/stats"
	"healthspend/pkg/testutil/containers"
)

func seed(ctx context.Context, t *testing.T, pg *containers.PostgresContainer) {
	t.Helper()

	operators := opstore.NewPostgres(pg.DB)
	batch, err := operators.Begin(ctx)
	require.NoError(t, err)
	for _, op := range []opmodels.Operator{
		{TaxID: "00394460000141", LegalName: "Alfa", RegionCode: "SP"},
		{TaxID: "11222333000181", LegalName: "Beta", RegionCode: "SP"},
		{TaxID: "22333444000190", LegalName: "Gama", RegionCode: "RJ"},
	} {
		require.NoError(t, batch.Insert(ctx, &op))
	}
	require.NoError(t, batch.Commit(ctx))

	expenses := expstore.NewPostgres(pg.DB)
	require.NoError(t, expenses.InsertBatch(ctx, []expmodels.Expense{
		// Alfa is far above the per-operator average in both quarters.
		{TaxID: "00394460000141", Year: 2024, Quarter: 1, Amount: 1000, QualityStatus: "OK"},
		{TaxID: "00394460000141", Year: 2024, Quarter: 2, Amount: 1200, QualityStatus: "OK"},
		{TaxID: "11222333000181", Year: 2024, Quarter: 1, Amount: 100, QualityStatus: "OK"},
		{TaxID: "11222333000181", Year: 2024, Quarter: 2, Amount: 110, QualityStatus: "OK"},
		{TaxID: "22333444000190", Year: 2024, Quarter: 1, Amount: 90, QualityStatus: "OK"},
		{TaxID: "22333444000190", Year: 2024, Quarter: 2, Amount: 95, QualityStatus: "OK"},
	}))
}

func newService(t *testing.T, pg *containers.PostgresContainer) *stats.Service {
	t.Helper()
	svc, err := stats.NewService(pg.DB, stats.NewMemoryCache(time.Minute),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return svc
}

func TestOverviewReport(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	seed(ctx, t, pg)
	svc := newService(t, pg)

	ov, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.InDelta(t, 2595.0, ov.TotalAmount, 0.001)
	require.Equal(t, int64(6), ov.ExpenseRows)
	require.Equal(t, int64(3), ov.OperatorCount)
	require.Len(t, ov.TopOperators, 3)
	require.Equal(t, "00394460000141", ov.TopOperators[0].TaxID)
	require.InDelta(t, 2200.0, ov.TopOperators[0].Total, 0.001)
}

func TestRegionShareReport(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	seed(ctx, t, pg)
	svc := newService(t, pg)

	shares, err := svc.RegionShares(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 2)

	require.Equal(t, "SP", shares[0].RegionCode)
	require.Equal(t, int64(2), shares[0].Operators)
	require.InDelta(t, 2410.0, shares[0].Total, 0.001)
	require.InDelta(t, 92.87, shares[0].Percent, 0.01)

	require.Equal(t, "RJ", shares[1].RegionCode)
	require.InDelta(t, 100.0, shares[0].Percent+shares[1].Percent, 0.001)
}

func TestAboveAverageReport(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	seed(ctx, t, pg)
	svc := newService(t, pg)

	ops, err := svc.AboveAverage(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, "00394460000141", ops[0].TaxID)
	require.Equal(t, 2, ops[0].QuartersAbove)
}

func TestReportsAreCached(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	seed(ctx, t, pg)
	svc := newService(t, pg)

	first, err := svc.Overview(ctx)
	require.NoError(t, err)

	// New data does not show up until the cache expires or is flushed.
	expenses := expstore.NewPostgres(pg.DB)
	require.NoError(t, expenses.InsertBatch(ctx, []expmodels.Expense{
		{TaxID: "00394460000141", Year: 2024, Quarter: 3, Amount: 500, QualityStatus: "OK"},
	}))

	second, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, first.TotalAmount, second.TotalAmount)
}
