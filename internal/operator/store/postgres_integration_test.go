//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"healthspend/internal/operator/models"
	"healthspend/internal/operator/store"
	"healthspend/pkg/platform/sentinel"
	"healthspend/pkg/testutil/containers"
)

func insertOne(ctx context.Context, t *testing.T, st *store.Postgres, op models.Operator) {
	t.Helper()
	batch, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, batch.Insert(ctx, &op))
	require.NoError(t, batch.Commit(ctx))
}

func TestPostgresInsertAndRegistryEntries(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	st := store.NewPostgres(pg.DB)

	insertOne(ctx, t, st, models.Operator{
		TaxID: "00394460000141", LegalName: "Operadora Alfa",
		RegistryCode: "343889", RegionCode: "SP",
	})
	insertOne(ctx, t, st, models.Operator{
		TaxID: "11222333000181", LegalName: "Operadora Beta",
	})

	entries, err := st.RegistryEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]string{}
	for _, e := range entries {
		byID[e.TaxID] = e.RegistryCode
	}
	require.Equal(t, "343889", byID["00394460000141"])
	// Operators stored without a code come back with an empty one.
	require.Equal(t, "", byID["11222333000181"])
}

func TestPostgresBatchSurvivesFailedInsert(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	st := store.NewPostgres(pg.DB)

	insertOne(ctx, t, st, models.Operator{
		TaxID: "00394460000141", LegalName: "Alfa", RegistryCode: "343889",
	})

	batch, err := st.Begin(ctx)
	require.NoError(t, err)

	// Primary key conflict. The savepoint keeps the transaction usable.
	err = batch.Insert(ctx, &models.Operator{TaxID: "00394460000141", LegalName: "Dup"})
	require.Error(t, err)

	require.NoError(t, batch.Insert(ctx, &models.Operator{
		TaxID: "11222333000181", LegalName: "Beta",
	}))
	require.NoError(t, batch.Commit(ctx))

	count, err := st.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestPostgresDuplicateRegistryCodeRejected(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	st := store.NewPostgres(pg.DB)

	insertOne(ctx, t, st, models.Operator{
		TaxID: "00394460000141", LegalName: "Alfa", RegistryCode: "343889",
	})

	batch, err := st.Begin(ctx)
	require.NoError(t, err)
	err = batch.Insert(ctx, &models.Operator{
		TaxID: "11222333000181", LegalName: "Beta", RegistryCode: "343889",
	})
	require.Error(t, err)
	require.NoError(t, batch.Rollback())
}

func TestPostgresListAndGet(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	st := store.NewPostgres(pg.DB)

	insertOne(ctx, t, st, models.Operator{
		TaxID: "00394460000141", LegalName: "Saude Alfa", RegionCode: "SP",
	})
	insertOne(ctx, t, st, models.Operator{
		TaxID: "11222333000181", LegalName: "Saude Beta", RegionCode: "RJ",
	})

	items, total, err := st.List(ctx, store.ListFilter{Search: "alfa", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	require.Equal(t, "00394460000141", items[0].TaxID)

	items, total, err = st.List(ctx, store.ListFilter{RegionCode: "RJ", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Saude Beta", items[0].LegalName)

	detail, err := st.GetByTaxID(ctx, "00394460000141")
	require.NoError(t, err)
	require.Equal(t, "Saude Alfa", detail.LegalName)

	_, err = st.GetByTaxID(ctx, "99999999999999")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresPurge(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	st := store.NewPostgres(pg.DB)

	insertOne(ctx, t, st, models.Operator{TaxID: "00394460000141", LegalName: "Alfa"})
	require.NoError(t, st.Purge(ctx))

	count, err := st.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}
