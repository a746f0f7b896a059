package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"healthspend/internal/operator/handler"
	"healthspend/internal/operator/models"
	"healthspend/internal/operator/service"
	"healthspend/internal/operator/store"
)

func newRouter(t *testing.T, ops ...models.Operator) chi.Router {
	t.Helper()
	ctx := context.Background()
	st := store.NewInMemory()

	batch, err := st.Begin(ctx)
	require.NoError(t, err)
	for i := range ops {
		require.NoError(t, batch.Insert(ctx, &ops[i]))
	}
	require.NoError(t, batch.Commit(ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(st, logger, 20, 100)
	require.NoError(t, err)

	r := chi.NewRouter()
	handler.New(svc, logger).Register(r)
	return r
}

func get(t *testing.T, r chi.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListOperators(t *testing.T) {
	r := newRouter(t,
		models.Operator{TaxID: "00394460000141", LegalName: "Saude Alfa", RegionCode: "SP"},
		models.Operator{TaxID: "11222333000181", LegalName: "Saude Beta", RegionCode: "RJ"},
	)

	rec := get(t, r, "/operators")
	require.Equal(t, http.StatusOK, rec.Code)

	var page service.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 20, page.Limit)
}

func TestListOperatorsFiltered(t *testing.T) {
	r := newRouter(t,
		models.Operator{TaxID: "00394460000141", LegalName: "Saude Alfa", RegionCode: "SP"},
		models.Operator{TaxID: "11222333000181", LegalName: "Saude Beta", RegionCode: "RJ"},
	)

	rec := get(t, r, "/operators?search=alfa")
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Total)
	require.Equal(t, "00394460000141", page.Items[0].TaxID)

	rec = get(t, r, "/operators?region=rj")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Total)
	require.Equal(t, "Saude Beta", page.Items[0].LegalName)
}

func TestListOperatorsBadPagination(t *testing.T) {
	r := newRouter(t)

	require.Equal(t, http.StatusBadRequest, get(t, r, "/operators?page=abc").Code)
	require.Equal(t, http.StatusBadRequest, get(t, r, "/operators?limit=-1").Code)
}

func TestListOperatorsLimitClamped(t *testing.T) {
	r := newRouter(t,
		models.Operator{TaxID: "00394460000141", LegalName: "Alfa"},
	)

	rec := get(t, r, "/operators?limit=5000")
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, 100, page.Limit)
}

func TestGetOperatorNormalizesIdentifier(t *testing.T) {
	r := newRouter(t,
		models.Operator{TaxID: "00394460000141", LegalName: "Saude Alfa"},
	)

	// Formatted and unpadded forms resolve to the same record.
	for _, id := range []string{"00394460000141", "00.394.460.0001-41", "394460000141"} {
		rec := get(t, r, "/operators/"+id)
		require.Equal(t, http.StatusOK, rec.Code, "id %s", id)

		var detail models.Detail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
		require.Equal(t, "00394460000141", detail.TaxID)
	}
}

func TestGetOperatorNotFound(t *testing.T) {
	r := newRouter(t)

	require.Equal(t, http.StatusNotFound, get(t, r, "/operators/99999999999999").Code)
	// No digits at all cannot name an operator.
	require.Equal(t, http.StatusNotFound, get(t, r, "/operators/abc").Code)
}
