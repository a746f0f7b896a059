// Package handler wires the operator endpoints to the operator service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"healthspend/internal/operator/models"
	"healthspend/internal/operator/service"
	"healthspend/internal/operator/store"
	"healthspend/internal/transport/httpx"
)

// Service defines the operator operations the handler needs.
type Service interface {
	List(ctx context.Context, f store.ListFilter) (*service.Page, error)
	Get(ctx context.Context, rawID string) (*models.Detail, error)
}

// Handler serves the operator endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an operator handler.
func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: svc, logger: logger}
}

// Register mounts the operator endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/operators", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{taxID}", h.HandleGet)
	})
}

// HandleList handles GET /operators with search, region and pagination
// query parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := store.ListFilter{
		Search:     strings.TrimSpace(q.Get("search")),
		RegionCode: strings.ToUpper(strings.TrimSpace(q.Get("region"))),
	}
	var ok bool
	if f.Page, ok = intParam(w, q.Get("page"), "page"); !ok {
		return
	}
	if f.Limit, ok = intParam(w, q.Get("limit"), "limit"); !ok {
		return
	}

	page, err := h.service.List(ctx, f)
	if err != nil {
		h.logger.ErrorContext(ctx, "operator list failed", "error", err.Error())
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// HandleGet handles GET /operators/{taxID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawID := chi.URLParam(r, "taxID")

	detail, err := h.service.Get(ctx, rawID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, detail)
}

func intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		httpx.WriteBadRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
