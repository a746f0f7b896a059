// Package handler wires the expense endpoints to the expense service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"healthspend/internal/expense/service"
	"healthspend/internal/expense/store"
	"healthspend/internal/transport/httpx"
)

// Service defines the expense operations the handler needs.
type Service interface {
	List(ctx context.Context, f store.ListFilter) (*service.Page, error)
}

// Handler serves the expense endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an expense handler.
func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: svc, logger: logger}
}

// Register mounts the expense endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/expenses", h.HandleList)
}

// HandleList handles GET /expenses with operator, year, quarter and
// pagination query parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := store.ListFilter{TaxID: strings.TrimSpace(q.Get("operator"))}
	var ok bool
	if f.Year, ok = intParam(w, q.Get("year"), "year"); !ok {
		return
	}
	if f.Quarter, ok = intParam(w, q.Get("quarter"), "quarter"); !ok {
		return
	}
	if f.Quarter > 4 {
		httpx.WriteBadRequest(w, "quarter must be between 1 and 4")
		return
	}
	if f.Page, ok = intParam(w, q.Get("page"), "page"); !ok {
		return
	}
	if f.Limit, ok = intParam(w, q.Get("limit"), "limit"); !ok {
		return
	}

	page, err := h.service.List(ctx, f)
	if err != nil {
		h.logger.ErrorContext(ctx, "expense list failed", "error", err.Error())
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
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
