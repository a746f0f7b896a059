package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthspend/internal/transport/httpx"
)

// Reporter defines the report operations the handler needs.
type Reporter interface {
	Overview(ctx context.Context) (*Overview, error)
	RegionShares(ctx context.Context) ([]RegionShare, error)
	AboveAverage(ctx context.Context) ([]AboveAverageOperator, error)
}

// Handler serves the statistics endpoints.
type Handler struct {
	service Reporter
	logger  *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(service Reporter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the statistics routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/stats", func(r chi.Router) {
		r.Get("/", h.overview)
		r.Get("/regions", h.regions)
		r.Get("/above-average", h.aboveAverage)
	})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "overview report failed", "error", err.Error())
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ov)
}

func (h *Handler) regions(w http.ResponseWriter, r *http.Request) {
	shares, err := h.service.RegionShares(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "region report failed", "error", err.Error())
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"regions": shares})
}

func (h *Handler) aboveAverage(w http.ResponseWriter, r *http.Request) {
	ops, err := h.service.AboveAverage(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "above-average report failed", "error", err.Error())
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"operators": ops})
}
