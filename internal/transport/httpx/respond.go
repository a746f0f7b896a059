// Package httpx centralizes JSON response shaping and the translation
// of store sentinels into HTTP status codes.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"healthspend/pkg/platform/sentinel"
)

// ErrorResponse is the stable error envelope every endpoint returns.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the error envelope. Sentinel errors
// map to specific statuses; everything else is an opaque 500 so
// internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found", Code: "not_found"})
	case errors.Is(err, sentinel.ErrConflict):
		WriteJSON(w, http.StatusConflict, ErrorResponse{Error: "conflict", Code: "conflict"})
	case errors.Is(err, sentinel.ErrUnavailable):
		WriteJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "temporarily unavailable", Code: "unavailable"})
	default:
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal"})
	}
}

// WriteBadRequest reports a client input problem with detail.
func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad request", Detail: detail, Code: "bad_request"})
}
