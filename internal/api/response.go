package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/sparetrack/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryInt parses an optional positive integer query parameter. Missing or
// malformed values yield 0.
func queryInt(r *http.Request, key string) int64 {
	n, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// storeError maps a store error onto an HTTP response. Unexpected errors
// are logged and reported as 500 with a generic message.
func storeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var (
		validation *model.ValidationError
		stock      *model.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		jsonResponse(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": validation.Fields,
		})
	case errors.As(err, &stock):
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":     "insufficient stock",
			"available": stock.Available,
			"requested": stock.Requested,
		})
	case errors.Is(err, model.ErrInvalidInput):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrDuplicateCode):
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":  "duplicate code",
			"fields": map[string]string{"code": "code is already in use"},
		})
	case errors.Is(err, model.ErrStockConflict):
		jsonError(w, http.StatusConflict, "stock changed concurrently, retry")
	case errors.Is(err, model.ErrUnauthorized):
		jsonError(w, http.StatusForbidden, "insufficient permissions")
	default:
		slog.Error("failed to "+action, "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}
