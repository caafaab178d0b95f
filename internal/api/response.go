package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/izposoja/internal/engine"
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

// engineError maps engine errors onto HTTP statuses: conflicts are 409
// with the offending items in the body, NotFound 404, InvalidInput 400,
// everything else a generic 500.
func engineError(w http.ResponseWriter, err error) {
	var conflict *engine.ConflictError
	switch {
	case errors.As(err, &conflict):
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":     conflict.Error(),
			"conflicts": conflict.Items,
		})
	case errors.Is(err, engine.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
