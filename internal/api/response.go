package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/trznica/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// validationError writes a 400 naming the rejected field.
func validationError(w http.ResponseWriter, ve *model.ValidationError) {
	jsonResponse(w, http.StatusBadRequest, map[string]string{"error": ve.Error(), "field": ve.Field})
}

// serviceError maps a market error to a response. Unexpected errors are
// logged and reported as a failure to do action.
func serviceError(w http.ResponseWriter, err error, action string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		validationError(w, ve)
	case model.IsPermission(err):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "listing not found")
	default:
		slog.Error("failed to "+action, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
