package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/erazemk/blagajna/internal/store"
	"github.com/erazemk/blagajna/internal/transfer"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
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

// domainError maps domain sentinel errors to HTTP statuses.
func domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInsufficientStock):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, transfer.ErrInvalidTransition):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
