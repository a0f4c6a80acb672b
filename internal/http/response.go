// Package http provides HTTP server and handler implementations.
//
// This file implements the JSON response envelope and the mapping from
// the domain error taxonomy to HTTP status codes.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

type errorBody struct {
	Error string `json:"error"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response failed", "error", err)
	}
}

// respondError writes a JSON error envelope.
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, errorBody{Error: message})
}

// respondDomainError maps a store/domain error onto the HTTP surface.
// Every error is recovered here and surfaced as a client message; none
// are fatal.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrDuplicateUsername):
		respondError(w, http.StatusConflict, core.ErrDuplicateUsername.Error())
	case errors.Is(err, core.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, core.ErrInvalidCredentials.Error())
	case errors.Is(err, core.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, core.ErrTransactionNotFound.Error())
	case core.IsValidation(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Unexpected handler error", "error", err, "url", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// requireMethod enforces the allowed method, answering 405 otherwise.
// Returns false when the request was already answered.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}
