// Package api exposes the ledger engine over a thin chi HTTP surface.
// Handlers translate requests into ledger calls and ledger errors into
// status codes; no domain logic lives here.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pigeonworks-llc/fintrack/internal/ledger"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

// writeLedgerError maps engine errors onto HTTP status codes.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledger.ErrForeignKey):
		writeJSONError(w, http.StatusBadRequest, "foreign_key_missing", err.Error())
	case errors.Is(err, ledger.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, ledger.ErrDependents):
		writeJSONError(w, http.StatusConflict, "dependents_exist", err.Error())
	case errors.Is(err, ledger.ErrInvalidBackup):
		writeJSONError(w, http.StatusBadRequest, "invalid_backup_format", err.Error())
	case errors.Is(err, ledger.ErrRollbackFailed):
		writeJSONError(w, http.StatusInternalServerError, "rollback_failed", err.Error())
	case errors.Is(err, ledger.ErrImportFailed):
		writeJSONError(w, http.StatusInternalServerError, "import_failed", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON request body")
		return false
	}
	return true
}
