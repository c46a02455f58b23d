package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/fintrack/internal/ledger"
	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// AccountsHandler handles account-related API endpoints.
type AccountsHandler struct {
	ledger *ledger.Ledger
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(l *ledger.Ledger) *AccountsHandler {
	return &AccountsHandler{ledger: l}
}

// List handles GET /api/1/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"accounts": h.ledger.Accounts()})
}

// Get handles GET /api/1/accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.Account(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account})
}

// Create handles POST /api/1/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, err := h.ledger.CreateAccount(req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"account": account})
}

// Update handles PUT /api/1/accounts/{id}.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, err := h.ledger.UpdateAccount(chi.URLParam(r, "id"), req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": account})
}

// Delete handles DELETE /api/1/accounts/{id}.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteAccount(chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transactions handles GET /api/1/accounts/{id}/transactions.
func (h *AccountsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.ledger.Account(id); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": h.ledger.TransactionsByAccount(id)})
}
