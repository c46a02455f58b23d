package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/fintrack/internal/ledger"
	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// BanksHandler handles bank-related API endpoints.
type BanksHandler struct {
	ledger *ledger.Ledger
}

// NewBanksHandler creates a new BanksHandler.
func NewBanksHandler(l *ledger.Ledger) *BanksHandler {
	return &BanksHandler{ledger: l}
}

// List handles GET /api/1/banks.
func (h *BanksHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"banks": h.ledger.Banks()})
}

// Get handles GET /api/1/banks/{id}.
func (h *BanksHandler) Get(w http.ResponseWriter, r *http.Request) {
	bank, err := h.ledger.Bank(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bank": bank})
}

// Create handles POST /api/1/banks.
func (h *BanksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bank, err := h.ledger.CreateBank(req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"bank": bank})
}

// Update handles PUT /api/1/banks/{id}.
func (h *BanksHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateBankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bank, err := h.ledger.UpdateBank(chi.URLParam(r, "id"), req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bank": bank})
}

// Delete handles DELETE /api/1/banks/{id}.
func (h *BanksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteBank(chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
