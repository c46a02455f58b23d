package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/fintrack/internal/category"
	"github.com/pigeonworks-llc/fintrack/internal/ledger"
	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// TransactionsHandler handles transaction-related API endpoints.
// Mutations are recorded in the command history so the undo/redo
// endpoints can revert them.
type TransactionsHandler struct {
	ledger   *ledger.Ledger
	history  *ledger.History
	taxonomy *category.Taxonomy // optional
}

// NewTransactionsHandler creates a new TransactionsHandler. taxonomy may
// be nil, in which case category names are not checked.
func NewTransactionsHandler(l *ledger.Ledger, history *ledger.History, taxonomy *category.Taxonomy) *TransactionsHandler {
	return &TransactionsHandler{ledger: l, history: history, taxonomy: taxonomy}
}

// List handles GET /api/1/transactions?kind=&status=&category=&from=&to=.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := models.TransactionKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Unknown transaction kind")
		return
	}

	query := r.URL.Query()
	var txns []*models.Transaction
	switch {
	case query.Get("status") != "":
		txns = h.ledger.TransactionsByStatus(kind, models.TransactionStatus(query.Get("status")))
	case query.Get("category") != "":
		txns = h.ledger.TransactionsByCategory(kind, query.Get("category"))
	default:
		txns = h.ledger.TransactionsByDateRange(kind, query.Get("from"), query.Get("to"))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

// Get handles GET /api/1/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	txn, err := h.ledger.Transaction(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": txn})
}

// Create handles POST /api/1/transactions.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if h.taxonomy != nil && req.Category != "" && !h.taxonomy.Known(req.Category) {
		slog.Warn("transaction category is not in the taxonomy", "category", req.Category)
	}

	var txn *models.Transaction
	err := h.history.Do(ledger.Command{
		Description: "create transaction",
		Execute: func() error {
			if txn != nil {
				// Redo after undo restores the original record
				// instead of minting a new one.
				return h.ledger.RestoreTransaction(*txn)
			}
			created, err := h.ledger.CreateTransaction(req)
			if err != nil {
				return err
			}
			txn = created
			return nil
		},
		Undo: func() error {
			return h.ledger.DeleteTransaction(txn.ID)
		},
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": txn})
}

// Update handles PUT /api/1/transactions/{id}.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.UpdateTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	previous, err := h.ledger.Transaction(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	var txn *models.Transaction
	err = h.history.Do(ledger.Command{
		Description: fmt.Sprintf("update transaction %s", id),
		Execute: func() error {
			updated, err := h.ledger.UpdateTransaction(id, req)
			if err != nil {
				return err
			}
			txn = updated
			return nil
		},
		Undo: func() error {
			return h.ledger.RestoreTransaction(*previous)
		},
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": txn})
}

// Delete handles DELETE /api/1/transactions/{id}.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	previous, err := h.ledger.Transaction(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	err = h.history.Do(ledger.Command{
		Description: fmt.Sprintf("delete transaction %s", id),
		Execute: func() error {
			return h.ledger.DeleteTransaction(id)
		},
		Undo: func() error {
			return h.ledger.RestoreTransaction(*previous)
		},
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/1/transactions/summary?kind=.
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	kind := models.TransactionKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Unknown transaction kind")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":       h.ledger.TotalByKind(kind),
		"by_category": h.ledger.SumByCategory(kind),
	})
}
