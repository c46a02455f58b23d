package api

import (
	"io"
	"net/http"

	"github.com/pigeonworks-llc/fintrack/internal/ledger"
)

// maxBackupSize bounds an uploaded backup document.
const maxBackupSize = 32 << 20 // 32 MiB

// SystemHandler handles backup, orphan, generation and undo/redo
// endpoints.
type SystemHandler struct {
	ledger  *ledger.Ledger
	history *ledger.History
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(l *ledger.Ledger, history *ledger.History) *SystemHandler {
	return &SystemHandler{ledger: l, history: history}
}

// Export handles GET /api/1/backup: the full entity graph as a backup
// document.
func (h *SystemHandler) Export(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Export())
}

// Import handles POST /api/1/backup?mode=replace|merge. The body is the
// backup document itself.
func (h *SystemHandler) Import(w http.ResponseWriter, r *http.Request) {
	mode := ledger.ImportMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = ledger.ImportReplace
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBackupSize))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Failed to read request body")
		return
	}

	report, err := h.ledger.Import(raw, mode)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Orphans handles GET /api/1/orphans.
func (h *SystemHandler) Orphans(w http.ResponseWriter, r *http.Request) {
	report := h.ledger.FindOrphans()
	writeJSON(w, http.StatusOK, map[string]any{"orphans": report, "total": report.Total()})
}

// CleanupOrphans handles POST /api/1/orphans/cleanup.
func (h *SystemHandler) CleanupOrphans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.CleanupOrphans())
}

// Generate handles POST /api/1/generate: an on-demand generation pass.
func (h *SystemHandler) Generate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.GenerateDue())
}

// Undo handles POST /api/1/undo.
func (h *SystemHandler) Undo(w http.ResponseWriter, r *http.Request) {
	undone, err := h.history.Undo()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"undone": undone})
}

// Redo handles POST /api/1/redo.
func (h *SystemHandler) Redo(w http.ResponseWriter, r *http.Request) {
	redone, err := h.history.Redo()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"redone": redone})
}
