package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/fintrack/internal/ledger"
	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// SchedulesHandler handles installment plan and recurring template
// endpoints.
type SchedulesHandler struct {
	ledger *ledger.Ledger
}

// NewSchedulesHandler creates a new SchedulesHandler.
func NewSchedulesHandler(l *ledger.Ledger) *SchedulesHandler {
	return &SchedulesHandler{ledger: l}
}

// ListPlans handles GET /api/1/plans?kind=. Without kind, plans of
// every kind are returned.
func (h *SchedulesHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	kind := models.PlanKind(r.URL.Query().Get("kind"))
	if kind == "" {
		plans := h.ledger.Plans(models.PlanExpense)
		plans = append(plans, h.ledger.Plans(models.PlanSavings)...)
		writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
		return
	}
	if !kind.Valid() {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Unknown plan kind")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": h.ledger.Plans(kind)})
}

// GetPlan handles GET /api/1/plans/{id}.
func (h *SchedulesHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.ledger.Plan(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan": plan})
}

// CreatePlan handles POST /api/1/plans.
func (h *SchedulesHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	plan, err := h.ledger.CreatePlan(req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"plan": plan})
}

// UpdatePlan handles PUT /api/1/plans/{id}.
func (h *SchedulesHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePlanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	plan, err := h.ledger.UpdatePlan(chi.URLParam(r, "id"), req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan": plan})
}

// DeletePlan handles DELETE /api/1/plans/{id}.
func (h *SchedulesHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeletePlan(chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConvertPlan handles POST /api/1/plans/{id}/convert: rewrites the plan
// into a recurring template as a single bulk transaction.
func (h *SchedulesHandler) ConvertPlan(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.ConvertPlanToRecurring(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": rec})
}

// ListRecurrings handles GET /api/1/recurrings?kind=. Without kind,
// templates of every kind are returned.
func (h *SchedulesHandler) ListRecurrings(w http.ResponseWriter, r *http.Request) {
	kind := models.RecurringKind(r.URL.Query().Get("kind"))
	if kind == "" {
		recs := h.ledger.Recurrings(models.RecurringIncome)
		recs = append(recs, h.ledger.Recurrings(models.RecurringExpense)...)
		recs = append(recs, h.ledger.Recurrings(models.RecurringSavings)...)
		writeJSON(w, http.StatusOK, map[string]any{"recurrings": recs})
		return
	}
	if !kind.Valid() {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Unknown recurring kind")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurrings": h.ledger.Recurrings(kind)})
}

// GetRecurring handles GET /api/1/recurrings/{id}.
func (h *SchedulesHandler) GetRecurring(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.Recurring(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": rec})
}

// CreateRecurring handles POST /api/1/recurrings.
func (h *SchedulesHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRecurringRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.ledger.CreateRecurring(req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"recurring": rec})
}

// UpdateRecurring handles PUT /api/1/recurrings/{id}.
func (h *SchedulesHandler) UpdateRecurring(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRecurringRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.ledger.UpdateRecurring(chi.URLParam(r, "id"), req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": rec})
}

// DeleteRecurring handles DELETE /api/1/recurrings/{id}.
func (h *SchedulesHandler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteRecurring(chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
