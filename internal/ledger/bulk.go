package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// FieldOp is a single field assignment inside a bulk mutation. Previous is
// captured when the batch is built, before anything is applied; it is
// reported back to callers but rollback itself restores whole-record
// snapshots taken at execution start, which stays correct even when an
// operation has side effects beyond the named field.
type FieldOp struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Field      string `json:"field"`
	Previous   any    `json:"previous"`
	Next       any    `json:"next"`
}

// BulkResult reports the outcome of a bulk mutation. After a successful
// full rollback SuccessCount is zero: nothing the batch did is still
// applied. RollbackErr is a separate field so a failed rollback can never
// be mistaken for a clean failure.
type BulkResult struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
	RolledBack   bool     `json:"rolled_back"`
	RollbackErr  error    `json:"-"`
}

// ApplyBulk executes an ordered batch of field assignments as one logical
// transaction. Operations apply strictly in order; the first failure stops
// the batch and, if at least one operation already succeeded, every
// touched record is restored from its pre-batch snapshot.
func (l *Ledger) ApplyBulk(ops []FieldOp) BulkResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyBulkLocked(ops)
}

func (l *Ledger) applyBulkLocked(ops []FieldOp) BulkResult {
	result := BulkResult{}

	// Snapshot every record the batch may touch before applying anything.
	type snapshot struct {
		collection string
		txn        *models.Transaction
		plan       *models.InstallmentPlan
		rec        *models.RecurringTemplate
	}
	snapshots := make(map[string]snapshot)
	for _, op := range ops {
		if _, ok := snapshots[op.ID]; ok {
			continue
		}
		snap := snapshot{collection: op.Collection}
		if t, ok := l.transactions[op.ID]; ok {
			copied := *t
			snap.txn = &copied
		}
		if p, ok := l.plans[op.ID]; ok {
			copied := *p
			snap.plan = &copied
		}
		if r, ok := l.recurrings[op.ID]; ok {
			copied := *r
			snap.rec = &copied
		}
		snapshots[op.ID] = snap
	}

	applied := 0
	for i, op := range ops {
		if err := l.applyFieldLocked(op); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors,
				fmt.Sprintf("operation %d (%s/%s %s): %v", i+1, op.Collection, op.ID, op.Field, err))
			break
		}
		applied++
	}

	if result.ErrorCount == 0 {
		result.SuccessCount = applied
		return result
	}
	if applied == 0 {
		// Nothing succeeded, nothing to undo.
		return result
	}

	// Compensating rollback: restore every snapshotted record.
	for id, snap := range snapshots {
		var restoreErr error
		switch {
		case snap.txn != nil:
			copied := *snap.txn
			l.transactions[id] = &copied
			restoreErr = l.persistSet(copied.Kind.Collection(), id, &copied)
		case snap.plan != nil:
			copied := *snap.plan
			l.plans[id] = &copied
			restoreErr = l.persistSet(copied.Kind.Collection(), id, &copied)
		case snap.rec != nil:
			copied := *snap.rec
			l.recurrings[id] = &copied
			restoreErr = l.persistSet(copied.Kind.Collection(), id, &copied)
		}
		if restoreErr != nil && result.RollbackErr == nil {
			result.RollbackErr = fmt.Errorf("%w: %v", ErrRollbackFailed, restoreErr)
		}
	}
	if result.RollbackErr == nil {
		result.RolledBack = true
		result.SuccessCount = 0
	} else {
		result.SuccessCount = applied
	}
	return result
}

// applyFieldLocked assigns one field on one record, with the same
// validation the regular update paths enforce.
func (l *Ledger) applyFieldLocked(op FieldOp) error {
	if t, ok := l.transactions[op.ID]; ok {
		return l.applyTransactionFieldLocked(t, op)
	}
	if p, ok := l.plans[op.ID]; ok {
		return l.applyScheduleStatusLocked(op, &p.Status, func() { p.UpdatedAt = l.now() }, p.Kind.Collection(), p)
	}
	if r, ok := l.recurrings[op.ID]; ok {
		return l.applyScheduleStatusLocked(op, &r.Status, func() { r.UpdatedAt = l.now() }, r.Kind.Collection(), r)
	}
	return fmt.Errorf("%w: %s %q", ErrNotFound, op.Collection, op.ID)
}

func (l *Ledger) applyTransactionFieldLocked(t *models.Transaction, op FieldOp) error {
	switch op.Field {
	case "status":
		s, err := toString(op.Next)
		if err != nil {
			return err
		}
		status := models.TransactionStatus(s)
		if !status.ValidFor(t.Kind) {
			return fmt.Errorf("%w: status %q is not valid for %s transactions", ErrValidation, status, t.Kind)
		}
		t.Status = status
	case "category":
		s, err := toString(op.Next)
		if err != nil {
			return err
		}
		t.Category = s
	case "notes":
		s, err := toString(op.Next)
		if err != nil {
			return err
		}
		t.Notes = s
	case "date":
		s, err := toString(op.Next)
		if err != nil {
			return err
		}
		if err := validateDateField("date", s); err != nil {
			return err
		}
		t.Date = s
	case "amount":
		amount, err := toDecimal(op.Next)
		if err != nil {
			return err
		}
		if err := validatePositiveAmount("amount", amount); err != nil {
			return err
		}
		t.Amount = amount
	case "source_type":
		s, err := toString(op.Next)
		if err != nil {
			return err
		}
		t.SourceType = models.SourceType(s)
	case "source_id":
		s, err := toString(op.Next)
		if err != nil {
			return err
		}
		t.SourceID = s
	default:
		return fmt.Errorf("%w: field %q is not bulk-assignable on transactions", ErrValidation, op.Field)
	}
	t.UpdatedAt = l.now()
	return l.persistSet(t.Kind.Collection(), t.ID, t)
}

func (l *Ledger) applyScheduleStatusLocked(op FieldOp, status *models.ScheduleStatus, touch func(), collection string, record any) error {
	if op.Field != "status" {
		return fmt.Errorf("%w: field %q is not bulk-assignable on schedules", ErrValidation, op.Field)
	}
	s, err := toString(op.Next)
	if err != nil {
		return err
	}
	next := models.ScheduleStatus(s)
	if err := validateScheduleTransition(*status, next); err != nil {
		return err
	}
	*status = next
	touch()
	return l.persistSet(collection, op.ID, record)
}

// ConvertPlanToRecurring turns an installment plan into an open-ended
// recurring template: the template is created, every transaction the plan
// generated is re-pointed at it, and the plan is deleted. The provenance
// rewrite runs as one bulk transaction, so a failure part-way leaves the
// original plan and its transactions untouched.
func (l *Ledger) ConvertPlanToRecurring(planID string) (*models.RecurringTemplate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	plan, ok := l.plans[planID]
	if !ok {
		return nil, fmt.Errorf("%w: installment plan %q", ErrNotFound, planID)
	}

	kind := models.RecurringExpense
	if plan.Kind == models.PlanSavings {
		kind = models.RecurringSavings
	}
	start, err := parseDate(plan.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", ErrValidation, err)
	}

	now := l.now()
	rec := &models.RecurringTemplate{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      plan.Name,
		AccountID: plan.AccountID,
		Amount:    plan.MonthlyAmount,
		Frequency: plan.Frequency,
		StartDate: plan.StartDate,
		// Resume where the plan left off instead of regenerating history.
		NextDueDate: addPeriods(start, plan.Frequency, plan.CompletedInstallments).Format(dateFormat),
		Status:      models.ScheduleActive,
		Category:    plan.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.recurrings[rec.ID] = rec
	if err := l.persistSet(rec.Kind.Collection(), rec.ID, rec); err != nil {
		delete(l.recurrings, rec.ID)
		return nil, err
	}

	var ops []FieldOp
	for _, t := range l.transactions {
		if t.SourceType == models.SourceEMI && t.SourceID == planID {
			collection := t.Kind.Collection()
			ops = append(ops,
				FieldOp{Collection: collection, ID: t.ID, Field: "source_type", Previous: string(models.SourceEMI), Next: string(models.SourceRecurring)},
				FieldOp{Collection: collection, ID: t.ID, Field: "source_id", Previous: planID, Next: rec.ID},
			)
		}
	}

	if result := l.applyBulkLocked(ops); result.ErrorCount > 0 {
		delete(l.recurrings, rec.ID)
		if err := l.persistRemove(rec.Kind.Collection(), rec.ID); err != nil && result.RollbackErr == nil {
			result.RollbackErr = fmt.Errorf("%w: %v", ErrRollbackFailed, err)
		}
		if result.RollbackErr != nil {
			return nil, result.RollbackErr
		}
		return nil, fmt.Errorf("conversion of plan %q aborted: %s", planID, result.Errors[0])
	}

	if err := l.deletePlanLocked(planID); err != nil {
		return nil, err
	}
	return rec, nil
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string value, got %T", ErrValidation, v)
	}
	return s, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch value := v.(type) {
	case decimal.Decimal:
		return value, nil
	case string:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: invalid amount %q", ErrValidation, value)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(value), nil
	case int:
		return decimal.NewFromInt(int64(value)), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: expected numeric value, got %T", ErrValidation, v)
	}
}
