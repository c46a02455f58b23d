package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// A four-operation batch whose third operation fails must leave no trace:
// everything already applied is rolled back and the result reports zero
// successes.
func TestBulkRollbackOnMidBatchFailure(t *testing.T) {
	l := newTestLedger(t)
	bank := seedBank(t, l)
	account := seedAccount(t, l, bank.ID)

	t1 := seedExpense(t, l, account.ID, "2025-06-01", "10")
	t2 := seedExpense(t, l, account.ID, "2025-06-02", "20")
	t3 := seedExpense(t, l, account.ID, "2025-06-03", "30")

	collection := models.CollectionExpenseTxns
	ops := []FieldOp{
		{Collection: collection, ID: t1.ID, Field: "status", Next: "paid"},
		{Collection: collection, ID: t2.ID, Field: "category", Next: "Food"},
		{Collection: collection, ID: t3.ID, Field: "amount", Next: "-5"}, // fails validation
		{Collection: collection, ID: t3.ID, Field: "notes", Next: "never reached"},
	}

	result := l.ApplyBulk(ops)
	if result.ErrorCount != 1 {
		t.Errorf("expected 1 error, got %d: %v", result.ErrorCount, result.Errors)
	}
	if result.SuccessCount != 0 {
		t.Errorf("expected 0 successes after rollback, got %d", result.SuccessCount)
	}
	if !result.RolledBack {
		t.Error("expected RolledBack to be true")
	}
	if result.RollbackErr != nil {
		t.Errorf("unexpected rollback error: %v", result.RollbackErr)
	}

	// The first two operations were applied and must now be reverted.
	got1, _ := l.Transaction(t1.ID)
	if got1.Status != models.StatusPending {
		t.Errorf("t1 status not rolled back: %q", got1.Status)
	}
	got2, _ := l.Transaction(t2.ID)
	if got2.Category != "" {
		t.Errorf("t2 category not rolled back: %q", got2.Category)
	}
	got3, _ := l.Transaction(t3.ID)
	if !got3.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("t3 amount changed: %s", got3.Amount)
	}
}

func TestBulkAppliesAllOnSuccess(t *testing.T) {
	l := newTestLedger(t)
	bank := seedBank(t, l)
	account := seedAccount(t, l, bank.ID)

	t1 := seedExpense(t, l, account.ID, "2025-06-01", "10")
	t2 := seedExpense(t, l, account.ID, "2025-06-02", "20")

	collection := models.CollectionExpenseTxns
	result := l.ApplyBulk([]FieldOp{
		{Collection: collection, ID: t1.ID, Field: "status", Next: "paid"},
		{Collection: collection, ID: t1.ID, Field: "category", Next: "Transport"},
		{Collection: collection, ID: t2.ID, Field: "date", Next: "2025-06-09"},
	})
	if result.ErrorCount != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.SuccessCount != 3 {
		t.Errorf("expected 3 successes, got %d", result.SuccessCount)
	}
	if result.RolledBack {
		t.Error("nothing should have been rolled back")
	}

	got1, _ := l.Transaction(t1.ID)
	if got1.Status != models.StatusPaid || got1.Category != "Transport" {
		t.Errorf("t1 not updated: status=%q category=%q", got1.Status, got1.Category)
	}
	got2, _ := l.Transaction(t2.ID)
	if got2.Date != "2025-06-09" {
		t.Errorf("t2 date not updated: %s", got2.Date)
	}
}

func TestBulkFirstOperationFailureRollsNothingBack(t *testing.T) {
	l := newTestLedger(t)
	bank := seedBank(t, l)
	account := seedAccount(t, l, bank.ID)
	txn := seedExpense(t, l, account.ID, "2025-06-01", "10")

	result := l.ApplyBulk([]FieldOp{
		{Collection: models.CollectionExpenseTxns, ID: "missing", Field: "status", Next: "paid"},
		{Collection: models.CollectionExpenseTxns, ID: txn.ID, Field: "status", Next: "paid"},
	})
	if result.ErrorCount != 1 || result.SuccessCount != 0 {
		t.Errorf("expected 1 error, 0 successes; got %d, %d", result.ErrorCount, result.SuccessCount)
	}
	if result.RolledBack {
		t.Error("nothing was applied, so nothing should report rolled back")
	}
}

func TestBulkScheduleStatus(t *testing.T) {
	l := newTestLedger(t)
	bank := seedBank(t, l)
	account := seedAccount(t, l, bank.ID)
	plan := seedPlan(t, l, account.ID, "2025-06-15", 3)

	result := l.ApplyBulk([]FieldOp{
		{Collection: plan.Kind.Collection(), ID: plan.ID, Field: "status", Next: "paused"},
	})
	if result.ErrorCount != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	got, _ := l.Plan(plan.ID)
	if got.Status != models.SchedulePaused {
		t.Errorf("expected paused plan, got %q", got.Status)
	}

	// Only status is bulk-assignable on schedules.
	result = l.ApplyBulk([]FieldOp{
		{Collection: plan.Kind.Collection(), ID: plan.ID, Field: "name", Next: "x"},
	})
	if result.ErrorCount != 1 {
		t.Errorf("expected error for non-status schedule field")
	}
}

func TestConvertPlanToRecurring(t *testing.T) {
	l := newTestLedger(t)
	bank := seedBank(t, l)
	account := seedAccount(t, l, bank.ID)

	// Two installments materialized by creation catch-up.
	plan := seedPlan(t, l, account.ID, "2025-05-15", 6)

	rec, err := l.ConvertPlanToRecurring(plan.ID)
	if err != nil {
		t.Fatalf("ConvertPlanToRecurring failed: %v", err)
	}
	if rec.Kind != models.RecurringExpense {
		t.Errorf("expected expense template, got %q", rec.Kind)
	}
	if !rec.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected amount 500, got %s", rec.Amount)
	}
	// The template resumes after the plan's last generated installment.
	if rec.NextDueDate != "2025-07-15" {
		t.Errorf("expected next due 2025-07-15, got %s", rec.NextDueDate)
	}

	// The plan is gone and every generated transaction now points at the
	// template.
	if _, err := l.Plan(plan.ID); err == nil {
		t.Error("plan should be deleted after conversion")
	}
	for _, txn := range l.Transactions(models.TransactionExpense) {
		if txn.SourceType != models.SourceRecurring || txn.SourceID != rec.ID {
			t.Errorf("transaction %s provenance not rewritten: %s/%s", txn.ID, txn.SourceType, txn.SourceID)
		}
	}
}

func TestConvertMissingPlan(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.ConvertPlanToRecurring("nope"); err == nil {
		t.Fatal("expected error for missing plan")
	}
}
