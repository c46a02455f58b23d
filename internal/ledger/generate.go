package ledger

import (
	"log/slog"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// GenerationReport summarizes one auto-generation pass.
type GenerationReport struct {
	Generated int `json:"generated"` // transactions created
	Skipped   int `json:"skipped"`   // due dates already materialized
	Completed int `json:"completed"` // schedules that reached their end
}

// GenerateDue materializes pending transactions from every active
// installment plan and recurring template whose next due date is on or
// before today. The pass is idempotent: a due date that already has a
// transaction with the schedule's provenance is never generated twice, so
// the scheduler may run as often as it likes. Generation never rolls
// backward and never deletes a generated transaction.
func (l *Ledger) GenerateDue() GenerationReport {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.today()
	report := GenerationReport{}

	for _, plan := range l.plans {
		l.generatePlanLocked(plan, today, &report)
	}
	for _, rec := range l.recurrings {
		l.generateRecurringLocked(rec, today, &report)
	}

	if report.Generated > 0 || report.Completed > 0 {
		slog.Info("auto-generation pass finished",
			"generated", report.Generated,
			"skipped", report.Skipped,
			"completed", report.Completed)
	}
	return report
}

// generatePlanLocked catches a single installment plan up to today. The
// plan's next due date is derived from its start date plus the number of
// completed installments, so each generated installment advances the
// schedule by one period.
func (l *Ledger) generatePlanLocked(plan *models.InstallmentPlan, today string, report *GenerationReport) {
	start, err := parseDate(plan.StartDate)
	if err != nil {
		slog.Warn("skipping plan with unparseable start date", "plan_id", plan.ID, "start_date", plan.StartDate)
		return
	}

	changed := false
	for plan.Status == models.ScheduleActive && plan.CompletedInstallments < plan.TotalInstallments {
		due := addPeriods(start, plan.Frequency, plan.CompletedInstallments).Format(dateFormat)
		if due > today {
			break
		}

		if l.hasGeneratedLocked(models.SourceEMI, plan.ID, due) {
			report.Skipped++
		} else {
			_, err := l.createTransactionLocked(models.CreateTransactionRequest{
				Kind:       plan.Kind.TransactionKind(),
				Date:       due,
				Amount:     plan.MonthlyAmount,
				AccountID:  plan.AccountID,
				Category:   plan.Category,
				SourceType: models.SourceEMI,
				SourceID:   plan.ID,
			}, models.StatusPending)
			if err != nil {
				slog.Error("failed to generate installment transaction", "plan_id", plan.ID, "due", due, "error", err)
				break
			}
			report.Generated++
		}

		// The due date is materialized either way, so the installment
		// counts as completed and the schedule advances.
		plan.CompletedInstallments++
		if plan.CompletedInstallments >= plan.TotalInstallments {
			plan.Status = models.ScheduleCompleted
			report.Completed++
		}
		plan.UpdatedAt = l.now()
		changed = true
	}

	if changed {
		if err := l.persistSet(plan.Kind.Collection(), plan.ID, plan); err != nil {
			slog.Error("failed to persist plan after generation", "plan_id", plan.ID, "error", err)
		}
	}
}

// generateRecurringLocked catches a single recurring template up to today.
// NextDueDate is stored and recomputed per frequency after each generated
// transaction; the template completes when the new due date passes its
// end date.
func (l *Ledger) generateRecurringLocked(rec *models.RecurringTemplate, today string, report *GenerationReport) {
	changed := false
	for rec.Status == models.ScheduleActive {
		due := rec.NextDueDate
		if due == "" {
			due = rec.StartDate
		}
		if due > today {
			break
		}
		dueDate, err := parseDate(due)
		if err != nil {
			slog.Warn("skipping template with unparseable due date", "recurring_id", rec.ID, "next_due_date", due)
			return
		}

		if l.hasGeneratedLocked(models.SourceRecurring, rec.ID, due) {
			report.Skipped++
		} else {
			_, err := l.createTransactionLocked(models.CreateTransactionRequest{
				Kind:       rec.Kind.TransactionKind(),
				Date:       due,
				Amount:     rec.Amount,
				AccountID:  rec.AccountID,
				Category:   rec.Category,
				SourceType: models.SourceRecurring,
				SourceID:   rec.ID,
			}, models.StatusPending)
			if err != nil {
				slog.Error("failed to generate recurring transaction", "recurring_id", rec.ID, "due", due, "error", err)
				break
			}
			report.Generated++
		}

		rec.NextDueDate = addPeriods(dueDate, rec.Frequency, 1).Format(dateFormat)
		if rec.EndDate != "" && rec.NextDueDate > rec.EndDate {
			rec.Status = models.ScheduleCompleted
			report.Completed++
		}
		rec.UpdatedAt = l.now()
		changed = true
	}

	if changed {
		if err := l.persistSet(rec.Kind.Collection(), rec.ID, rec); err != nil {
			slog.Error("failed to persist template after generation", "recurring_id", rec.ID, "error", err)
		}
	}
}

// hasGeneratedLocked reports whether a transaction with the given
// provenance already exists for the due date.
func (l *Ledger) hasGeneratedLocked(sourceType models.SourceType, sourceID, date string) bool {
	for _, t := range l.transactions {
		if t.SourceType == sourceType && t.SourceID == sourceID && t.Date == date {
			return true
		}
	}
	return false
}
