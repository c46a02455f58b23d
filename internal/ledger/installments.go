package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// CreatePlan creates a new installment plan and immediately runs a
// generation pass for it, so an installment due on or before today is
// materialized right away.
func (l *Ledger) CreatePlan(req models.CreatePlanRequest) (*models.InstallmentPlan, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q is not a known plan kind", ErrValidation, req.Kind)
	}
	if err := validateRequired("name", req.Name); err != nil {
		return nil, err
	}
	if err := validateDateField("start_date", req.StartDate); err != nil {
		return nil, err
	}
	if err := validatePositiveAmount("monthly_amount", req.MonthlyAmount); err != nil {
		return nil, err
	}
	if err := validatePositiveCount("total_installments", req.TotalInstallments); err != nil {
		return nil, err
	}
	frequency := req.Frequency
	if frequency == "" {
		frequency = models.FrequencyMonthly
	}
	if !frequency.Valid() {
		return nil, fmt.Errorf("%w: frequency %q is not a known frequency", ErrValidation, frequency)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.resolveAccount("account_id", req.AccountID); err != nil {
		return nil, err
	}

	start, _ := parseDate(req.StartDate)
	now := l.now()
	plan := &models.InstallmentPlan{
		ID:                uuid.NewString(),
		Kind:              req.Kind,
		Name:              req.Name,
		AccountID:         req.AccountID,
		MonthlyAmount:     req.MonthlyAmount,
		StartDate:         req.StartDate,
		EndDate:           addPeriods(start, frequency, req.TotalInstallments-1).Format(dateFormat),
		Frequency:         frequency,
		TotalInstallments: req.TotalInstallments,
		Status:            models.ScheduleActive,
		Category:          req.Category,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	l.plans[plan.ID] = plan
	if err := l.persistSet(plan.Kind.Collection(), plan.ID, plan); err != nil {
		delete(l.plans, plan.ID)
		return nil, err
	}

	l.generatePlanLocked(plan, l.today(), &GenerationReport{})
	return plan, nil
}

// UpdatePlan applies a partial update to an installment plan. Lowering
// TotalInstallments below CompletedInstallments is rejected.
func (l *Ledger) UpdatePlan(id string, req models.UpdatePlanRequest) (*models.InstallmentPlan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	plan, ok := l.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: installment plan %q", ErrNotFound, id)
	}

	if req.AccountID != nil {
		if _, err := l.resolveAccount("account_id", *req.AccountID); err != nil {
			return nil, err
		}
		plan.AccountID = *req.AccountID
	}
	if req.Name != nil {
		if err := validateRequired("name", *req.Name); err != nil {
			return nil, err
		}
		plan.Name = *req.Name
	}
	if req.MonthlyAmount != nil {
		if err := validatePositiveAmount("monthly_amount", *req.MonthlyAmount); err != nil {
			return nil, err
		}
		plan.MonthlyAmount = *req.MonthlyAmount
	}
	if req.TotalInstallments != nil {
		if err := validatePositiveCount("total_installments", *req.TotalInstallments); err != nil {
			return nil, err
		}
		if *req.TotalInstallments < plan.CompletedInstallments {
			return nil, fmt.Errorf("%w: total_installments %d is below %d already completed",
				ErrValidation, *req.TotalInstallments, plan.CompletedInstallments)
		}
		plan.TotalInstallments = *req.TotalInstallments
	}
	if req.StartDate != nil {
		if err := validateDateField("start_date", *req.StartDate); err != nil {
			return nil, err
		}
		plan.StartDate = *req.StartDate
	}
	if req.Frequency != nil {
		if !req.Frequency.Valid() {
			return nil, fmt.Errorf("%w: frequency %q is not a known frequency", ErrValidation, *req.Frequency)
		}
		plan.Frequency = *req.Frequency
	}
	if req.Status != nil {
		if err := validateScheduleTransition(plan.Status, *req.Status); err != nil {
			return nil, err
		}
		plan.Status = *req.Status
	}
	if req.Category != nil {
		plan.Category = *req.Category
	}

	// Keep the derived end date in sync with schedule changes.
	if req.StartDate != nil || req.Frequency != nil || req.TotalInstallments != nil {
		start, _ := parseDate(plan.StartDate)
		plan.EndDate = addPeriods(start, plan.Frequency, plan.TotalInstallments-1).Format(dateFormat)
	}
	plan.UpdatedAt = l.now()

	if err := l.persistSet(plan.Kind.Collection(), plan.ID, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan deletes an installment plan. The delete is blocked while any
// transaction still carries the plan as its provenance.
func (l *Ledger) DeletePlan(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deletePlanLocked(id)
}

func (l *Ledger) deletePlanLocked(id string) error {
	plan, ok := l.plans[id]
	if !ok {
		return fmt.Errorf("%w: installment plan %q", ErrNotFound, id)
	}
	if n := l.sourceDependents(models.SourceEMI, id); n > 0 {
		return fmt.Errorf("%w: installment plan %q has %d generated transactions", ErrDependents, id, n)
	}
	delete(l.plans, id)
	return l.persistRemove(plan.Kind.Collection(), id)
}

// Plan returns an installment plan by ID.
func (l *Ledger) Plan(id string) (*models.InstallmentPlan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	plan, ok := l.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: installment plan %q", ErrNotFound, id)
	}
	copied := *plan
	return &copied, nil
}

// Plans returns all installment plans of a kind sorted by creation time.
func (l *Ledger) Plans(kind models.PlanKind) []*models.InstallmentPlan {
	l.mu.Lock()
	defer l.mu.Unlock()

	plans := make([]*models.InstallmentPlan, 0)
	for _, p := range l.plans {
		if p.Kind == kind {
			copied := *p
			plans = append(plans, &copied)
		}
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].ID < plans[j].ID
		}
		return plans[i].CreatedAt.Before(plans[j].CreatedAt)
	})
	return plans
}

// validateScheduleTransition enforces the plan/template state machine:
// active and paused swap freely, completed is terminal except that
// generation itself (not a manual update) sets it.
func validateScheduleTransition(from, to models.ScheduleStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: status %q is not a known schedule status", ErrValidation, to)
	}
	if from == models.ScheduleCompleted && to != models.ScheduleCompleted {
		return fmt.Errorf("%w: a completed schedule cannot be reactivated", ErrValidation)
	}
	if to == models.ScheduleCompleted && from != models.ScheduleCompleted {
		return fmt.Errorf("%w: completed is set by generation, not manually", ErrValidation)
	}
	return nil
}
