package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanKind classifies an installment plan (EMI).
type PlanKind string

const (
	PlanExpense PlanKind = "expense"
	PlanSavings PlanKind = "savings_investment"
)

// Valid reports whether the kind is a known plan kind.
func (k PlanKind) Valid() bool {
	return k == PlanExpense || k == PlanSavings
}

// Collection returns the collection a plan of this kind lives in.
func (k PlanKind) Collection() string {
	if k == PlanSavings {
		return CollectionSavingsPlans
	}
	return CollectionExpensePlans
}

// TransactionKind returns the kind of transaction this plan generates.
func (k PlanKind) TransactionKind() TransactionKind {
	if k == PlanSavings {
		return TransactionSavings
	}
	return TransactionExpense
}

// InstallmentPlan represents a fixed-count recurring obligation (EMI).
// The next due date is not stored; it is derived from StartDate plus
// CompletedInstallments periods.
type InstallmentPlan struct {
	ID                    string          `json:"id"`
	Kind                  PlanKind        `json:"kind"`
	Name                  string          `json:"name"`
	AccountID             string          `json:"account_id"`
	MonthlyAmount         decimal.Decimal `json:"monthly_amount"`
	StartDate             string          `json:"start_date"` // YYYY-MM-DD
	EndDate               string          `json:"end_date,omitempty"`
	Frequency             Frequency       `json:"frequency"`
	TotalInstallments     int             `json:"total_installments"`
	CompletedInstallments int             `json:"completed_installments"`
	Status                ScheduleStatus  `json:"status"`
	Category              string          `json:"category,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// CreatePlanRequest represents the request to create an installment plan.
type CreatePlanRequest struct {
	Kind              PlanKind        `json:"kind"`
	Name              string          `json:"name"`
	AccountID         string          `json:"account_id"`
	MonthlyAmount     decimal.Decimal `json:"monthly_amount"`
	StartDate         string          `json:"start_date"`
	Frequency         Frequency       `json:"frequency,omitempty"` // defaults to monthly
	TotalInstallments int             `json:"total_installments"`
	Category          string          `json:"category,omitempty"`
}

// UpdatePlanRequest represents a partial update to an installment plan.
// Nil fields are left unchanged. Kind and CompletedInstallments are not
// directly assignable; the latter only advances through generation.
type UpdatePlanRequest struct {
	Name              *string          `json:"name,omitempty"`
	AccountID         *string          `json:"account_id,omitempty"`
	MonthlyAmount     *decimal.Decimal `json:"monthly_amount,omitempty"`
	StartDate         *string          `json:"start_date,omitempty"`
	Frequency         *Frequency       `json:"frequency,omitempty"`
	TotalInstallments *int             `json:"total_installments,omitempty"`
	Status            *ScheduleStatus  `json:"status,omitempty"`
	Category          *string          `json:"category,omitempty"`
}
