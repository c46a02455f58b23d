package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringKind classifies a recurring template.
type RecurringKind string

const (
	RecurringIncome  RecurringKind = "income"
	RecurringExpense RecurringKind = "expense"
	RecurringSavings RecurringKind = "savings_investment"
)

// Valid reports whether the kind is a known recurring kind.
func (k RecurringKind) Valid() bool {
	switch k {
	case RecurringIncome, RecurringExpense, RecurringSavings:
		return true
	}
	return false
}

// Collection returns the collection a template of this kind lives in.
func (k RecurringKind) Collection() string {
	switch k {
	case RecurringIncome:
		return CollectionRecurringIncomes
	case RecurringExpense:
		return CollectionRecurringExpenses
	case RecurringSavings:
		return CollectionRecurringSavings
	}
	return ""
}

// TransactionKind returns the kind of transaction this template generates.
func (k RecurringKind) TransactionKind() TransactionKind {
	switch k {
	case RecurringIncome:
		return TransactionIncome
	case RecurringSavings:
		return TransactionSavings
	default:
		return TransactionExpense
	}
}

// RecurringTemplate represents an open-ended (or end-dated) recurring
// obligation. NextDueDate is stored and advanced after each generation.
type RecurringTemplate struct {
	ID          string          `json:"id"`
	Kind        RecurringKind   `json:"kind"`
	Name        string          `json:"name"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   Frequency       `json:"frequency"`
	StartDate   string          `json:"start_date"` // YYYY-MM-DD
	EndDate     string          `json:"end_date,omitempty"`
	NextDueDate string          `json:"next_due_date"`
	Status      ScheduleStatus  `json:"status"`
	Category    string          `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateRecurringRequest represents the request to create a recurring
// template.
type CreateRecurringRequest struct {
	Kind      RecurringKind   `json:"kind"`
	Name      string          `json:"name"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency Frequency       `json:"frequency"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date,omitempty"`
	Category  string          `json:"category,omitempty"`
}

// UpdateRecurringRequest represents a partial update to a recurring
// template. Nil fields are left unchanged. Kind is immutable and
// NextDueDate only advances through generation.
type UpdateRecurringRequest struct {
	Name      *string          `json:"name,omitempty"`
	AccountID *string          `json:"account_id,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Frequency *Frequency       `json:"frequency,omitempty"`
	EndDate   *string          `json:"end_date,omitempty"`
	Status    *ScheduleStatus  `json:"status,omitempty"`
	Category  *string          `json:"category,omitempty"`
}
