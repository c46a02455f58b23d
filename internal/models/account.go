package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies a bank account.
type AccountKind string

const (
	AccountKindSavings    AccountKind = "savings"
	AccountKindCurrent    AccountKind = "current"
	AccountKindCreditCard AccountKind = "credit_card"
	AccountKindWallet     AccountKind = "wallet"
)

// Valid reports whether the kind is a known account kind.
func (k AccountKind) Valid() bool {
	switch k {
	case AccountKindSavings, AccountKindCurrent, AccountKindCreditCard, AccountKindWallet:
		return true
	}
	return false
}

// Account represents a bank account. Balance may be negative for credit
// card accounts.
type Account struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	BankID      string           `json:"bank_id"`
	Kind        AccountKind      `json:"kind"`
	Balance     decimal.Decimal  `json:"balance"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	DueDate     string           `json:"due_date,omitempty"` // YYYY-MM-DD, credit cards only
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreateAccountRequest represents the request to create an account.
type CreateAccountRequest struct {
	Name        string           `json:"name"`
	BankID      string           `json:"bank_id"`
	Kind        AccountKind      `json:"kind"`
	Balance     decimal.Decimal  `json:"balance"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	DueDate     string           `json:"due_date,omitempty"`
}

// UpdateAccountRequest represents a partial update to an account.
// Nil fields are left unchanged.
type UpdateAccountRequest struct {
	Name        *string          `json:"name,omitempty"`
	BankID      *string          `json:"bank_id,omitempty"`
	Kind        *AccountKind     `json:"kind,omitempty"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	DueDate     *string          `json:"due_date,omitempty"`
}
