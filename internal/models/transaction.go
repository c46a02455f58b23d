package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a transaction.
type TransactionKind string

const (
	TransactionIncome   TransactionKind = "income"
	TransactionExpense  TransactionKind = "expense"
	TransactionSavings  TransactionKind = "savings_investment"
	TransactionTransfer TransactionKind = "transfer"
)

// Valid reports whether the kind is a known transaction kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionIncome, TransactionExpense, TransactionSavings, TransactionTransfer:
		return true
	}
	return false
}

// Collection returns the collection a transaction of this kind lives in.
func (k TransactionKind) Collection() string {
	switch k {
	case TransactionIncome:
		return CollectionIncomeTxns
	case TransactionExpense:
		return CollectionExpenseTxns
	case TransactionSavings:
		return CollectionSavingsTxns
	case TransactionTransfer:
		return CollectionTransferTxns
	}
	return ""
}

// TransactionStatus is the settlement state of a transaction.
// Income transactions use pending/received, all other kinds pending/paid.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusPaid     TransactionStatus = "paid"
	StatusReceived TransactionStatus = "received"
)

// ValidFor reports whether the status is allowed for the given kind.
func (s TransactionStatus) ValidFor(kind TransactionKind) bool {
	switch s {
	case StatusPending:
		return true
	case StatusReceived:
		return kind == TransactionIncome
	case StatusPaid:
		return kind != TransactionIncome
	}
	return false
}

// SourceType identifies the kind of template a generated transaction
// originates from.
type SourceType string

const (
	SourceEMI       SourceType = "emi"
	SourceRecurring SourceType = "recurring"
)

// Transaction represents a single money movement. Transfer transactions
// carry a destination account in ToAccountID; all other kinds leave it
// empty. SourceType/SourceID form the provenance reference back to the
// installment plan or recurring template that generated the transaction.
type Transaction struct {
	ID          string            `json:"id"`
	Kind        TransactionKind   `json:"kind"`
	Date        string            `json:"date"` // YYYY-MM-DD
	Amount      decimal.Decimal   `json:"amount"`
	AccountID   string            `json:"account_id"`
	ToAccountID string            `json:"to_account_id,omitempty"`
	Category    string            `json:"category,omitempty"`
	Status      TransactionStatus `json:"status"`
	SourceType  SourceType        `json:"source_type,omitempty"`
	SourceID    string            `json:"source_id,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreateTransactionRequest represents the request to create a transaction.
type CreateTransactionRequest struct {
	Kind        TransactionKind   `json:"kind"`
	Date        string            `json:"date"`
	Amount      decimal.Decimal   `json:"amount"`
	AccountID   string            `json:"account_id"`
	ToAccountID string            `json:"to_account_id,omitempty"`
	Category    string            `json:"category,omitempty"`
	Status      TransactionStatus `json:"status,omitempty"` // defaults to pending
	SourceType  SourceType        `json:"source_type,omitempty"`
	SourceID    string            `json:"source_id,omitempty"`
	Notes       string            `json:"notes,omitempty"`
}

// UpdateTransactionRequest represents a partial update to a transaction.
// Nil fields are left unchanged. Kind is immutable.
type UpdateTransactionRequest struct {
	Date        *string            `json:"date,omitempty"`
	Amount      *decimal.Decimal   `json:"amount,omitempty"`
	AccountID   *string            `json:"account_id,omitempty"`
	ToAccountID *string            `json:"to_account_id,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Status      *TransactionStatus `json:"status,omitempty"`
	SourceType  *SourceType        `json:"source_type,omitempty"`
	SourceID    *string            `json:"source_id,omitempty"`
	Notes       *string            `json:"notes,omitempty"`
}
