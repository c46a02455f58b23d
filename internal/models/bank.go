// Package models defines the financial entities managed by the ledger
// engine and the request/response shapes used to mutate them.
package models

import "time"

// BankKind classifies a banking institution.
type BankKind string

const (
	BankKindBank       BankKind = "bank"
	BankKindCreditCard BankKind = "credit_card"
	BankKindWallet     BankKind = "wallet"
)

// Valid reports whether the kind is a known bank kind.
func (k BankKind) Valid() bool {
	switch k {
	case BankKindBank, BankKindCreditCard, BankKindWallet:
		return true
	}
	return false
}

// Bank represents a banking institution that accounts belong to.
type Bank struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      BankKind  `json:"kind"`
	Country   string    `json:"country,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateBankRequest represents the request to create a bank.
type CreateBankRequest struct {
	Name    string   `json:"name"`
	Kind    BankKind `json:"kind"`
	Country string   `json:"country,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}

// UpdateBankRequest represents a partial update to a bank.
// Nil fields are left unchanged.
type UpdateBankRequest struct {
	Name    *string   `json:"name,omitempty"`
	Kind    *BankKind `json:"kind,omitempty"`
	Country *string   `json:"country,omitempty"`
	Notes   *string   `json:"notes,omitempty"`
}
