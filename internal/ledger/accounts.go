package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// CreateAccount creates a new account. The bank reference must resolve.
func (l *Ledger) CreateAccount(req models.CreateAccountRequest) (*models.Account, error) {
	if err := validateRequired("name", req.Name); err != nil {
		return nil, err
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q is not a known account kind", ErrValidation, req.Kind)
	}
	if req.DueDate != "" {
		if err := validateDateField("due_date", req.DueDate); err != nil {
			return nil, err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.resolveBank("bank_id", req.BankID); err != nil {
		return nil, err
	}

	now := l.now()
	account := &models.Account{
		ID:          uuid.NewString(),
		Name:        req.Name,
		BankID:      req.BankID,
		Kind:        req.Kind,
		Balance:     req.Balance,
		CreditLimit: req.CreditLimit,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	l.accounts[account.ID] = account
	if err := l.persistSet(models.CollectionAccounts, account.ID, account); err != nil {
		delete(l.accounts, account.ID)
		return nil, err
	}
	return account, nil
}

// UpdateAccount applies a partial update to an account. A changed bank
// reference is re-validated.
func (l *Ledger) UpdateAccount(id string, req models.UpdateAccountRequest) (*models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %q", ErrNotFound, id)
	}

	if req.BankID != nil {
		if err := l.resolveBank("bank_id", *req.BankID); err != nil {
			return nil, err
		}
		account.BankID = *req.BankID
	}
	if req.Name != nil {
		if err := validateRequired("name", *req.Name); err != nil {
			return nil, err
		}
		account.Name = *req.Name
	}
	if req.Kind != nil {
		if !req.Kind.Valid() {
			return nil, fmt.Errorf("%w: kind %q is not a known account kind", ErrValidation, *req.Kind)
		}
		account.Kind = *req.Kind
	}
	if req.Balance != nil {
		account.Balance = *req.Balance
	}
	if req.CreditLimit != nil {
		account.CreditLimit = req.CreditLimit
	}
	if req.DueDate != nil {
		if *req.DueDate != "" {
			if err := validateDateField("due_date", *req.DueDate); err != nil {
				return nil, err
			}
		}
		account.DueDate = *req.DueDate
	}
	account.UpdatedAt = l.now()

	if err := l.persistSet(models.CollectionAccounts, account.ID, account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount deletes an account. The delete is blocked while any
// transaction, installment plan or recurring template still references it;
// orphan cleanup is the only path that removes such dependents first.
func (l *Ledger) DeleteAccount(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[id]; !ok {
		return fmt.Errorf("%w: account %q", ErrNotFound, id)
	}
	if n := l.accountDependents(id); n > 0 {
		return fmt.Errorf("%w: account %q has %d dependent records", ErrDependents, id, n)
	}

	delete(l.accounts, id)
	return l.persistRemove(models.CollectionAccounts, id)
}

// Account returns an account by ID.
func (l *Ledger) Account(id string) (*models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %q", ErrNotFound, id)
	}
	copied := *account
	return &copied, nil
}

// Accounts returns all accounts sorted by creation time.
func (l *Ledger) Accounts() []*models.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := make([]*models.Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		copied := *a
		accounts = append(accounts, &copied)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts
}
