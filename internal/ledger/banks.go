package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// CreateBank creates a new bank.
func (l *Ledger) CreateBank(req models.CreateBankRequest) (*models.Bank, error) {
	if err := validateRequired("name", req.Name); err != nil {
		return nil, err
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q is not a known bank kind", ErrValidation, req.Kind)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bank := &models.Bank{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Kind:      req.Kind,
		Country:   req.Country,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	l.banks[bank.ID] = bank
	if err := l.persistSet(models.CollectionBanks, bank.ID, bank); err != nil {
		delete(l.banks, bank.ID)
		return nil, err
	}
	return bank, nil
}

// UpdateBank applies a partial update to a bank.
func (l *Ledger) UpdateBank(id string, req models.UpdateBankRequest) (*models.Bank, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bank, ok := l.banks[id]
	if !ok {
		return nil, fmt.Errorf("%w: bank %q", ErrNotFound, id)
	}

	if req.Name != nil {
		if err := validateRequired("name", *req.Name); err != nil {
			return nil, err
		}
		bank.Name = *req.Name
	}
	if req.Kind != nil {
		if !req.Kind.Valid() {
			return nil, fmt.Errorf("%w: kind %q is not a known bank kind", ErrValidation, *req.Kind)
		}
		bank.Kind = *req.Kind
	}
	if req.Country != nil {
		bank.Country = *req.Country
	}
	if req.Notes != nil {
		bank.Notes = *req.Notes
	}
	bank.UpdatedAt = l.now()

	if err := l.persistSet(models.CollectionBanks, bank.ID, bank); err != nil {
		return nil, err
	}
	return bank, nil
}

// DeleteBank deletes a bank. The delete is blocked while any account still
// references the bank.
func (l *Ledger) DeleteBank(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.banks[id]; !ok {
		return fmt.Errorf("%w: bank %q", ErrNotFound, id)
	}
	if n := l.bankDependents(id); n > 0 {
		return fmt.Errorf("%w: bank %q has %d dependent accounts", ErrDependents, id, n)
	}

	delete(l.banks, id)
	return l.persistRemove(models.CollectionBanks, id)
}

// Bank returns a bank by ID.
func (l *Ledger) Bank(id string) (*models.Bank, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bank, ok := l.banks[id]
	if !ok {
		return nil, fmt.Errorf("%w: bank %q", ErrNotFound, id)
	}
	copied := *bank
	return &copied, nil
}

// Banks returns all banks sorted by creation time.
func (l *Ledger) Banks() []*models.Bank {
	l.mu.Lock()
	defer l.mu.Unlock()

	banks := make([]*models.Bank, 0, len(l.banks))
	for _, b := range l.banks {
		copied := *b
		banks = append(banks, &copied)
	}
	sort.Slice(banks, func(i, j int) bool {
		if banks[i].CreatedAt.Equal(banks[j].CreatedAt) {
			return banks[i].ID < banks[j].ID
		}
		return banks[i].CreatedAt.Before(banks[j].CreatedAt)
	})
	return banks
}
