package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// CreateTransaction creates a new transaction of any kind. Account
// references (and for transfers, the distinct destination account) must
// resolve; a provenance reference, if present, must resolve too.
func (l *Ledger) CreateTransaction(req models.CreateTransactionRequest) (*models.Transaction, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q is not a known transaction kind", ErrValidation, req.Kind)
	}
	if err := validateDateField("date", req.Date); err != nil {
		return nil, err
	}
	if err := validatePositiveAmount("amount", req.Amount); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.ValidFor(req.Kind) {
		return nil, fmt.Errorf("%w: status %q is not valid for %s transactions", ErrValidation, status, req.Kind)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	source, err := l.resolveAccount("account_id", req.AccountID)
	if err != nil {
		return nil, err
	}

	if req.Kind == models.TransactionTransfer {
		if req.ToAccountID == "" {
			return nil, fmt.Errorf("%w: to_account_id is required for transfers", ErrValidation)
		}
		if req.ToAccountID == req.AccountID {
			return nil, fmt.Errorf("%w: transfer source and destination accounts must differ", ErrValidation)
		}
		if source.Kind == models.AccountKindCreditCard {
			return nil, fmt.Errorf("%w: transfer source account must not be a credit card", ErrValidation)
		}
		if _, err := l.resolveAccount("to_account_id", req.ToAccountID); err != nil {
			return nil, err
		}
	} else if req.ToAccountID != "" {
		return nil, fmt.Errorf("%w: to_account_id is only valid for transfers", ErrValidation)
	}

	if req.SourceID != "" || req.SourceType != "" {
		if err := l.resolveSource(req.SourceType, req.SourceID); err != nil {
			return nil, err
		}
	}

	return l.createTransactionLocked(req, status)
}

// createTransactionLocked assumes all validation has been done and the
// mutex is held. The generation scheduler also enters here.
func (l *Ledger) createTransactionLocked(req models.CreateTransactionRequest, status models.TransactionStatus) (*models.Transaction, error) {
	now := l.now()
	txn := &models.Transaction{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Date:        req.Date,
		Amount:      req.Amount,
		AccountID:   req.AccountID,
		ToAccountID: req.ToAccountID,
		Category:    req.Category,
		Status:      status,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	l.transactions[txn.ID] = txn
	if err := l.persistSet(txn.Kind.Collection(), txn.ID, txn); err != nil {
		delete(l.transactions, txn.ID)
		return nil, err
	}
	return txn, nil
}

// UpdateTransaction applies a partial update to a transaction. Kind is
// immutable; changed references are re-validated.
func (l *Ledger) UpdateTransaction(id string, req models.UpdateTransactionRequest) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, ok := l.transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %q", ErrNotFound, id)
	}

	if req.Date != nil {
		if err := validateDateField("date", *req.Date); err != nil {
			return nil, err
		}
		txn.Date = *req.Date
	}
	if req.Amount != nil {
		if err := validatePositiveAmount("amount", *req.Amount); err != nil {
			return nil, err
		}
		txn.Amount = *req.Amount
	}
	if req.AccountID != nil {
		account, err := l.resolveAccount("account_id", *req.AccountID)
		if err != nil {
			return nil, err
		}
		if txn.Kind == models.TransactionTransfer {
			if *req.AccountID == txn.ToAccountID {
				return nil, fmt.Errorf("%w: transfer source and destination accounts must differ", ErrValidation)
			}
			if account.Kind == models.AccountKindCreditCard {
				return nil, fmt.Errorf("%w: transfer source account must not be a credit card", ErrValidation)
			}
		}
		txn.AccountID = *req.AccountID
	}
	if req.ToAccountID != nil {
		if txn.Kind != models.TransactionTransfer {
			return nil, fmt.Errorf("%w: to_account_id is only valid for transfers", ErrValidation)
		}
		if *req.ToAccountID == txn.AccountID {
			return nil, fmt.Errorf("%w: transfer source and destination accounts must differ", ErrValidation)
		}
		if _, err := l.resolveAccount("to_account_id", *req.ToAccountID); err != nil {
			return nil, err
		}
		txn.ToAccountID = *req.ToAccountID
	}
	if req.Status != nil {
		if !req.Status.ValidFor(txn.Kind) {
			return nil, fmt.Errorf("%w: status %q is not valid for %s transactions", ErrValidation, *req.Status, txn.Kind)
		}
		txn.Status = *req.Status
	}
	if req.SourceType != nil || req.SourceID != nil {
		sourceType := txn.SourceType
		sourceID := txn.SourceID
		if req.SourceType != nil {
			sourceType = *req.SourceType
		}
		if req.SourceID != nil {
			sourceID = *req.SourceID
		}
		if sourceType != "" || sourceID != "" {
			if err := l.resolveSource(sourceType, sourceID); err != nil {
				return nil, err
			}
		}
		txn.SourceType = sourceType
		txn.SourceID = sourceID
	}
	if req.Category != nil {
		txn.Category = *req.Category
	}
	if req.Notes != nil {
		txn.Notes = *req.Notes
	}
	txn.UpdatedAt = l.now()

	if err := l.persistSet(txn.Kind.Collection(), txn.ID, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// DeleteTransaction deletes a transaction. Nothing references
// transactions, so the delete is unconditional once the record exists.
func (l *Ledger) DeleteTransaction(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteTransactionLocked(id)
}

func (l *Ledger) deleteTransactionLocked(id string) error {
	txn, ok := l.transactions[id]
	if !ok {
		return fmt.Errorf("%w: transaction %q", ErrNotFound, id)
	}
	delete(l.transactions, id)
	return l.persistRemove(txn.Kind.Collection(), id)
}

// RestoreTransaction puts a displaced transaction snapshot back into the
// ledger, keeping its identity and timestamps. Undo of a delete (and redo
// of a create) work through this; references are re-validated because the
// graph may have changed since the snapshot was taken.
func (l *Ledger) RestoreTransaction(snapshot models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.resolveAccount("account_id", snapshot.AccountID); err != nil {
		return err
	}
	if snapshot.ToAccountID != "" {
		if _, err := l.resolveAccount("to_account_id", snapshot.ToAccountID); err != nil {
			return err
		}
	}
	if snapshot.SourceID != "" || snapshot.SourceType != "" {
		if err := l.resolveSource(snapshot.SourceType, snapshot.SourceID); err != nil {
			return err
		}
	}

	copied := snapshot
	l.transactions[copied.ID] = &copied
	return l.persistSet(copied.Kind.Collection(), copied.ID, &copied)
}

// Transaction returns a transaction by ID.
func (l *Ledger) Transaction(id string) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, ok := l.transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %q", ErrNotFound, id)
	}
	copied := *txn
	return &copied, nil
}

// Transactions returns all transactions of a kind sorted by date, then
// creation time.
func (l *Ledger) Transactions(kind models.TransactionKind) []*models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transactionsLocked(func(t *models.Transaction) bool {
		return t.Kind == kind
	})
}

// transactionsLocked copies matching transactions in a deterministic order.
func (l *Ledger) transactionsLocked(match func(*models.Transaction) bool) []*models.Transaction {
	result := make([]*models.Transaction, 0)
	for _, t := range l.transactions {
		if match == nil || match(t) {
			copied := *t
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}
