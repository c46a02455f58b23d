package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// Read-only query selectors over the transaction collections.

// TransactionsByAccount returns every transaction that touches the given
// account, as source or as transfer destination.
func (l *Ledger) TransactionsByAccount(accountID string) []*models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transactionsLocked(func(t *models.Transaction) bool {
		return t.AccountID == accountID || t.ToAccountID == accountID
	})
}

// TransactionsByDateRange returns transactions of a kind with
// from <= date <= to. Empty bounds are open.
func (l *Ledger) TransactionsByDateRange(kind models.TransactionKind, from, to string) []*models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transactionsLocked(func(t *models.Transaction) bool {
		if t.Kind != kind {
			return false
		}
		if from != "" && t.Date < from {
			return false
		}
		if to != "" && t.Date > to {
			return false
		}
		return true
	})
}

// TransactionsByCategory returns transactions of a kind in a category.
func (l *Ledger) TransactionsByCategory(kind models.TransactionKind, category string) []*models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transactionsLocked(func(t *models.Transaction) bool {
		return t.Kind == kind && t.Category == category
	})
}

// TransactionsByStatus returns transactions of a kind in a status.
func (l *Ledger) TransactionsByStatus(kind models.TransactionKind, status models.TransactionStatus) []*models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transactionsLocked(func(t *models.Transaction) bool {
		return t.Kind == kind && t.Status == status
	})
}

// SumByCategory aggregates transaction amounts of a kind per category.
// Uncategorized transactions sum under the empty string.
func (l *Ledger) SumByCategory(kind models.TransactionKind) map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	sums := make(map[string]decimal.Decimal)
	for _, t := range l.transactions {
		if t.Kind != kind {
			continue
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}
	return sums
}

// TotalByKind returns the sum of all transaction amounts of a kind.
func (l *Ledger) TotalByKind(kind models.TransactionKind) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	for _, t := range l.transactions {
		if t.Kind == kind {
			total = total.Add(t.Amount)
		}
	}
	return total
}
