package ledger

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// OrphanReport maps a collection name to the ids of records whose foreign
// keys no longer resolve.
type OrphanReport map[string][]string

// Total returns the number of orphaned records across all collections.
func (r OrphanReport) Total() int {
	n := 0
	for _, ids := range r {
		n += len(ids)
	}
	return n
}

// CleanupReport describes an orphan cleanup pass. Cleanup deletes each
// orphan independently and keeps going past individual failures, so
// Errors may be non-empty while Removed is nonzero.
type CleanupReport struct {
	Removed int      `json:"removed"`
	Errors  []string `json:"errors,omitempty"`
}

// FindOrphans traverses every foreign-key edge and reports records whose
// target is missing: accounts without their bank, transactions without an
// account (or transfer destination), plans and templates without their
// account, and transactions whose provenance no longer resolves.
func (l *Ledger) FindOrphans() OrphanReport {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findOrphansLocked()
}

func (l *Ledger) findOrphansLocked() OrphanReport {
	report := make(OrphanReport)
	add := func(collection, id string) {
		report[collection] = append(report[collection], id)
	}

	for id, a := range l.accounts {
		if _, ok := l.banks[a.BankID]; !ok {
			add(models.CollectionAccounts, id)
		}
	}
	for id, t := range l.transactions {
		if l.transactionOrphanedLocked(t) {
			add(t.Kind.Collection(), id)
		}
	}
	for id, p := range l.plans {
		if _, ok := l.accounts[p.AccountID]; !ok {
			add(p.Kind.Collection(), id)
		}
	}
	for id, r := range l.recurrings {
		if _, ok := l.accounts[r.AccountID]; !ok {
			add(r.Kind.Collection(), id)
		}
	}

	for collection := range report {
		sort.Strings(report[collection])
	}
	return report
}

func (l *Ledger) transactionOrphanedLocked(t *models.Transaction) bool {
	if _, ok := l.accounts[t.AccountID]; !ok {
		return true
	}
	if t.ToAccountID != "" {
		if _, ok := l.accounts[t.ToAccountID]; !ok {
			return true
		}
	}
	switch t.SourceType {
	case models.SourceEMI:
		if _, ok := l.plans[t.SourceID]; !ok {
			return true
		}
	case models.SourceRecurring:
		if _, ok := l.recurrings[t.SourceID]; !ok {
			return true
		}
	}
	return false
}

// CleanupOrphans deletes every orphan found by FindOrphans. Transactions
// go first so that plans and templates they reference become deletable in
// the same pass. Individual failures are collected, never fatal: cleanup
// operates on already-inconsistent data and removes what it can.
func (l *Ledger) CleanupOrphans() CleanupReport {
	l.mu.Lock()
	defer l.mu.Unlock()

	report := CleanupReport{}
	orphans := l.findOrphansLocked()

	fail := func(collection, id string, err error) {
		report.Errors = append(report.Errors, fmt.Sprintf("%s/%s: %v", collection, id, err))
	}

	txnCollections := []string{
		models.CollectionIncomeTxns,
		models.CollectionExpenseTxns,
		models.CollectionSavingsTxns,
		models.CollectionTransferTxns,
	}
	for _, collection := range txnCollections {
		for _, id := range orphans[collection] {
			if err := l.deleteTransactionLocked(id); err != nil {
				fail(collection, id, err)
				continue
			}
			report.Removed++
		}
	}

	for _, collection := range []string{models.CollectionExpensePlans, models.CollectionSavingsPlans} {
		for _, id := range orphans[collection] {
			if err := l.deletePlanLocked(id); err != nil {
				fail(collection, id, err)
				continue
			}
			report.Removed++
		}
	}
	recurringCollections := []string{
		models.CollectionRecurringIncomes,
		models.CollectionRecurringExpenses,
		models.CollectionRecurringSavings,
	}
	for _, collection := range recurringCollections {
		for _, id := range orphans[collection] {
			if err := l.deleteRecurringLocked(id); err != nil {
				fail(collection, id, err)
				continue
			}
			report.Removed++
		}
	}

	// Orphaned accounts last: their dependents may just have been removed.
	for _, id := range orphans[models.CollectionAccounts] {
		if n := l.accountDependents(id); n > 0 {
			fail(models.CollectionAccounts, id, fmt.Errorf("%w: %d dependent records", ErrDependents, n))
			continue
		}
		delete(l.accounts, id)
		if err := l.persistRemove(models.CollectionAccounts, id); err != nil {
			fail(models.CollectionAccounts, id, err)
			continue
		}
		report.Removed++
	}

	if report.Removed > 0 || len(report.Errors) > 0 {
		slog.Info("orphan cleanup finished", "removed", report.Removed, "errors", len(report.Errors))
	}
	return report
}
