// Package ledger implements the core financial entity graph: per-entity
// repositories with referential-integrity checks, idempotent auto-generation
// from installment plans and recurring templates, bulk mutations with
// compensating rollback, full-graph backup/restore, orphan detection and a
// bounded undo/redo history.
//
// A single Ledger owns every collection. In-memory state is authoritative;
// persistence runs behind it through a Persister. All public methods are
// safe for concurrent use: one mutex serializes every mutation, including
// the whole of a backup import.
package ledger

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// Persister is the persistence collaborator. The ledger only relies on
// eventual completion: a Set or Remove may be applied asynchronously, but
// ReplaceAll must be durable when it returns because backup import uses it
// to detect write failures.
type Persister interface {
	Set(collection, id string, data []byte) error
	Remove(collection, id string) error
	LoadAll(collection string) (map[string][]byte, error)
	ReplaceAll(collection string, records map[string][]byte) error
}

// Ledger owns all entity collections and enforces cross-entity invariants.
type Ledger struct {
	mu      sync.Mutex
	version string
	persist Persister
	now     func() time.Time

	banks        map[string]*models.Bank
	accounts     map[string]*models.Account
	transactions map[string]*models.Transaction
	plans        map[string]*models.InstallmentPlan
	recurrings   map[string]*models.RecurringTemplate
}

// New creates an empty ledger. persist may be nil, in which case state is
// kept in memory only.
func New(persist Persister, version string) *Ledger {
	return &Ledger{
		version:      version,
		persist:      persist,
		now:          time.Now,
		banks:        make(map[string]*models.Bank),
		accounts:     make(map[string]*models.Account),
		transactions: make(map[string]*models.Transaction),
		plans:        make(map[string]*models.InstallmentPlan),
		recurrings:   make(map[string]*models.RecurringTemplate),
	}
}

// Open creates a ledger hydrated from the persister. Records that fail to
// decode are returned as an error: a corrupt store should not be silently
// truncated.
func Open(persist Persister, version string) (*Ledger, error) {
	l := New(persist, version)

	load := func(collection string, into func(id string, data []byte) error) error {
		records, err := persist.LoadAll(collection)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", collection, err)
		}
		for id, data := range records {
			if err := into(id, data); err != nil {
				return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
			}
		}
		return nil
	}

	if err := load(models.CollectionBanks, func(id string, data []byte) error {
		var b models.Bank
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		l.banks[b.ID] = &b
		return nil
	}); err != nil {
		return nil, err
	}

	if err := load(models.CollectionAccounts, func(id string, data []byte) error {
		var a models.Account
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		l.accounts[a.ID] = &a
		return nil
	}); err != nil {
		return nil, err
	}

	txnCollections := []string{
		models.CollectionIncomeTxns,
		models.CollectionExpenseTxns,
		models.CollectionSavingsTxns,
		models.CollectionTransferTxns,
	}
	for _, collection := range txnCollections {
		if err := load(collection, func(id string, data []byte) error {
			var t models.Transaction
			if err := json.Unmarshal(data, &t); err != nil {
				return err
			}
			l.transactions[t.ID] = &t
			return nil
		}); err != nil {
			return nil, err
		}
	}

	for _, collection := range []string{models.CollectionExpensePlans, models.CollectionSavingsPlans} {
		if err := load(collection, func(id string, data []byte) error {
			var p models.InstallmentPlan
			if err := json.Unmarshal(data, &p); err != nil {
				return err
			}
			l.plans[p.ID] = &p
			return nil
		}); err != nil {
			return nil, err
		}
	}

	recurringCollections := []string{
		models.CollectionRecurringIncomes,
		models.CollectionRecurringExpenses,
		models.CollectionRecurringSavings,
	}
	for _, collection := range recurringCollections {
		if err := load(collection, func(id string, data []byte) error {
			var r models.RecurringTemplate
			if err := json.Unmarshal(data, &r); err != nil {
				return err
			}
			l.recurrings[r.ID] = &r
			return nil
		}); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Version returns the application version the ledger stamps on exports.
func (l *Ledger) Version() string {
	return l.version
}

// persistSet writes a record behind the in-memory mutation. Persistence is
// write-behind: a failure here is the persister's to retry, not the
// caller's.
func (l *Ledger) persistSet(collection, id string, record any) error {
	if l.persist == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", collection, id, err)
	}
	return l.persist.Set(collection, id, data)
}

func (l *Ledger) persistRemove(collection, id string) error {
	if l.persist == nil {
		return nil
	}
	return l.persist.Remove(collection, id)
}

func (l *Ledger) today() string {
	return l.now().Format(dateFormat)
}
