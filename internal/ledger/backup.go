package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/mod/semver"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// ImportMode selects how an imported backup is combined with existing data.
type ImportMode string

const (
	// ImportReplace overwrites each backed-up collection with the
	// corresponding array from the document.
	ImportReplace ImportMode = "replace"
	// ImportMerge keeps existing records on id collision and appends
	// incoming records whose id is new.
	ImportMerge ImportMode = "merge"
)

// ImportReport describes a completed import.
type ImportReport struct {
	Mode     ImportMode     `json:"mode"`
	Imported map[string]int `json:"imported"` // records applied per collection
	Skipped  map[string]int `json:"skipped"`  // merge-mode id collisions per collection
	Warnings []string       `json:"warnings,omitempty"`
}

// Export snapshots every backed-up collection into a single document
// stamped with the application version and the current time. Collections
// are emitted in creation order so exports are deterministic.
func (l *Ledger) Export() *models.Backup {
	l.mu.Lock()
	defer l.mu.Unlock()

	deref := func(txns []*models.Transaction) []models.Transaction {
		out := make([]models.Transaction, len(txns))
		for i, t := range txns {
			out[i] = *t
		}
		return out
	}

	backup := &models.Backup{
		Version:   l.version,
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Data: models.BackupData{
			Banks:                         make([]models.Bank, 0, len(l.banks)),
			BankAccounts:                  make([]models.Account, 0, len(l.accounts)),
			IncomeTransactions:            deref(l.transactionsLocked(kindMatcher(models.TransactionIncome))),
			ExpenseTransactions:           deref(l.transactionsLocked(kindMatcher(models.TransactionExpense))),
			SavingsInvestmentTransactions: deref(l.transactionsLocked(kindMatcher(models.TransactionSavings))),
			ExpenseEMIs:                   make([]models.InstallmentPlan, 0),
			SavingsInvestmentEMIs:         make([]models.InstallmentPlan, 0),
			RecurringIncomes:              make([]models.RecurringTemplate, 0),
			RecurringExpenses:             make([]models.RecurringTemplate, 0),
			RecurringSavingsInvestments:   make([]models.RecurringTemplate, 0),
		},
	}

	for _, b := range sortedBanks(l.banks) {
		backup.Data.Banks = append(backup.Data.Banks, *b)
	}
	for _, a := range sortedAccounts(l.accounts) {
		backup.Data.BankAccounts = append(backup.Data.BankAccounts, *a)
	}
	for _, p := range sortedPlans(l.plans) {
		if p.Kind == models.PlanSavings {
			backup.Data.SavingsInvestmentEMIs = append(backup.Data.SavingsInvestmentEMIs, *p)
		} else {
			backup.Data.ExpenseEMIs = append(backup.Data.ExpenseEMIs, *p)
		}
	}
	for _, r := range sortedRecurrings(l.recurrings) {
		switch r.Kind {
		case models.RecurringIncome:
			backup.Data.RecurringIncomes = append(backup.Data.RecurringIncomes, *r)
		case models.RecurringSavings:
			backup.Data.RecurringSavingsInvestments = append(backup.Data.RecurringSavingsInvestments, *r)
		default:
			backup.Data.RecurringExpenses = append(backup.Data.RecurringExpenses, *r)
		}
	}
	return backup
}

// ValidateBackupDocument checks the structural shape of a backup document:
// a non-null object with string version and timestamp and a data object
// containing an array for every known collection. It runs before any
// mutation; a document that fails here rejects the import wholesale.
func ValidateBackupDocument(raw []byte) (*models.Backup, error) {
	var envelope struct {
		Version   *string                    `json:"version"`
		Timestamp *string                    `json:"timestamp"`
		Data      map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if envelope.Version == nil {
		return nil, fmt.Errorf("%w: missing string field \"version\"", ErrInvalidBackup)
	}
	if envelope.Timestamp == nil {
		return nil, fmt.Errorf("%w: missing string field \"timestamp\"", ErrInvalidBackup)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: missing object field \"data\"", ErrInvalidBackup)
	}
	for _, collection := range models.BackupCollections() {
		member, ok := envelope.Data[collection]
		if !ok {
			return nil, fmt.Errorf("%w: data is missing collection %q", ErrInvalidBackup, collection)
		}
		var probe []json.RawMessage
		if err := json.Unmarshal(member, &probe); err != nil {
			return nil, fmt.Errorf("%w: data.%s is not an array", ErrInvalidBackup, collection)
		}
	}

	var backup models.Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return &backup, nil
}

// Import validates and applies a backup document. The whole import runs
// under the ledger mutex, so concurrent mutations cannot observe a
// half-imported graph. A collection write failing mid-import restores
// every collection from its pre-import snapshot; if that restore itself
// fails the error wraps ErrRollbackFailed so the caller knows the data may
// be inconsistent.
func (l *Ledger) Import(raw []byte, mode ImportMode) (*ImportReport, error) {
	backup, err := ValidateBackupDocument(raw)
	if err != nil {
		return nil, err
	}
	if mode != ImportReplace && mode != ImportMerge {
		return nil, fmt.Errorf("%w: unknown import mode %q", ErrValidation, mode)
	}

	report := &ImportReport{
		Mode:     mode,
		Imported: make(map[string]int),
		Skipped:  make(map[string]int),
	}
	report.Warnings = versionWarnings(backup.Version, l.version)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Pre-import snapshots for rollback.
	prevBanks := cloneMap(l.banks)
	prevAccounts := cloneMap(l.accounts)
	prevTransactions := cloneMap(l.transactions)
	prevPlans := cloneMap(l.plans)
	prevRecurrings := cloneMap(l.recurrings)

	if mode == ImportReplace {
		l.banks = make(map[string]*models.Bank)
		l.accounts = make(map[string]*models.Account)
		l.plans = make(map[string]*models.InstallmentPlan)
		l.recurrings = make(map[string]*models.RecurringTemplate)
		// Transfers are outside the backup schema and survive a replace.
		kept := make(map[string]*models.Transaction)
		for id, t := range l.transactions {
			if t.Kind == models.TransactionTransfer {
				kept[id] = t
			}
		}
		l.transactions = kept
	}

	merge := mode == ImportMerge
	for i := range backup.Data.Banks {
		b := backup.Data.Banks[i]
		if merge {
			if _, exists := l.banks[b.ID]; exists {
				report.Skipped[models.CollectionBanks]++
				continue
			}
		}
		l.banks[b.ID] = &b
		report.Imported[models.CollectionBanks]++
	}
	for i := range backup.Data.BankAccounts {
		a := backup.Data.BankAccounts[i]
		if merge {
			if _, exists := l.accounts[a.ID]; exists {
				report.Skipped[models.CollectionAccounts]++
				continue
			}
		}
		l.accounts[a.ID] = &a
		report.Imported[models.CollectionAccounts]++
	}
	txnGroups := map[string][]models.Transaction{
		models.CollectionIncomeTxns:  backup.Data.IncomeTransactions,
		models.CollectionExpenseTxns: backup.Data.ExpenseTransactions,
		models.CollectionSavingsTxns: backup.Data.SavingsInvestmentTransactions,
	}
	for collection, txns := range txnGroups {
		for i := range txns {
			t := txns[i]
			if merge {
				if _, exists := l.transactions[t.ID]; exists {
					report.Skipped[collection]++
					continue
				}
			}
			l.transactions[t.ID] = &t
			report.Imported[collection]++
		}
	}
	planGroups := map[string][]models.InstallmentPlan{
		models.CollectionExpensePlans: backup.Data.ExpenseEMIs,
		models.CollectionSavingsPlans: backup.Data.SavingsInvestmentEMIs,
	}
	for collection, plans := range planGroups {
		for i := range plans {
			p := plans[i]
			if merge {
				if _, exists := l.plans[p.ID]; exists {
					report.Skipped[collection]++
					continue
				}
			}
			l.plans[p.ID] = &p
			report.Imported[collection]++
		}
	}
	recGroups := map[string][]models.RecurringTemplate{
		models.CollectionRecurringIncomes:  backup.Data.RecurringIncomes,
		models.CollectionRecurringExpenses: backup.Data.RecurringExpenses,
		models.CollectionRecurringSavings:  backup.Data.RecurringSavingsInvestments,
	}
	for collection, recs := range recGroups {
		for i := range recs {
			r := recs[i]
			if merge {
				if _, exists := l.recurrings[r.ID]; exists {
					report.Skipped[collection]++
					continue
				}
			}
			l.recurrings[r.ID] = &r
			report.Imported[collection]++
		}
	}

	// Persist the new state collection by collection. This is the only
	// import step that can fail; a failure rolls everything back.
	if err := l.persistAllLocked(); err != nil {
		l.banks = prevBanks
		l.accounts = prevAccounts
		l.transactions = prevTransactions
		l.plans = prevPlans
		l.recurrings = prevRecurrings
		if restoreErr := l.persistAllLocked(); restoreErr != nil {
			return nil, fmt.Errorf("%w: import error: %v, restore error: %v", ErrRollbackFailed, err, restoreErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}

	return report, nil
}

// persistAllLocked rewrites every collection in the persister from the
// in-memory state. Used by import (and its rollback), where per-record
// write-behind is not enough: the caller needs to know the write happened.
func (l *Ledger) persistAllLocked() error {
	if l.persist == nil {
		return nil
	}

	encode := func(collection string, records map[string]any) error {
		encoded := make(map[string][]byte, len(records))
		for id, record := range records {
			data, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("failed to marshal %s/%s: %w", collection, id, err)
			}
			encoded[id] = data
		}
		return l.persist.ReplaceAll(collection, encoded)
	}

	groups := make(map[string]map[string]any)
	for _, collection := range models.Collections() {
		groups[collection] = make(map[string]any)
	}
	for id, b := range l.banks {
		groups[models.CollectionBanks][id] = b
	}
	for id, a := range l.accounts {
		groups[models.CollectionAccounts][id] = a
	}
	for id, t := range l.transactions {
		groups[t.Kind.Collection()][id] = t
	}
	for id, p := range l.plans {
		groups[p.Kind.Collection()][id] = p
	}
	for id, r := range l.recurrings {
		groups[r.Kind.Collection()][id] = r
	}

	for _, collection := range models.Collections() {
		if err := encode(collection, groups[collection]); err != nil {
			return err
		}
	}
	return nil
}

// versionWarnings compares the backup's semantic version with the running
// application version. Skew in either direction succeeds with a warning.
func versionWarnings(backupVersion, appVersion string) []string {
	bv := canonicalSemver(backupVersion)
	av := canonicalSemver(appVersion)
	if bv == "" || av == "" {
		return []string{fmt.Sprintf("backup version %q could not be compared with application version %q", backupVersion, appVersion)}
	}
	switch semver.Compare(bv, av) {
	case -1:
		return []string{fmt.Sprintf("backup was created by an older version (%s, current %s); importing anyway", backupVersion, appVersion)}
	case 1:
		return []string{fmt.Sprintf("backup was created by a newer version (%s) than the current build (%s); importing anyway", backupVersion, appVersion)}
	}
	return nil
}

func canonicalSemver(v string) string {
	if v == "" {
		return ""
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

func cloneMap[T any](src map[string]*T) map[string]*T {
	dst := make(map[string]*T, len(src))
	for id, record := range src {
		copied := *record
		dst[id] = &copied
	}
	return dst
}

func kindMatcher(kind models.TransactionKind) func(*models.Transaction) bool {
	return func(t *models.Transaction) bool { return t.Kind == kind }
}

// Stable creation-order views of the collections, used to keep exports
// deterministic.

func sortedBanks(m map[string]*models.Bank) []*models.Bank {
	out := make([]*models.Bank, 0, len(m))
	for _, b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func sortedAccounts(m map[string]*models.Account) []*models.Account {
	out := make([]*models.Account, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func sortedPlans(m map[string]*models.InstallmentPlan) []*models.InstallmentPlan {
	out := make([]*models.InstallmentPlan, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func sortedRecurrings(m map[string]*models.RecurringTemplate) []*models.RecurringTemplate {
	out := make([]*models.RecurringTemplate, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
