package ledger

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// seedGraph populates a ledger with one of everything backed up.
func seedGraph(t *testing.T, l *Ledger) {
	t.Helper()
	bank := seedBank(t, l)
	account := seedAccount(t, l, bank.ID)
	seedExpense(t, l, account.ID, "2025-06-01", "45")
	if _, err := l.CreateTransaction(models.CreateTransactionRequest{
		Kind: models.TransactionIncome, Date: "2025-06-05", Amount: decimal.NewFromInt(3000), AccountID: account.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	seedPlan(t, l, account.ID, "2025-06-15", 3)
	seedRecurring(t, l, account.ID, "2025-07-01")
}

func TestExportShape(t *testing.T) {
	l := newTestLedger(t)
	seedGraph(t, l)

	backup := l.Export()
	if backup.Version != "1.2.0" {
		t.Errorf("expected version 1.2.0, got %q", backup.Version)
	}
	if _, err := time.Parse(time.RFC3339, backup.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", backup.Timestamp, err)
	}

	// Every backed-up collection must be present as an array, even when
	// empty.
	raw, err := json.Marshal(backup)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(envelope["data"], &data); err != nil {
		t.Fatalf("data is not an object: %v", err)
	}
	for _, collection := range models.BackupCollections() {
		member, ok := data[collection]
		if !ok {
			t.Errorf("data is missing collection %q", collection)
			continue
		}
		var probe []json.RawMessage
		if err := json.Unmarshal(member, &probe); err != nil {
			t.Errorf("data.%s is not an array", collection)
		}
	}
	// Transfers live outside the backup document.
	if _, ok := data[models.CollectionTransferTxns]; ok {
		t.Error("transfer transactions must not appear in a backup")
	}
}

func TestImportReplaceRoundTrip(t *testing.T) {
	src := newTestLedger(t)
	seedGraph(t, src)
	raw, err := json.Marshal(src.Export())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	dst := newTestLedger(t)
	report, err := dst.Import(raw, ImportReplace)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if report.Mode != ImportReplace {
		t.Errorf("expected replace mode, got %q", report.Mode)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("same-version import should not warn: %v", report.Warnings)
	}

	if got := len(dst.Banks()); got != 1 {
		t.Errorf("expected 1 bank, got %d", got)
	}
	if got := len(dst.Accounts()); got != 1 {
		t.Errorf("expected 1 account, got %d", got)
	}
	// One seeded expense plus one generated by the plan.
	if got := len(dst.Transactions(models.TransactionExpense)); got != 2 {
		t.Errorf("expected 2 expenses, got %d", got)
	}
	if got := len(dst.Transactions(models.TransactionIncome)); got != 1 {
		t.Errorf("expected 1 income, got %d", got)
	}
	if got := len(dst.Plans(models.PlanExpense)); got != 1 {
		t.Errorf("expected 1 plan, got %d", got)
	}
	if got := len(dst.Recurrings(models.RecurringExpense)); got != 1 {
		t.Errorf("expected 1 recurring, got %d", got)
	}

	// Round trip: exporting the restored ledger yields the same data.
	raw2, err := json.Marshal(dst.Export())
	if err != nil {
		t.Fatalf("re-export failed: %v", err)
	}
	var doc1, doc2 map[string]json.RawMessage
	_ = json.Unmarshal(raw, &doc1)
	_ = json.Unmarshal(raw2, &doc2)
	if string(doc1["data"]) != string(doc2["data"]) {
		t.Error("round-tripped data differs from the original export")
	}
}

func TestImportReplacePreservesTransfers(t *testing.T) {
	src := newTestLedger(t)
	seedGraph(t, src)
	raw, _ := json.Marshal(src.Export())

	dst := newTestLedger(t)
	bank := seedBank(t, dst)
	a := seedAccount(t, dst, bank.ID)
	b, err := dst.CreateAccount(models.CreateAccountRequest{
		Name: "Savings", BankID: bank.ID, Kind: models.AccountKindSavings,
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	transfer, err := dst.CreateTransaction(models.CreateTransactionRequest{
		Kind: models.TransactionTransfer, Date: "2025-06-10",
		Amount: decimal.NewFromInt(200), AccountID: a.ID, ToAccountID: b.ID,
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if _, err := dst.Import(raw, ImportReplace); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	// The pre-import transfer survives the replace; the accounts it
	// referenced do not, which the orphan detector reports.
	if _, err := dst.Transaction(transfer.ID); err != nil {
		t.Errorf("transfer should survive replace import: %v", err)
	}
	orphans := dst.FindOrphans()
	if len(orphans[models.CollectionTransferTxns]) != 1 {
		t.Errorf("expected the stranded transfer to be reported as orphaned, got %v", orphans)
	}
}

func TestImportMergeKeepsExistingOnCollision(t *testing.T) {
	src := newTestLedger(t)
	bank := seedBank(t, src)
	account := seedAccount(t, src, bank.ID)
	seedExpense(t, src, account.ID, "2025-06-01", "10")
	raw, _ := json.Marshal(src.Export())

	// Import into an empty ledger, rename the bank, then merge the same
	// document again: the rename must win.
	dst := newTestLedger(t)
	if _, err := dst.Import(raw, ImportReplace); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	name := "Renamed"
	if _, err := dst.UpdateBank(bank.ID, models.UpdateBankRequest{Name: &name}); err != nil {
		t.Fatalf("UpdateBank failed: %v", err)
	}

	report, err := dst.Import(raw, ImportMerge)
	if err != nil {
		t.Fatalf("merge import failed: %v", err)
	}
	if report.Skipped[models.CollectionBanks] != 1 {
		t.Errorf("expected 1 skipped bank, got %d", report.Skipped[models.CollectionBanks])
	}
	got, _ := dst.Bank(bank.ID)
	if got.Name != name {
		t.Errorf("merge overwrote existing bank: %q", got.Name)
	}
	if got := len(dst.Transactions(models.TransactionExpense)); got != 1 {
		t.Errorf("expected 1 expense after merge, got %d", got)
	}
}

func TestImportOlderVersionWarnsAndSucceeds(t *testing.T) {
	src := New(nil, "1.0.0")
	src.now = func() time.Time { return testNow }
	bank := seedBank(t, src)
	seedAccount(t, src, bank.ID)
	raw, _ := json.Marshal(src.Export())

	dst := newTestLedger(t) // version 1.2.0
	report, err := dst.Import(raw, ImportReplace)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[0], "1.0.0") || !strings.Contains(report.Warnings[0], "older") {
		t.Errorf("warning should name the older version: %q", report.Warnings[0])
	}
	if got := len(dst.Banks()); got != 1 {
		t.Errorf("import should still apply, got %d banks", got)
	}
}

func TestImportNewerVersionWarns(t *testing.T) {
	src := New(nil, "2.0.0")
	src.now = func() time.Time { return testNow }
	seedBank(t, src)
	raw, _ := json.Marshal(src.Export())

	dst := newTestLedger(t)
	report, err := dst.Import(raw, ImportReplace)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "newer") {
		t.Errorf("expected newer-version warning, got %v", report.Warnings)
	}
}

func TestValidateBackupDocument(t *testing.T) {
	valid, _ := json.Marshal(newTestLedger(t).Export())

	corrupt := func(mutate func(map[string]json.RawMessage)) []byte {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(valid, &doc); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		mutate(doc)
		raw, _ := json.Marshal(doc)
		return raw
	}

	cases := []struct {
		name string
		raw  []byte
	}{
		{"not json", []byte("{")},
		{"null document", []byte("null")},
		{"missing version", corrupt(func(d map[string]json.RawMessage) { delete(d, "version") })},
		{"numeric version", corrupt(func(d map[string]json.RawMessage) { d["version"] = json.RawMessage("3") })},
		{"missing timestamp", corrupt(func(d map[string]json.RawMessage) { delete(d, "timestamp") })},
		{"missing data", corrupt(func(d map[string]json.RawMessage) { delete(d, "data") })},
		{"data not object", corrupt(func(d map[string]json.RawMessage) { d["data"] = json.RawMessage(`[]`) })},
		{"missing collection", corrupt(func(d map[string]json.RawMessage) {
			var data map[string]json.RawMessage
			_ = json.Unmarshal(d["data"], &data)
			delete(data, models.CollectionBanks)
			raw, _ := json.Marshal(data)
			d["data"] = raw
		})},
		{"collection not array", corrupt(func(d map[string]json.RawMessage) {
			var data map[string]json.RawMessage
			_ = json.Unmarshal(d["data"], &data)
			data[models.CollectionBanks] = json.RawMessage(`{"id":"x"}`)
			raw, _ := json.Marshal(data)
			d["data"] = raw
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateBackupDocument(tc.raw); !errors.Is(err, ErrInvalidBackup) {
				t.Errorf("expected ErrInvalidBackup, got %v", err)
			}
		})
	}

	if _, err := ValidateBackupDocument(valid); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
}

// An invalid document must reject the import before anything changes.
func TestImportInvalidDocumentLeavesStateUntouched(t *testing.T) {
	l := newTestLedger(t)
	seedGraph(t, l)
	before := len(l.Banks())

	if _, err := l.Import([]byte(`{"version":"1.2.0"}`), ImportReplace); !errors.Is(err, ErrInvalidBackup) {
		t.Fatalf("expected ErrInvalidBackup, got %v", err)
	}
	if got := len(l.Banks()); got != before {
		t.Errorf("failed import mutated state: %d banks, want %d", got, before)
	}
}

func TestImportUnknownMode(t *testing.T) {
	l := newTestLedger(t)
	raw, _ := json.Marshal(newTestLedger(t).Export())
	if _, err := l.Import(raw, ImportMode("upsert")); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

// A persistence failure mid-import restores the pre-import graph.
func TestImportWriteFailureRollsBack(t *testing.T) {
	src := newTestLedger(t)
	seedGraph(t, src)
	raw, _ := json.Marshal(src.Export())

	persist := newMemPersister()
	persist.failCollection = models.CollectionAccounts
	persist.failRemaining = 1 // fail the import write, let the rollback through

	dst := New(persist, "1.2.0")
	dst.now = func() time.Time { return testNow }
	bank := seedBank(t, dst)

	_, err := dst.Import(raw, ImportReplace)
	if !errors.Is(err, ErrImportFailed) {
		t.Fatalf("expected ErrImportFailed, got %v", err)
	}

	// The pre-import state is back.
	if _, err := dst.Bank(bank.ID); err != nil {
		t.Errorf("pre-import bank missing after rollback: %v", err)
	}
	if got := len(dst.Banks()); got != 1 {
		t.Errorf("expected 1 bank after rollback, got %d", got)
	}
}

// When the rollback write also fails the error says so explicitly.
func TestImportRollbackFailureIsReported(t *testing.T) {
	src := newTestLedger(t)
	seedGraph(t, src)
	raw, _ := json.Marshal(src.Export())

	persist := newMemPersister()
	persist.failCollection = models.CollectionAccounts
	persist.failRemaining = 2 // import write and rollback write both fail

	dst := New(persist, "1.2.0")
	dst.now = func() time.Time { return testNow }
	seedBank(t, dst)

	_, err := dst.Import(raw, ImportReplace)
	if !errors.Is(err, ErrRollbackFailed) {
		t.Fatalf("expected ErrRollbackFailed, got %v", err)
	}
}
