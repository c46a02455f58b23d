package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pigeonworks-llc/fintrack/internal/ledger"
	"github.com/pigeonworks-llc/fintrack/internal/models"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	l := ledger.New(nil, "1.2.0")
	history := ledger.NewHistory(10)
	srv := httptest.NewServer(NewRouter(l, history, nil))
	t.Cleanup(srv.Close)
	return srv
}

// doJSON sends a request with an optional JSON body and decodes the JSON
// response into a raw-message map.
func doJSON(t *testing.T, method, url string, body any) (int, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	result := make(map[string]json.RawMessage)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			t.Fatalf("decode response failed: %v (body: %s)", err, raw)
		}
	}
	return resp.StatusCode, result
}

func decodeInto(t *testing.T, raw json.RawMessage, into any) {
	t.Helper()
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
}

func createBank(t *testing.T, baseURL string) models.Bank {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, baseURL+"/api/1/banks", map[string]any{
		"name": "Test Bank",
		"kind": "bank",
	})
	if status != http.StatusCreated {
		t.Fatalf("create bank: expected 201, got %d (%s)", status, body["error"])
	}
	var bank models.Bank
	decodeInto(t, body["bank"], &bank)
	return bank
}

func createAccount(t *testing.T, baseURL, bankID string) models.Account {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, baseURL+"/api/1/accounts", map[string]any{
		"name":    "Checking",
		"bank_id": bankID,
		"kind":    "current",
		"balance": "1000",
	})
	if status != http.StatusCreated {
		t.Fatalf("create account: expected 201, got %d (%s)", status, body["error"])
	}
	var account models.Account
	decodeInto(t, body["account"], &account)
	return account
}

func TestBankLifecycle(t *testing.T) {
	srv := setupTestServer(t)
	bank := createBank(t, srv.URL)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/api/1/banks", nil)
	if status != http.StatusOK {
		t.Fatalf("list banks: expected 200, got %d", status)
	}
	var banks []models.Bank
	decodeInto(t, body["banks"], &banks)
	if len(banks) != 1 || banks[0].ID != bank.ID {
		t.Errorf("unexpected bank list: %+v", banks)
	}

	status, body = doJSON(t, http.MethodPut, srv.URL+"/api/1/banks/"+bank.ID, map[string]any{
		"name": "Renamed",
	})
	if status != http.StatusOK {
		t.Fatalf("update bank: expected 200, got %d", status)
	}
	var updated models.Bank
	decodeInto(t, body["bank"], &updated)
	if updated.Name != "Renamed" {
		t.Errorf("expected renamed bank, got %q", updated.Name)
	}

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/1/banks/"+bank.ID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete bank: expected 204, got %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/api/1/banks/"+bank.ID, nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", status)
	}
}

func TestDeleteBankWithAccountsConflicts(t *testing.T) {
	srv := setupTestServer(t)
	bank := createBank(t, srv.URL)
	account := createAccount(t, srv.URL, bank.ID)

	status, body := doJSON(t, http.MethodDelete, srv.URL+"/api/1/banks/"+bank.ID, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	var errCode string
	decodeInto(t, body["error"], &errCode)
	if errCode != "dependents_exist" {
		t.Errorf("expected dependents_exist, got %q", errCode)
	}

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/1/accounts/"+account.ID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete account: expected 204, got %d", status)
	}
	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/1/banks/"+bank.ID, nil)
	if status != http.StatusNoContent {
		t.Errorf("delete bank after account: expected 204, got %d", status)
	}
}

func TestTransactionValidationErrors(t *testing.T) {
	srv := setupTestServer(t)
	bank := createBank(t, srv.URL)
	account := createAccount(t, srv.URL, bank.ID)

	cases := []struct {
		name string
		req  map[string]any
		want string
	}{
		{
			name: "unknown kind",
			req:  map[string]any{"kind": "donation", "date": "2025-06-01", "amount": "10", "account_id": account.ID},
			want: "validation_failed",
		},
		{
			name: "missing account",
			req:  map[string]any{"kind": "expense", "date": "2025-06-01", "amount": "10", "account_id": "nope"},
			want: "foreign_key_missing",
		},
		{
			name: "bad date",
			req:  map[string]any{"kind": "expense", "date": "June 1st", "amount": "10", "account_id": account.ID},
			want: "validation_failed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doJSON(t, http.MethodPost, srv.URL+"/api/1/transactions", tc.req)
			if status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", status)
			}
			var errCode string
			decodeInto(t, body["error"], &errCode)
			if errCode != tc.want {
				t.Errorf("expected %q, got %q", tc.want, errCode)
			}
		})
	}
}

func TestTransactionUndoRedo(t *testing.T) {
	srv := setupTestServer(t)
	bank := createBank(t, srv.URL)
	account := createAccount(t, srv.URL, bank.ID)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/1/transactions", map[string]any{
		"kind":       "expense",
		"date":       "2025-06-01",
		"amount":     "42.50",
		"account_id": account.ID,
		"category":   "Food",
	})
	if status != http.StatusCreated {
		t.Fatalf("create transaction: expected 201, got %d", status)
	}
	var txn models.Transaction
	decodeInto(t, body["transaction"], &txn)

	// Undo the create: the transaction disappears.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/1/undo", nil)
	if status != http.StatusOK {
		t.Fatalf("undo: expected 200, got %d", status)
	}
	var undone bool
	decodeInto(t, body["undone"], &undone)
	if !undone {
		t.Fatal("expected undo to apply")
	}
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/api/1/transactions/"+txn.ID, nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404 after undo, got %d", status)
	}

	// Redo restores the identical record.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/1/redo", nil)
	if status != http.StatusOK {
		t.Fatalf("redo: expected 200, got %d", status)
	}
	var redone bool
	decodeInto(t, body["redone"], &redone)
	if !redone {
		t.Fatal("expected redo to apply")
	}
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/1/transactions/"+txn.ID, nil)
	if status != http.StatusOK {
		t.Fatalf("expected restored transaction, got %d", status)
	}
	var restored models.Transaction
	decodeInto(t, body["transaction"], &restored)
	if restored.ID != txn.ID || restored.Category != "Food" {
		t.Errorf("restored transaction differs: %+v", restored)
	}

	// Redo re-applies the original create; it must not mint a second
	// record alongside the restored one.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/1/transactions?kind=expense", nil)
	if status != http.StatusOK {
		t.Fatalf("list transactions: expected 200, got %d", status)
	}
	var listed []models.Transaction
	decodeInto(t, body["transactions"], &listed)
	if len(listed) != 1 {
		t.Fatalf("expected exactly 1 expense transaction after redo, got %d", len(listed))
	}
	if listed[0].ID != txn.ID {
		t.Errorf("expected the original transaction %s, got %s", txn.ID, listed[0].ID)
	}

	// A fresh mutation clears the redo tail.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/1/undo", nil)
	if status != http.StatusOK {
		t.Fatalf("undo: expected 200, got %d", status)
	}
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/1/transactions", map[string]any{
		"kind":       "expense",
		"date":       "2025-06-02",
		"amount":     "5",
		"account_id": account.ID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create transaction: expected 201, got %d", status)
	}
	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/1/redo", nil)
	if status != http.StatusOK {
		t.Fatalf("redo: expected 200, got %d", status)
	}
	decodeInto(t, body["redone"], &redone)
	if redone {
		t.Error("redo should be a no-op after a new mutation")
	}
}

func TestTransactionUpdateUndoRestoresPrevious(t *testing.T) {
	srv := setupTestServer(t)
	bank := createBank(t, srv.URL)
	account := createAccount(t, srv.URL, bank.ID)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/1/transactions", map[string]any{
		"kind":       "expense",
		"date":       "2025-06-01",
		"amount":     "10",
		"account_id": account.ID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create transaction: expected 201, got %d", status)
	}
	var txn models.Transaction
	decodeInto(t, body["transaction"], &txn)

	status, _ = doJSON(t, http.MethodPut, srv.URL+"/api/1/transactions/"+txn.ID, map[string]any{
		"status": "paid",
		"notes":  "settled",
	})
	if status != http.StatusOK {
		t.Fatalf("update transaction: expected 200, got %d", status)
	}

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/1/undo", nil)
	if status != http.StatusOK {
		t.Fatalf("undo: expected 200, got %d", status)
	}

	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/1/transactions/"+txn.ID, nil)
	if status != http.StatusOK {
		t.Fatalf("get transaction: expected 200, got %d", status)
	}
	var reverted models.Transaction
	decodeInto(t, body["transaction"], &reverted)
	if reverted.Status != models.StatusPending || reverted.Notes != "" {
		t.Errorf("undo did not restore the previous record: %+v", reverted)
	}
}

func TestBackupExportImportEndpoints(t *testing.T) {
	src := setupTestServer(t)
	bank := createBank(t, src.URL)
	createAccount(t, src.URL, bank.ID)

	resp, err := http.Get(src.URL + "/api/1/backup")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read export failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", resp.StatusCode)
	}

	dst := setupTestServer(t)
	importResp, err := http.Post(dst.URL+"/api/1/backup?mode=replace", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	defer importResp.Body.Close()
	if importResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(importResp.Body)
		t.Fatalf("import: expected 200, got %d (%s)", importResp.StatusCode, body)
	}

	status, body := doJSON(t, http.MethodGet, dst.URL+"/api/1/banks", nil)
	if status != http.StatusOK {
		t.Fatalf("list banks: expected 200, got %d", status)
	}
	var banks []models.Bank
	decodeInto(t, body["banks"], &banks)
	if len(banks) != 1 || banks[0].ID != bank.ID {
		t.Errorf("imported bank missing: %+v", banks)
	}
}

func TestImportRejectsMalformedDocument(t *testing.T) {
	srv := setupTestServer(t)

	resp, err := http.Post(srv.URL+"/api/1/backup", "application/json",
		bytes.NewReader([]byte(`{"version":"1.2.0"}`)))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestOrphanEndpoints(t *testing.T) {
	srv := setupTestServer(t)
	bank := createBank(t, srv.URL)
	createAccount(t, srv.URL, bank.ID)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/api/1/orphans", nil)
	if status != http.StatusOK {
		t.Fatalf("orphans: expected 200, got %d", status)
	}
	var total int
	decodeInto(t, body["total"], &total)
	if total != 0 {
		t.Errorf("expected 0 orphans, got %d", total)
	}

	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/1/orphans/cleanup", nil)
	if status != http.StatusOK {
		t.Fatalf("cleanup: expected 200, got %d", status)
	}
	var removed int
	decodeInto(t, body["removed"], &removed)
	if removed != 0 {
		t.Errorf("expected 0 removals, got %d", removed)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	bank := createBank(t, srv.URL)
	account := createAccount(t, srv.URL, bank.ID)

	// A plan backdated far enough generates on create; the explicit pass
	// right after finds nothing new.
	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/1/plans", map[string]any{
		"kind":               "expense",
		"name":               "Phone EMI",
		"account_id":         account.ID,
		"monthly_amount":     "100",
		"start_date":         "2020-01-15",
		"total_installments": 2,
	})
	if status != http.StatusCreated {
		t.Fatalf("create plan: expected 201, got %d (%s)", status, body["error"])
	}

	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/1/generate", nil)
	if status != http.StatusOK {
		t.Fatalf("generate: expected 200, got %d", status)
	}
	var generated int
	decodeInto(t, body["generated"], &generated)
	if generated != 0 {
		t.Errorf("expected idempotent pass, got %d generated", generated)
	}

	status, body = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/1/transactions?kind=expense", srv.URL), nil)
	if status != http.StatusOK {
		t.Fatalf("list transactions: expected 200, got %d", status)
	}
	var txns []models.Transaction
	decodeInto(t, body["transactions"], &txns)
	if len(txns) != 2 {
		t.Errorf("expected 2 generated installments, got %d", len(txns))
	}
}
