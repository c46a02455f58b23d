package models

// Backup is the full-graph export document. The field names of BackupData
// are a wire format shared with other clients; every key must be present
// (possibly as an empty array) for a document to be accepted on import.
type Backup struct {
	Version   string     `json:"version"`
	Timestamp string     `json:"timestamp"` // ISO-8601
	Data      BackupData `json:"data"`
}

// BackupData holds one array per backed-up collection.
// Transfer transactions are deliberately absent: they are not part of the
// document schema and import leaves them untouched.
type BackupData struct {
	Banks                         []Bank              `json:"banks"`
	BankAccounts                  []Account           `json:"bankAccounts"`
	IncomeTransactions            []Transaction       `json:"incomeTransactions"`
	ExpenseTransactions           []Transaction       `json:"expenseTransactions"`
	SavingsInvestmentTransactions []Transaction       `json:"savingsInvestmentTransactions"`
	ExpenseEMIs                   []InstallmentPlan   `json:"expenseEMIs"`
	SavingsInvestmentEMIs         []InstallmentPlan   `json:"savingsInvestmentEMIs"`
	RecurringIncomes              []RecurringTemplate `json:"recurringIncomes"`
	RecurringExpenses             []RecurringTemplate `json:"recurringExpenses"`
	RecurringSavingsInvestments   []RecurringTemplate `json:"recurringSavingsInvestments"`
}

// BackupCollections lists the data keys a backup document must contain.
func BackupCollections() []string {
	return []string{
		CollectionBanks,
		CollectionAccounts,
		CollectionIncomeTxns,
		CollectionExpenseTxns,
		CollectionSavingsTxns,
		CollectionExpensePlans,
		CollectionSavingsPlans,
		CollectionRecurringIncomes,
		CollectionRecurringExpenses,
		CollectionRecurringSavings,
	}
}
