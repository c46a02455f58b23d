package models

// Collection names. These double as persistence bucket names and as the
// keys of the backup document's "data" object, so they must not change
// between releases.
const (
	CollectionBanks                = "banks"
	CollectionAccounts             = "bankAccounts"
	CollectionIncomeTxns           = "incomeTransactions"
	CollectionExpenseTxns          = "expenseTransactions"
	CollectionSavingsTxns          = "savingsInvestmentTransactions"
	CollectionTransferTxns         = "transferTransactions"
	CollectionExpensePlans         = "expenseEMIs"
	CollectionSavingsPlans         = "savingsInvestmentEMIs"
	CollectionRecurringIncomes     = "recurringIncomes"
	CollectionRecurringExpenses    = "recurringExpenses"
	CollectionRecurringSavings     = "recurringSavingsInvestments"
)

// Collections lists every persisted collection.
// Transfer transactions are persisted like everything else but are not part
// of the backup document schema (see BackupData).
func Collections() []string {
	return []string{
		CollectionBanks,
		CollectionAccounts,
		CollectionIncomeTxns,
		CollectionExpenseTxns,
		CollectionSavingsTxns,
		CollectionTransferTxns,
		CollectionExpensePlans,
		CollectionSavingsPlans,
		CollectionRecurringIncomes,
		CollectionRecurringExpenses,
		CollectionRecurringSavings,
	}
}
