package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// Field validators. Each failure wraps ErrValidation (or ErrForeignKey for
// reference resolution) and names the offending field so callers can
// surface it directly.

func validateRequired(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	return nil
}

func validateDateField(field, value string) error {
	if _, err := parseDate(value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrValidation, field, err)
	}
	return nil
}

// validateDateRange checks start <= end. end may be empty (open-ended).
func validateDateRange(start, end string) error {
	if end == "" {
		return nil
	}
	s, err := parseDate(start)
	if err != nil {
		return fmt.Errorf("%w: start_date: %v", ErrValidation, err)
	}
	e, err := parseDate(end)
	if err != nil {
		return fmt.Errorf("%w: end_date: %v", ErrValidation, err)
	}
	if e.Before(s) {
		return fmt.Errorf("%w: end_date %s is before start_date %s", ErrValidation, end, start)
	}
	return nil
}

func validatePositiveAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", ErrValidation, field)
	}
	return nil
}

func validatePositiveCount(field string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %s must be a positive integer", ErrValidation, field)
	}
	return nil
}

// Foreign-key resolution. Callers must hold the ledger mutex. The first
// missing reference wins; nothing is partially applied.

func (l *Ledger) resolveBank(field, id string) error {
	if _, ok := l.banks[id]; !ok {
		return fmt.Errorf("%w: %s %q", ErrForeignKey, field, id)
	}
	return nil
}

func (l *Ledger) resolveAccount(field, id string) (*models.Account, error) {
	a, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrForeignKey, field, id)
	}
	return a, nil
}

// resolveSource checks a provenance reference against the plan or
// recurring collections.
func (l *Ledger) resolveSource(sourceType models.SourceType, sourceID string) error {
	switch sourceType {
	case models.SourceEMI:
		if _, ok := l.plans[sourceID]; !ok {
			return fmt.Errorf("%w: source_id %q (installment plan)", ErrForeignKey, sourceID)
		}
	case models.SourceRecurring:
		if _, ok := l.recurrings[sourceID]; !ok {
			return fmt.Errorf("%w: source_id %q (recurring template)", ErrForeignKey, sourceID)
		}
	default:
		return fmt.Errorf("%w: source_type %q is not emi or recurring", ErrValidation, sourceType)
	}
	return nil
}

// Dependents counting for delete guards. Callers must hold the mutex.

func (l *Ledger) bankDependents(bankID string) int {
	count := 0
	for _, a := range l.accounts {
		if a.BankID == bankID {
			count++
		}
	}
	return count
}

func (l *Ledger) accountDependents(accountID string) int {
	count := 0
	for _, t := range l.transactions {
		if t.AccountID == accountID || t.ToAccountID == accountID {
			count++
		}
	}
	for _, p := range l.plans {
		if p.AccountID == accountID {
			count++
		}
	}
	for _, r := range l.recurrings {
		if r.AccountID == accountID {
			count++
		}
	}
	return count
}

// sourceDependents counts transactions that still carry a provenance
// reference to the given plan or template.
func (l *Ledger) sourceDependents(sourceType models.SourceType, sourceID string) int {
	count := 0
	for _, t := range l.transactions {
		if t.SourceType == sourceType && t.SourceID == sourceID {
			count++
		}
	}
	return count
}
