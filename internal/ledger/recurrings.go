package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// CreateRecurring creates a new recurring template. NextDueDate starts at
// StartDate and an immediate generation pass materializes anything already
// due.
func (l *Ledger) CreateRecurring(req models.CreateRecurringRequest) (*models.RecurringTemplate, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q is not a known recurring kind", ErrValidation, req.Kind)
	}
	if err := validateRequired("name", req.Name); err != nil {
		return nil, err
	}
	if err := validateDateField("start_date", req.StartDate); err != nil {
		return nil, err
	}
	if err := validateDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if err := validatePositiveAmount("amount", req.Amount); err != nil {
		return nil, err
	}
	if !req.Frequency.Valid() {
		return nil, fmt.Errorf("%w: frequency %q is not a known frequency", ErrValidation, req.Frequency)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.resolveAccount("account_id", req.AccountID); err != nil {
		return nil, err
	}

	now := l.now()
	rec := &models.RecurringTemplate{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Name:        req.Name,
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Frequency:   req.Frequency,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		NextDueDate: req.StartDate,
		Status:      models.ScheduleActive,
		Category:    req.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	l.recurrings[rec.ID] = rec
	if err := l.persistSet(rec.Kind.Collection(), rec.ID, rec); err != nil {
		delete(l.recurrings, rec.ID)
		return nil, err
	}

	l.generateRecurringLocked(rec, l.today(), &GenerationReport{})
	return rec, nil
}

// UpdateRecurring applies a partial update to a recurring template.
func (l *Ledger) UpdateRecurring(id string, req models.UpdateRecurringRequest) (*models.RecurringTemplate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.recurrings[id]
	if !ok {
		return nil, fmt.Errorf("%w: recurring template %q", ErrNotFound, id)
	}

	if req.AccountID != nil {
		if _, err := l.resolveAccount("account_id", *req.AccountID); err != nil {
			return nil, err
		}
		rec.AccountID = *req.AccountID
	}
	if req.Name != nil {
		if err := validateRequired("name", *req.Name); err != nil {
			return nil, err
		}
		rec.Name = *req.Name
	}
	if req.Amount != nil {
		if err := validatePositiveAmount("amount", *req.Amount); err != nil {
			return nil, err
		}
		rec.Amount = *req.Amount
	}
	if req.Frequency != nil {
		if !req.Frequency.Valid() {
			return nil, fmt.Errorf("%w: frequency %q is not a known frequency", ErrValidation, *req.Frequency)
		}
		rec.Frequency = *req.Frequency
	}
	if req.EndDate != nil {
		if err := validateDateRange(rec.StartDate, *req.EndDate); err != nil {
			return nil, err
		}
		rec.EndDate = *req.EndDate
	}
	if req.Status != nil {
		if err := validateScheduleTransition(rec.Status, *req.Status); err != nil {
			return nil, err
		}
		rec.Status = *req.Status
	}
	if req.Category != nil {
		rec.Category = *req.Category
	}
	rec.UpdatedAt = l.now()

	if err := l.persistSet(rec.Kind.Collection(), rec.ID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecurring deletes a recurring template. The delete is blocked
// while any transaction still carries the template as its provenance.
func (l *Ledger) DeleteRecurring(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteRecurringLocked(id)
}

func (l *Ledger) deleteRecurringLocked(id string) error {
	rec, ok := l.recurrings[id]
	if !ok {
		return fmt.Errorf("%w: recurring template %q", ErrNotFound, id)
	}
	if n := l.sourceDependents(models.SourceRecurring, id); n > 0 {
		return fmt.Errorf("%w: recurring template %q has %d generated transactions", ErrDependents, id, n)
	}
	delete(l.recurrings, id)
	return l.persistRemove(rec.Kind.Collection(), id)
}

// Recurring returns a recurring template by ID.
func (l *Ledger) Recurring(id string) (*models.RecurringTemplate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.recurrings[id]
	if !ok {
		return nil, fmt.Errorf("%w: recurring template %q", ErrNotFound, id)
	}
	copied := *rec
	return &copied, nil
}

// Recurrings returns all recurring templates of a kind sorted by creation
// time.
func (l *Ledger) Recurrings(kind models.RecurringKind) []*models.RecurringTemplate {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs := make([]*models.RecurringTemplate, 0)
	for _, r := range l.recurrings {
		if r.Kind == kind {
			copied := *r
			recs = append(recs, &copied)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	return recs
}
