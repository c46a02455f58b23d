package ledger

import "errors"

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned when a field value fails validation.
	ErrValidation = errors.New("validation failed")

	// ErrForeignKey is returned when a referenced entity does not exist.
	ErrForeignKey = errors.New("referenced entity not found")

	// ErrDependents is returned when a delete is blocked by live
	// references to the target.
	ErrDependents = errors.New("dependent records exist")

	// ErrInvalidBackup is returned when a backup document fails the
	// structural check. No store is touched in that case.
	ErrInvalidBackup = errors.New("invalid backup format")

	// ErrImportFailed is returned when a collection write failed
	// mid-import and the pre-import state was restored.
	ErrImportFailed = errors.New("import failed")

	// ErrRollbackFailed is returned when restoring pre-import state after
	// a failed import itself failed. The data may be inconsistent and the
	// caller must be told so.
	ErrRollbackFailed = errors.New("rollback failed, data may be inconsistent")
)
