package domain

import "errors"

var (
	// Lookup errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrCategoryNotFound    = errors.New("category not found")

	// Validation errors
	ErrMissingID              = errors.New("missing identifier")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionKind = errors.New("unknown transaction kind")

	// Deletion lifecycle errors
	ErrAlreadyDeleted       = errors.New("transaction already deleted")
	ErrDeletionNotPending   = errors.New("transaction has no pending deletion")
	ErrDeletionInProgress   = errors.New("permanent deletion already in progress")
	ErrReconciliationFailed = errors.New("balance reconciliation failed, transaction left recoverable")

	// Persistence errors
	ErrVersionConflict = errors.New("account was modified concurrently")
)
