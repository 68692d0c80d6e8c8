package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxIDLength          = 64
	MaxDescriptionLength = 512
	MaxAmount            = "1000000000" // 1 billion per transaction
)

// ValidateID checks that an identifier is present and plausible. Operations
// must reject a missing id locally, before any store call is attempted.
func ValidateID(id string) error {
	id = strings.TrimSpace(id)

	if id == "" {
		return ErrMissingID
	}

	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: identifier exceeds %d characters", ErrMissingID, MaxIDLength)
	}

	return nil
}

// ValidateAmount checks a transaction magnitude.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxAmount)
	}

	return nil
}

// ValidateTransaction checks the structural invariants of a transaction
// before it is persisted.
func ValidateTransaction(t *Transaction) error {
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTransactionKind, t.Kind)
	}

	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}

	if t.Kind == KindTransfer {
		if err := ValidateID(t.SourceAccountID); err != nil {
			return fmt.Errorf("source account: %w", err)
		}
		if err := ValidateID(t.DestinationAccountID); err != nil {
			return fmt.Errorf("destination account: %w", err)
		}
		if t.SourceAccountID == t.DestinationAccountID {
			return fmt.Errorf("%w: transfer between identical accounts", ErrInvalidTransactionKind)
		}
		return nil
	}

	if err := ValidateID(t.AccountID); err != nil {
		return fmt.Errorf("account: %w", err)
	}

	if len(t.Description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}

	return nil
}

// ValidatePagination clamps pagination parameters to sane bounds.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 500
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
