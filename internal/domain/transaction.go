package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a transaction.
type TransactionKind string

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

// Valid reports whether the kind is one of the known values.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

// Transaction represents a single income, expense or transfer record.
// Amount is an unsigned magnitude; the direction is implied by Kind.
// Income and expense rows carry AccountID; transfers carry
// SourceAccountID/DestinationAccountID instead.
type Transaction struct {
	ID                   string
	Kind                 TransactionKind
	Amount               decimal.Decimal
	AccountID            string
	SourceAccountID      string
	DestinationAccountID string
	CategoryID           string
	Description          string
	OccurredAt           time.Time
	IsPendingDeletion    bool
	IsDeleted            bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Magnitude returns the absolute amount of the transaction.
func (t *Transaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

// OwningAccountID returns the account whose balance this transaction
// contributes to: AccountID for income/expense, the source account for
// transfers.
func (t *Transaction) OwningAccountID() string {
	if t.Kind == KindTransfer {
		return t.SourceAccountID
	}
	return t.AccountID
}

// DeletionFlags carries optional flag updates for a transaction row.
// Nil fields are left untouched.
type DeletionFlags struct {
	IsPendingDeletion *bool
	IsDeleted         *bool
}
