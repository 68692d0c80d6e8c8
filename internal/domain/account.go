package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a money account on the dashboard (checking, savings,
// cash, card). Balance is kept with two fractional digits.
type Account struct {
	ID        string
	Name      string
	Kind      string
	Currency  string
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BalanceTolerance bounds the acceptable drift when verifying a persisted
// balance against a computed one.
var BalanceTolerance = decimal.NewFromFloat(0.001)

// ApplyRemoval returns the balance after removing an income of the given
// magnitude. The result snaps to exactly zero when the difference is within
// BalanceTolerance (the income was the only contribution) and never goes
// negative.
func (a *Account) ApplyRemoval(amount decimal.Decimal) decimal.Decimal {
	diff := a.Balance.Sub(amount.Abs())
	if diff.Abs().LessThan(BalanceTolerance) {
		return decimal.Zero
	}
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

// ApplyRestoration returns the balance after adding an income magnitude back.
func (a *Account) ApplyRestoration(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount.Abs())
}

// WithinTolerance reports whether two balances agree within BalanceTolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(BalanceTolerance)
}
