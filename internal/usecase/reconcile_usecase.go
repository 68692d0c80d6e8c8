package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/infrastructure/metrics"
)

// ReconcileDirection selects which balance adjustment to apply.
type ReconcileDirection string

const (
	// DirectionRemoval subtracts the transaction's magnitude from its
	// account, used when the transaction is being deleted.
	DirectionRemoval ReconcileDirection = "removal"
	// DirectionRestoration adds the magnitude back, used when a deletion
	// is undone after the balance was already adjusted.
	DirectionRestoration ReconcileDirection = "restoration"
)

// Reconciler keeps account balances consistent with transaction lifecycle
// changes. Writes are verified: after a version-checked update the balance
// is re-read and compared against the expectation within tolerance. Failed
// verified writes are retried a fixed number of times, then a single raw
// (unversioned) write is attempted as a fallback before giving up.
type Reconciler struct {
	accounts   AccountStore
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	maxRetries int
	retryDelay time.Duration
}

// NewReconciler creates a Reconciler.
func NewReconciler(accounts AccountStore, logger zerolog.Logger, m *metrics.Metrics, maxRetries int, retryDelay time.Duration) *Reconciler {
	if maxRetries < 0 {
		maxRetries = ReconcileMaxRetries
	}
	if retryDelay <= 0 {
		retryDelay = ReconcileRetryDelay
	}
	return &Reconciler{
		accounts:   accounts,
		logger:     logger,
		metrics:    m,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Reconcile adjusts the balance of the transaction's owning account in the
// given direction. Only income transactions move balances; other kinds
// return immediately with no store access. The bool reports whether an
// adjustment was actually applied, so callers never record a no-op as a
// balance change.
func (r *Reconciler) Reconcile(ctx context.Context, txn *domain.Transaction, direction ReconcileDirection) (bool, error) {
	if txn.Kind != domain.KindIncome {
		return false, nil
	}

	accountID := txn.OwningAccountID()
	if accountID == "" {
		return false, nil
	}

	start := time.Now()
	if r.metrics != nil {
		r.metrics.ReconcileAttempts.WithLabelValues(string(direction)).Inc()
		defer func() {
			r.metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
		}()
	}

	attempt := 0
	operation := func() error {
		if attempt > 0 && r.metrics != nil {
			r.metrics.ReconcileRetries.Inc()
		}
		attempt++
		return r.applyVerified(ctx, txn, accountID, direction)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.retryDelay), uint64(r.maxRetries)),
		ctx,
	)

	err := backoff.Retry(operation, policy)
	if err == nil {
		return true, nil
	}

	r.logger.Warn().
		Err(err).
		Str("transaction_id", txn.ID).
		Str("account_id", accountID).
		Str("direction", string(direction)).
		Int("attempts", attempt).
		Msg("verified balance writes exhausted, falling back to raw update")

	if rawErr := r.applyRaw(ctx, txn, accountID, direction); rawErr != nil {
		if r.metrics != nil {
			r.metrics.ReconcileFailures.Inc()
		}
		r.logger.Error().
			Err(rawErr).
			Str("transaction_id", txn.ID).
			Str("account_id", accountID).
			Str("direction", string(direction)).
			Msg("balance reconciliation failed")
		return false, fmt.Errorf("%w: %v", domain.ErrReconciliationFailed, rawErr)
	}

	if r.metrics != nil {
		r.metrics.ReconcileFallbacks.Inc()
	}
	return true, nil
}

// applyVerified performs one read-modify-write cycle with a version-checked
// update, then re-reads the row and checks the persisted balance landed
// within tolerance of the expectation.
func (r *Reconciler) applyVerified(ctx context.Context, txn *domain.Transaction, accountID string, direction ReconcileDirection) error {
	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	expected := r.target(account, txn.Magnitude(), direction)
	account.Balance = expected

	if err := r.accounts.Update(ctx, account); err != nil {
		return err
	}

	persisted, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !domain.WithinTolerance(persisted.Balance, expected) {
		return fmt.Errorf("balance verification failed: persisted %s, expected %s",
			persisted.Balance.StringFixed(2), expected.StringFixed(2))
	}

	r.logger.Debug().
		Str("transaction_id", txn.ID).
		Str("account_id", accountID).
		Str("direction", string(direction)).
		Str("balance", expected.StringFixed(2)).
		Msg("balance reconciled")
	return nil
}

// applyRaw recomputes the target balance from a fresh read and writes it
// without the version guard.
func (r *Reconciler) applyRaw(ctx context.Context, txn *domain.Transaction, accountID string, direction ReconcileDirection) error {
	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	account.Balance = r.target(account, txn.Magnitude(), direction)
	return r.accounts.RawUpdate(ctx, account)
}

func (r *Reconciler) target(account *domain.Account, amount decimal.Decimal, direction ReconcileDirection) decimal.Decimal {
	if direction == DirectionRestoration {
		return account.ApplyRestoration(amount)
	}
	return account.ApplyRemoval(amount)
}
