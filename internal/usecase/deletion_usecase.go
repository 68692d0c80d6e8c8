package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/infrastructure/metrics"
)

// Deletion confirm triggers, recorded in metrics and logs.
const (
	TriggerExpiry = "expiry"
	TriggerForced = "forced"
)

// DeletionSession tracks one in-flight deletion lifecycle for a single
// transaction: its state, its undo timer and whether the balance adjustment
// has been applied. Sessions never share mutable state with each other.
type DeletionSession struct {
	ID            string
	TransactionID string

	mu                    sync.Mutex
	state                 domain.DeletionState
	timer                 *DeletionTimer
	transaction           *domain.Transaction
	reconciliationApplied bool
}

// State returns the current lifecycle state.
func (s *DeletionSession) State() domain.DeletionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining returns the time left in the undo window.
func (s *DeletionSession) Remaining() time.Duration {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()

	if timer == nil {
		return 0
	}
	remaining := timer.Remaining()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// advance moves the session from one state to another atomically. It
// reports whether the transition happened; a false result means another
// flow (undo vs. expiry) won the race and owns the session now.
func (s *DeletionSession) advance(from, to domain.DeletionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != from || !s.state.CanTransition(to) {
		return false
	}
	s.state = to
	return true
}

func (s *DeletionSession) markReconciled() {
	s.mu.Lock()
	s.reconciliationApplied = true
	s.mu.Unlock()
}

func (s *DeletionSession) reconciled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconciliationApplied
}

// SoftDeleteResult is returned from a successful soft delete.
type SoftDeleteResult struct {
	Transaction       *domain.Transaction
	Session           *DeletionSession
	ImpactedTransfers []*domain.Transaction
}

// DeletionStatus describes the lifecycle position of a transaction.
type DeletionStatus struct {
	TransactionID         string
	State                 domain.DeletionState
	Remaining             time.Duration
	ReconciliationApplied bool
}

// ProgressListener receives countdown updates for a pending deletion.
type ProgressListener func(transactionID string, remaining time.Duration)

// DeletionUseCase implements the transaction deletion lifecycle: soft delete
// with an undo window, timer-driven permanent deletion, balance
// reconciliation and lifecycle event broadcast.
type DeletionUseCase struct {
	transactions TransactionStore
	reconciler   *Reconciler
	impact       *ImpactAnalyzer
	channel      NotificationChannel
	idGen        IDGenerator
	logger       zerolog.Logger
	metrics      *metrics.Metrics

	undoWindow time.Duration
	tick       time.Duration

	mu       sync.Mutex
	sessions map[string]*DeletionSession
	progress ProgressListener
	closed   bool
}

// NewDeletionUseCase creates a DeletionUseCase.
func NewDeletionUseCase(
	transactions TransactionStore,
	reconciler *Reconciler,
	impact *ImpactAnalyzer,
	channel NotificationChannel,
	idGen IDGenerator,
	logger zerolog.Logger,
	m *metrics.Metrics,
	undoWindow time.Duration,
	tick time.Duration,
) *DeletionUseCase {
	if undoWindow <= 0 {
		undoWindow = DefaultUndoWindow
	}
	if tick <= 0 {
		tick = DeletionTickInterval
	}
	return &DeletionUseCase{
		transactions: transactions,
		reconciler:   reconciler,
		impact:       impact,
		channel:      channel,
		idGen:        idGen,
		logger:       logger,
		metrics:      m,
		undoWindow:   undoWindow,
		tick:         tick,
		sessions:     make(map[string]*DeletionSession),
	}
}

// SetProgressListener registers a callback for countdown ticks. Pass nil to
// remove it. Intended for push surfaces (SSE, websockets).
func (u *DeletionUseCase) SetProgressListener(fn ProgressListener) {
	u.mu.Lock()
	u.progress = fn
	u.mu.Unlock()
}

// SoftDelete marks the transaction as pending deletion, analyzes dependent
// transfers and starts the undo window. Starting a new deletion while one
// is already in flight for the same transaction resets the prior session.
func (u *DeletionUseCase) SoftDelete(ctx context.Context, id string) (*SoftDeleteResult, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	txn, err := u.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.IsDeleted {
		return nil, domain.ErrAlreadyDeleted
	}

	// Re-entrancy guard: a second delete resets a prior PENDING session
	// instead of stacking two competing timers. Sessions past the window
	// (RECONCILING, or halted at ERROR with the balance possibly already
	// adjusted) must not be displaced; doing so would race the in-flight
	// finalize or discard the reconciliation guard.
	u.mu.Lock()
	if prior, ok := u.sessions[id]; ok {
		prior.mu.Lock()
		if prior.state != domain.DeletionStatePending {
			prior.mu.Unlock()
			u.mu.Unlock()
			return nil, domain.ErrDeletionInProgress
		}
		// Moving the prior session off PENDING here makes a concurrent
		// expiry callback lose its state race even if the timer already
		// fired.
		prior.state = domain.DeletionStateActive
		if prior.timer != nil {
			prior.timer.Cancel()
		}
		prior.mu.Unlock()
		delete(u.sessions, id)
		if u.metrics != nil {
			u.metrics.ActiveSessions.Dec()
		}
		u.logger.Warn().
			Str("transaction_id", id).
			Str("session_id", prior.ID).
			Msg("replacing in-flight deletion session")
	}
	u.mu.Unlock()

	impacted, err := u.impact.Analyze(ctx, txn)
	if err != nil {
		// Impact analysis is advisory; a store failure here must not
		// block the deletion itself.
		u.logger.Warn().Err(err).Str("transaction_id", id).Msg("impact analysis failed")
		impacted = []*domain.Transaction{}
	}

	pending := true
	if err := u.transactions.UpdateFlags(ctx, id, domain.DeletionFlags{IsPendingDeletion: &pending}); err != nil {
		return nil, err
	}
	txn.IsPendingDeletion = true

	session := &DeletionSession{
		ID:            u.idGen.Generate(),
		TransactionID: id,
		state:         domain.DeletionStatePending,
		transaction:   txn,
		timer:         NewDeletionTimer(u.undoWindow, u.tick),
	}

	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		session.timer.Cancel()
		return nil, fmt.Errorf("deletion lifecycle is shut down")
	}
	u.sessions[id] = session
	u.mu.Unlock()

	session.timer.Start(
		func(remaining time.Duration) {
			u.mu.Lock()
			fn := u.progress
			u.mu.Unlock()
			if fn != nil {
				fn(id, remaining)
			}
		},
		func() { u.expire(session) },
	)

	if u.metrics != nil {
		u.metrics.DeletionsStarted.Inc()
		u.metrics.ActiveSessions.Inc()
	}
	u.logger.Info().
		Str("transaction_id", id).
		Str("session_id", session.ID).
		Dur("undo_window", u.undoWindow).
		Int("impacted_transfers", len(impacted)).
		Msg("transaction soft deleted")

	u.channel.Publish(domain.EventTransactionSoftDeleted, domain.DeletionEvent{
		Transaction:           txn,
		BalanceAlreadyUpdated: false,
	})

	return &SoftDeleteResult{
		Transaction:       txn,
		Session:           session,
		ImpactedTransfers: impacted,
	}, nil
}

// Undo cancels a pending deletion and restores the transaction. Undoing
// again once the transaction is back to ACTIVE is rejected with
// ErrDeletionNotPending and never touches the balance a second time. If the
// balance was already adjusted (a prior confirm attempt failed partway),
// the adjustment is reversed.
func (u *DeletionUseCase) Undo(ctx context.Context, id string) (*domain.Transaction, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	u.mu.Lock()
	session := u.sessions[id]
	u.mu.Unlock()

	if session == nil {
		return u.undoStaleFlag(ctx, id)
	}

	// A session halted at ERROR is consumed the same way: it still owns
	// the reconciliation guard, so an already-applied removal is reversed
	// below.
	if !session.advance(domain.DeletionStatePending, domain.DeletionStateActive) &&
		!session.advance(domain.DeletionStateError, domain.DeletionStateActive) {
		switch session.State() {
		case domain.DeletionStateReconciling, domain.DeletionStateDeleted:
			return nil, domain.ErrDeletionInProgress
		default:
			return nil, domain.ErrDeletionNotPending
		}
	}

	session.mu.Lock()
	timer := session.timer
	txn := session.transaction
	applied := session.reconciliationApplied
	session.mu.Unlock()

	if timer != nil {
		timer.Cancel()
	}

	notPending := false
	if err := u.transactions.UpdateFlags(ctx, id, domain.DeletionFlags{IsPendingDeletion: &notPending}); err != nil {
		return nil, u.fail(session, err)
	}
	txn.IsPendingDeletion = false

	if applied {
		if _, err := u.reconciler.Reconcile(ctx, txn, DirectionRestoration); err != nil {
			return nil, u.fail(session, err)
		}
		session.mu.Lock()
		session.reconciliationApplied = false
		session.mu.Unlock()
	}

	u.removeSession(id)

	if u.metrics != nil {
		u.metrics.DeletionsUndone.Inc()
	}
	u.logger.Info().
		Str("transaction_id", id).
		Str("session_id", session.ID).
		Bool("balance_restored", applied).
		Msg("deletion undone")

	u.channel.Publish(domain.EventTransactionRestored, domain.DeletionEvent{
		Transaction:           txn,
		BalanceAlreadyUpdated: applied,
	})

	return txn, nil
}

// undoStaleFlag handles undo when no session is in flight, e.g. after a
// restart left a transaction flagged pending. This is a pure flag revert.
func (u *DeletionUseCase) undoStaleFlag(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := u.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.IsDeleted {
		return nil, domain.ErrAlreadyDeleted
	}
	if !txn.IsPendingDeletion {
		return nil, domain.ErrDeletionNotPending
	}

	notPending := false
	if err := u.transactions.UpdateFlags(ctx, id, domain.DeletionFlags{IsPendingDeletion: &notPending}); err != nil {
		return nil, err
	}
	txn.IsPendingDeletion = false

	u.logger.Info().Str("transaction_id", id).Msg("stale pending deletion reverted")

	u.channel.Publish(domain.EventTransactionRestored, domain.DeletionEvent{
		Transaction:           txn,
		BalanceAlreadyUpdated: false,
	})
	return txn, nil
}

// Confirm forces permanent deletion without waiting for the undo window
// ("Delete Now"). The timer is cancelled first so expiry cannot trigger a
// second reconciliation.
func (u *DeletionUseCase) Confirm(ctx context.Context, id string) (*domain.Transaction, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	u.mu.Lock()
	session := u.sessions[id]
	u.mu.Unlock()

	if session == nil {
		return u.confirmStaleFlag(ctx, id)
	}

	// A retried confirm resumes a session halted at ERROR; its
	// reconciliation guard keeps the balance from being adjusted twice.
	if !session.advance(domain.DeletionStatePending, domain.DeletionStateReconciling) &&
		!session.advance(domain.DeletionStateError, domain.DeletionStateReconciling) {
		switch session.State() {
		case domain.DeletionStateReconciling, domain.DeletionStateDeleted:
			return nil, domain.ErrDeletionInProgress
		default:
			return nil, domain.ErrDeletionNotPending
		}
	}

	session.mu.Lock()
	timer := session.timer
	session.mu.Unlock()
	if timer != nil {
		timer.Cancel()
	}

	return u.finalize(ctx, session, TriggerForced)
}

// confirmStaleFlag finalizes a transaction whose pending flag survived a
// restart and therefore has no in-memory session or timer.
func (u *DeletionUseCase) confirmStaleFlag(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := u.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.IsDeleted {
		return nil, domain.ErrAlreadyDeleted
	}
	if !txn.IsPendingDeletion {
		return nil, domain.ErrDeletionNotPending
	}

	session := &DeletionSession{
		ID:            u.idGen.Generate(),
		TransactionID: id,
		state:         domain.DeletionStateReconciling,
		transaction:   txn,
	}

	// Register the recovery session so a partial failure here keeps its
	// reconciliation guard for the next confirm or undo.
	u.mu.Lock()
	if _, ok := u.sessions[id]; ok {
		u.mu.Unlock()
		return nil, domain.ErrDeletionInProgress
	}
	u.sessions[id] = session
	u.mu.Unlock()
	if u.metrics != nil {
		u.metrics.ActiveSessions.Inc()
	}

	return u.finalize(ctx, session, TriggerForced)
}

// expire runs when the undo window elapses. If undo already won the race
// the state transition fails and the callback does nothing.
func (u *DeletionUseCase) expire(session *DeletionSession) {
	if !session.advance(domain.DeletionStatePending, domain.DeletionStateReconciling) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if _, err := u.finalize(ctx, session, TriggerExpiry); err != nil {
		u.logger.Error().
			Err(err).
			Str("transaction_id", session.TransactionID).
			Str("session_id", session.ID).
			Msg("permanent deletion on expiry failed")
	}
}

// finalize runs the RECONCILING → DELETED leg: balance removal (once), the
// permanent-delete write, then the broadcast. Any failure halts the session
// at ERROR with the transaction still recoverable in the store.
func (u *DeletionUseCase) finalize(ctx context.Context, session *DeletionSession, trigger string) (*domain.Transaction, error) {
	session.mu.Lock()
	txn := session.transaction
	applied := session.reconciliationApplied
	session.mu.Unlock()

	if !applied {
		ok, err := u.reconciler.Reconcile(ctx, txn, DirectionRemoval)
		if err != nil {
			return nil, u.fail(session, err)
		}
		// Expense and transfer deletions never move a balance; only an
		// applied adjustment arms the guard (and the event flag below).
		if ok {
			session.markReconciled()
		}
	}

	if err := u.transactions.PermanentDelete(ctx, txn.ID); err != nil {
		return nil, u.fail(session, err)
	}
	txn.IsPendingDeletion = false
	txn.IsDeleted = true

	session.advance(domain.DeletionStateReconciling, domain.DeletionStateDeleted)
	u.removeSession(session.TransactionID)

	if u.metrics != nil {
		u.metrics.DeletionsConfirmed.WithLabelValues(trigger).Inc()
	}
	u.logger.Info().
		Str("transaction_id", txn.ID).
		Str("session_id", session.ID).
		Str("trigger", trigger).
		Msg("transaction permanently deleted")

	u.channel.Publish(domain.EventTransactionDeleted, domain.DeletionEvent{
		Transaction:           txn,
		BalanceAlreadyUpdated: session.reconciled(),
	})

	return txn, nil
}

// fail halts the session at ERROR. The session stays in the registry so a
// retried confirm or an undo can consume its reconciliation guard, and the
// transaction keeps its pending flag in the store, hidden from views but
// recoverable.
func (u *DeletionUseCase) fail(session *DeletionSession, cause error) error {
	session.mu.Lock()
	if session.state.CanTransition(domain.DeletionStateError) {
		session.state = domain.DeletionStateError
	}
	txn := session.transaction
	session.mu.Unlock()

	if u.metrics != nil {
		u.metrics.DeletionFailures.Inc()
	}
	u.logger.Error().
		Err(cause).
		Str("transaction_id", session.TransactionID).
		Str("session_id", session.ID).
		Str("account_id", txn.OwningAccountID()).
		Msg("deletion halted, transaction left recoverable")

	return fmt.Errorf("deletion of %s halted: %w", session.TransactionID, cause)
}

// Status reports where a transaction sits in the deletion lifecycle. With
// no session in flight, the persisted flags decide.
func (u *DeletionUseCase) Status(ctx context.Context, id string) (*DeletionStatus, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	u.mu.Lock()
	session := u.sessions[id]
	u.mu.Unlock()

	if session != nil {
		return &DeletionStatus{
			TransactionID:         id,
			State:                 session.State(),
			Remaining:             session.Remaining(),
			ReconciliationApplied: session.reconciled(),
		}, nil
	}

	txn, err := u.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status := &DeletionStatus{TransactionID: id, State: domain.DeletionStateActive}
	switch {
	case txn.IsDeleted:
		status.State = domain.DeletionStateDeleted
	case txn.IsPendingDeletion:
		// A pending flag with no live session means the lifecycle was
		// interrupted; only undo or confirm can move it forward.
		status.State = domain.DeletionStateError
	}
	return status, nil
}

func (u *DeletionUseCase) removeSession(id string) {
	u.mu.Lock()
	_, ok := u.sessions[id]
	delete(u.sessions, id)
	u.mu.Unlock()

	if ok && u.metrics != nil {
		u.metrics.ActiveSessions.Dec()
	}
}

// Close cancels every in-flight timer. Pending flags stay persisted, so
// interrupted deletions surface as recoverable after a restart.
func (u *DeletionUseCase) Close() {
	u.mu.Lock()
	u.closed = true
	sessions := make([]*DeletionSession, 0, len(u.sessions))
	for _, s := range u.sessions {
		sessions = append(sessions, s)
	}
	u.sessions = make(map[string]*DeletionSession)
	u.mu.Unlock()

	for _, s := range sessions {
		s.mu.Lock()
		if s.timer != nil {
			s.timer.Cancel()
		}
		s.mu.Unlock()
		if u.metrics != nil {
			u.metrics.ActiveSessions.Dec()
		}
	}
}
