package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/usecase"
	"github.com/momentfi/moment-server/internal/usecase/mocks"
)

type deletionFixture struct {
	uc           *usecase.DeletionUseCase
	transactions *mocks.MockTransactionStore
	accounts     *mocks.MockAccountStore
	channel      *mocks.MockNotificationChannel
}

func newDeletionFixture(t *testing.T, undoWindow time.Duration) *deletionFixture {
	t.Helper()

	transactions := mocks.NewMockTransactionStore()
	accounts := mocks.NewMockAccountStore()
	channel := mocks.NewMockNotificationChannel()
	log := zerolog.Nop()

	reconciler := usecase.NewReconciler(accounts, log, nil, 2, 5*time.Millisecond)
	analyzer := usecase.NewImpactAnalyzer(transactions, log, nil)

	uc := usecase.NewDeletionUseCase(
		transactions,
		reconciler,
		analyzer,
		channel,
		&mocks.MockIDGenerator{},
		log,
		nil,
		undoWindow,
		5*time.Millisecond,
	)
	t.Cleanup(uc.Close)

	return &deletionFixture{
		uc:           uc,
		transactions: transactions,
		accounts:     accounts,
		channel:      channel,
	}
}

func (f *deletionFixture) seedIncome(txnID, accountID string, amount, balance float64) {
	f.accounts.Seed(&domain.Account{
		ID:      accountID,
		Name:    "Checking",
		Balance: decimal.NewFromFloat(balance),
		Version: 1,
	})
	f.transactions.Seed(&domain.Transaction{
		ID:         txnID,
		Kind:       domain.KindIncome,
		Amount:     decimal.NewFromFloat(amount),
		AccountID:  accountID,
		OccurredAt: day(1),
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

func TestSoftDeleteMarksPendingAndPublishes(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 200, 1000)

	result, err := f.uc.SoftDelete(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Transaction.IsPendingDeletion {
		t.Error("result transaction should carry the pending flag")
	}
	if stored := f.transactions.Stored("txn-1"); !stored.IsPendingDeletion {
		t.Error("pending flag must be persisted, not just local")
	}
	if got := result.Session.State(); got != domain.DeletionStatePending {
		t.Errorf("session state = %s, want PENDING_DELETION", got)
	}

	names := f.channel.EventNames()
	if len(names) != 1 || names[0] != domain.EventTransactionSoftDeleted {
		t.Errorf("events = %v, want [%s]", names, domain.EventTransactionSoftDeleted)
	}
	if f.channel.Events()[0].Payload.BalanceAlreadyUpdated {
		t.Error("soft delete must not report the balance as updated")
	}

	// Balance untouched until confirmation.
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, want untouched 1000", got)
	}
}

func TestSoftDeleteValidation(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)

	if _, err := f.uc.SoftDelete(context.Background(), ""); !errors.Is(err, domain.ErrMissingID) {
		t.Errorf("empty id: err = %v, want ErrMissingID", err)
	}
	if _, err := f.uc.SoftDelete(context.Background(), "nope"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("unknown id: err = %v, want ErrTransactionNotFound", err)
	}

	f.transactions.Seed(&domain.Transaction{
		ID:        "gone",
		Kind:      domain.KindIncome,
		Amount:    decimal.NewFromInt(10),
		AccountID: "acc-1",
		IsDeleted: true,
	})
	if _, err := f.uc.SoftDelete(context.Background(), "gone"); !errors.Is(err, domain.ErrAlreadyDeleted) {
		t.Errorf("deleted id: err = %v, want ErrAlreadyDeleted", err)
	}
}

func TestUndoKeepsBalanceExact(t *testing.T) {
	t.Parallel()

	// Account 1000.00, income "Bonus" 200.00: soft delete then undo must
	// leave the balance at exactly 1000 and the transaction active.
	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("bonus", "acc-1", 200, 1000)

	if _, err := f.uc.SoftDelete(context.Background(), "bonus"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	txn, err := f.uc.Undo(context.Background(), "bonus")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}

	if txn.IsPendingDeletion {
		t.Error("undo should clear the pending flag")
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, want exactly 1000", got)
	}

	status, err := f.uc.Status(context.Background(), "bonus")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != domain.DeletionStateActive {
		t.Errorf("state = %s, want ACTIVE", status.State)
	}

	names := f.channel.EventNames()
	if len(names) != 2 || names[1] != domain.EventTransactionRestored {
		t.Errorf("events = %v, want soft_deleted then restored", names)
	}
}

func TestUndoTwiceIsRejectedWithoutBalanceChange(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 200, 1000)

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.uc.Undo(context.Background(), "txn-1"); err != nil {
		t.Fatalf("first undo: %v", err)
	}

	_, err := f.uc.Undo(context.Background(), "txn-1")
	if !errors.Is(err, domain.ErrDeletionNotPending) {
		t.Fatalf("second undo: err = %v, want ErrDeletionNotPending", err)
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, second undo must not touch it", got)
	}
}

func TestExpiryRemovesBalanceAndDeletes(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, 30*time.Millisecond)
	f.seedIncome("txn-1", "acc-1", 300, 800)

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return f.transactions.Stored("txn-1").IsDeleted
	})

	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance = %s, want 500", got)
	}

	names := f.channel.EventNames()
	if len(names) != 2 || names[1] != domain.EventTransactionDeleted {
		t.Fatalf("events = %v, want soft_deleted then permanently_deleted", names)
	}
	if !f.channel.Events()[1].Payload.BalanceAlreadyUpdated {
		t.Error("permanent deletion must report the balance as already updated")
	}
}

func TestSalarySnapScenario(t *testing.T) {
	t.Parallel()

	// Account 500.00, income "Salary" 500.00: delete and confirm leaves
	// the balance at exactly 0.00 and the transaction DELETED.
	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("salary", "acc-1", 500, 500)

	if _, err := f.uc.SoftDelete(context.Background(), "salary"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	txn, err := f.uc.Confirm(context.Background(), "salary")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !txn.IsDeleted {
		t.Error("transaction should be deleted")
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.Zero) {
		t.Errorf("balance = %s, want exactly 0", got)
	}

	status, err := f.uc.Status(context.Background(), "salary")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != domain.DeletionStateDeleted {
		t.Errorf("state = %s, want DELETED", status.State)
	}
}

func TestConfirmAppliesReconciliationExactlyOnce(t *testing.T) {
	t.Parallel()

	// "Delete Now" right after soft delete: the timer is cancelled and
	// the balance moves exactly once even after the window would have
	// expired.
	f := newDeletionFixture(t, 40*time.Millisecond)
	f.seedIncome("txn-1", "acc-1", 200, 1000)

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.uc.Confirm(context.Background(), "txn-1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(800)) {
		t.Errorf("balance = %s, want 800 (single reconciliation)", got)
	}

	var deletions int
	for _, name := range f.channel.EventNames() {
		if name == domain.EventTransactionDeleted {
			deletions++
		}
	}
	if deletions != 1 {
		t.Errorf("permanently_deleted published %d times, want 1", deletions)
	}
}

func TestUndoAfterExpiryReportsAlreadyDeleted(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, 20*time.Millisecond)
	f.seedIncome("txn-1", "acc-1", 100, 400)

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		return f.transactions.Stored("txn-1").IsDeleted
	})

	_, err := f.uc.Undo(context.Background(), "txn-1")
	if !errors.Is(err, domain.ErrAlreadyDeleted) {
		t.Errorf("undo after deletion: err = %v, want ErrAlreadyDeleted", err)
	}
}

func TestSoftDeleteReplacesInFlightSession(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 200, 1000)

	first, err := f.uc.SoftDelete(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("first soft delete: %v", err)
	}
	second, err := f.uc.SoftDelete(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("second soft delete: %v", err)
	}
	if first.Session.ID == second.Session.ID {
		t.Error("second soft delete should create a fresh session")
	}

	// The replacement session still undoes cleanly.
	if _, err := f.uc.Undo(context.Background(), "txn-1"); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, want 1000", got)
	}
}

func TestUndoStaleFlagWithoutSession(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.accounts.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(1000), Version: 1})
	f.transactions.Seed(&domain.Transaction{
		ID:                "txn-1",
		Kind:              domain.KindIncome,
		Amount:            decimal.NewFromInt(200),
		AccountID:         "acc-1",
		IsPendingDeletion: true,
	})

	txn, err := f.uc.Undo(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if txn.IsPendingDeletion {
		t.Error("stale flag should be cleared")
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, pure flag revert must not touch it", got)
	}
}

func TestConfirmFailureLeavesTransactionRecoverable(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 200, 1000)
	f.transactions.PermanentDeleteFunc = func(ctx context.Context, id string) error {
		return errors.New("connection reset")
	}

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.uc.Confirm(context.Background(), "txn-1"); err == nil {
		t.Fatal("confirm should surface the store failure")
	}

	stored := f.transactions.Stored("txn-1")
	if stored.IsDeleted {
		t.Error("transaction must not be marked deleted after a failed confirm")
	}
	if !stored.IsPendingDeletion {
		t.Error("transaction should stay pending-deletion for recovery")
	}

	status, err := f.uc.Status(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != domain.DeletionStateError {
		t.Errorf("state = %s, want ERROR", status.State)
	}

	for _, name := range f.channel.EventNames() {
		if name == domain.EventTransactionDeleted {
			t.Error("permanently_deleted must not fire on failure")
		}
	}
}

func TestConfirmStaleFlagWithoutSession(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.accounts.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(500), Version: 1})
	f.transactions.Seed(&domain.Transaction{
		ID:                "txn-1",
		Kind:              domain.KindIncome,
		Amount:            decimal.NewFromInt(500),
		AccountID:         "acc-1",
		IsPendingDeletion: true,
	})

	txn, err := f.uc.Confirm(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !txn.IsDeleted {
		t.Error("transaction should be deleted")
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.Zero) {
		t.Errorf("balance = %s, want 0", got)
	}
}

func TestConfirmWithoutPendingDeletion(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 200, 1000)

	if _, err := f.uc.Confirm(context.Background(), "txn-1"); !errors.Is(err, domain.ErrDeletionNotPending) {
		t.Errorf("confirm active txn: err = %v, want ErrDeletionNotPending", err)
	}
}

func TestExpenseDeletionSkipsBalance(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.accounts.Seed(&domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(1000), Version: 1})
	f.transactions.Seed(&domain.Transaction{
		ID:         "rent",
		Kind:       domain.KindExpense,
		Amount:     decimal.NewFromInt(900),
		AccountID:  "acc-1",
		OccurredAt: day(1),
	})

	if _, err := f.uc.SoftDelete(context.Background(), "rent"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.uc.Confirm(context.Background(), "rent"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, expense deletion must not adjust it", got)
	}
	if !f.transactions.Stored("rent").IsDeleted {
		t.Error("expense should still be deleted")
	}

	events := f.channel.Events()
	last := events[len(events)-1]
	if last.Name != domain.EventTransactionDeleted {
		t.Fatalf("last event = %s, want permanently_deleted", last.Name)
	}
	if last.Payload.BalanceAlreadyUpdated {
		t.Error("no balance moved, so the event must not claim an adjustment")
	}
}

func TestConfirmRetryAfterFailureDebitsBalanceOnce(t *testing.T) {
	t.Parallel()

	// A confirm that adjusted the balance but failed on the final write
	// halts at ERROR. Retrying the confirm must finish the deletion
	// without debiting the account a second time.
	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 200, 1000)

	var deletes int32
	f.transactions.PermanentDeleteFunc = func(ctx context.Context, id string) error {
		if atomic.AddInt32(&deletes, 1) == 1 {
			return errors.New("connection reset")
		}
		deleted, pending := true, false
		return f.transactions.UpdateFlags(ctx, id, domain.DeletionFlags{
			IsDeleted:         &deleted,
			IsPendingDeletion: &pending,
		})
	}

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.uc.Confirm(context.Background(), "txn-1"); err == nil {
		t.Fatal("first confirm should surface the store failure")
	}

	// The balance adjustment landed before the write failed.
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("balance after failed confirm = %s, want 800", got)
	}

	txn, err := f.uc.Confirm(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("retried confirm: %v", err)
	}
	if !txn.IsDeleted {
		t.Error("retried confirm should complete the deletion")
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(800)) {
		t.Errorf("balance = %s, want 800 debited exactly once", got)
	}

	var deletions int
	for _, name := range f.channel.EventNames() {
		if name == domain.EventTransactionDeleted {
			deletions++
		}
	}
	if deletions != 1 {
		t.Errorf("permanently_deleted published %d times, want 1", deletions)
	}
}

func TestUndoAfterFailedConfirmRestoresBalance(t *testing.T) {
	t.Parallel()

	// Undoing a deletion halted at ERROR must put back the adjustment the
	// failed confirm already applied.
	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 200, 1000)
	f.transactions.PermanentDeleteFunc = func(ctx context.Context, id string) error {
		return errors.New("connection reset")
	}

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.uc.Confirm(context.Background(), "txn-1"); err == nil {
		t.Fatal("confirm should surface the store failure")
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("balance after failed confirm = %s, want 800", got)
	}

	txn, err := f.uc.Undo(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if txn.IsPendingDeletion {
		t.Error("undo should clear the pending flag")
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, want exactly 1000 after restoration", got)
	}

	events := f.channel.Events()
	last := events[len(events)-1]
	if last.Name != domain.EventTransactionRestored {
		t.Fatalf("last event = %s, want restored", last.Name)
	}
	if !last.Payload.BalanceAlreadyUpdated {
		t.Error("restored event should report the balance was put back")
	}

	status, err := f.uc.Status(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != domain.DeletionStateActive {
		t.Errorf("state = %s, want ACTIVE", status.State)
	}
}

func TestUndoFailureKeepsSessionRecoverable(t *testing.T) {
	t.Parallel()

	// Confirm fails after debiting, then the restoration write fails too.
	// The session must stay halted at ERROR so a later undo can still put
	// the balance back.
	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 200, 1000)
	f.transactions.PermanentDeleteFunc = func(ctx context.Context, id string) error {
		return errors.New("connection reset")
	}

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.uc.Confirm(context.Background(), "txn-1"); err == nil {
		t.Fatal("confirm should surface the store failure")
	}

	writeErr := errors.New("connection reset")
	f.accounts.UpdateFunc = func(ctx context.Context, account *domain.Account) error { return writeErr }
	f.accounts.RawUpdateFunc = func(ctx context.Context, account *domain.Account) error { return writeErr }

	if _, err := f.uc.Undo(context.Background(), "txn-1"); err == nil {
		t.Fatal("undo should surface the restoration failure")
	}

	status, err := f.uc.Status(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != domain.DeletionStateError {
		t.Fatalf("state = %s, want ERROR while unrecovered", status.State)
	}

	f.accounts.UpdateFunc = nil
	f.accounts.RawUpdateFunc = nil

	if _, err := f.uc.Undo(context.Background(), "txn-1"); err != nil {
		t.Fatalf("retried undo: %v", err)
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, want exactly 1000 after retried undo", got)
	}
}

func TestSoftDeleteRejectedPastUndoWindowStates(t *testing.T) {
	t.Parallel()

	// Once a session moves past PENDING_DELETION a new soft delete must
	// not displace it: RECONCILING is mid-finalize and ERROR still owns
	// an applied balance adjustment.
	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 200, 1000)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.transactions.PermanentDeleteFunc = func(ctx context.Context, id string) error {
		close(entered)
		<-release
		return errors.New("connection reset")
	}

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	confirmDone := make(chan struct{})
	go func() {
		defer close(confirmDone)
		_, _ = f.uc.Confirm(context.Background(), "txn-1")
	}()
	<-entered

	// Mid-finalize: the session is RECONCILING.
	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); !errors.Is(err, domain.ErrDeletionInProgress) {
		t.Errorf("soft delete during finalize: err = %v, want ErrDeletionInProgress", err)
	}

	close(release)
	<-confirmDone

	// The confirm failed, so the session is halted at ERROR.
	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); !errors.Is(err, domain.ErrDeletionInProgress) {
		t.Errorf("soft delete on halted session: err = %v, want ErrDeletionInProgress", err)
	}
	if got := f.accounts.Stored("acc-1").Balance; !got.Equal(decimal.NewFromInt(800)) {
		t.Errorf("balance = %s, want 800 held by the halted session", got)
	}
}

func TestSoftDeleteReturnsImpactedTransfers(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("income-1", "acc-x", 500, 2000)
	f.transactions.Seed(transferFrom("transfer-before", "acc-x", day(0)))
	f.transactions.Seed(transferFrom("transfer-after", "acc-x", day(2)))

	result, err := f.uc.SoftDelete(context.Background(), "income-1")
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if len(result.ImpactedTransfers) != 1 || result.ImpactedTransfers[0].ID != "transfer-after" {
		t.Errorf("impacted = %+v, want only transfer-after", result.ImpactedTransfers)
	}
}

func TestProgressListenerReceivesTicks(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, 80*time.Millisecond)
	f.seedIncome("txn-1", "acc-1", 100, 400)

	ticks := make(chan time.Duration, 64)
	f.uc.SetProgressListener(func(transactionID string, remaining time.Duration) {
		if transactionID != "txn-1" {
			t.Errorf("tick for unexpected transaction %s", transactionID)
		}
		select {
		case ticks <- remaining:
		default:
		}
	})

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("no progress tick received")
	}
}

func TestStatusReportsRemainingWindow(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, time.Hour)
	f.seedIncome("txn-1", "acc-1", 100, 400)

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	status, err := f.uc.Status(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != domain.DeletionStatePending {
		t.Errorf("state = %s, want PENDING_DELETION", status.State)
	}
	if status.Remaining <= 0 || status.Remaining > time.Hour {
		t.Errorf("remaining = %v, want within (0, window]", status.Remaining)
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	t.Parallel()

	f := newDeletionFixture(t, 30*time.Millisecond)
	f.seedIncome("txn-1", "acc-1", 100, 400)

	if _, err := f.uc.SoftDelete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	f.uc.Close()

	time.Sleep(80 * time.Millisecond)

	stored := f.transactions.Stored("txn-1")
	if stored.IsDeleted {
		t.Error("close must prevent the expiry from deleting")
	}
	if !stored.IsPendingDeletion {
		t.Error("pending flag should survive shutdown for recovery")
	}
}
