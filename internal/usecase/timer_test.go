package usecase_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentfi/moment-server/internal/usecase"
)

func TestDeletionTimerExpires(t *testing.T) {
	t.Parallel()

	timer := usecase.NewDeletionTimer(30*time.Millisecond, 5*time.Millisecond)

	expired := make(chan struct{})
	timer.Start(nil, func() { close(expired) })

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never expired")
	}
}

func TestDeletionTimerCancelPreventsExpiry(t *testing.T) {
	t.Parallel()

	timer := usecase.NewDeletionTimer(30*time.Millisecond, 5*time.Millisecond)

	var expirations int32
	timer.Start(nil, func() { atomic.AddInt32(&expirations, 1) })

	if !timer.Cancel() {
		t.Fatal("first cancel should report stopping the timer")
	}

	time.Sleep(80 * time.Millisecond)
	if n := atomic.LoadInt32(&expirations); n != 0 {
		t.Errorf("expiry fired %d times after cancel", n)
	}
}

func TestDeletionTimerCancelIdempotent(t *testing.T) {
	t.Parallel()

	timer := usecase.NewDeletionTimer(time.Second, 10*time.Millisecond)
	timer.Start(nil, func() {})

	if !timer.Cancel() {
		t.Error("first cancel should return true")
	}
	if timer.Cancel() {
		t.Error("second cancel should return false")
	}
	if timer.Cancel() {
		t.Error("third cancel should return false")
	}
}

func TestDeletionTimerCancelAfterExpiry(t *testing.T) {
	t.Parallel()

	timer := usecase.NewDeletionTimer(20*time.Millisecond, 5*time.Millisecond)

	expired := make(chan struct{})
	timer.Start(nil, func() { close(expired) })
	<-expired

	if timer.Cancel() {
		t.Error("cancel after expiry should return false")
	}
}

func TestDeletionTimerTicks(t *testing.T) {
	t.Parallel()

	timer := usecase.NewDeletionTimer(100*time.Millisecond, 10*time.Millisecond)

	var ticks int32
	expired := make(chan struct{})
	timer.Start(
		func(remaining time.Duration) {
			if remaining < 0 {
				t.Errorf("tick reported negative remaining: %v", remaining)
			}
			atomic.AddInt32(&ticks, 1)
		},
		func() { close(expired) },
	)
	<-expired

	if atomic.LoadInt32(&ticks) == 0 {
		t.Error("expected at least one tick before expiry")
	}
}

func TestDeletionTimerRemaining(t *testing.T) {
	t.Parallel()

	timer := usecase.NewDeletionTimer(time.Second, 10*time.Millisecond)

	if got := timer.Remaining(); got != time.Second {
		t.Errorf("remaining before start = %v, want full window", got)
	}

	timer.Start(nil, func() {})
	defer timer.Cancel()

	if got := timer.Remaining(); got > time.Second {
		t.Errorf("remaining after start = %v, exceeds window", got)
	}
	if timer.StartedAt().IsZero() {
		t.Error("StartedAt should be set after Start")
	}
}
