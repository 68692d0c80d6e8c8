package usecase

import (
	"sync"
	"time"
)

// DeletionTimer drives the undo window of a single pending deletion. It
// fires onTick at a fixed interval so callers can render a countdown, and
// onExpire exactly once when the window elapses. Cancel is idempotent and
// guarantees neither callback fires afterwards.
type DeletionTimer struct {
	window time.Duration
	tick   time.Duration

	mu        sync.Mutex
	startedAt time.Time
	expire    *time.Timer
	stopTick  chan struct{}
	finished  bool
}

// NewDeletionTimer creates a timer for the given undo window. The timer
// does not run until Start is called.
func NewDeletionTimer(window, tick time.Duration) *DeletionTimer {
	return &DeletionTimer{
		window: window,
		tick:   tick,
	}
}

// Start begins the countdown. onTick may be nil. Start must be called at
// most once.
func (t *DeletionTimer) Start(onTick func(remaining time.Duration), onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startedAt = time.Now()
	t.stopTick = make(chan struct{})

	t.expire = time.AfterFunc(t.window, func() {
		t.mu.Lock()
		if t.finished {
			t.mu.Unlock()
			return
		}
		t.finished = true
		close(t.stopTick)
		t.mu.Unlock()

		onExpire()
	})

	if onTick != nil && t.tick > 0 {
		go t.tickLoop(onTick, t.stopTick)
	}
}

func (t *DeletionTimer) tickLoop(onTick func(remaining time.Duration), stop chan struct{}) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining := t.Remaining()
			if remaining < 0 {
				remaining = 0
			}
			onTick(remaining)
		}
	}
}

// Cancel stops the countdown. It reports whether this call stopped the
// timer; false means it already expired or was cancelled before.
func (t *DeletionTimer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return false
	}
	t.finished = true
	if t.expire != nil {
		t.expire.Stop()
	}
	if t.stopTick != nil {
		close(t.stopTick)
	}
	return true
}

// Remaining returns the time left in the undo window. It can be negative
// once the window has elapsed.
func (t *DeletionTimer) Remaining() time.Duration {
	t.mu.Lock()
	startedAt := t.startedAt
	t.mu.Unlock()

	if startedAt.IsZero() {
		return t.window
	}
	return t.window - time.Since(startedAt)
}

// StartedAt returns when the countdown began, or the zero time if it has
// not started.
func (t *DeletionTimer) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt
}
