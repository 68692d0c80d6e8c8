// Package bus provides the in-process notification channel that keeps open
// views consistent when a transaction's deletion lifecycle changes.
package bus

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/infrastructure/metrics"
)

// Handler receives a lifecycle event payload. It is an alias so *Bus
// satisfies usecase.NotificationChannel, whose Subscribe takes the bare
// func type.
type Handler = func(domain.DeletionEvent)

// Bus is a synchronous publish/subscribe channel. Subscriptions are scoped:
// Subscribe returns an unsubscribe func and nothing is registered globally.
// Each publish delivers at most once per subscriber, in subscription order,
// within the calling goroutine.
type Bus struct {
	mu      sync.RWMutex
	nextID  uint64
	byEvent map[string]map[uint64]Handler

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a new Bus.
func New(logger zerolog.Logger, m *metrics.Metrics) *Bus {
	return &Bus{
		byEvent: make(map[string]map[uint64]Handler),
		logger:  logger,
		metrics: m,
	}
}

// Subscribe registers a handler for the named event and returns an
// unsubscribe func. Unsubscribing twice is safe.
func (b *Bus) Subscribe(event string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID

	if b.byEvent[event] == nil {
		b.byEvent[event] = make(map[uint64]Handler)
	}
	b.byEvent[event][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.byEvent[event], id)
	}
}

// Publish dispatches the payload to every subscriber of the named event.
// Dispatch is synchronous; handlers must not block.
func (b *Bus) Publish(event string, payload domain.DeletionEvent) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.byEvent[event]))
	ids := make([]uint64, 0, len(b.byEvent[event]))
	for id := range b.byEvent[event] {
		ids = append(ids, id)
	}
	// Map iteration order is random; deliver in subscription order.
	sortIDs(ids)
	for _, id := range ids {
		handlers = append(handlers, b.byEvent[event][id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}

	if b.metrics != nil {
		b.metrics.EventsPublished.WithLabelValues(event).Inc()
	}

	txnID := ""
	if payload.Transaction != nil {
		txnID = payload.Transaction.ID
	}
	b.logger.Debug().
		Str("event", event).
		Str("transaction_id", txnID).
		Bool("balance_already_updated", payload.BalanceAlreadyUpdated).
		Int("subscribers", len(handlers)).
		Msg("event published")
}

func sortIDs(ids []uint64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
