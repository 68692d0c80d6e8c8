package usecase

import "time"

const (
	// DefaultUndoWindow is how long a soft-deleted transaction can be
	// restored before permanent deletion begins.
	DefaultUndoWindow = 5 * time.Second

	// DeletionTickInterval is how often a pending deletion reports
	// progress to its listener.
	DeletionTickInterval = 10 * time.Millisecond

	// ReconcileMaxRetries is the number of retries after the initial
	// verified balance write fails.
	ReconcileMaxRetries = 2

	// ReconcileRetryDelay is the pause between verified write attempts.
	ReconcileRetryDelay = 300 * time.Millisecond

	// storeTimeout bounds individual persistence calls made outside of
	// a request context, e.g. from the expiry goroutine.
	storeTimeout = 10 * time.Second
)
