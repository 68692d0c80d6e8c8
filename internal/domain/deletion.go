package domain

// DeletionState is the per-transaction lifecycle state while a deletion is in
// flight.
type DeletionState string

const (
	DeletionStateActive      DeletionState = "ACTIVE"
	DeletionStatePending     DeletionState = "PENDING_DELETION"
	DeletionStateReconciling DeletionState = "RECONCILING"
	DeletionStateDeleted     DeletionState = "DELETED"
	DeletionStateError       DeletionState = "ERROR"
)

// CanTransition reports whether moving from s to the target state is a legal
// lifecycle transition. Any state may fail into ERROR; the exits from ERROR
// are an undo back to ACTIVE or a retried confirm back to RECONCILING.
func (s DeletionState) CanTransition(to DeletionState) bool {
	if to == DeletionStateError {
		return s != DeletionStateError
	}

	switch s {
	case DeletionStateActive:
		return to == DeletionStatePending
	case DeletionStatePending:
		return to == DeletionStateActive || to == DeletionStateReconciling
	case DeletionStateReconciling:
		return to == DeletionStateDeleted
	case DeletionStateError:
		return to == DeletionStateActive || to == DeletionStateReconciling
	}

	return false
}

// Terminal reports whether the state ends the deletion session. ERROR is not
// terminal: the session stays open so undo or a retried confirm can resolve
// it.
func (s DeletionState) Terminal() bool {
	return s == DeletionStateDeleted
}
