package domain

// Deletion lifecycle event names, published on the notification channel so
// open views stay consistent without a reload.
const (
	EventTransactionSoftDeleted = "transaction.soft_deleted"
	EventTransactionRestored    = "transaction.restored"
	EventTransactionDeleted     = "transaction.permanently_deleted"
)

// DeletionEvent is the payload broadcast on every lifecycle transition.
// BalanceAlreadyUpdated tells listeners whether the account balance was
// adjusted as part of the transition, so derived views do not double-adjust.
type DeletionEvent struct {
	Transaction           *Transaction `json:"transaction"`
	BalanceAlreadyUpdated bool         `json:"balance_already_updated"`
}
