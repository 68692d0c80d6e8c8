package domain

import "time"

// Category labels transactions on the dashboard.
type Category struct {
	ID        string
	Name      string
	Kind      TransactionKind
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategorySuggestion is an advisory classification of a transaction
// description, produced by the classifier sidecar.
type CategorySuggestion struct {
	Category   string
	Confidence float64
}
