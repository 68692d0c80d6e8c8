package usecase

import (
	"context"
	"time"

	"github.com/momentfi/moment-server/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// TransactionStore provides access to transaction persistence.
type TransactionStore interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	Update(ctx context.Context, txn *domain.Transaction) error
	UpdateFlags(ctx context.Context, id string, flags domain.DeletionFlags) error
	PermanentDelete(ctx context.Context, id string) error
	ListTransfersFrom(ctx context.Context, accountID string) ([]*domain.Transaction, error)
}

// AccountStore provides access to account persistence.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	// Update persists the account only if the stored version matches
	// account.Version, and bumps the version on success. Returns
	// domain.ErrVersionConflict otherwise.
	Update(ctx context.Context, account *domain.Account) error
	// RawUpdate persists the balance unconditionally, bypassing the
	// version check. Used as a last resort when verified writes fail.
	RawUpdate(ctx context.Context, account *domain.Account) error
}

// CategoryStore provides access to category persistence.
type CategoryStore interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Category, error)
}

// NotificationChannel broadcasts deletion lifecycle events to interested
// subscribers. Subscribe returns an unsubscribe func.
type NotificationChannel interface {
	Publish(event string, payload domain.DeletionEvent)
	Subscribe(event string, handler func(domain.DeletionEvent)) func()
}

// CategorySuggester proposes a category for a transaction description.
type CategorySuggester interface {
	Suggest(ctx context.Context, text string) (*domain.CategorySuggestion, error)
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore tracks request keys to prevent duplicate processing.
type IdempotencyStore interface {
	SetIfNotExists(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
