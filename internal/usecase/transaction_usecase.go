package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/infrastructure/metrics"
)

// CreateTransactionInput carries the fields of a new transaction.
type CreateTransactionInput struct {
	Kind                 domain.TransactionKind
	Amount               decimal.Decimal
	AccountID            string
	SourceAccountID      string
	DestinationAccountID string
	CategoryID           string
	Description          string
	OccurredAt           time.Time
}

// TransactionUseCase implements transaction creation and retrieval with the
// balance side effects each kind implies.
type TransactionUseCase struct {
	transactions TransactionStore
	accounts     AccountStore
	categories   CategoryStore
	suggester    CategorySuggester
	idGen        IDGenerator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewTransactionUseCase creates a TransactionUseCase. suggester may be nil
// when no classifier sidecar is configured.
func NewTransactionUseCase(
	transactions TransactionStore,
	accounts AccountStore,
	categories CategoryStore,
	suggester CategorySuggester,
	idGen IDGenerator,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *TransactionUseCase {
	return &TransactionUseCase{
		transactions: transactions,
		accounts:     accounts,
		categories:   categories,
		suggester:    suggester,
		idGen:        idGen,
		logger:       logger,
		metrics:      m,
	}
}

// Create validates the input, applies the balance effect of the new
// transaction to its account(s) and persists it.
func (u *TransactionUseCase) Create(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	now := time.Now()
	txn := &domain.Transaction{
		ID:                   u.idGen.Generate(),
		Kind:                 input.Kind,
		Amount:               input.Amount.Abs(),
		AccountID:            input.AccountID,
		SourceAccountID:      input.SourceAccountID,
		DestinationAccountID: input.DestinationAccountID,
		CategoryID:           input.CategoryID,
		Description:          input.Description,
		OccurredAt:           input.OccurredAt,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if txn.OccurredAt.IsZero() {
		txn.OccurredAt = now
	}

	if err := domain.ValidateTransaction(txn); err != nil {
		return nil, err
	}

	if txn.CategoryID != "" {
		if _, err := u.categories.GetByID(ctx, txn.CategoryID); err != nil {
			return nil, err
		}
	}

	if err := u.applyBalanceEffect(ctx, txn); err != nil {
		return nil, err
	}

	if err := u.transactions.Create(ctx, txn); err != nil {
		return nil, err
	}

	if u.metrics != nil {
		u.metrics.TransactionsCreated.WithLabelValues(string(txn.Kind)).Inc()
	}
	u.logger.Info().
		Str("transaction_id", txn.ID).
		Str("kind", string(txn.Kind)).
		Str("amount", txn.Amount.StringFixed(2)).
		Msg("transaction created")

	return txn, nil
}

func (u *TransactionUseCase) applyBalanceEffect(ctx context.Context, txn *domain.Transaction) error {
	switch txn.Kind {
	case domain.KindIncome:
		return u.adjust(ctx, txn.AccountID, txn.Amount)
	case domain.KindExpense:
		return u.adjust(ctx, txn.AccountID, txn.Amount.Neg())
	case domain.KindTransfer:
		if err := u.adjust(ctx, txn.SourceAccountID, txn.Amount.Neg()); err != nil {
			return err
		}
		return u.adjust(ctx, txn.DestinationAccountID, txn.Amount)
	}
	return domain.ErrInvalidTransactionKind
}

func (u *TransactionUseCase) adjust(ctx context.Context, accountID string, delta decimal.Decimal) error {
	account, err := u.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	account.Balance = account.Balance.Add(delta)
	return u.accounts.Update(ctx, account)
}

// GetByID returns a single transaction.
func (u *TransactionUseCase) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}
	return u.transactions.GetByID(ctx, id)
}

// List returns transactions, optionally scoped to one account. Deleted and
// pending-deletion rows are excluded by the store.
func (u *TransactionUseCase) List(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return u.transactions.List(ctx, accountID, limit, offset)
}

// SuggestCategory asks the classifier sidecar for a category matching the
// description. Returns nil without error when no suggester is configured or
// the sidecar is unavailable.
func (u *TransactionUseCase) SuggestCategory(ctx context.Context, description string) (*domain.CategorySuggestion, error) {
	if u.suggester == nil || description == "" {
		return nil, nil
	}

	suggestion, err := u.suggester.Suggest(ctx, description)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		u.logger.Warn().Err(err).Msg("category suggestion unavailable")
		return nil, nil
	}
	return suggestion, nil
}
