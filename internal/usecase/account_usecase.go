package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/momentfi/moment-server/internal/domain"
)

// CreateAccountInput carries the fields of a new account.
type CreateAccountInput struct {
	Name     string
	Kind     string
	Currency string
	Balance  decimal.Decimal
}

// AccountUseCase implements account CRUD.
type AccountUseCase struct {
	accounts AccountStore
	idGen    IDGenerator
	logger   zerolog.Logger
}

// NewAccountUseCase creates an AccountUseCase.
func NewAccountUseCase(accounts AccountStore, idGen IDGenerator, logger zerolog.Logger) *AccountUseCase {
	return &AccountUseCase{
		accounts: accounts,
		idGen:    idGen,
		logger:   logger,
	}
}

// Create persists a new account with an opening balance.
func (u *AccountUseCase) Create(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.Name == "" {
		return nil, domain.ErrMissingID
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	now := time.Now()
	account := &domain.Account{
		ID:        u.idGen.Generate(),
		Name:      input.Name,
		Kind:      input.Kind,
		Currency:  input.Currency,
		Balance:   input.Balance,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	u.logger.Info().Str("account_id", account.ID).Str("name", account.Name).Msg("account created")
	return account, nil
}

// GetByID returns a single account.
func (u *AccountUseCase) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}
	return u.accounts.GetByID(ctx, id)
}

// List returns accounts.
func (u *AccountUseCase) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return u.accounts.List(ctx, limit, offset)
}
