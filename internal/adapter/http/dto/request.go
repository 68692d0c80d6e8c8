package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/usecase"
)

// CreateTransactionRequest represents a request to create a transaction.
type CreateTransactionRequest struct {
	Kind                 string          `json:"kind"`
	Amount               decimal.Decimal `json:"amount"`
	AccountID            string          `json:"account_id,omitempty"`
	SourceAccountID      string          `json:"source_account_id,omitempty"`
	DestinationAccountID string          `json:"destination_account_id,omitempty"`
	CategoryID           string          `json:"category_id,omitempty"`
	Description          string          `json:"description,omitempty"`
	OccurredAt           *time.Time      `json:"occurred_at,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() usecase.CreateTransactionInput {
	input := usecase.CreateTransactionInput{
		Kind:                 domain.TransactionKind(r.Kind),
		Amount:               r.Amount,
		AccountID:            r.AccountID,
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		CategoryID:           r.CategoryID,
		Description:          r.Description,
	}
	if r.OccurredAt != nil {
		input.OccurredAt = *r.OccurredAt
	}
	return input
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name     string          `json:"name"`
	Kind     string          `json:"kind,omitempty"`
	Currency string          `json:"currency,omitempty"`
	Balance  decimal.Decimal `json:"balance,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:     r.Name,
		Kind:     r.Kind,
		Currency: r.Currency,
		Balance:  r.Balance,
	}
}

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCategoryRequest) ToUseCaseInput() usecase.CreateCategoryInput {
	return usecase.CreateCategoryInput{
		Name: r.Name,
		Kind: domain.TransactionKind(r.Kind),
	}
}

// SuggestCategoryRequest represents a request to classify a description.
type SuggestCategoryRequest struct {
	Description string `json:"description"`
}
