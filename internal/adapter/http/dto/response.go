package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/usecase"
)

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID                   string          `json:"id"`
	Kind                 string          `json:"kind"`
	Amount               decimal.Decimal `json:"amount"`
	AccountID            string          `json:"account_id,omitempty"`
	SourceAccountID      string          `json:"source_account_id,omitempty"`
	DestinationAccountID string          `json:"destination_account_id,omitempty"`
	CategoryID           string          `json:"category_id,omitempty"`
	Description          string          `json:"description,omitempty"`
	OccurredAt           time.Time       `json:"occurred_at"`
	IsPendingDeletion    bool            `json:"is_pending_deletion"`
	IsDeleted            bool            `json:"is_deleted"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                   t.ID,
		Kind:                 string(t.Kind),
		Amount:               t.Amount,
		AccountID:            t.AccountID,
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		CategoryID:           t.CategoryID,
		Description:          t.Description,
		OccurredAt:           t.OccurredAt,
		IsPendingDeletion:    t.IsPendingDeletion,
		IsDeleted:            t.IsDeleted,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a transaction listing.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// SoftDeleteResponse is returned when a deletion lifecycle starts. The
// undo window is reported in milliseconds so clients can drive countdowns.
type SoftDeleteResponse struct {
	Transaction       *TransactionResponse   `json:"transaction"`
	State             string                 `json:"state"`
	UndoWindowMS      int64                  `json:"undo_window_ms"`
	ImpactedTransfers []*TransactionResponse `json:"impacted_transfers"`
}

// SoftDeleteFromResult converts a soft delete result to a response.
func SoftDeleteFromResult(result *usecase.SoftDeleteResult) *SoftDeleteResponse {
	return &SoftDeleteResponse{
		Transaction:       TransactionFromDomain(result.Transaction),
		State:             string(result.Session.State()),
		UndoWindowMS:      result.Session.Remaining().Milliseconds(),
		ImpactedTransfers: TransactionsFromDomain(result.ImpactedTransfers),
	}
}

// DeletionStatusResponse reports where a transaction sits in the deletion
// lifecycle.
type DeletionStatusResponse struct {
	TransactionID         string `json:"transaction_id"`
	State                 string `json:"state"`
	RemainingMS           int64  `json:"remaining_ms"`
	ReconciliationApplied bool   `json:"reconciliation_applied"`
}

// DeletionStatusFromDomain converts a deletion status to a response.
func DeletionStatusFromDomain(status *usecase.DeletionStatus) *DeletionStatusResponse {
	return &DeletionStatusResponse{
		TransactionID:         status.TransactionID,
		State:                 string(status.State),
		RemainingMS:           status.Remaining.Milliseconds(),
		ReconciliationApplied: status.ReconciliationApplied,
	}
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind,omitempty"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Kind:      a.Kind,
		Currency:  a.Currency,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps an account listing.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryFromDomain converts a domain category to a response.
func CategoryFromDomain(c *domain.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      string(c.Kind),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// CategoriesFromDomain converts domain categories to responses.
func CategoriesFromDomain(categories []*domain.Category) []*CategoryResponse {
	result := make([]*CategoryResponse, len(categories))
	for i, c := range categories {
		result[i] = CategoryFromDomain(c)
	}
	return result
}

// ListCategoriesResponse wraps a category listing.
type ListCategoriesResponse struct {
	Categories []*CategoryResponse `json:"categories"`
	Total      int64               `json:"total"`
}

// SuggestCategoryResponse carries an advisory classification. Suggestion is
// null when no classifier is configured or it could not produce one.
type SuggestCategoryResponse struct {
	Suggestion *CategorySuggestionResponse `json:"suggestion"`
}

// CategorySuggestionResponse is a single classifier suggestion.
type CategorySuggestionResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
