package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/momentfi/moment-server/internal/adapter/http/dto"
	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	Create(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	SuggestCategory(ctx context.Context, description string) (*domain.CategorySuggestion, error)
}

// DeletionService defines the deletion lifecycle behavior needed by
// TransactionHandler.
type DeletionService interface {
	SoftDelete(ctx context.Context, id string) (*usecase.SoftDeleteResult, error)
	Undo(ctx context.Context, id string) (*domain.Transaction, error)
	Confirm(ctx context.Context, id string) (*domain.Transaction, error)
	Status(ctx context.Context, id string) (*usecase.DeletionStatus, error)
}

// TransactionHandler handles transaction-related HTTP requests, including
// the deletion lifecycle endpoints.
type TransactionHandler struct {
	transactionUC TransactionService
	deletionUC    DeletionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService, deletionUC DeletionService) *TransactionHandler {
	return &TransactionHandler{
		transactionUC: transactionUC,
		deletionUC:    deletionUC,
	}
}

// Create creates a new transaction.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.transactionUC.Create(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.transactionUC.GetByID(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// List lists transactions, optionally filtered by account.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	txns, err := h.transactionUC.List(r.Context(), accountID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txns),
		Total:        int64(len(txns)),
	})
}

// SoftDelete starts the deletion lifecycle for a transaction.
func (h *TransactionHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	result, err := h.deletionUC.SoftDelete(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to delete transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusAccepted, dto.SoftDeleteFromResult(result))
}

// UndoDeletion restores a transaction within the undo window.
func (h *TransactionHandler) UndoDeletion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.deletionUC.Undo(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to undo deletion", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// ConfirmDeletion skips the rest of the undo window and deletes now.
func (h *TransactionHandler) ConfirmDeletion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.deletionUC.Confirm(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to confirm deletion", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// DeletionStatus reports the lifecycle state of a transaction.
func (h *TransactionHandler) DeletionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	status, err := h.deletionUC.Status(r.Context(), id)
	if err != nil {
		code := mapDomainError(err)
		writeError(w, code, "failed to get deletion status", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.DeletionStatusFromDomain(status))
}

// SuggestCategory asks the classifier sidecar for a category suggestion.
func (h *TransactionHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.SuggestCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	suggestion, err := h.transactionUC.SuggestCategory(r.Context(), req.Description)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to suggest category", err.Error())
		return
	}

	resp := dto.SuggestCategoryResponse{}
	if suggestion != nil {
		resp.Suggestion = &dto.CategorySuggestionResponse{
			Category:   suggestion.Category,
			Confidence: suggestion.Confidence,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
