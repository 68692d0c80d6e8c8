package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentfi/moment-server/internal/domain"
)

// CreateCategoryInput carries the fields of a new category.
type CreateCategoryInput struct {
	Name string
	Kind domain.TransactionKind
}

// CategoryUseCase implements category CRUD.
type CategoryUseCase struct {
	categories CategoryStore
	idGen      IDGenerator
	logger     zerolog.Logger
}

// NewCategoryUseCase creates a CategoryUseCase.
func NewCategoryUseCase(categories CategoryStore, idGen IDGenerator, logger zerolog.Logger) *CategoryUseCase {
	return &CategoryUseCase{
		categories: categories,
		idGen:      idGen,
		logger:     logger,
	}
}

// Create persists a new category.
func (u *CategoryUseCase) Create(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	if input.Name == "" {
		return nil, domain.ErrMissingID
	}
	if input.Kind != "" && !input.Kind.Valid() {
		return nil, domain.ErrInvalidTransactionKind
	}

	now := time.Now()
	category := &domain.Category{
		ID:        u.idGen.Generate(),
		Name:      input.Name,
		Kind:      input.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	u.logger.Info().Str("category_id", category.ID).Str("name", category.Name).Msg("category created")
	return category, nil
}

// GetByID returns a single category.
func (u *CategoryUseCase) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}
	return u.categories.GetByID(ctx, id)
}

// List returns categories.
func (u *CategoryUseCase) List(ctx context.Context, limit, offset int) ([]*domain.Category, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return u.categories.List(ctx, limit, offset)
}
