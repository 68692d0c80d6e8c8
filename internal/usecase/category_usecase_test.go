package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/usecase"
	"github.com/momentfi/moment-server/internal/usecase/mocks"
)

func TestCategoryCreate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	categories := mocks.NewMockCategoryStore(ctrl)
	categories.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	uc := usecase.NewCategoryUseCase(categories, &mocks.MockIDGenerator{}, zerolog.Nop())

	category, err := uc.Create(context.Background(), usecase.CreateCategoryInput{
		Name: "Groceries",
		Kind: domain.KindExpense,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if category.ID == "" || category.Name != "Groceries" {
		t.Errorf("category = %+v, want id and name set", category)
	}
}

func TestCategoryCreateValidation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := usecase.NewCategoryUseCase(mocks.NewMockCategoryStore(ctrl), &mocks.MockIDGenerator{}, zerolog.Nop())

	if _, err := uc.Create(context.Background(), usecase.CreateCategoryInput{}); !errors.Is(err, domain.ErrMissingID) {
		t.Errorf("missing name: err = %v, want ErrMissingID", err)
	}
	_, err := uc.Create(context.Background(), usecase.CreateCategoryInput{Name: "Weird", Kind: "loan"})
	if !errors.Is(err, domain.ErrInvalidTransactionKind) {
		t.Errorf("bad kind: err = %v, want ErrInvalidTransactionKind", err)
	}
}

func TestCategoryGetAndList(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	categories := mocks.NewMockCategoryStore(ctrl)
	categories.EXPECT().GetByID(gomock.Any(), "cat-1").
		Return(&domain.Category{ID: "cat-1", Name: "Salary", Kind: domain.KindIncome}, nil)
	categories.EXPECT().List(gomock.Any(), 50, 0).
		Return([]*domain.Category{{ID: "cat-1"}, {ID: "cat-2"}}, nil)

	uc := usecase.NewCategoryUseCase(categories, &mocks.MockIDGenerator{}, zerolog.Nop())

	category, err := uc.GetByID(context.Background(), "cat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if category.Name != "Salary" {
		t.Errorf("name = %s, want Salary", category.Name)
	}

	list, err := uc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("list = %d categories, want 2", len(list))
	}
}
