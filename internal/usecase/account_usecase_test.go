package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/momentfi/moment-server/internal/domain"
	"github.com/momentfi/moment-server/internal/usecase"
	"github.com/momentfi/moment-server/internal/usecase/mocks"
)

func TestAccountCreate(t *testing.T) {
	t.Parallel()

	accounts := mocks.NewMockAccountStore()
	uc := usecase.NewAccountUseCase(accounts, &mocks.MockIDGenerator{}, zerolog.Nop())

	account, err := uc.Create(context.Background(), usecase.CreateAccountInput{
		Name:    "Savings",
		Kind:    "savings",
		Balance: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.ID == "" {
		t.Error("account should get an id")
	}
	if account.Currency != "USD" {
		t.Errorf("currency = %s, want default USD", account.Currency)
	}
	if account.Version != 1 {
		t.Errorf("version = %d, want 1", account.Version)
	}

	stored := accounts.Stored(account.ID)
	if stored == nil || !stored.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("stored account = %+v, want balance 1000", stored)
	}
}

func TestAccountCreateRequiresName(t *testing.T) {
	t.Parallel()

	uc := usecase.NewAccountUseCase(mocks.NewMockAccountStore(), &mocks.MockIDGenerator{}, zerolog.Nop())
	if _, err := uc.Create(context.Background(), usecase.CreateAccountInput{}); !errors.Is(err, domain.ErrMissingID) {
		t.Errorf("err = %v, want ErrMissingID", err)
	}
}

func TestAccountGetByID(t *testing.T) {
	t.Parallel()

	accounts := mocks.NewMockAccountStore()
	seedAccount(accounts, "acc-1", 250)

	uc := usecase.NewAccountUseCase(accounts, &mocks.MockIDGenerator{}, zerolog.Nop())

	account, err := uc.GetByID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("balance = %s, want 250", account.Balance)
	}

	if _, err := uc.GetByID(context.Background(), ""); !errors.Is(err, domain.ErrMissingID) {
		t.Errorf("empty id: err = %v, want ErrMissingID", err)
	}
	if _, err := uc.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("unknown id: err = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountList(t *testing.T) {
	t.Parallel()

	accounts := mocks.NewMockAccountStore()
	seedAccount(accounts, "acc-1", 100)
	seedAccount(accounts, "acc-2", 200)

	uc := usecase.NewAccountUseCase(accounts, &mocks.MockIDGenerator{}, zerolog.Nop())
	list, err := uc.List(context.Background(), 0, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("list = %d accounts, want 2", len(list))
	}
}
