package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/momentfi/moment-server/internal/domain"
)

// AccountRepository implements usecase.AccountStore.
type AccountRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool, retrier *Retrier) *AccountRepository {
	return &AccountRepository{
		pool:    pool,
		retrier: retrier,
	}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, kind, currency, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	return r.retrier.Retry(ctx, func() error {
		_, err := r.pool.Exec(ctx, query,
			account.ID,
			account.Name,
			account.Kind,
			account.Currency,
			decimalToNumeric(account.Balance),
			account.Version,
			timeToPgTimestamptz(account.CreatedAt),
			timeToPgTimestamptz(account.UpdatedAt),
		)
		return err
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, name, kind, currency, balance, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}

	return account, err
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	query := `
		SELECT id, name, kind, currency, balance, version, created_at, updated_at
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// Update persists the account guarded by the optimistic-concurrency
// version: the write only lands if the stored version still matches, and
// bumps it by one. A concurrent writer surfaces as ErrVersionConflict.
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, kind = $3, currency = $4, balance = $5,
		    version = version + 1, updated_at = $6
		WHERE id = $1 AND version = $7
	`

	err := r.retrier.Retry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, query,
			account.ID,
			account.Name,
			account.Kind,
			account.Currency,
			decimalToNumeric(account.Balance),
			timeToPgTimestamptz(time.Now()),
			account.Version,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return err
	}

	account.Version++
	return nil
}

// RawUpdate persists the account unconditionally, bypassing the version
// guard. Emergency path only, used when verified writes keep failing.
func (r *AccountRepository) RawUpdate(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		account.ID,
		decimalToNumeric(account.Balance),
		timeToPgTimestamptz(time.Now()),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Kind,
		&account.Currency,
		&balance,
		&account.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Balance = numericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}
