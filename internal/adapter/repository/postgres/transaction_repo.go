package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/momentfi/moment-server/internal/domain"
)

// TransactionRepository implements usecase.TransactionStore.
type TransactionRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool, retrier *Retrier) *TransactionRepository {
	return &TransactionRepository{
		pool:    pool,
		retrier: retrier,
	}
}

const transactionColumns = `id, kind, amount, account_id, source_account_id, destination_account_id,
		category_id, description, occurred_at, is_pending_deletion, is_deleted, created_at, updated_at`

// Create inserts a new transaction.
func (r *TransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	return r.retrier.Retry(ctx, func() error {
		_, err := r.pool.Exec(ctx, query,
			txn.ID,
			string(txn.Kind),
			decimalToNumeric(txn.Amount),
			txn.AccountID,
			txn.SourceAccountID,
			txn.DestinationAccountID,
			txn.CategoryID,
			txn.Description,
			timeToPgTimestamptz(txn.OccurredAt),
			txn.IsPendingDeletion,
			txn.IsDeleted,
			timeToPgTimestamptz(txn.CreatedAt),
			timeToPgTimestamptz(txn.UpdatedAt),
		)
		return err
	})
}

// GetByID retrieves a transaction by ID, including soft-deleted rows.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	txn, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}

	return txn, err
}

// List retrieves visible transactions, optionally scoped to one account.
// Pending-deletion and deleted rows are excluded.
func (r *TransactionRepository) List(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE NOT is_deleted AND NOT is_pending_deletion
		  AND ($1 = '' OR account_id = $1 OR source_account_id = $1 OR destination_account_id = $1)
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Update rewrites the mutable fields of a transaction.
func (r *TransactionRepository) Update(ctx context.Context, txn *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $2, category_id = $3, description = $4, occurred_at = $5, updated_at = $6
		WHERE id = $1
	`

	return r.retrier.Retry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, query,
			txn.ID,
			decimalToNumeric(txn.Amount),
			txn.CategoryID,
			txn.Description,
			timeToPgTimestamptz(txn.OccurredAt),
			timeToPgTimestamptz(time.Now()),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrTransactionNotFound
		}
		return nil
	})
}

// UpdateFlags persists deletion lifecycle flags. Nil fields stay untouched.
func (r *TransactionRepository) UpdateFlags(ctx context.Context, id string, flags domain.DeletionFlags) error {
	query := `
		UPDATE transactions
		SET is_pending_deletion = COALESCE($2, is_pending_deletion),
		    is_deleted          = COALESCE($3, is_deleted),
		    updated_at          = $4
		WHERE id = $1
	`

	return r.retrier.Retry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, query,
			id,
			boolOrNull(flags.IsPendingDeletion),
			boolOrNull(flags.IsDeleted),
			timeToPgTimestamptz(time.Now()),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrTransactionNotFound
		}
		return nil
	})
}

// PermanentDelete tombstones a transaction: the row is kept so repeated
// deletion attempts can be told apart from unknown ids, but it never shows
// up in listings again.
func (r *TransactionRepository) PermanentDelete(ctx context.Context, id string) error {
	query := `
		UPDATE transactions
		SET is_deleted = TRUE, is_pending_deletion = FALSE, updated_at = $2
		WHERE id = $1
	`

	return r.retrier.Retry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, query, id, timeToPgTimestamptz(time.Now()))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrTransactionNotFound
		}
		return nil
	})
}

// ListTransfersFrom retrieves non-deleted transfers drawing on the account.
func (r *TransactionRepository) ListTransfersFrom(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE kind = 'transfer' AND source_account_id = $1 AND NOT is_deleted
		ORDER BY occurred_at ASC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn        domain.Transaction
		kind       string
		amount     pgtype.Numeric
		occurredAt pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)

	err := row.Scan(
		&txn.ID,
		&kind,
		&amount,
		&txn.AccountID,
		&txn.SourceAccountID,
		&txn.DestinationAccountID,
		&txn.CategoryID,
		&txn.Description,
		&occurredAt,
		&txn.IsPendingDeletion,
		&txn.IsDeleted,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Kind = domain.TransactionKind(kind)
	txn.Amount = numericToDecimal(amount)
	txn.OccurredAt = occurredAt.Time
	txn.CreatedAt = createdAt.Time
	txn.UpdatedAt = updatedAt.Time

	return &txn, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func boolOrNull(b *bool) pgtype.Bool {
	if b == nil {
		return pgtype.Bool{}
	}
	return pgtype.Bool{Bool: *b, Valid: true}
}
