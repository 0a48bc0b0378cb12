package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betbook/database"
	"betbook/models"
)

const transactionColumns = `
	id, account_id, amount, type, status, channel, reference, created_at, resolved_at`

// TransactionRepository implements the service.TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a transaction repository bound to a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Amount,
		&t.Type,
		&t.Status,
		&t.Channel,
		&t.Reference,
		&t.CreatedAt,
		&t.ResolvedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a PENDING transaction and fills its id and timestamp
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (account_id, amount, type, status, channel, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		tx.AccountID,
		tx.Amount,
		tx.Type,
		tx.Status,
		tx.Channel,
		tx.Reference,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s transaction for account %d: %w", tx.Type, tx.AccountID, err)
	}

	return nil
}

// GetByID retrieves a transaction by id
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return tx, nil
}

// ListByAccount returns an account's transactions, newest first
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListPending returns all transactions awaiting an admin decision,
// oldest first so the queue is worked in order
func (r *TransactionRepository) ListPending(ctx context.Context) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = 'PENDING'
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ClaimPending transitions status away from PENDING exactly once. The
// zero-row result is the idempotency signal: a second resolution attempt
// claims nothing and must not touch any balance.
func (r *TransactionRepository) ClaimPending(ctx context.Context, id int64, status models.TransactionStatus) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $1, resolved_at = NOW()
		WHERE id = $2 AND status = 'PENDING'
	`

	result, err := r.q.Exec(ctx, query, status, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim transaction %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

func collectTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}
