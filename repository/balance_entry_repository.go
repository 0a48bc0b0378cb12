package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betbook/database"
	"betbook/models"
)

const balanceEntryColumns = `id, account_id, balance_before, balance_after, change_amount,
	entry_type, metadata, related_id, related_kind, created_at`

// BalanceEntryRepository implements the service.BalanceEntryRepository
// interface over the append-only audit ledger
type BalanceEntryRepository struct {
	q queryable
}

// NewBalanceEntryRepository creates a new balance entry repository
func NewBalanceEntryRepository(db *database.DB) *BalanceEntryRepository {
	return &BalanceEntryRepository{q: db.Pool}
}

// newBalanceEntryRepositoryWithTx creates a balance entry repository bound to a transaction
func newBalanceEntryRepositoryWithTx(tx queryable) *BalanceEntryRepository {
	return &BalanceEntryRepository{q: tx}
}

// Record creates a new audit entry
func (r *BalanceEntryRepository) Record(ctx context.Context, entry *models.BalanceEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal entry metadata: %w", err)
	}

	query := `
		INSERT INTO balance_entries
			(account_id, balance_before, balance_after, change_amount,
			 entry_type, metadata, related_id, related_kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.AccountID,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.ChangeAmount,
		entry.EntryType,
		metadataJSON,
		entry.RelatedID,
		entry.RelatedKind,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record balance entry: %w", err)
	}

	return nil
}

// ListByAccount returns audit entries for an account, newest first
func (r *BalanceEntryRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.BalanceEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM balance_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, balanceEntryColumns)

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance entries for account %d: %w", accountID, err)
	}
	defer rows.Close()

	return collectBalanceEntries(rows)
}

func collectBalanceEntries(rows pgx.Rows) ([]*models.BalanceEntry, error) {
	var entries []*models.BalanceEntry
	for rows.Next() {
		var e models.BalanceEntry
		var metadataJSON []byte
		err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.BalanceBefore,
			&e.BalanceAfter,
			&e.ChangeAmount,
			&e.EntryType,
			&metadataJSON,
			&e.RelatedID,
			&e.RelatedKind,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance entry: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal entry metadata: %w", err)
			}
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance entries: %w", err)
	}

	return entries, nil
}
