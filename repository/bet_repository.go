package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"betbook/database"
	"betbook/models"
)

const betColumns = `
	id, account_id, game, stake, win_amount, status, detail, match_id, team, created_at, settled_at`

// BetRepository implements the service.BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a bet repository bound to a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row pgx.Row) (*models.BetRecord, error) {
	var b models.BetRecord
	err := row.Scan(
		&b.ID,
		&b.AccountID,
		&b.Game,
		&b.Stake,
		&b.WinAmount,
		&b.Status,
		&b.Detail,
		&b.MatchID,
		&b.Team,
		&b.CreatedAt,
		&b.SettledAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a bet record and fills its id and timestamp. Terminal
// records (instant games) get their settled_at stamped on insert.
func (r *BetRepository) Create(ctx context.Context, bet *models.BetRecord) error {
	query := `
		INSERT INTO bets (account_id, game, stake, win_amount, status, detail, match_id, team, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
		        CASE WHEN $5 = 'PENDING' THEN NULL ELSE NOW() END)
		RETURNING id, created_at, settled_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.AccountID,
		bet.Game,
		bet.Stake,
		bet.WinAmount,
		bet.Status,
		bet.Detail,
		bet.MatchID,
		bet.Team,
	).Scan(&bet.ID, &bet.CreatedAt, &bet.SettledAt)
	if err != nil {
		return fmt.Errorf("failed to create bet for account %d: %w", bet.AccountID, err)
	}

	return nil
}

// GetByID retrieves a bet by id
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.BetRecord, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE id = $1`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

// ListByAccount returns an account's bets, newest first
func (r *BetRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.BetRecord, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for account %d: %w", accountID, err)
	}
	defer rows.Close()

	return collectBets(rows)
}

// ListPendingByMatch returns unsettled bets referencing a match
func (r *BetRepository) ListPendingByMatch(ctx context.Context, matchID int64) ([]*models.BetRecord, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE match_id = $1 AND status = 'PENDING'
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending bets for match %d: %w", matchID, err)
	}
	defer rows.Close()

	return collectBets(rows)
}

// Settle transitions status PENDING to WIN/LOSS exactly once and sets the
// win amount. A zero-row update means the bet was already settled; the
// caller treats that as a no-op and must not credit anything.
func (r *BetRepository) Settle(ctx context.Context, id int64, status models.BetStatus, winAmount decimal.Decimal) (bool, error) {
	query := `
		UPDATE bets
		SET status = $1, win_amount = $2, settled_at = NOW()
		WHERE id = $3 AND status = 'PENDING'
	`

	result, err := r.q.Exec(ctx, query, status, winAmount, id)
	if err != nil {
		return false, fmt.Errorf("failed to settle bet %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

func collectBets(rows pgx.Rows) ([]*models.BetRecord, error) {
	var bets []*models.BetRecord
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}
