package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betbook/database"
	"betbook/models"
)

const matchColumns = `
	id, title, team_a, team_b, odds_a, odds_b, status, winner, created_at`

// MatchRepository implements the service.MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a match repository bound to a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.TeamA,
		&m.TeamB,
		&m.OddsA,
		&m.OddsB,
		&m.Status,
		&m.Winner,
		&m.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts an OPEN match and fills its id and timestamp
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (title, team_a, team_b, odds_a, odds_b, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		match.Title,
		match.TeamA,
		match.TeamB,
		match.OddsA,
		match.OddsB,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match %q: %w", match.Title, err)
	}

	return nil
}

// GetByID retrieves a match by id
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return match, nil
}

// GetByIDLocked retrieves a match and holds a share lock on its row until
// the enclosing transaction ends. MarkResolved's UPDATE waits for the
// lock, so a bet placed under it cannot interleave with resolution.
func (r *MatchRepository) GetByIDLocked(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR SHARE`

	match, err := scanMatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock match %d: %w", id, err)
	}
	return match, nil
}

// ListOpen returns matches still accepting bets, newest first
func (r *MatchRepository) ListOpen(ctx context.Context) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE status = 'OPEN' ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open matches: %w", err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

// ListAll returns every match, newest first
func (r *MatchRepository) ListAll(ctx context.Context) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

// MarkResolved transitions OPEN to RESOLVED exactly once and records the
// winner. The zero-row result guards two admins resolving concurrently.
func (r *MatchRepository) MarkResolved(ctx context.Context, id int64, winner string) (bool, error) {
	query := `
		UPDATE matches
		SET status = 'RESOLVED', winner = $1
		WHERE id = $2 AND status = 'OPEN'
	`

	result, err := r.q.Exec(ctx, query, winner, id)
	if err != nil {
		return false, fmt.Errorf("failed to resolve match %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

// DeleteOpen removes the match only while it is still OPEN
func (r *MatchRepository) DeleteOpen(ctx context.Context, id int64) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM matches WHERE id = $1 AND status = 'OPEN'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete match %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

func collectMatches(rows pgx.Rows) ([]*models.Match, error) {
	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}

	return matches, nil
}
