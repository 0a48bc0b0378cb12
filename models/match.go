package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus is the lifecycle state of a two-outcome market.
// RESOLVED is terminal; deletion is only permitted while OPEN.
type MatchStatus string

const (
	MatchOpen     MatchStatus = "OPEN"
	MatchResolved MatchStatus = "RESOLVED"
)

// Match represents a two-outcome betting market (cricket style)
type Match struct {
	ID        int64           `db:"id"`
	Title     string          `db:"title"`
	TeamA     string          `db:"team_a"`
	TeamB     string          `db:"team_b"`
	OddsA     decimal.Decimal `db:"odds_a"`
	OddsB     decimal.Decimal `db:"odds_b"`
	Status    MatchStatus     `db:"status"`
	Winner    *string         `db:"winner"`
	CreatedAt time.Time       `db:"created_at"`
}

// HasTeam reports whether the given team is one of the match's two outcomes
func (m *Match) HasTeam(team string) bool {
	return team == m.TeamA || team == m.TeamB
}

// OddsFor returns the decimal odds for the given team. Zero if the team
// does not belong to the match.
func (m *Match) OddsFor(team string) decimal.Decimal {
	switch team {
	case m.TeamA:
		return m.OddsA
	case m.TeamB:
		return m.OddsB
	}
	return decimal.Zero
}

// IsOpen reports whether bets can still be placed on the match
func (m *Match) IsOpen() bool {
	return m.Status == MatchOpen
}

// MatchResult summarizes a settlement cascade after a match resolves
type MatchResult struct {
	Match       *Match
	BetsSettled int
	BetsWon     int
	TotalPaid   decimal.Decimal
}
