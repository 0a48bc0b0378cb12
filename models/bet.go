package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus is the settlement state of a bet. PENDING transitions exactly
// once to WIN or LOSS; instant games create records already terminal.
type BetStatus string

const (
	BetPending BetStatus = "PENDING"
	BetWin     BetStatus = "WIN"
	BetLoss    BetStatus = "LOSS"
)

// BetRecord represents one wager outcome. The stake is debited when the
// bet is placed, so WinAmount is the gross credit paid on settlement.
type BetRecord struct {
	ID        int64           `db:"id"`
	AccountID int64           `db:"account_id"`
	Game      string          `db:"game"`
	Stake     decimal.Decimal `db:"stake"`
	WinAmount decimal.Decimal `db:"win_amount"`
	Status    BetStatus       `db:"status"`
	Detail    string          `db:"detail"`
	MatchID   *int64          `db:"match_id"`
	Team      *string         `db:"team"`
	CreatedAt time.Time       `db:"created_at"`
	SettledAt *time.Time      `db:"settled_at"`
}

// IsSettled reports whether the bet has reached a terminal state
func (b *BetRecord) IsSettled() bool {
	return b.Status != BetPending
}

// BetResult represents the outcome of placing a bet (returned to the caller)
type BetResult struct {
	Bet         *BetRecord
	NewBalance  decimal.Decimal
	NewTurnover decimal.Decimal
}
