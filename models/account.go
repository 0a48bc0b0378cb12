package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role determines what an account is allowed to do. Admins bypass the
// normal balance rules and gain moderation capability.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Account represents a player or admin with monetary state
type Account struct {
	ID               int64           `db:"id"`
	Username         string          `db:"username"`
	PasswordHash     string          `db:"password_hash"`
	Phone            *string         `db:"phone"`
	CashBalance      decimal.Decimal `db:"cash_balance"`
	BonusBalance     decimal.Decimal `db:"bonus_balance"`
	Commission       decimal.Decimal `db:"commission"`
	RequiredTurnover decimal.Decimal `db:"required_turnover"`
	CurrentTurnover  decimal.Decimal `db:"current_turnover"`
	ReferralCode     string          `db:"referral_code"`
	ReferredBy       *int64          `db:"referred_by"`
	ReferralCount    int             `db:"referral_count"`
	Role             Role            `db:"role"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// IsAdmin reports whether the account holds the admin role
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TurnoverMet reports whether the withdrawal turnover gate is cleared
func (a *Account) TurnoverMet() bool {
	return a.CurrentTurnover.GreaterThanOrEqual(a.RequiredTurnover)
}

// TurnoverRemaining returns the wager volume still needed before a
// withdrawal is allowed. Never negative.
func (a *Account) TurnoverRemaining() decimal.Decimal {
	remaining := a.RequiredTurnover.Sub(a.CurrentTurnover)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// AccountPatch carries the fields an admin may overwrite directly.
// Nil means "leave unchanged".
type AccountPatch struct {
	CashBalance      *decimal.Decimal
	BonusBalance     *decimal.Decimal
	Commission       *decimal.Decimal
	RequiredTurnover *decimal.Decimal
	CurrentTurnover  *decimal.Decimal
	Phone            *string
}
