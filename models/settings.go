package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the singleton row of operator-tunable parameters. Every
// ledger operation that computes bonuses or commission reads it; only
// admins mutate it.
type Settings struct {
	ID                        int64           `db:"id"`
	BkashNumber               string          `db:"bkash_number"`
	NagadNumber               string          `db:"nagad_number"`
	RocketNumber              string          `db:"rocket_number"`
	MinDeposit                decimal.Decimal `db:"min_deposit"`
	MinWithdraw               decimal.Decimal `db:"min_withdraw"`
	ReferralCommissionPercent decimal.Decimal `db:"referral_commission_percent"`
	DepositBonusPercent       decimal.Decimal `db:"deposit_bonus_percent"`
	GlobalClaimBonus          decimal.Decimal `db:"global_claim_bonus"`
	UpdatedAt                 time.Time       `db:"updated_at"`
}

// DefaultSettings returns the values seeded on first read
func DefaultSettings() *Settings {
	return &Settings{
		BkashNumber:               "01700000000",
		NagadNumber:               "01800000000",
		RocketNumber:              "01900000000",
		MinDeposit:                decimal.NewFromInt(100),
		MinWithdraw:               decimal.NewFromInt(500),
		ReferralCommissionPercent: decimal.NewFromInt(2),
		DepositBonusPercent:       decimal.NewFromInt(10),
		GlobalClaimBonus:          decimal.NewFromInt(50),
	}
}
