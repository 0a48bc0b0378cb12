package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType represents the kind of balance change being audited
type EntryType string

const (
	EntryInitial            EntryType = "initial"
	EntryBetStake           EntryType = "bet_stake"
	EntryBetWin             EntryType = "bet_win"
	EntryMatchPayout        EntryType = "match_payout"
	EntryDepositApproved    EntryType = "deposit_approved"
	EntryWithdrawApproved   EntryType = "withdraw_approved"
	EntryBonusClaim         EntryType = "bonus_claim"
	EntryCommissionClaim    EntryType = "commission_claim"
	EntryGlobalBonusClaim   EntryType = "global_bonus_claim"
	EntryReferralCommission EntryType = "referral_commission"
	EntryAdminAdjustment    EntryType = "admin_adjustment"
	EntryAdminBonusGrant    EntryType = "admin_bonus_grant"
)

// RelatedKind represents what type of row RelatedID refers to
type RelatedKind string

const (
	RelatedBet         RelatedKind = "bet"
	RelatedTransaction RelatedKind = "transaction"
	RelatedMatch       RelatedKind = "match"
	RelatedAccount     RelatedKind = "account"
)

// BalanceEntry is one row of the audit ledger. Every balance mutation in
// the system records exactly one entry per affected account.
type BalanceEntry struct {
	ID            int64           `db:"id"`
	AccountID     int64           `db:"account_id"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	ChangeAmount  decimal.Decimal `db:"change_amount"`
	EntryType     EntryType       `db:"entry_type"`
	Metadata      map[string]any  `db:"metadata"`
	RelatedID     *int64          `db:"related_id"`
	RelatedKind   *RelatedKind    `db:"related_kind"`
	CreatedAt     time.Time       `db:"created_at"`
}
