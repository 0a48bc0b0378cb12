package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betbook/events"
	"betbook/models"
)

type ledgerService struct {
	uowFactory   UnitOfWorkFactory
	claimLimiter ClaimLimiter
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, claimLimiter ClaimLimiter) LedgerService {
	return &ledgerService{
		uowFactory:   uowFactory,
		claimLimiter: claimLimiter,
	}
}

// PlaceBet debits the stake, raises current turnover, credits the
// referrer's commission and records a PENDING bet
func (s *ledgerService) PlaceBet(ctx context.Context, accountID int64, stake decimal.Decimal, game, detail string) (*models.BetResult, error) {
	return s.placeBet(ctx, accountID, stake, game, detail, nil, nil, models.BetPending, decimal.Zero)
}

// PlaceInstantBet is PlaceBet for games whose outcome is known at stake
// time. The record is created terminal and a win credits cash within the
// same transaction.
func (s *ledgerService) PlaceInstantBet(ctx context.Context, accountID int64, stake decimal.Decimal, game, detail string, won bool, winAmount decimal.Decimal) (*models.BetResult, error) {
	status := models.BetLoss
	if !won {
		winAmount = decimal.Zero
	} else {
		status = models.BetWin
	}
	if winAmount.IsNegative() {
		return nil, fmt.Errorf("win amount must not be negative")
	}
	return s.placeBet(ctx, accountID, stake, game, detail, nil, nil, status, winAmount)
}

// placeBet is the shared stake path. A non-PENDING status settles the bet
// in the same transaction; matchID and team tie the record to a market.
func (s *ledgerService) placeBet(ctx context.Context, accountID int64, stake decimal.Decimal, game, detail string, matchID *int64, team *string, status models.BetStatus, winAmount decimal.Decimal) (*models.BetResult, error) {
	if !stake.IsPositive() {
		return nil, fmt.Errorf("stake must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, storeErr("place bet", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	// Conditional debit + turnover bump in one guarded UPDATE
	if err := uow.AccountRepository().StakeCash(ctx, accountID, stake); err != nil {
		return nil, err
	}

	newBalance := account.CashBalance.Sub(stake)
	newTurnover := account.CurrentTurnover.Add(stake)

	bet := &models.BetRecord{
		AccountID: accountID,
		Game:      game,
		Stake:     stake,
		WinAmount: winAmount,
		Status:    status,
		Detail:    detail,
		MatchID:   matchID,
		Team:      team,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, storeErr("place bet", err)
	}

	stakeEntry := &models.BalanceEntry{
		AccountID:     accountID,
		BalanceBefore: account.CashBalance,
		BalanceAfter:  newBalance,
		ChangeAmount:  stake.Neg(),
		EntryType:     models.EntryBetStake,
		RelatedID:     &bet.ID,
		RelatedKind:   relatedKind(models.RelatedBet),
		Metadata: map[string]any{
			"game":  game,
			"stake": stake.String(),
		},
	}
	if err := RecordBalanceChange(ctx, uow, stakeEntry); err != nil {
		return nil, fmt.Errorf("failed to record stake: %w", err)
	}

	// Instant win pays out inside the same transaction
	if status == models.BetWin && winAmount.IsPositive() {
		if err := uow.AccountRepository().CreditCash(ctx, accountID, winAmount); err != nil {
			return nil, storeErr("place bet", err)
		}

		winEntry := &models.BalanceEntry{
			AccountID:     accountID,
			BalanceBefore: newBalance,
			BalanceAfter:  newBalance.Add(winAmount),
			ChangeAmount:  winAmount,
			EntryType:     models.EntryBetWin,
			RelatedID:     &bet.ID,
			RelatedKind:   relatedKind(models.RelatedBet),
			Metadata: map[string]any{
				"game": game,
			},
		}
		if err := RecordBalanceChange(ctx, uow, winEntry); err != nil {
			return nil, fmt.Errorf("failed to record win: %w", err)
		}
		newBalance = newBalance.Add(winAmount)
	}

	if err := creditReferrer(ctx, uow, account, stake, bet.ID); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		AccountID: accountID,
		BetID:     bet.ID,
		Game:      game,
		Stake:     stake,
		Status:    status,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.BetResult{
		Bet:         bet,
		NewBalance:  newBalance,
		NewTurnover: newTurnover,
	}, nil
}

// creditReferrer pays the referrer their cut of the stake. Shared by the
// plain and match bet paths.
func creditReferrer(ctx context.Context, uow UnitOfWork, account *models.Account, stake decimal.Decimal, betID int64) error {
	if account.ReferredBy == nil {
		return nil
	}

	settings, err := uow.SettingsRepository().Get(ctx)
	if err != nil {
		return storeErr("credit referrer", err)
	}

	commission := stake.Mul(settings.ReferralCommissionPercent).Div(decimal.NewFromInt(100))
	if !commission.IsPositive() {
		return nil
	}

	referrerID := *account.ReferredBy
	referrer, err := uow.AccountRepository().GetByID(ctx, referrerID)
	if err != nil {
		return storeErr("credit referrer", err)
	}
	if referrer == nil {
		// Referrer account was deleted; nothing to pay
		return nil
	}

	if err := uow.AccountRepository().CreditCommission(ctx, referrerID, commission); err != nil {
		return storeErr("credit referrer", err)
	}

	entry := &models.BalanceEntry{
		AccountID:     referrerID,
		BalanceBefore: referrer.Commission,
		BalanceAfter:  referrer.Commission.Add(commission),
		ChangeAmount:  commission,
		EntryType:     models.EntryReferralCommission,
		RelatedID:     &betID,
		RelatedKind:   relatedKind(models.RelatedBet),
		Metadata: map[string]any{
			"referred_account_id": account.ID,
			"stake":               stake.String(),
			"percent":             settings.ReferralCommissionPercent.String(),
		},
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return fmt.Errorf("failed to record referral commission: %w", err)
	}

	return nil
}

// SettleBet finalizes a pending bet. Settling an already-settled bet is a
// logged no-op.
func (s *ledgerService) SettleBet(ctx context.Context, betID int64, won bool, winAmount decimal.Decimal) error {
	if !won {
		winAmount = decimal.Zero
	}
	if winAmount.IsNegative() {
		return fmt.Errorf("win amount must not be negative")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return storeErr("settle bet", err)
	}
	if bet == nil {
		return fmt.Errorf("bet %d: %w", betID, ErrNotFound)
	}

	status := models.BetLoss
	if won {
		status = models.BetWin
	}

	settled, err := uow.BetRepository().Settle(ctx, betID, status, winAmount)
	if err != nil {
		return storeErr("settle bet", err)
	}
	if !settled {
		log.WithFields(log.Fields{
			"betID":  betID,
			"status": bet.Status,
		}).Warn("Bet already settled, skipping")
		return nil
	}

	if won && winAmount.IsPositive() {
		account, err := uow.AccountRepository().GetByID(ctx, bet.AccountID)
		if err != nil {
			return storeErr("settle bet", err)
		}
		if account == nil {
			return fmt.Errorf("account %d: %w", bet.AccountID, ErrNotFound)
		}

		if err := uow.AccountRepository().CreditCash(ctx, bet.AccountID, winAmount); err != nil {
			return storeErr("settle bet", err)
		}

		entry := &models.BalanceEntry{
			AccountID:     bet.AccountID,
			BalanceBefore: account.CashBalance,
			BalanceAfter:  account.CashBalance.Add(winAmount),
			ChangeAmount:  winAmount,
			EntryType:     models.EntryBetWin,
			RelatedID:     &betID,
			RelatedKind:   relatedKind(models.RelatedBet),
			Metadata: map[string]any{
				"game": bet.Game,
			},
		}
		if err := RecordBalanceChange(ctx, uow, entry); err != nil {
			return fmt.Errorf("failed to record win: %w", err)
		}
	}

	uow.EventBus().Publish(events.BetSettledEvent{
		BetID:     betID,
		AccountID: bet.AccountID,
		Status:    status,
		WinAmount: winAmount,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ClaimBonus moves the bonus balance into cash
func (s *ledgerService) ClaimBonus(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return s.claim(ctx, accountID, models.EntryBonusClaim)
}

// ClaimCommission moves referral earnings into cash
func (s *ledgerService) ClaimCommission(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return s.claim(ctx, accountID, models.EntryCommissionClaim)
}

// claim moves the full bonus or commission pot into cash, guarded by the
// value read at the start. A lost race claims nothing.
func (s *ledgerService) claim(ctx context.Context, accountID int64, entryType models.EntryType) (decimal.Decimal, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, storeErr("claim", err)
	}
	if account == nil {
		return decimal.Zero, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	var amount decimal.Decimal
	var moved bool

	switch entryType {
	case models.EntryBonusClaim:
		amount = account.BonusBalance
		if !amount.IsPositive() {
			return decimal.Zero, nil
		}
		moved, err = uow.AccountRepository().MoveBonusToCash(ctx, accountID, amount)
	case models.EntryCommissionClaim:
		amount = account.Commission
		if !amount.IsPositive() {
			return decimal.Zero, nil
		}
		moved, err = uow.AccountRepository().MoveCommissionToCash(ctx, accountID, amount)
	default:
		return decimal.Zero, fmt.Errorf("unsupported claim type %s", entryType)
	}
	if err != nil {
		return decimal.Zero, storeErr("claim", err)
	}
	if !moved {
		// Pot changed between read and write; the caller can retry
		log.WithFields(log.Fields{
			"accountID": accountID,
			"claim":     entryType,
		}).Warn("Claim guard failed, nothing moved")
		return decimal.Zero, nil
	}

	entry := &models.BalanceEntry{
		AccountID:     accountID,
		BalanceBefore: account.CashBalance,
		BalanceAfter:  account.CashBalance.Add(amount),
		ChangeAmount:  amount,
		EntryType:     entryType,
		RelatedID:     &accountID,
		RelatedKind:   relatedKind(models.RelatedAccount),
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return decimal.Zero, fmt.Errorf("failed to record claim: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return amount, nil
}

// ClaimGlobalBonus credits the configured promotional bonus, at most once
// per cooldown period
func (s *ledgerService) ClaimGlobalBonus(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	allowed, err := s.claimLimiter.Allow(ctx, accountID)
	if err != nil {
		return decimal.Zero, storeErr("global bonus claim", err)
	}
	if !allowed {
		return decimal.Zero, ErrClaimOnCooldown
	}

	bonus, err := s.creditGlobalBonus(ctx, accountID)
	if err != nil || bonus.IsZero() {
		// The slot was reserved but nothing was credited; free it so the
		// account does not burn its cooldown for nothing.
		if relErr := s.claimLimiter.Release(ctx, accountID); relErr != nil {
			log.WithError(relErr).WithField("accountID", accountID).
				Warn("Failed to release claim slot")
		}
		return decimal.Zero, err
	}

	return bonus, nil
}

func (s *ledgerService) creditGlobalBonus(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, storeErr("global bonus claim", err)
	}
	if account == nil {
		return decimal.Zero, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	settings, err := uow.SettingsRepository().Get(ctx)
	if err != nil {
		return decimal.Zero, storeErr("global bonus claim", err)
	}

	bonus := settings.GlobalClaimBonus
	if !bonus.IsPositive() {
		return decimal.Zero, nil
	}

	if err := uow.AccountRepository().CreditBonus(ctx, accountID, bonus); err != nil {
		return decimal.Zero, storeErr("global bonus claim", err)
	}

	entry := &models.BalanceEntry{
		AccountID:     accountID,
		BalanceBefore: account.BonusBalance,
		BalanceAfter:  account.BonusBalance.Add(bonus),
		ChangeAmount:  bonus,
		EntryType:     models.EntryGlobalBonusClaim,
		RelatedID:     &accountID,
		RelatedKind:   relatedKind(models.RelatedAccount),
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return decimal.Zero, fmt.Errorf("failed to record global bonus: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bonus, nil
}

func relatedKind(k models.RelatedKind) *models.RelatedKind {
	return &k
}
