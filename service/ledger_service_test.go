package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"betbook/models"
)

func TestLedgerService_PlaceBet_Success(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockBetRepo := new(MockBetRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, mockBetRepo, nil, nil, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	account := &models.Account{
		ID:          7,
		Username:    "player",
		CashBalance: decimal.NewFromInt(1000),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	stake := decimal.NewFromInt(100)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockAccountRepo.On("StakeCash", ctx, int64(7), stake).Return(nil)

	mockBetRepo.On("Create", ctx, mock.MatchedBy(func(b *models.BetRecord) bool {
		return b.AccountID == 7 &&
			b.Game == "dice" &&
			b.Stake.Equal(stake) &&
			b.Status == models.BetPending
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.BetRecord).ID = 42
	})

	mockEntryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.BalanceEntry) bool {
		return e.AccountID == 7 &&
			e.BalanceBefore.Equal(decimal.NewFromInt(1000)) &&
			e.BalanceAfter.Equal(decimal.NewFromInt(900)) &&
			e.ChangeAmount.Equal(stake.Neg()) &&
			e.EntryType == models.EntryBetStake &&
			*e.RelatedID == 42
	})).Return(nil)

	result, err := svc.PlaceBet(ctx, 7, stake, "dice", "roll over 50")

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(900)))
	assert.True(t, result.NewTurnover.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, models.BetPending, result.Bet.Status)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
	mockBetRepo.AssertExpectations(t)
	mockEntryRepo.AssertExpectations(t)
}

func TestLedgerService_PlaceBet_CreditsReferrer(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockBetRepo := new(MockBetRepository)
	mockSettingsRepo := new(MockSettingsRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, mockBetRepo, nil, mockSettingsRepo, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	referrerID := int64(3)
	account := &models.Account{
		ID:          7,
		Username:    "player",
		CashBalance: decimal.NewFromInt(1000),
		ReferredBy:  &referrerID,
	}
	referrer := &models.Account{
		ID:         3,
		Username:   "referrer",
		Commission: decimal.NewFromInt(10),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	stake := decimal.NewFromInt(200)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockAccountRepo.On("GetByID", ctx, int64(3)).Return(referrer, nil)
	mockAccountRepo.On("StakeCash", ctx, int64(7), stake).Return(nil)
	mockSettingsRepo.On("Get", ctx).Return(models.DefaultSettings(), nil)

	mockBetRepo.On("Create", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.BetRecord).ID = 42
	})

	// 2% of 200 = 4
	commission := decimal.NewFromInt(4)
	mockAccountRepo.On("CreditCommission", ctx, int64(3), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(commission)
	})).Return(nil)

	mockEntryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.BalanceEntry) bool {
		return e.EntryType == models.EntryBetStake && e.AccountID == 7
	})).Return(nil)
	mockEntryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.BalanceEntry) bool {
		return e.EntryType == models.EntryReferralCommission &&
			e.AccountID == 3 &&
			e.ChangeAmount.Equal(commission) &&
			e.BalanceAfter.Equal(decimal.NewFromInt(14))
	})).Return(nil)

	result, err := svc.PlaceBet(ctx, 7, stake, "dice", "")

	assert.NoError(t, err)
	assert.NotNil(t, result)

	mockAccountRepo.AssertExpectations(t)
	mockSettingsRepo.AssertExpectations(t)
	mockEntryRepo.AssertExpectations(t)
}

func TestLedgerService_PlaceBet_InsufficientFunds(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockBetRepo := new(MockBetRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, mockBetRepo, nil, nil, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	account := &models.Account{
		ID:          7,
		CashBalance: decimal.NewFromInt(50),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	stake := decimal.NewFromInt(100)
	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockAccountRepo.On("StakeCash", ctx, int64(7), stake).Return(
		&InsufficientFundsError{Have: decimal.NewFromInt(50), Need: stake})

	result, err := svc.PlaceBet(ctx, 7, stake, "dice", "")

	assert.Error(t, err)
	assert.Nil(t, result)

	var insufficient *InsufficientFundsError
	assert.True(t, errors.As(err, &insufficient))
	assert.True(t, insufficient.Have.Equal(decimal.NewFromInt(50)))

	mockBetRepo.AssertNotCalled(t, "Create")
	mockEntryRepo.AssertNotCalled(t, "Record")
}

func TestLedgerService_PlaceBet_InvalidStake(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	result, err := svc.PlaceBet(ctx, 7, decimal.Zero, "dice", "")
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "stake must be positive")

	result, err = svc.PlaceBet(ctx, 7, decimal.NewFromInt(-10), "dice", "")
	assert.Error(t, err)
	assert.Nil(t, result)

	mockFactory.AssertNotCalled(t, "Create")
}

func TestLedgerService_PlaceInstantBet_WinPaysInSameTransaction(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockBetRepo := new(MockBetRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, mockBetRepo, nil, nil, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	account := &models.Account{
		ID:          7,
		CashBalance: decimal.NewFromInt(1000),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	stake := decimal.NewFromInt(100)
	winAmount := decimal.NewFromInt(180)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockAccountRepo.On("StakeCash", ctx, int64(7), stake).Return(nil)
	mockAccountRepo.On("CreditCash", ctx, int64(7), winAmount).Return(nil)

	mockBetRepo.On("Create", ctx, mock.MatchedBy(func(b *models.BetRecord) bool {
		return b.Status == models.BetWin && b.WinAmount.Equal(winAmount)
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.BetRecord).ID = 42
	})

	mockEntryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.BalanceEntry) bool {
		return e.EntryType == models.EntryBetStake
	})).Return(nil)
	mockEntryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.BalanceEntry) bool {
		return e.EntryType == models.EntryBetWin &&
			e.BalanceBefore.Equal(decimal.NewFromInt(900)) &&
			e.BalanceAfter.Equal(decimal.NewFromInt(1080))
	})).Return(nil)

	result, err := svc.PlaceInstantBet(ctx, 7, stake, "coinflip", "heads", true, winAmount)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(1080)))

	mockAccountRepo.AssertExpectations(t)
	mockEntryRepo.AssertExpectations(t)
}

func TestLedgerService_PlaceInstantBet_LossZeroesWinAmount(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockBetRepo := new(MockBetRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, mockBetRepo, nil, nil, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	account := &models.Account{ID: 7, CashBalance: decimal.NewFromInt(1000)}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	stake := decimal.NewFromInt(100)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockAccountRepo.On("StakeCash", ctx, int64(7), stake).Return(nil)

	mockBetRepo.On("Create", ctx, mock.MatchedBy(func(b *models.BetRecord) bool {
		return b.Status == models.BetLoss && b.WinAmount.IsZero()
	})).Return(nil)

	mockEntryRepo.On("Record", ctx, mock.Anything).Return(nil)

	// Caller passes a stale winAmount; a loss must ignore it
	result, err := svc.PlaceInstantBet(ctx, 7, stake, "coinflip", "tails", false, decimal.NewFromInt(999))

	assert.NoError(t, err)
	assert.NotNil(t, result)
	mockAccountRepo.AssertNotCalled(t, "CreditCash", ctx, int64(7), mock.Anything)
}

func TestLedgerService_PlaceInstantBet_RejectsNegativeWinAmount(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	result, err := svc.PlaceInstantBet(ctx, 7, decimal.NewFromInt(100), "coinflip", "heads", true, decimal.NewFromInt(-50))

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "win amount must not be negative")
	mockFactory.AssertNotCalled(t, "Create")
}

func TestLedgerService_SettleBet_WinCreditsCash(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockBetRepo := new(MockBetRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, mockBetRepo, nil, nil, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	bet := &models.BetRecord{
		ID:        42,
		AccountID: 7,
		Game:      "dice",
		Stake:     decimal.NewFromInt(100),
		Status:    models.BetPending,
	}
	account := &models.Account{ID: 7, CashBalance: decimal.NewFromInt(900)}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	winAmount := decimal.NewFromInt(250)

	mockBetRepo.On("GetByID", ctx, int64(42)).Return(bet, nil)
	mockBetRepo.On("Settle", ctx, int64(42), models.BetWin, winAmount).Return(true, nil)
	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockAccountRepo.On("CreditCash", ctx, int64(7), winAmount).Return(nil)

	mockEntryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.BalanceEntry) bool {
		return e.EntryType == models.EntryBetWin &&
			e.ChangeAmount.Equal(winAmount) &&
			e.BalanceAfter.Equal(decimal.NewFromInt(1150))
	})).Return(nil)

	err := svc.SettleBet(ctx, 42, true, winAmount)

	assert.NoError(t, err)
	mockBetRepo.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
	mockEntryRepo.AssertExpectations(t)
}

func TestLedgerService_SettleBet_AlreadySettledIsNoOp(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockBetRepo := new(MockBetRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, mockBetRepo, nil, nil, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	bet := &models.BetRecord{
		ID:        42,
		AccountID: 7,
		Status:    models.BetWin,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBetRepo.On("GetByID", ctx, int64(42)).Return(bet, nil)
	mockBetRepo.On("Settle", ctx, int64(42), models.BetWin, decimal.NewFromInt(250)).Return(false, nil)

	err := svc.SettleBet(ctx, 42, true, decimal.NewFromInt(250))

	assert.NoError(t, err)
	mockAccountRepo.AssertNotCalled(t, "CreditCash", ctx, mock.Anything, mock.Anything)
	mockEntryRepo.AssertNotCalled(t, "Record")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestLedgerService_ClaimBonus_MovesFullPot(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, nil, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	account := &models.Account{
		ID:           7,
		CashBalance:  decimal.NewFromInt(100),
		BonusBalance: decimal.NewFromInt(50),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockAccountRepo.On("MoveBonusToCash", ctx, int64(7), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(50))
	})).Return(true, nil)

	mockEntryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.BalanceEntry) bool {
		return e.EntryType == models.EntryBonusClaim &&
			e.ChangeAmount.Equal(decimal.NewFromInt(50)) &&
			e.BalanceAfter.Equal(decimal.NewFromInt(150))
	})).Return(nil)

	amount, err := svc.ClaimBonus(ctx, 7)

	assert.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(50)))
	mockAccountRepo.AssertExpectations(t)
}

func TestLedgerService_ClaimBonus_NothingToClaim(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, nil, nil, nil)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	account := &models.Account{ID: 7, BonusBalance: decimal.Zero}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)

	amount, err := svc.ClaimBonus(ctx, 7)

	assert.NoError(t, err)
	assert.True(t, amount.IsZero())
	mockAccountRepo.AssertNotCalled(t, "MoveBonusToCash", ctx, mock.Anything, mock.Anything)
}

func TestLedgerService_ClaimBonus_LostRaceClaimsNothing(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, nil, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, MockAllowAllLimiter())

	account := &models.Account{ID: 7, BonusBalance: decimal.NewFromInt(50)}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockAccountRepo.On("MoveBonusToCash", ctx, int64(7), mock.Anything).Return(false, nil)

	amount, err := svc.ClaimBonus(ctx, 7)

	assert.NoError(t, err)
	assert.True(t, amount.IsZero())
	mockEntryRepo.AssertNotCalled(t, "Record")
}

func TestLedgerService_ClaimGlobalBonus_OnCooldown(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	mockLimiter := new(MockClaimLimiter)

	svc := NewLedgerService(mockFactory, mockLimiter)

	mockLimiter.On("Allow", ctx, int64(7)).Return(false, nil)

	amount, err := svc.ClaimGlobalBonus(ctx, 7)

	assert.ErrorIs(t, err, ErrClaimOnCooldown)
	assert.True(t, amount.IsZero())
	mockFactory.AssertNotCalled(t, "Create")
}

func TestLedgerService_ClaimGlobalBonus_CreditsConfiguredBonus(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockSettingsRepo := new(MockSettingsRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)
	mockLimiter := new(MockClaimLimiter)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, mockSettingsRepo, nil, mockEntryRepo)

	svc := NewLedgerService(mockFactory, mockLimiter)

	account := &models.Account{ID: 7, BonusBalance: decimal.NewFromInt(20)}

	mockLimiter.On("Allow", ctx, int64(7)).Return(true, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockSettingsRepo.On("Get", ctx).Return(models.DefaultSettings(), nil)
	mockAccountRepo.On("CreditBonus", ctx, int64(7), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(50))
	})).Return(nil)

	mockEntryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.BalanceEntry) bool {
		return e.EntryType == models.EntryGlobalBonusClaim &&
			e.BalanceAfter.Equal(decimal.NewFromInt(70))
	})).Return(nil)

	amount, err := svc.ClaimGlobalBonus(ctx, 7)

	assert.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(50)))
	mockLimiter.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
}

func TestLedgerService_ClaimGlobalBonus_ReleasesSlotOnFailure(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockLimiter := new(MockClaimLimiter)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, nil, nil, nil)

	svc := NewLedgerService(mockFactory, mockLimiter)

	mockLimiter.On("Allow", ctx, int64(7)).Return(true, nil)
	mockLimiter.On("Release", ctx, int64(7)).Return(nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(nil, errors.New("connection reset"))

	amount, err := svc.ClaimGlobalBonus(ctx, 7)

	assert.Error(t, err)
	assert.True(t, amount.IsZero())
	mockLimiter.AssertExpectations(t)
}

func TestLedgerService_ClaimGlobalBonus_ReleasesSlotWhenBonusDisabled(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockSettingsRepo := new(MockSettingsRepository)
	mockLimiter := new(MockClaimLimiter)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, mockSettingsRepo, nil, nil)

	svc := NewLedgerService(mockFactory, mockLimiter)

	disabled := models.DefaultSettings()
	disabled.GlobalClaimBonus = decimal.Zero

	mockLimiter.On("Allow", ctx, int64(7)).Return(true, nil)
	mockLimiter.On("Release", ctx, int64(7)).Return(nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(&models.Account{ID: 7}, nil)
	mockSettingsRepo.On("Get", ctx).Return(disabled, nil)

	amount, err := svc.ClaimGlobalBonus(ctx, 7)

	assert.NoError(t, err)
	assert.True(t, amount.IsZero())
	mockLimiter.AssertExpectations(t)
	mockAccountRepo.AssertNotCalled(t, "CreditBonus", ctx, mock.Anything, mock.Anything)
}

// MockAllowAllLimiter returns a limiter that approves every claim, for
// tests that never reach the global bonus path
func MockAllowAllLimiter() ClaimLimiter {
	limiter := new(MockClaimLimiter)
	limiter.On("Allow", mock.Anything, mock.Anything).Return(true, nil).Maybe()
	limiter.On("Release", mock.Anything, mock.Anything).Return(nil).Maybe()
	return limiter
}
