package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"betbook/models"
)

func paymentMocks() (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockAccountRepository, *MockTransactionRepository, *MockSettingsRepository, *MockBalanceEntryRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockTxRepo := new(MockTransactionRepository)
	mockSettingsRepo := new(MockSettingsRepository)
	mockEntryRepo := new(MockBalanceEntryRepository)

	mockUoW.SetRepositories(mockAccountRepo, mockTxRepo, nil, nil, mockSettingsRepo, nil, mockEntryRepo)

	return mockUoW, mockFactory, mockAccountRepo, mockTxRepo, mockSettingsRepo, mockEntryRepo
}

func TestPaymentService_RequestDeposit_BelowMinimum(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockAccountRepo, mockTxRepo, mockSettingsRepo, _ := paymentMocks()

	svc := NewPaymentService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(&models.Account{ID: 7}, nil)
	mockSettingsRepo.On("Get", ctx).Return(models.DefaultSettings(), nil)

	tx, err := svc.RequestDeposit(ctx, 7, models.ChannelBkash, decimal.NewFromInt(50), "TRX1")

	assert.Error(t, err)
	assert.Nil(t, tx)

	var below *BelowMinimumError
	assert.True(t, errors.As(err, &below))
	assert.Equal(t, "deposit", below.Op)
	assert.True(t, below.Minimum.Equal(decimal.NewFromInt(100)))

	mockTxRepo.AssertNotCalled(t, "Create")
}

func TestPaymentService_RequestDeposit_Success(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockAccountRepo, mockTxRepo, mockSettingsRepo, _ := paymentMocks()

	svc := NewPaymentService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(&models.Account{ID: 7}, nil)
	mockSettingsRepo.On("Get", ctx).Return(models.DefaultSettings(), nil)

	mockTxRepo.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.AccountID == 7 &&
			tx.Type == models.TransactionDeposit &&
			tx.Status == models.TransactionPending &&
			tx.Channel == models.ChannelBkash &&
			tx.Reference == "TRX1"
	})).Return(nil)

	tx, err := svc.RequestDeposit(ctx, 7, models.ChannelBkash, decimal.NewFromInt(500), "TRX1")

	assert.NoError(t, err)
	assert.NotNil(t, tx)
	assert.True(t, tx.IsPending())
	mockTxRepo.AssertExpectations(t)
}

func TestPaymentService_RequestWithdraw_GateOrdering(t *testing.T) {
	ctx := context.Background()

	// Minimum gate fires before balance, balance before turnover
	tests := []struct {
		name    string
		amount  decimal.Decimal
		account *models.Account
		check   func(t *testing.T, err error)
	}{
		{
			name:   "below minimum wins even with empty balance",
			amount: decimal.NewFromInt(100),
			account: &models.Account{
				ID:          7,
				CashBalance: decimal.Zero,
			},
			check: func(t *testing.T, err error) {
				var below *BelowMinimumError
				assert.True(t, errors.As(err, &below))
				assert.Equal(t, "withdraw", below.Op)
			},
		},
		{
			name:   "insufficient balance beats turnover",
			amount: decimal.NewFromInt(600),
			account: &models.Account{
				ID:               7,
				CashBalance:      decimal.NewFromInt(100),
				RequiredTurnover: decimal.NewFromInt(1000),
			},
			check: func(t *testing.T, err error) {
				var insufficient *InsufficientFundsError
				assert.True(t, errors.As(err, &insufficient))
			},
		},
		{
			name:   "turnover gate last",
			amount: decimal.NewFromInt(600),
			account: &models.Account{
				ID:               7,
				CashBalance:      decimal.NewFromInt(2000),
				RequiredTurnover: decimal.NewFromInt(1000),
				CurrentTurnover:  decimal.NewFromInt(400),
			},
			check: func(t *testing.T, err error) {
				var turnover *TurnoverIncompleteError
				assert.True(t, errors.As(err, &turnover))
				assert.True(t, turnover.Remaining().Equal(decimal.NewFromInt(600)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUoW, mockFactory, mockAccountRepo, mockTxRepo, mockSettingsRepo, _ := paymentMocks()
			svc := NewPaymentService(mockFactory)

			mockFactory.On("Create").Return(mockUoW)
			mockUoW.On("Begin", ctx).Return(nil)
			mockUoW.On("Rollback").Return(nil)

			mockAccountRepo.On("GetByID", ctx, int64(7)).Return(tt.account, nil)
			mockSettingsRepo.On("Get", ctx).Return(models.DefaultSettings(), nil)

			tx, err := svc.RequestWithdraw(ctx, 7, models.ChannelNagad, tt.amount, "017001")

			assert.Error(t, err)
			assert.Nil(t, tx)
			tt.check(t, err)
			mockTxRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestPaymentService_RequestWithdraw_Success(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockAccountRepo, mockTxRepo, mockSettingsRepo, _ := paymentMocks()

	svc := NewPaymentService(mockFactory)

	account := &models.Account{
		ID:               7,
		CashBalance:      decimal.NewFromInt(2000),
		RequiredTurnover: decimal.NewFromInt(1000),
		CurrentTurnover:  decimal.NewFromInt(1000),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockSettingsRepo.On("Get", ctx).Return(models.DefaultSettings(), nil)

	mockTxRepo.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Type == models.TransactionWithdraw && tx.Reference == "017001"
	})).Return(nil)

	tx, err := svc.RequestWithdraw(ctx, 7, models.ChannelNagad, decimal.NewFromInt(600), "017001")

	assert.NoError(t, err)
	assert.NotNil(t, tx)
	// Requesting must not move any money
	mockAccountRepo.AssertNotCalled(t, "DebitCash", ctx, mock.Anything, mock.Anything)
}

func TestPaymentService_ResolveTransaction_ApproveDeposit(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockAccountRepo, mockTxRepo, mockSettingsRepo, mockEntryRepo := paymentMocks()

	svc := NewPaymentService(mockFactory)

	admin := &models.Account{ID: 1, Role: models.RoleAdmin}
	account := &models.Account{ID: 7, CashBalance: decimal.NewFromInt(100)}
	deposit := &models.Transaction{
		ID:        11,
		AccountID: 7,
		Amount:    decimal.NewFromInt(200),
		Type:      models.TransactionDeposit,
		Status:    models.TransactionPending,
		Channel:   models.ChannelBkash,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockTxRepo.On("GetByID", ctx, int64(11)).Return(deposit, nil)
	mockSettingsRepo.On("Get", ctx).Return(models.DefaultSettings(), nil)

	// 200 * (1 + 10/100) = 220 credited, requiredTurnover += 200
	credit := decimal.NewFromInt(220)
	mockAccountRepo.On("ApplyDepositCredit", ctx, int64(7),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(credit) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(200)) }),
	).Return(nil)

	mockEntryRepo.On("Record", ctx, mock.MatchedBy(func(e *models.BalanceEntry) bool {
		return e.EntryType == models.EntryDepositApproved &&
			e.ChangeAmount.Equal(credit) &&
			e.BalanceAfter.Equal(decimal.NewFromInt(320))
	})).Return(nil)

	mockTxRepo.On("ClaimPending", ctx, int64(11), models.TransactionApproved).Return(true, nil)

	err := svc.ResolveTransaction(ctx, 1, 11, models.TransactionApproved)

	assert.NoError(t, err)
	mockAccountRepo.AssertExpectations(t)
	mockTxRepo.AssertExpectations(t)
	mockEntryRepo.AssertExpectations(t)
}

func TestPaymentService_ResolveTransaction_AlreadyResolvedIsNoOp(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockAccountRepo, mockTxRepo, _, mockEntryRepo := paymentMocks()

	svc := NewPaymentService(mockFactory)

	admin := &models.Account{ID: 1, Role: models.RoleAdmin}
	resolved := &models.Transaction{
		ID:        11,
		AccountID: 7,
		Amount:    decimal.NewFromInt(200),
		Type:      models.TransactionDeposit,
		Status:    models.TransactionApproved,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	mockTxRepo.On("GetByID", ctx, int64(11)).Return(resolved, nil)

	err := svc.ResolveTransaction(ctx, 1, 11, models.TransactionApproved)

	assert.NoError(t, err)
	mockTxRepo.AssertNotCalled(t, "ClaimPending", ctx, mock.Anything, mock.Anything)
	mockAccountRepo.AssertNotCalled(t, "ApplyDepositCredit", ctx, mock.Anything, mock.Anything, mock.Anything)
	mockEntryRepo.AssertNotCalled(t, "Record")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestPaymentService_ResolveTransaction_WithdrawFailsClosed(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockAccountRepo, mockTxRepo, _, mockEntryRepo := paymentMocks()

	svc := NewPaymentService(mockFactory)

	admin := &models.Account{ID: 1, Role: models.RoleAdmin}
	account := &models.Account{ID: 7, CashBalance: decimal.NewFromInt(100)}
	withdraw := &models.Transaction{
		ID:        12,
		AccountID: 7,
		Amount:    decimal.NewFromInt(600),
		Type:      models.TransactionWithdraw,
		Status:    models.TransactionPending,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(1)).Return(admin, nil)
	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(account, nil)
	mockTxRepo.On("GetByID", ctx, int64(12)).Return(withdraw, nil)

	// Balance was spent since the request; approval flips to rejection
	mockAccountRepo.On("DebitCash", ctx, int64(7), mock.Anything).Return(
		&InsufficientFundsError{Have: decimal.NewFromInt(100), Need: decimal.NewFromInt(600)})
	mockTxRepo.On("ClaimPending", ctx, int64(12), models.TransactionRejected).Return(true, nil)

	err := svc.ResolveTransaction(ctx, 1, 12, models.TransactionApproved)

	var insufficientErr *InsufficientFundsError
	require.True(t, errors.As(err, &insufficientErr))
	assert.True(t, insufficientErr.Need.Equal(decimal.NewFromInt(600)))
	mockTxRepo.AssertExpectations(t)
	mockEntryRepo.AssertNotCalled(t, "Record")
}

func TestPaymentService_ResolveTransaction_RequiresAdmin(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockAccountRepo, mockTxRepo, _, _ := paymentMocks()

	svc := NewPaymentService(mockFactory)

	player := &models.Account{ID: 2, Role: models.RoleUser}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByID", ctx, int64(2)).Return(player, nil)

	err := svc.ResolveTransaction(ctx, 2, 11, models.TransactionApproved)

	assert.ErrorIs(t, err, ErrPermissionDenied)
	mockTxRepo.AssertNotCalled(t, "GetByID", ctx, mock.Anything)
}

func TestPaymentService_ResolveTransaction_InvalidDecision(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	svc := NewPaymentService(mockFactory)

	err := svc.ResolveTransaction(ctx, 1, 11, models.TransactionPending)

	assert.ErrorIs(t, err, ErrInvalidState)
	mockFactory.AssertNotCalled(t, "Create")
}
