package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betbook/events"
	"betbook/models"
)

type paymentService struct {
	uowFactory UnitOfWorkFactory
}

// NewPaymentService creates a new payment service
func NewPaymentService(uowFactory UnitOfWorkFactory) PaymentService {
	return &paymentService{
		uowFactory: uowFactory,
	}
}

// RequestDeposit records a PENDING deposit. No balance changes until an
// admin approves it.
func (s *paymentService) RequestDeposit(ctx context.Context, accountID int64, channel models.PaymentChannel, amount decimal.Decimal, paymentRef string) (*models.Transaction, error) {
	if strings.TrimSpace(paymentRef) == "" {
		return nil, fmt.Errorf("payment reference must not be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, storeErr("request deposit", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	settings, err := uow.SettingsRepository().Get(ctx)
	if err != nil {
		return nil, storeErr("request deposit", err)
	}

	if amount.LessThan(settings.MinDeposit) {
		return nil, &BelowMinimumError{Op: "deposit", Minimum: settings.MinDeposit, Amount: amount}
	}

	tx := &models.Transaction{
		AccountID: accountID,
		Amount:    amount,
		Type:      models.TransactionDeposit,
		Status:    models.TransactionPending,
		Channel:   channel,
		Reference: paymentRef,
	}
	if err := uow.TransactionRepository().Create(ctx, tx); err != nil {
		return nil, storeErr("request deposit", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return tx, nil
}

// RequestWithdraw records a PENDING withdrawal after the minimum, balance
// and turnover gates pass, checked in that order. No balance changes until
// an admin approves it.
func (s *paymentService) RequestWithdraw(ctx context.Context, accountID int64, channel models.PaymentChannel, amount decimal.Decimal, destAccount string) (*models.Transaction, error) {
	if strings.TrimSpace(destAccount) == "" {
		return nil, fmt.Errorf("destination account must not be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, storeErr("request withdraw", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	settings, err := uow.SettingsRepository().Get(ctx)
	if err != nil {
		return nil, storeErr("request withdraw", err)
	}

	if amount.LessThan(settings.MinWithdraw) {
		return nil, &BelowMinimumError{Op: "withdraw", Minimum: settings.MinWithdraw, Amount: amount}
	}
	if account.CashBalance.LessThan(amount) {
		return nil, &InsufficientFundsError{Have: account.CashBalance, Need: amount}
	}
	if !account.TurnoverMet() {
		return nil, &TurnoverIncompleteError{
			Required: account.RequiredTurnover,
			Current:  account.CurrentTurnover,
		}
	}

	tx := &models.Transaction{
		AccountID: accountID,
		Amount:    amount,
		Type:      models.TransactionWithdraw,
		Status:    models.TransactionPending,
		Channel:   channel,
		Reference: destAccount,
	}
	if err := uow.TransactionRepository().Create(ctx, tx); err != nil {
		return nil, storeErr("request withdraw", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return tx, nil
}

// ResolveTransaction applies an admin decision exactly once. The monetary
// effects and the PENDING claim share one database transaction; losing the
// claim race rolls everything back, so re-resolving is a silent no-op.
func (s *paymentService) ResolveTransaction(ctx context.Context, actorID, transactionID int64, decision models.TransactionStatus) error {
	if decision != models.TransactionApproved && decision != models.TransactionRejected {
		return fmt.Errorf("decision must be APPROVED or REJECTED: %w", ErrInvalidState)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return err
	}

	tx, err := uow.TransactionRepository().GetByID(ctx, transactionID)
	if err != nil {
		return storeErr("resolve transaction", err)
	}
	if tx == nil {
		return fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	if !tx.IsPending() {
		log.WithFields(log.Fields{
			"transactionID": transactionID,
			"status":        tx.Status,
		}).Warn("Transaction already resolved, skipping")
		return nil
	}

	effective := decision
	var flagged error
	if decision == models.TransactionApproved {
		effective, err = s.applyApproval(ctx, uow, tx)
		if err != nil {
			var insufficient *InsufficientFundsError
			if effective == models.TransactionRejected && errors.As(err, &insufficient) {
				// Fail closed: record the rejection and surface the
				// shortfall to the caller
				flagged = err
			} else {
				return err
			}
		}
	}

	// Claim the PENDING row last; a racing resolver that got here first
	// makes this report zero rows and the rollback discards our effects
	claimed, err := uow.TransactionRepository().ClaimPending(ctx, transactionID, effective)
	if err != nil {
		return storeErr("resolve transaction", err)
	}
	if !claimed {
		log.WithField("transactionID", transactionID).Warn("Lost resolution race, skipping")
		return nil
	}

	uow.EventBus().Publish(events.TransactionResolvedEvent{
		TransactionID: transactionID,
		AccountID:     tx.AccountID,
		TxType:        tx.Type,
		Decision:      effective,
		Amount:        tx.Amount,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return flagged
}

// applyApproval applies the monetary effect of an approval. Deposits
// credit the amount plus the configured bonus and raise the required
// turnover; withdrawals debit conditionally and fail closed to REJECTED
// when the balance no longer covers the amount.
func (s *paymentService) applyApproval(ctx context.Context, uow UnitOfWork, tx *models.Transaction) (models.TransactionStatus, error) {
	account, err := uow.AccountRepository().GetByID(ctx, tx.AccountID)
	if err != nil {
		return "", storeErr("resolve transaction", err)
	}
	if account == nil {
		return "", fmt.Errorf("account %d: %w", tx.AccountID, ErrNotFound)
	}

	switch tx.Type {
	case models.TransactionDeposit:
		settings, err := uow.SettingsRepository().Get(ctx)
		if err != nil {
			return "", storeErr("resolve transaction", err)
		}

		hundred := decimal.NewFromInt(100)
		credit := tx.Amount.Mul(hundred.Add(settings.DepositBonusPercent)).Div(hundred)

		if err := uow.AccountRepository().ApplyDepositCredit(ctx, tx.AccountID, credit, tx.Amount); err != nil {
			return "", storeErr("resolve transaction", err)
		}

		entry := &models.BalanceEntry{
			AccountID:     tx.AccountID,
			BalanceBefore: account.CashBalance,
			BalanceAfter:  account.CashBalance.Add(credit),
			ChangeAmount:  credit,
			EntryType:     models.EntryDepositApproved,
			RelatedID:     &tx.ID,
			RelatedKind:   relatedKind(models.RelatedTransaction),
			Metadata: map[string]any{
				"deposit_amount": tx.Amount.String(),
				"bonus_percent":  settings.DepositBonusPercent.String(),
				"channel":        string(tx.Channel),
			},
		}
		if err := RecordBalanceChange(ctx, uow, entry); err != nil {
			return "", fmt.Errorf("failed to record deposit: %w", err)
		}

	case models.TransactionWithdraw:
		err := uow.AccountRepository().DebitCash(ctx, tx.AccountID, tx.Amount)
		var insufficient *InsufficientFundsError
		if errors.As(err, &insufficient) {
			// Balance was spent since the request was made; reject
			// instead of paying out
			log.WithFields(log.Fields{
				"transactionID": tx.ID,
				"accountID":     tx.AccountID,
			}).Warn("Withdrawal no longer covered, rejecting")
			return models.TransactionRejected, err
		}
		if err != nil {
			return "", storeErr("resolve transaction", err)
		}

		entry := &models.BalanceEntry{
			AccountID:     tx.AccountID,
			BalanceBefore: account.CashBalance,
			BalanceAfter:  account.CashBalance.Sub(tx.Amount),
			ChangeAmount:  tx.Amount.Neg(),
			EntryType:     models.EntryWithdrawApproved,
			RelatedID:     &tx.ID,
			RelatedKind:   relatedKind(models.RelatedTransaction),
			Metadata: map[string]any{
				"channel":     string(tx.Channel),
				"destination": tx.Reference,
			},
		}
		if err := RecordBalanceChange(ctx, uow, entry); err != nil {
			return "", fmt.Errorf("failed to record withdrawal: %w", err)
		}

	default:
		return "", fmt.Errorf("unknown transaction type %s: %w", tx.Type, ErrInvalidState)
	}

	return models.TransactionApproved, nil
}

// ListPendingTransactions returns requests awaiting a decision (admin)
func (s *paymentService) ListPendingTransactions(ctx context.Context, actorID int64) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return nil, err
	}

	pending, err := uow.TransactionRepository().ListPending(ctx)
	if err != nil {
		return nil, storeErr("list pending transactions", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return pending, nil
}

// requireAdmin loads the actor and verifies the admin role
func requireAdmin(ctx context.Context, uow UnitOfWork, actorID int64) error {
	actor, err := uow.AccountRepository().GetByID(ctx, actorID)
	if err != nil {
		return storeErr("require admin", err)
	}
	if actor == nil {
		return fmt.Errorf("account %d: %w", actorID, ErrNotFound)
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("account %d is not an admin: %w", actorID, ErrPermissionDenied)
	}
	return nil
}
