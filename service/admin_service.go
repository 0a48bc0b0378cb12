package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betbook/events"
	"betbook/models"
)

type adminService struct {
	uowFactory UnitOfWorkFactory
}

// NewAdminService creates a new admin service
func NewAdminService(uowFactory UnitOfWorkFactory) AdminService {
	return &adminService{
		uowFactory: uowFactory,
	}
}

// AdjustAccount overwrites balance/turnover/profile fields directly.
// Every adjustment lands in the audit ledger.
func (s *adminService) AdjustAccount(ctx context.Context, actorID, accountID int64, patch models.AccountPatch) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return err
	}

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return storeErr("adjust account", err)
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	if err := uow.AccountRepository().AdminUpdate(ctx, accountID, patch); err != nil {
		return storeErr("adjust account", err)
	}

	// One audit entry per overwritten monetary field
	adjustments := []struct {
		field  string
		before decimal.Decimal
		after  *decimal.Decimal
	}{
		{"cash_balance", account.CashBalance, patch.CashBalance},
		{"bonus_balance", account.BonusBalance, patch.BonusBalance},
		{"commission", account.Commission, patch.Commission},
		{"required_turnover", account.RequiredTurnover, patch.RequiredTurnover},
		{"current_turnover", account.CurrentTurnover, patch.CurrentTurnover},
	}
	for _, adj := range adjustments {
		if adj.after == nil {
			continue
		}
		entry := &models.BalanceEntry{
			AccountID:     accountID,
			BalanceBefore: adj.before,
			BalanceAfter:  *adj.after,
			ChangeAmount:  adj.after.Sub(adj.before),
			EntryType:     models.EntryAdminAdjustment,
			RelatedID:     &actorID,
			RelatedKind:   relatedKind(models.RelatedAccount),
			Metadata: map[string]any{
				"admin_id": actorID,
				"field":    adj.field,
			},
		}
		if err := RecordBalanceChange(ctx, uow, entry); err != nil {
			return fmt.Errorf("failed to record adjustment: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"adminID":   actorID,
		"accountID": accountID,
	}).Info("Account adjusted")

	return nil
}

// GrantBonus credits an account's bonus balance
func (s *adminService) GrantBonus(ctx context.Context, actorID, accountID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("bonus amount must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return err
	}

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return storeErr("grant bonus", err)
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	if err := uow.AccountRepository().CreditBonus(ctx, accountID, amount); err != nil {
		return storeErr("grant bonus", err)
	}

	entry := &models.BalanceEntry{
		AccountID:     accountID,
		BalanceBefore: account.BonusBalance,
		BalanceAfter:  account.BonusBalance.Add(amount),
		ChangeAmount:  amount,
		EntryType:     models.EntryAdminBonusGrant,
		RelatedID:     &actorID,
		RelatedKind:   relatedKind(models.RelatedAccount),
		Metadata: map[string]any{
			"admin_id": actorID,
		},
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return fmt.Errorf("failed to record bonus grant: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSettings returns the global settings
func (s *adminService) GetSettings(ctx context.Context) (*models.Settings, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.SettingsRepository().Get(ctx)
	if err != nil {
		return nil, storeErr("get settings", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return settings, nil
}

// UpdateSettings overwrites the global settings (admin)
func (s *adminService) UpdateSettings(ctx context.Context, actorID int64, settings *models.Settings) error {
	if settings.MinDeposit.IsNegative() || settings.MinWithdraw.IsNegative() {
		return fmt.Errorf("minimums must not be negative")
	}
	if settings.ReferralCommissionPercent.IsNegative() || settings.DepositBonusPercent.IsNegative() {
		return fmt.Errorf("percentages must not be negative")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return err
	}

	if err := uow.SettingsRepository().Update(ctx, settings); err != nil {
		return storeErr("update settings", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("adminID", actorID).Info("Settings updated")

	return nil
}

// ListAccounts returns all accounts (admin)
func (s *adminService) ListAccounts(ctx context.Context, actorID int64) ([]*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return nil, err
	}

	accounts, err := uow.AccountRepository().GetAll(ctx)
	if err != nil {
		return nil, storeErr("list accounts", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return accounts, nil
}

// DeleteAccount removes an account. The AccountDeleted event lets external
// session holders invalidate their references.
func (s *adminService) DeleteAccount(ctx context.Context, actorID, accountID int64) error {
	if actorID == accountID {
		return fmt.Errorf("admins cannot delete themselves: %w", ErrInvalidState)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return err
	}

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return storeErr("delete account", err)
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	if err := uow.AccountRepository().Delete(ctx, accountID); err != nil {
		return storeErr("delete account", err)
	}

	uow.EventBus().Publish(events.AccountDeletedEvent{
		AccountID: accountID,
		Username:  account.Username,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"adminID":   actorID,
		"accountID": accountID,
		"username":  account.Username,
	}).Info("Account deleted")

	return nil
}

// PostNotification broadcasts a message to all players (admin)
func (s *adminService) PostNotification(ctx context.Context, actorID int64, message string, severity models.NotificationSeverity) (*models.Notification, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("notification message must not be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		Message:  message,
		Severity: severity,
		Active:   true,
	}
	if err := uow.NotificationRepository().Create(ctx, notification); err != nil {
		return nil, storeErr("post notification", err)
	}

	uow.EventBus().Publish(events.NotificationPostedEvent{
		NotificationID: notification.ID,
		Severity:       severity,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return notification, nil
}

// DeactivateNotification retires a broadcast (admin)
func (s *adminService) DeactivateNotification(ctx context.Context, actorID, notificationID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, actorID); err != nil {
		return err
	}

	if err := uow.NotificationRepository().Deactivate(ctx, notificationID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListNotifications returns active broadcasts
func (s *adminService) ListNotifications(ctx context.Context) ([]*models.Notification, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	notifications, err := uow.NotificationRepository().ListActive(ctx)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return notifications, nil
}
