package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"betbook/models"
)

type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{
		uowFactory: uowFactory,
	}
}

// Register creates a USER account with zero balances, a fresh referral
// code and an optional referrer link
func (s *accountService) Register(ctx context.Context, username, password, phone, referralCode string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username must not be empty")
	}
	if len(password) < 4 {
		return nil, fmt.Errorf("password must be at least 4 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.AccountRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, storeErr("register", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	// Resolve the referrer before creating the account so a bad code
	// fails the whole registration
	var referredBy *int64
	if referralCode != "" {
		referrer, err := uow.AccountRepository().GetByReferralCode(ctx, referralCode)
		if err != nil {
			return nil, storeErr("register", err)
		}
		if referrer == nil {
			return nil, fmt.Errorf("referral code %q: %w", referralCode, ErrNotFound)
		}
		referredBy = &referrer.ID
	}

	account := &models.Account{
		Username:     username,
		PasswordHash: string(hash),
		ReferralCode: newReferralCode(),
		ReferredBy:   referredBy,
		Role:         models.RoleUser,
	}
	if phone != "" {
		account.Phone = &phone
	}

	if err := uow.AccountRepository().Create(ctx, account); err != nil {
		return nil, storeErr("register", err)
	}

	if referredBy != nil {
		if err := uow.AccountRepository().IncrementReferralCount(ctx, *referredBy); err != nil {
			return nil, storeErr("register", err)
		}
	}

	entry := &models.BalanceEntry{
		AccountID:     account.ID,
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.Zero,
		ChangeAmount:  decimal.Zero,
		EntryType:     models.EntryInitial,
		Metadata: map[string]any{
			"username": username,
		},
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record opening entry: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID": account.ID,
		"username":  username,
		"referred":  referredBy != nil,
	}).Info("Account registered")

	return account, nil
}

// Authenticate verifies credentials and returns the account snapshot
func (s *accountService) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, storeErr("authenticate", err)
	}
	if account == nil {
		// Burn a comparison so missing users take as long as bad passwords
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000uGZ3P0J0L7cJ0a0a0a0a0a0a0a0a0a0"), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// GetAccount returns a read-only snapshot for display
func (s *accountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get account", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// EnsureAdmin creates the admin account if it does not exist yet.
// Called once at startup; safe to repeat.
func (s *accountService) EnsureAdmin(ctx context.Context, username, password string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.AccountRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, storeErr("ensure admin", err)
	}
	if existing != nil {
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Account{
		Username:     username,
		PasswordHash: string(hash),
		ReferralCode: newReferralCode(),
		Role:         models.RoleAdmin,
	}

	if err := uow.AccountRepository().Create(ctx, admin); err != nil {
		return nil, storeErr("ensure admin", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("username", username).Info("Admin account created")

	return admin, nil
}

// newReferralCode derives a short shareable code from a random UUID
func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
