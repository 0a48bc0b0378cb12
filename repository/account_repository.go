package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"betbook/database"
	"betbook/models"
	"betbook/service"
)

const accountColumns = `
	id, username, password_hash, phone,
	cash_balance, bonus_balance, commission,
	required_turnover, current_turnover,
	referral_code, referred_by, referral_count,
	role, created_at, updated_at`

// AccountRepository implements the service.AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates an account repository bound to a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.PasswordHash,
		&a.Phone,
		&a.CashBalance,
		&a.BonusBalance,
		&a.Commission,
		&a.RequiredTurnover,
		&a.CurrentTurnover,
		&a.ReferralCode,
		&a.ReferredBy,
		&a.ReferralCount,
		&a.Role,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an account by id
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// GetByUsername retrieves an account by its unique username
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username %q: %w", username, err)
	}
	return account, nil
}

// GetByReferralCode retrieves the account owning a referral code
func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE referral_code = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by referral code: %w", err)
	}
	return account, nil
}

// GetAll returns all accounts, newest first
func (r *AccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// Create inserts the account and fills its id and timestamps
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts
			(username, password_hash, phone, cash_balance, bonus_balance, commission,
			 required_turnover, current_turnover, referral_code, referred_by, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		account.Username,
		account.PasswordHash,
		account.Phone,
		account.CashBalance,
		account.BonusBalance,
		account.Commission,
		account.RequiredTurnover,
		account.CurrentTurnover,
		account.ReferralCode,
		account.ReferredBy,
		account.Role,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account %q: %w", account.Username, err)
	}

	return nil
}

// StakeCash atomically debits cash and raises the current turnover by the
// stake, guarded by sufficient balance. A zero-row update distinguishes a
// missing account from an insufficient balance.
func (r *AccountRepository) StakeCash(ctx context.Context, id int64, stake decimal.Decimal) error {
	if !stake.IsPositive() {
		return fmt.Errorf("stake must be positive")
	}

	query := `
		UPDATE accounts
		SET cash_balance = cash_balance - $1,
		    current_turnover = current_turnover + $1,
		    updated_at = NOW()
		WHERE id = $2 AND cash_balance >= $1
	`

	result, err := r.q.Exec(ctx, query, stake, id)
	if err != nil {
		return fmt.Errorf("failed to stake funds for account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return r.insufficientOrMissing(ctx, id, stake)
	}

	return nil
}

// CreditCash adds to the cash balance
func (r *AccountRepository) CreditCash(ctx context.Context, id int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET cash_balance = cash_balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to credit account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return errAccountNotFound(id)
	}

	return nil
}

// DebitCash deducts from the cash balance, failing if insufficient
func (r *AccountRepository) DebitCash(ctx context.Context, id int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET cash_balance = cash_balance - $1, updated_at = NOW()
		WHERE id = $2 AND cash_balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to debit account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return r.insufficientOrMissing(ctx, id, amount)
	}

	return nil
}

// ApplyDepositCredit credits cash and raises the required turnover in one
// atomic update. Used when a deposit is approved: credit carries the
// bonus, turnover carries the raw deposit amount.
func (r *AccountRepository) ApplyDepositCredit(ctx context.Context, id int64, credit, turnover decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET cash_balance = cash_balance + $1,
		    required_turnover = required_turnover + $2,
		    updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, credit, turnover, id)
	if err != nil {
		return fmt.Errorf("failed to apply deposit credit for account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return errAccountNotFound(id)
	}

	return nil
}

// CreditBonus adds to the bonus balance
func (r *AccountRepository) CreditBonus(ctx context.Context, id int64, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET bonus_balance = bonus_balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to credit bonus for account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return errAccountNotFound(id)
	}

	return nil
}

// CreditCommission adds to the referral commission balance
func (r *AccountRepository) CreditCommission(ctx context.Context, id int64, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET commission = commission + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to credit commission for account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return errAccountNotFound(id)
	}

	return nil
}

// MoveBonusToCash moves amount from bonus to cash, guarded by the bonus
// balance still holding the value the caller read. False means the guard
// failed (concurrent claim) and nothing moved.
func (r *AccountRepository) MoveBonusToCash(ctx context.Context, id int64, amount decimal.Decimal) (bool, error) {
	query := `
		UPDATE accounts
		SET cash_balance = cash_balance + $1,
		    bonus_balance = bonus_balance - $1,
		    updated_at = NOW()
		WHERE id = $2 AND bonus_balance = $1
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return false, fmt.Errorf("failed to move bonus to cash for account %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

// MoveCommissionToCash moves amount from commission to cash under the
// same guard discipline as MoveBonusToCash
func (r *AccountRepository) MoveCommissionToCash(ctx context.Context, id int64, amount decimal.Decimal) (bool, error) {
	query := `
		UPDATE accounts
		SET cash_balance = cash_balance + $1,
		    commission = commission - $1,
		    updated_at = NOW()
		WHERE id = $2 AND commission = $1
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return false, fmt.Errorf("failed to move commission to cash for account %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

// IncrementReferralCount bumps the referrer's counter
func (r *AccountRepository) IncrementReferralCount(ctx context.Context, id int64) error {
	query := `
		UPDATE accounts
		SET referral_count = referral_count + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment referral count for account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return errAccountNotFound(id)
	}

	return nil
}

// AdminUpdate overwrites the patched fields directly. No business-rule
// validation; the admin service audits the change.
func (r *AccountRepository) AdminUpdate(ctx context.Context, id int64, patch models.AccountPatch) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	arg := 1

	addSet := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, arg))
		args = append(args, value)
		arg++
	}

	if patch.CashBalance != nil {
		addSet("cash_balance", *patch.CashBalance)
	}
	if patch.BonusBalance != nil {
		addSet("bonus_balance", *patch.BonusBalance)
	}
	if patch.Commission != nil {
		addSet("commission", *patch.Commission)
	}
	if patch.RequiredTurnover != nil {
		addSet("required_turnover", *patch.RequiredTurnover)
	}
	if patch.CurrentTurnover != nil {
		addSet("current_turnover", *patch.CurrentTurnover)
	}
	if patch.Phone != nil {
		addSet("phone", *patch.Phone)
	}

	if len(args) == 0 {
		return fmt.Errorf("account %d: patch has no fields", id)
	}

	query := fmt.Sprintf("UPDATE accounts SET %s WHERE id = $%d", strings.Join(sets, ", "), arg)
	args = append(args, id)

	result, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return errAccountNotFound(id)
	}

	return nil
}

// Delete removes the account; owned transactions, bets and audit entries
// cascade at the schema level
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return errAccountNotFound(id)
	}

	return nil
}

// insufficientOrMissing resolves a zero-row conditional debit into the
// precise failure
func (r *AccountRepository) insufficientOrMissing(ctx context.Context, id int64, need decimal.Decimal) error {
	account, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check account %d: %w", id, err)
	}
	if account == nil {
		return errAccountNotFound(id)
	}
	return &service.InsufficientFundsError{Have: account.CashBalance, Need: need}
}

func errAccountNotFound(id int64) error {
	return fmt.Errorf("account %d: %w", id, service.ErrNotFound)
}
