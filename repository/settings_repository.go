package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betbook/database"
	"betbook/models"
)

// SettingsRepository implements the service.SettingsRepository interface
// over the singleton settings row
type SettingsRepository struct {
	q queryable
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{q: db.Pool}
}

// newSettingsRepositoryWithTx creates a settings repository bound to a transaction
func newSettingsRepositoryWithTx(tx queryable) *SettingsRepository {
	return &SettingsRepository{q: tx}
}

// Get returns the settings, inserting defaults on first read
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	query := `
		SELECT id, bkash_number, nagad_number, rocket_number,
		       min_deposit, min_withdraw, referral_commission_percent,
		       deposit_bonus_percent, global_claim_bonus, updated_at
		FROM settings
		WHERE id = 1
	`

	var s models.Settings
	err := r.q.QueryRow(ctx, query).Scan(
		&s.ID,
		&s.BkashNumber,
		&s.NagadNumber,
		&s.RocketNumber,
		&s.MinDeposit,
		&s.MinWithdraw,
		&s.ReferralCommissionPercent,
		&s.DepositBonusPercent,
		&s.GlobalClaimBonus,
		&s.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return r.createDefaults(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &s, nil
}

// Update overwrites the settings row
func (r *SettingsRepository) Update(ctx context.Context, settings *models.Settings) error {
	query := `
		UPDATE settings
		SET bkash_number = $1, nagad_number = $2, rocket_number = $3,
		    min_deposit = $4, min_withdraw = $5, referral_commission_percent = $6,
		    deposit_bonus_percent = $7, global_claim_bonus = $8, updated_at = NOW()
		WHERE id = 1
	`

	result, err := r.q.Exec(ctx, query,
		settings.BkashNumber,
		settings.NagadNumber,
		settings.RocketNumber,
		settings.MinDeposit,
		settings.MinWithdraw,
		settings.ReferralCommissionPercent,
		settings.DepositBonusPercent,
		settings.GlobalClaimBonus,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("settings row not found")
	}

	return nil
}

// createDefaults seeds the singleton row. The ON CONFLICT guard keeps two
// first readers from racing.
func (r *SettingsRepository) createDefaults(ctx context.Context) (*models.Settings, error) {
	defaults := models.DefaultSettings()

	query := `
		INSERT INTO settings
			(id, bkash_number, nagad_number, rocket_number, min_deposit, min_withdraw,
			 referral_commission_percent, deposit_bonus_percent, global_claim_bonus)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.q.Exec(ctx, query,
		defaults.BkashNumber,
		defaults.NagadNumber,
		defaults.RocketNumber,
		defaults.MinDeposit,
		defaults.MinWithdraw,
		defaults.ReferralCommissionPercent,
		defaults.DepositBonusPercent,
		defaults.GlobalClaimBonus,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed default settings: %w", err)
	}

	return r.Get(ctx)
}
