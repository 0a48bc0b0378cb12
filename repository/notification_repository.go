package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betbook/database"
	"betbook/models"
	"betbook/service"
)

const notificationColumns = `id, message, severity, active, created_at`

// NotificationRepository implements the service.NotificationRepository interface
type NotificationRepository struct {
	q queryable
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{q: db.Pool}
}

// newNotificationRepositoryWithTx creates a notification repository bound to a transaction
func newNotificationRepositoryWithTx(tx queryable) *NotificationRepository {
	return &NotificationRepository{q: tx}
}

// Create inserts a notification and populates its ID and CreatedAt
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (message, severity, active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		n.Message,
		n.Severity,
		n.Active,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListActive returns active notifications, newest first
func (r *NotificationRepository) ListActive(ctx context.Context) ([]*models.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE active = TRUE
		ORDER BY created_at DESC
	`, notificationColumns)

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// Deactivate clears the active flag
func (r *NotificationRepository) Deactivate(ctx context.Context, id int64) error {
	query := `
		UPDATE notifications
		SET active = FALSE
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate notification %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification %d: %w", id, service.ErrNotFound)
	}

	return nil
}

func collectNotifications(rows pgx.Rows) ([]*models.Notification, error) {
	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID,
			&n.Message,
			&n.Severity,
			&n.Active,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, nil
}
