package models

import "time"

// NotificationSeverity categorizes a broadcast message
type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "INFO"
	SeverityWarning NotificationSeverity = "WARNING"
	SeverityPromo   NotificationSeverity = "PROMO"
)

// Notification is a broadcast message shown to all players.
// Informational only, no monetary effect.
type Notification struct {
	ID        int64                `db:"id"`
	Message   string               `db:"message"`
	Severity  NotificationSeverity `db:"severity"`
	Active    bool                 `db:"active"`
	CreatedAt time.Time            `db:"created_at"`
}
