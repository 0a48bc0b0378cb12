package service

import (
	"context"
	"fmt"

	"betbook/events"
	"betbook/models"
)

// RecordBalanceChange records an audit ledger entry and emits the
// corresponding balance change event. This is the single entry point for
// auditing balance changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, entry *models.BalanceEntry) error {
	if err := uow.BalanceEntryRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record balance entry: %w", err)
	}

	// Emit balance change event (flushed after the transaction commits)
	event := events.BalanceChangeEvent{
		AccountID:    entry.AccountID,
		OldBalance:   entry.BalanceBefore,
		NewBalance:   entry.BalanceAfter,
		ChangeAmount: entry.ChangeAmount,
		EntryType:    entry.EntryType,
	}
	uow.EventBus().Publish(event)

	// Also emit account created event for the opening entry
	if entry.EntryType == models.EntryInitial {
		if username, ok := entry.Metadata["username"].(string); ok {
			uow.EventBus().Publish(events.AccountCreatedEvent{
				AccountID: entry.AccountID,
				Username:  username,
			})
		}
	}

	return nil
}
