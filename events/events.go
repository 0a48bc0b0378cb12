package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betbook/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeAccountCreated      EventType = "account_created"
	EventTypeAccountDeleted      EventType = "account_deleted"
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeBetPlaced           EventType = "bet_placed"
	EventTypeBetSettled          EventType = "bet_settled"
	EventTypeTransactionResolved EventType = "transaction_resolved"
	EventTypeMatchResolved       EventType = "match_resolved"
	EventTypeNotificationPosted  EventType = "notification_posted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// AccountCreatedEvent represents a new account registration
type AccountCreatedEvent struct {
	AccountID  int64  `json:"account_id"`
	Username   string `json:"username"`
	ReferredBy *int64 `json:"referred_by,omitempty"`
}

func (e AccountCreatedEvent) Type() EventType { return EventTypeAccountCreated }

// AccountDeletedEvent is consumed by external session holders to
// invalidate any session referencing the account
type AccountDeletedEvent struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
}

func (e AccountDeletedEvent) Type() EventType { return EventTypeAccountDeleted }

// BalanceChangeEvent represents a cash balance change that occurred
type BalanceChangeEvent struct {
	AccountID    int64            `json:"account_id"`
	OldBalance   decimal.Decimal  `json:"old_balance"`
	NewBalance   decimal.Decimal  `json:"new_balance"`
	ChangeAmount decimal.Decimal  `json:"change_amount"`
	EntryType    models.EntryType `json:"entry_type"`
}

func (e BalanceChangeEvent) Type() EventType { return EventTypeBalanceChange }

// BetPlacedEvent represents a bet that was placed
type BetPlacedEvent struct {
	AccountID int64            `json:"account_id"`
	BetID     int64            `json:"bet_id"`
	Game      string           `json:"game"`
	Stake     decimal.Decimal  `json:"stake"`
	Status    models.BetStatus `json:"status"`
}

func (e BetPlacedEvent) Type() EventType { return EventTypeBetPlaced }

// BetSettledEvent represents a bet reaching a terminal state
type BetSettledEvent struct {
	BetID     int64            `json:"bet_id"`
	AccountID int64            `json:"account_id"`
	Status    models.BetStatus `json:"status"`
	WinAmount decimal.Decimal  `json:"win_amount"`
}

func (e BetSettledEvent) Type() EventType { return EventTypeBetSettled }

// TransactionResolvedEvent represents an admin decision on a
// deposit/withdraw request
type TransactionResolvedEvent struct {
	TransactionID int64                    `json:"transaction_id"`
	AccountID     int64                    `json:"account_id"`
	TxType        models.TransactionType   `json:"tx_type"`
	Decision      models.TransactionStatus `json:"decision"`
	Amount        decimal.Decimal          `json:"amount"`
}

func (e TransactionResolvedEvent) Type() EventType { return EventTypeTransactionResolved }

// MatchResolvedEvent represents a market closing with a winner
type MatchResolvedEvent struct {
	MatchID     int64           `json:"match_id"`
	Winner      string          `json:"winner"`
	BetsSettled int             `json:"bets_settled"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
}

func (e MatchResolvedEvent) Type() EventType { return EventTypeMatchResolved }

// NotificationPostedEvent represents a new broadcast message
type NotificationPostedEvent struct {
	NotificationID int64                       `json:"notification_id"`
	Severity       models.NotificationSeverity `json:"severity"`
}

func (e NotificationPostedEvent) Type() EventType { return EventTypeNotificationPosted }

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously so a slow consumer never blocks the ledger.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus buffers events alongside a unit of work and flushes
// them to the underlying bus only after the database commit succeeds.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a buffer over the given bus
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes the event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit; uses
// a background context since the transaction context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
