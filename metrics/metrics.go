package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"betbook/events"
)

var (
	betsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betbook_bets_placed_total",
		Help: "Bets placed, by game",
	}, []string{"game"})

	betsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betbook_bets_settled_total",
		Help: "Bets settled, by outcome",
	}, []string{"status"})

	transactionsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betbook_transactions_resolved_total",
		Help: "Deposit/withdraw requests resolved, by type and decision",
	}, []string{"type", "decision"})

	balanceChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betbook_balance_changes_total",
		Help: "Audited balance changes, by entry type",
	}, []string{"entry_type"})

	matchesResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betbook_matches_resolved_total",
		Help: "Markets resolved",
	})

	accountsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betbook_accounts_created_total",
		Help: "Accounts registered",
	})
)

// Subscribe wires the counters to the event bus
func Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.BetPlacedEvent); ok {
			betsPlaced.WithLabelValues(ev.Game).Inc()
		}
	})

	bus.Subscribe(events.EventTypeBetSettled, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.BetSettledEvent); ok {
			betsSettled.WithLabelValues(string(ev.Status)).Inc()
		}
	})

	bus.Subscribe(events.EventTypeTransactionResolved, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.TransactionResolvedEvent); ok {
			transactionsResolved.WithLabelValues(string(ev.TxType), string(ev.Decision)).Inc()
		}
	})

	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.BalanceChangeEvent); ok {
			balanceChanges.WithLabelValues(string(ev.EntryType)).Inc()
		}
	})

	bus.Subscribe(events.EventTypeMatchResolved, func(ctx context.Context, e events.Event) {
		matchesResolved.Inc()
	})

	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, e events.Event) {
		accountsCreated.Inc()
	})
}
