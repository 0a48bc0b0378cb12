package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes deposits from withdrawals
type TransactionType string

const (
	TransactionDeposit  TransactionType = "DEPOSIT"
	TransactionWithdraw TransactionType = "WITHDRAW"
)

// TransactionStatus is the state of a deposit/withdraw request.
// PENDING transitions exactly once to APPROVED or REJECTED.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "PENDING"
	TransactionApproved TransactionStatus = "APPROVED"
	TransactionRejected TransactionStatus = "REJECTED"
)

// PaymentChannel is the mobile-money channel a transaction moves through
type PaymentChannel string

const (
	ChannelBkash  PaymentChannel = "bKash"
	ChannelNagad  PaymentChannel = "Nagad"
	ChannelRocket PaymentChannel = "Rocket"
)

// Transaction represents a deposit or withdraw request. The amount is
// applied to the account only when an admin approves the request.
type Transaction struct {
	ID        int64             `db:"id"`
	AccountID int64             `db:"account_id"`
	Amount    decimal.Decimal   `db:"amount"`
	Type      TransactionType   `db:"type"`
	Status    TransactionStatus `db:"status"`
	Channel   PaymentChannel    `db:"channel"`
	// Reference is the payment transaction id for deposits and the
	// destination account number for withdrawals.
	Reference  string     `db:"reference"`
	CreatedAt  time.Time  `db:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at"`
}

// IsPending reports whether the transaction still awaits an admin decision
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionPending
}
