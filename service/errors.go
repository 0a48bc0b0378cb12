package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for conditions the caller branches on with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrClaimOnCooldown    = errors.New("global bonus already claimed for this period")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// InsufficientFundsError is returned when a debit would push the cash
// balance below zero. Have reflects the balance observed at check time.
type InsufficientFundsError struct {
	Have decimal.Decimal
	Need decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s", e.Have, e.Need)
}

// BelowMinimumError is returned when a deposit or withdraw request is
// under the configured minimum for that operation.
type BelowMinimumError struct {
	Op      string // "deposit" or "withdraw"
	Minimum decimal.Decimal
	Amount  decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("%s amount %s is below the minimum of %s", e.Op, e.Amount, e.Minimum)
}

// TurnoverIncompleteError is returned when a withdrawal is requested
// before the cumulative wager requirement is met.
type TurnoverIncompleteError struct {
	Required decimal.Decimal
	Current  decimal.Decimal
}

// Remaining returns the wager volume still needed before withdrawing
func (e *TurnoverIncompleteError) Remaining() decimal.Decimal {
	return e.Required.Sub(e.Current)
}

func (e *TurnoverIncompleteError) Error() string {
	return fmt.Sprintf("turnover requirement not met: wagered %s of %s, %s remaining",
		e.Current, e.Required, e.Remaining())
}

// StoreError wraps an infrastructure failure from the backing store so
// callers never confuse connectivity problems with business outcomes.
// Mutating calls must not be blindly retried on a StoreError; the
// conditional-write guards make a careful retry safe.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// storeErr wraps err as a StoreError unless it already carries a
// business meaning.
func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
