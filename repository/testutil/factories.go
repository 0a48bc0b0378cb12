package testutil

import (
	"fmt"

	"github.com/shopspring/decimal"

	"betbook/models"
)

// CreateTestAccount creates a test account with default values
func CreateTestAccount(username string) *models.Account {
	return &models.Account{
		Username:     username,
		PasswordHash: "$2a$10$test.hash.placeholder.do.not.verify",
		CashBalance:  decimal.NewFromInt(1000),
		ReferralCode: fmt.Sprintf("REF-%s", username),
		Role:         models.RoleUser,
	}
}

// CreateTestAccountWithBalance creates a test account with a specific cash balance
func CreateTestAccountWithBalance(username string, balance decimal.Decimal) *models.Account {
	account := CreateTestAccount(username)
	account.CashBalance = balance
	return account
}

// CreateTestAdmin creates a test account holding the admin role
func CreateTestAdmin(username string) *models.Account {
	account := CreateTestAccount(username)
	account.Role = models.RoleAdmin
	return account
}

// CreateTestTransaction creates a pending test transaction
func CreateTestTransaction(accountID int64, txType models.TransactionType, amount decimal.Decimal) *models.Transaction {
	return &models.Transaction{
		AccountID: accountID,
		Type:      txType,
		Channel:   models.ChannelBkash,
		Amount:    amount,
		Reference: "TRX123456",
		Status:    models.TransactionPending,
	}
}

// CreateTestBet creates a pending test bet
func CreateTestBet(accountID int64, stake decimal.Decimal) *models.BetRecord {
	return &models.BetRecord{
		AccountID: accountID,
		Game:      "dice",
		Stake:     stake,
		WinAmount: decimal.Zero,
		Status:    models.BetPending,
		Detail:    "roll over 50",
	}
}

// CreateTestMatchBet creates a pending test bet tied to a match
func CreateTestMatchBet(accountID, matchID int64, team string, stake decimal.Decimal) *models.BetRecord {
	bet := CreateTestBet(accountID, stake)
	bet.Game = "match"
	bet.Detail = team
	bet.MatchID = &matchID
	bet.Team = &team
	return bet
}

// CreateTestMatch creates an open test match
func CreateTestMatch(title string) *models.Match {
	return &models.Match{
		Title:  title,
		TeamA:  "Tigers",
		TeamB:  "Lions",
		OddsA:  decimal.NewFromFloat(1.8),
		OddsB:  decimal.NewFromFloat(2.1),
		Status: models.MatchOpen,
	}
}

// CreateTestBalanceEntry creates a test audit entry
func CreateTestBalanceEntry(accountID int64, entryType models.EntryType) *models.BalanceEntry {
	return &models.BalanceEntry{
		AccountID:     accountID,
		BalanceBefore: decimal.NewFromInt(1000),
		BalanceAfter:  decimal.NewFromInt(900),
		ChangeAmount:  decimal.NewFromInt(-100),
		EntryType:     entryType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
