package service

import (
	"context"

	"github.com/shopspring/decimal"

	"betbook/events"
	"betbook/models"
)

// AccountRepository defines data access for accounts. Every balance
// mutation is a conditional update against the current row state; a
// false/zero-row result means the guard did not hold.
type AccountRepository interface {
	// GetByID retrieves an account by id, nil if missing
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// GetByUsername retrieves an account by its unique username, nil if missing
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// GetByReferralCode retrieves the account owning a referral code, nil if missing
	GetByReferralCode(ctx context.Context, code string) (*models.Account, error)

	// GetAll returns all accounts, newest first
	GetAll(ctx context.Context) ([]*models.Account, error)

	// Create inserts the account and fills its id and timestamps
	Create(ctx context.Context, account *models.Account) error

	// StakeCash atomically debits cash and increments current turnover by
	// stake, guarded by sufficient balance
	StakeCash(ctx context.Context, id int64, stake decimal.Decimal) error

	// CreditCash adds to the cash balance
	CreditCash(ctx context.Context, id int64, amount decimal.Decimal) error

	// DebitCash deducts from the cash balance, failing if insufficient
	DebitCash(ctx context.Context, id int64, amount decimal.Decimal) error

	// ApplyDepositCredit credits cash and raises the required turnover in
	// one atomic update (deposit approval)
	ApplyDepositCredit(ctx context.Context, id int64, credit, turnover decimal.Decimal) error

	// CreditBonus adds to the bonus balance
	CreditBonus(ctx context.Context, id int64, amount decimal.Decimal) error

	// CreditCommission adds to the referral commission balance
	CreditCommission(ctx context.Context, id int64, amount decimal.Decimal) error

	// MoveBonusToCash moves amount from bonus to cash, guarded by the
	// bonus balance still equalling amount. False means the guard failed.
	MoveBonusToCash(ctx context.Context, id int64, amount decimal.Decimal) (bool, error)

	// MoveCommissionToCash moves amount from commission to cash under the
	// same guard discipline
	MoveCommissionToCash(ctx context.Context, id int64, amount decimal.Decimal) (bool, error)

	// IncrementReferralCount bumps the referrer's counter
	IncrementReferralCount(ctx context.Context, id int64) error

	// AdminUpdate overwrites the patched fields directly
	AdminUpdate(ctx context.Context, id int64, patch models.AccountPatch) error

	// Delete removes the account and its owned rows
	Delete(ctx context.Context, id int64) error
}

// TransactionRepository defines data access for deposit/withdraw requests
type TransactionRepository interface {
	// Create inserts a PENDING transaction and fills its id and timestamp
	Create(ctx context.Context, tx *models.Transaction) error

	// GetByID retrieves a transaction by id, nil if missing
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)

	// ListByAccount returns an account's transactions, newest first
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error)

	// ListPending returns all transactions awaiting an admin decision
	ListPending(ctx context.Context) ([]*models.Transaction, error)

	// ClaimPending transitions status away from PENDING exactly once.
	// False means the transaction was already resolved.
	ClaimPending(ctx context.Context, id int64, status models.TransactionStatus) (bool, error)
}

// BetRepository defines data access for bet records
type BetRepository interface {
	// Create inserts a bet record and fills its id and timestamp
	Create(ctx context.Context, bet *models.BetRecord) error

	// GetByID retrieves a bet by id, nil if missing
	GetByID(ctx context.Context, id int64) (*models.BetRecord, error)

	// ListByAccount returns an account's bets, newest first
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.BetRecord, error)

	// ListPendingByMatch returns unsettled bets referencing a match
	ListPendingByMatch(ctx context.Context, matchID int64) ([]*models.BetRecord, error)

	// Settle transitions status PENDING to WIN/LOSS exactly once and sets
	// the win amount. False means the bet was already settled.
	Settle(ctx context.Context, id int64, status models.BetStatus, winAmount decimal.Decimal) (bool, error)
}

// MatchRepository defines data access for two-outcome markets
type MatchRepository interface {
	// Create inserts an OPEN match and fills its id and timestamp
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match by id, nil if missing
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// GetByIDLocked retrieves a match holding a row lock for the rest of
	// the transaction, so resolution cannot interleave with a placement
	GetByIDLocked(ctx context.Context, id int64) (*models.Match, error)

	// ListOpen returns matches still accepting bets, newest first
	ListOpen(ctx context.Context) ([]*models.Match, error)

	// ListAll returns every match, newest first
	ListAll(ctx context.Context) ([]*models.Match, error)

	// MarkResolved transitions OPEN to RESOLVED exactly once and records
	// the winner. False means the match was not open.
	MarkResolved(ctx context.Context, id int64, winner string) (bool, error)

	// DeleteOpen removes the match only while it is still OPEN.
	// False means the match was missing or already resolved.
	DeleteOpen(ctx context.Context, id int64) (bool, error)
}

// SettingsRepository defines access to the singleton settings row
type SettingsRepository interface {
	// Get returns the settings, inserting defaults on first read
	Get(ctx context.Context) (*models.Settings, error)

	// Update overwrites the settings row
	Update(ctx context.Context, settings *models.Settings) error
}

// NotificationRepository defines data access for broadcast messages
type NotificationRepository interface {
	// Create inserts a notification and fills its id and timestamp
	Create(ctx context.Context, n *models.Notification) error

	// ListActive returns active notifications, newest first
	ListActive(ctx context.Context) ([]*models.Notification, error)

	// Deactivate clears the active flag
	Deactivate(ctx context.Context, id int64) error
}

// BalanceEntryRepository defines access to the audit ledger
type BalanceEntryRepository interface {
	// Record creates a new audit entry
	Record(ctx context.Context, entry *models.BalanceEntry) error

	// ListByAccount returns audit entries for an account, newest first
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.BalanceEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// ClaimLimiter gates the global bonus claim to once per configured period
type ClaimLimiter interface {
	// Allow reports whether the account may claim now, reserving the slot
	// when it may
	Allow(ctx context.Context, accountID int64) (bool, error)

	// Release frees a reserved slot when the claim fails after the
	// reservation succeeded
	Release(ctx context.Context, accountID int64) error
}

// AccountService defines account lifecycle operations. Session state
// lives outside this module; these calls return snapshots only.
type AccountService interface {
	// Register creates a USER account with zero balances, a fresh referral
	// code and an optional referrer link
	Register(ctx context.Context, username, password, phone, referralCode string) (*models.Account, error)

	// Authenticate verifies credentials and returns the account snapshot
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)

	// GetAccount returns a read-only snapshot for display
	GetAccount(ctx context.Context, id int64) (*models.Account, error)

	// EnsureAdmin creates the admin account if it does not exist yet.
	// Used by the startup seed; idempotent.
	EnsureAdmin(ctx context.Context, username, password string) (*models.Account, error)
}

// LedgerService defines the wager and claim operations. It is the sole
// authority for mutating monetary fields; games pick stakes and outcomes
// and never touch balances directly.
type LedgerService interface {
	// PlaceBet debits the stake, raises current turnover, credits the
	// referrer's commission and records a PENDING bet
	PlaceBet(ctx context.Context, accountID int64, stake decimal.Decimal, game, detail string) (*models.BetResult, error)

	// PlaceInstantBet is PlaceBet for games whose outcome is known at
	// stake time; the record is created terminal and a win credits cash
	// in the same transaction
	PlaceInstantBet(ctx context.Context, accountID int64, stake decimal.Decimal, game, detail string, won bool, winAmount decimal.Decimal) (*models.BetResult, error)

	// SettleBet finalizes a pending bet. Settling an already-settled bet
	// is a logged no-op.
	SettleBet(ctx context.Context, betID int64, won bool, winAmount decimal.Decimal) error

	// ClaimBonus moves the bonus balance into cash, returning the amount
	// moved (zero when there was nothing to claim)
	ClaimBonus(ctx context.Context, accountID int64) (decimal.Decimal, error)

	// ClaimCommission moves referral earnings into cash
	ClaimCommission(ctx context.Context, accountID int64) (decimal.Decimal, error)

	// ClaimGlobalBonus credits the configured promotional bonus, at most
	// once per cooldown period
	ClaimGlobalBonus(ctx context.Context, accountID int64) (decimal.Decimal, error)
}

// PaymentService defines deposit/withdraw requests and their resolution
type PaymentService interface {
	// RequestDeposit records a PENDING deposit; no balance change
	RequestDeposit(ctx context.Context, accountID int64, channel models.PaymentChannel, amount decimal.Decimal, paymentRef string) (*models.Transaction, error)

	// RequestWithdraw records a PENDING withdrawal after the minimum,
	// balance and turnover gates pass, in that order; no balance change
	RequestWithdraw(ctx context.Context, accountID int64, channel models.PaymentChannel, amount decimal.Decimal, destAccount string) (*models.Transaction, error)

	// ResolveTransaction applies an admin decision exactly once.
	// Re-resolving is a silent no-op.
	ResolveTransaction(ctx context.Context, actorID, transactionID int64, decision models.TransactionStatus) error

	// ListPendingTransactions returns requests awaiting a decision (admin)
	ListPendingTransactions(ctx context.Context, actorID int64) ([]*models.Transaction, error)
}

// MatchService defines the two-outcome market lifecycle
type MatchService interface {
	// CreateMatch opens a new market (admin)
	CreateMatch(ctx context.Context, actorID int64, title, teamA, teamB string, oddsA, oddsB decimal.Decimal) (*models.Match, error)

	// PlaceMatchBet stakes on one of the match's two teams while it is OPEN
	PlaceMatchBet(ctx context.Context, accountID, matchID int64, team string, stake decimal.Decimal) (*models.BetResult, error)

	// ResolveMatch records the winner and settles every pending bet on
	// the match in the same transaction (admin)
	ResolveMatch(ctx context.Context, actorID, matchID int64, winner string) (*models.MatchResult, error)

	// DeleteMatch removes a market that is still OPEN (admin)
	DeleteMatch(ctx context.Context, actorID, matchID int64) error

	// ListOpenMatches returns markets currently accepting bets
	ListOpenMatches(ctx context.Context) ([]*models.Match, error)
}

// AdminService defines moderation operations. Every operation checks the
// actor holds the admin role.
type AdminService interface {
	// AdjustAccount overwrites balance/turnover/profile fields directly,
	// audit-logged
	AdjustAccount(ctx context.Context, actorID, accountID int64, patch models.AccountPatch) error

	// GrantBonus credits an account's bonus balance
	GrantBonus(ctx context.Context, actorID, accountID int64, amount decimal.Decimal) error

	// GetSettings returns the global settings
	GetSettings(ctx context.Context) (*models.Settings, error)

	// UpdateSettings overwrites the global settings
	UpdateSettings(ctx context.Context, actorID int64, settings *models.Settings) error

	// ListAccounts returns all accounts
	ListAccounts(ctx context.Context, actorID int64) ([]*models.Account, error)

	// DeleteAccount removes an account; publishes an event so external
	// session holders can invalidate their references
	DeleteAccount(ctx context.Context, actorID, accountID int64) error

	// PostNotification broadcasts a message to all players
	PostNotification(ctx context.Context, actorID int64, message string, severity models.NotificationSeverity) (*models.Notification, error)

	// DeactivateNotification retires a broadcast
	DeactivateNotification(ctx context.Context, actorID, notificationID int64) error

	// ListNotifications returns active broadcasts
	ListNotifications(ctx context.Context) ([]*models.Notification, error)
}

// UnitOfWork defines transactional repository access. All repositories
// returned by one unit of work share a single database transaction.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TransactionRepository() TransactionRepository
	BetRepository() BetRepository
	MatchRepository() MatchRepository
	SettingsRepository() SettingsRepository
	NotificationRepository() NotificationRepository
	BalanceEntryRepository() BalanceEntryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
