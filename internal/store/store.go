package store

import (
	"context"
	"errors"
	"time"

	"stock-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicateUsername      = errors.New("username already exists")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrPositionMismatch       = errors.New("position does not match transaction history")
)

// CreateUserParams contains the parameters for registering a user.
type CreateUserParams struct {
	Username       string
	CredentialHash string
	Cash           decimal.Decimal
}

// AppendTransactionParams contains one immutable ledger row.
type AppendTransactionParams struct {
	AccountId   string
	Symbol      string
	DisplayName string
	Price       decimal.Decimal
	Quantity    int64
	Type        models.TradeType
	Timestamp   time.Time
}

// TradeParams describes a buy or sell to be executed atomically against an account.
// Price is the per-share execution price taken from the quote.
type TradeParams struct {
	AccountId   string
	Symbol      string
	DisplayName string
	Price       decimal.Decimal
	Quantity    int64
	Type        models.TradeType
	Timestamp   time.Time
}

// TradeResult is what a committed trade left behind.
type TradeResult struct {
	Transaction models.Transaction
	CashBefore  decimal.Decimal
	CashAfter   decimal.Decimal
	Holding     int64
}

// LedgerStore defines the contract that every backend (SQLite, Formance, ...) must satisfy.
type LedgerStore interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	UpdateCash(ctx context.Context, userId string, cash decimal.Decimal) error

	// --- Transactions ---
	AppendTransaction(ctx context.Context, params AppendTransactionParams) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountId string) ([]models.Transaction, error)
	ListTransactionsGroupedBySymbol(ctx context.Context, accountId string) ([]models.Transaction, error)
	SumShares(ctx context.Context, accountId, symbol string, txType models.TradeType) (int64, error)
	ExecuteTrade(ctx context.Context, params TradeParams) (*TradeResult, error)

	// --- Positions ---
	GetPositions(ctx context.Context, accountId string) ([]models.Position, error)
	ReconcilePosition(ctx context.Context, accountId, symbol string) error

	// --- Lifecycle ---
	Close()
}
