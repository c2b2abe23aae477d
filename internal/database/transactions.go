package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AppendTransaction inserts one immutable ledger row and updates the
// materialized position in the same SQL transaction.
func (s *Service) AppendTransaction(ctx context.Context, params store.AppendTransactionParams) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	transaction, err := appendTransactionTx(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return transaction, nil
}

func appendTransactionTx(ctx context.Context, q queryer, params store.AppendTransactionParams) (*models.Transaction, error) {
	if err := validateAppendParams(params); err != nil {
		return nil, err
	}

	timestamp := params.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	transaction := &models.Transaction{
		Id:          uuid.New().String(),
		AccountId:   params.AccountId,
		Symbol:      params.Symbol,
		DisplayName: params.DisplayName,
		Price:       params.Price,
		Quantity:    params.Quantity,
		Type:        params.Type,
		Timestamp:   timestamp,
	}

	zap.L().Info("Appending transaction",
		zap.String("transaction_id", transaction.Id),
		zap.String("account_id", transaction.AccountId),
		zap.String("symbol", transaction.Symbol),
		zap.String("type", string(transaction.Type)),
		zap.String("price", transaction.Price.String()),
		zap.Int64("quantity", transaction.Quantity))

	_, err := q.ExecContext(ctx, queryInsertTransaction,
		transaction.Id, transaction.AccountId, transaction.Symbol, transaction.DisplayName,
		transaction.Price.String(), transaction.Quantity, string(transaction.Type), transaction.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	delta := transaction.Quantity
	if transaction.Type == models.TradeSell {
		delta = -delta
	}
	_, err = q.ExecContext(ctx, queryUpsertPosition,
		transaction.AccountId, transaction.Symbol, transaction.DisplayName, delta, transaction.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}

	return transaction, nil
}

func validateAppendParams(params store.AppendTransactionParams) error {
	if params.AccountId == "" {
		return fmt.Errorf("account id cannot be empty")
	}
	if strings.TrimSpace(params.Symbol) == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !params.Type.Valid() {
		return fmt.Errorf("invalid transaction type %q", params.Type)
	}
	if params.Quantity < 1 {
		return fmt.Errorf("quantity must be positive, got %d", params.Quantity)
	}
	if !params.Price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", params.Price.String())
	}
	return nil
}

// ListTransactions returns the account's ledger rows in insertion order
func (s *Service) ListTransactions(ctx context.Context, accountId string) ([]models.Transaction, error) {
	zap.L().Debug("Listing transactions", zap.String("account_id", accountId))
	return queryTransactions(ctx, s.db, queryListTransactions, accountId)
}

// ListTransactionsGroupedBySymbol returns the first row recorded for every symbol the account traded
func (s *Service) ListTransactionsGroupedBySymbol(ctx context.Context, accountId string) ([]models.Transaction, error) {
	return queryTransactions(ctx, s.db, queryListTransactionsGroupedBySymbol, accountId)
}

func (s *Service) SumShares(ctx context.Context, accountId, symbol string, txType models.TradeType) (int64, error) {
	return sumShares(ctx, s.db, accountId, symbol, txType)
}

func sumShares(ctx context.Context, q queryer, accountId, symbol string, txType models.TradeType) (int64, error) {
	var total int64
	if err := q.QueryRowContext(ctx, querySumShares, accountId, symbol, string(txType)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum %s shares: %w", txType, err)
	}
	return total, nil
}

func queryTransactions(ctx context.Context, q queryer, query string, args ...any) ([]models.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer closeRows(rows)

	var transactions []models.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *transaction)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

func scanTransaction(rows *sql.Rows) (*models.Transaction, error) {
	var transaction models.Transaction
	var priceStr, txType string
	err := rows.Scan(&transaction.Id, &transaction.AccountId, &transaction.Symbol, &transaction.DisplayName,
		&priceStr, &transaction.Quantity, &txType, &transaction.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	transaction.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price '%s': %w", priceStr, err)
	}
	transaction.Type = models.TradeType(txType)
	return &transaction, nil
}

// txLedger exposes an open SQL transaction as a position.Ledger so the engine
// validates against the same snapshot the trade writes to.
type txLedger struct {
	q queryer
}

func (l txLedger) SumShares(ctx context.Context, accountId, symbol string, txType models.TradeType) (int64, error) {
	return sumShares(ctx, l.q, accountId, symbol, txType)
}

func (l txLedger) ListTransactionsGroupedBySymbol(ctx context.Context, accountId string) ([]models.Transaction, error) {
	return queryTransactions(ctx, l.q, queryListTransactionsGroupedBySymbol, accountId)
}
