package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/position"
	"stock-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExecuteTrade re-reads cash and holdings, validates, appends the transaction
// and writes the new cash inside one SQL transaction.
func (s *Service) ExecuteTrade(ctx context.Context, params store.TradeParams) (*store.TradeResult, error) {
	zap.L().Info("Executing trade",
		zap.String("account_id", params.AccountId),
		zap.String("symbol", params.Symbol),
		zap.String("type", string(params.Type)),
		zap.String("price", params.Price.String()),
		zap.Int64("quantity", params.Quantity))

	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var cashStr string
	var version int64
	err = tx.QueryRowContext(ctx, queryGetUserCash, params.AccountId).Scan(&cashStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, params.AccountId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current cash: %w", err)
	}

	cash, err := decimal.NewFromString(cashStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current cash '%s': %w", cashStr, err)
	}

	engine := position.NewEngine(txLedger{q: tx})

	var newCash decimal.Decimal
	switch params.Type {
	case models.TradeBuy:
		newCash, err = position.ValidateBuy(cash, params.Price, params.Quantity)
		if err != nil {
			return nil, err
		}
	case models.TradeSell:
		if err := engine.ValidateSell(ctx, params.AccountId, params.Symbol, params.Quantity); err != nil {
			return nil, err
		}
		newCash = cash.Add(position.Proceeds(params.Price, params.Quantity))
	default:
		return nil, fmt.Errorf("invalid trade type %q", params.Type)
	}

	transaction, err := appendTransactionTx(ctx, tx, store.AppendTransactionParams(params))
	if err != nil {
		return nil, err
	}

	// Update cash (with optimistic locking)
	result, err := tx.ExecContext(ctx, queryUpdateUserCashVersioned, newCash.String(), params.AccountId, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update cash: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("cash update failed - %w", store.ErrConcurrentModification)
	}

	holding, err := engine.CurrentHolding(ctx, params.AccountId, params.Symbol)
	if err != nil {
		return nil, err
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Trade executed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("account_id", params.AccountId),
		zap.String("symbol", params.Symbol),
		zap.String("old_cash", cash.String()),
		zap.String("new_cash", newCash.String()),
		zap.Int64("holding", holding))

	return &store.TradeResult{
		Transaction: *transaction,
		CashBefore:  cash,
		CashAfter:   newCash,
		Holding:     holding,
	}, nil
}
