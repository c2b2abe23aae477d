package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/position"
	"stock-ledger-go/internal/store"

	"go.uber.org/zap"
)

// GetPositions returns all non-zero materialized positions for an account
func (s *Service) GetPositions(ctx context.Context, accountId string) ([]models.Position, error) {
	zap.L().Debug("Getting positions", zap.String("account_id", accountId))

	rows, err := s.db.QueryContext(ctx, queryGetPositions, accountId)
	if err != nil {
		zap.L().Error("Failed to get positions", zap.String("account_id", accountId), zap.Error(err))
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer closeRows(rows)

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		err := rows.Scan(&p.AccountId, &p.Symbol, &p.DisplayName, &p.Shares,
			&p.LastTransactionId, &p.Version, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during position row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}

	zap.L().Debug("Retrieved positions", zap.String("account_id", accountId), zap.Int("count", len(positions)))
	return positions, nil
}

func (s *Service) getPositionShares(ctx context.Context, accountId, symbol string) (int64, error) {
	var shares int64
	err := s.db.QueryRowContext(ctx, queryGetPositionShares, accountId, symbol).Scan(&shares)
	if errors.Is(err, sql.ErrNoRows) {
		// No position row means nothing held
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get position: %w", err)
	}
	return shares, nil
}

// ReconcilePosition verifies that the materialized position matches the holding derived from the log
func (s *Service) ReconcilePosition(ctx context.Context, accountId, symbol string) error {
	zap.L().Info("Reconciling position", zap.String("account_id", accountId), zap.String("symbol", symbol))

	materialized, err := s.getPositionShares(ctx, accountId, symbol)
	if err != nil {
		return err
	}

	derived, err := position.NewEngine(s).CurrentHolding(ctx, accountId, symbol)
	if err != nil {
		return fmt.Errorf("failed to derive holding from transactions: %w", err)
	}

	if materialized != derived {
		zap.L().Error("Position reconciliation failed",
			zap.String("account_id", accountId),
			zap.String("symbol", symbol),
			zap.Int64("materialized", materialized),
			zap.Int64("derived", derived),
			zap.Int64("difference", materialized-derived))
		return fmt.Errorf("%w: %s materialized=%d, derived=%d", store.ErrPositionMismatch, symbol, materialized, derived)
	}

	zap.L().Info("Position reconciliation successful",
		zap.String("account_id", accountId),
		zap.String("symbol", symbol),
		zap.Int64("shares", materialized))
	return nil
}
