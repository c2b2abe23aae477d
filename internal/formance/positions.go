package formance

import (
	"context"
	"fmt"
	"time"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/store"

	"go.uber.org/zap"
)

// GetPositions returns the non-zero share balances held by the user account.
func (s *Service) GetPositions(ctx context.Context, accountId string) ([]models.Position, error) {
	zap.L().Debug("Getting positions from Formance", zap.String("account_id", accountId))

	vols, err := s.getAccountVolumes(ctx, userAccount(accountId))
	if err != nil {
		return nil, err
	}
	if len(vols) == 0 {
		return nil, nil
	}

	transactions, err := s.ListTransactions(ctx, accountId)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	lastIds := make(map[string]string)
	updated := make(map[string]time.Time)
	for _, tx := range transactions {
		if _, ok := names[tx.Symbol]; !ok {
			names[tx.Symbol] = tx.DisplayName
		}
		lastIds[tx.Symbol] = tx.Id
		updated[tx.Symbol] = tx.Timestamp
	}

	var positions []models.Position
	for fAsset := range vols {
		if fAsset == cashAsset() {
			continue
		}
		shares := volumeBalance(vols, fAsset, 0).IntPart()
		if shares == 0 {
			continue
		}
		symbol := assetSymbol(fAsset)
		positions = append(positions, models.Position{
			AccountId:         accountId,
			Symbol:            symbol,
			DisplayName:       names[symbol],
			Shares:            shares,
			LastTransactionId: lastIds[symbol],
			UpdatedAt:         updated[symbol],
		})
	}
	sortPositions(positions)
	return positions, nil
}

// ReconcilePosition compares the share volume Formance holds for the account
// with the holding implied by the trade metadata.
func (s *Service) ReconcilePosition(ctx context.Context, accountId, symbol string) error {
	zap.L().Info("Reconciling position in Formance", zap.String("account_id", accountId), zap.String("symbol", symbol))

	vols, err := s.getAccountVolumes(ctx, userAccount(accountId))
	if err != nil {
		return err
	}
	ledgerShares := volumeBalance(vols, shareAsset(symbol), 0).IntPart()

	transactions, err := s.ListTransactions(ctx, accountId)
	if err != nil {
		return err
	}
	derived := holdingFromTransactions(transactions, shareAsset(symbol))

	if ledgerShares != derived {
		zap.L().Error("Position reconciliation failed",
			zap.String("account_id", accountId),
			zap.String("symbol", symbol),
			zap.Int64("ledger", ledgerShares),
			zap.Int64("derived", derived))
		return fmt.Errorf("%w: %s ledger=%d, derived=%d", store.ErrPositionMismatch, symbol, ledgerShares, derived)
	}

	zap.L().Info("Position reconciliation successful",
		zap.String("account_id", accountId),
		zap.String("symbol", symbol),
		zap.Int64("shares", ledgerShares))
	return nil
}

func holdingFromTransactions(transactions []models.Transaction, symbol string) int64 {
	var held int64
	for _, tx := range transactions {
		if tx.Symbol != symbol {
			continue
		}
		if tx.Type == models.TradeBuy {
			held += tx.Quantity
		} else {
			held -= tx.Quantity
		}
	}
	return held
}
