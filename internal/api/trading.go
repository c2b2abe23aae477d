/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"errors"
	"fmt"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/position"
	"stock-ledger-go/internal/quote"
	"stock-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *LedgerService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.quotes.Lookup(ctx, normalized)
}

// Buy prices the order from a fresh quote and executes it atomically.
func (s *LedgerService) Buy(ctx context.Context, accountId, symbol string, quantity int64) (*models.TradeResult, error) {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: %d", position.ErrInvalidQuantity, quantity)
	}

	q, err := s.quotes.Lookup(ctx, normalized)
	if err != nil {
		return nil, err
	}

	return s.executeTrade(ctx, store.TradeParams{
		AccountId:   accountId,
		Symbol:      normalized,
		DisplayName: q.Name,
		Price:       q.Price,
		Quantity:    quantity,
		Type:        models.TradeBuy,
	})
}

// Sell checks the holding before fetching a quote, then executes atomically.
// The store re-validates inside the trade, so the early check is only a fast path.
func (s *LedgerService) Sell(ctx context.Context, accountId, symbol string, quantity int64) (*models.TradeResult, error) {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if err := s.engine.ValidateSell(ctx, accountId, normalized, quantity); err != nil {
		return nil, err
	}

	q, err := s.quotes.Lookup(ctx, normalized)
	if err != nil {
		return nil, err
	}

	return s.executeTrade(ctx, store.TradeParams{
		AccountId:   accountId,
		Symbol:      normalized,
		DisplayName: q.Name,
		Price:       q.Price,
		Quantity:    quantity,
		Type:        models.TradeSell,
	})
}

// GetTradableSymbols lists every symbol the account has traded, with its holding.
func (s *LedgerService) GetTradableSymbols(ctx context.Context, accountId string) ([]models.TradableSymbol, error) {
	return s.engine.TradableSymbols(ctx, accountId)
}

func (s *LedgerService) executeTrade(ctx context.Context, params store.TradeParams) (*models.TradeResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxTradeAttempts; attempt++ {
		result, err := s.store.ExecuteTrade(ctx, params)
		if err == nil {
			return &models.TradeResult{
				Transaction: models.NewTransactionRecord(result.Transaction),
				Cash:        result.CashAfter,
				Holding:     result.Holding,
			}, nil
		}
		if !errors.Is(err, store.ErrConcurrentModification) {
			return nil, err
		}

		lastErr = err
		zap.L().Warn("Trade lost a concurrent update, retrying",
			zap.String("account_id", params.AccountId),
			zap.String("symbol", params.Symbol),
			zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("trade failed after %d attempts: %w", maxTradeAttempts, lastErr)
}

func normalizeSymbol(symbol string) (string, error) {
	normalized, err := quote.NormalizeSymbol(symbol)
	if err != nil {
		return "", fmt.Errorf("%w: symbol must be letters only, got %q", ErrInvalidInput, symbol)
	}
	return normalized, nil
}
