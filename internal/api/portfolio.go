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

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/position"

	"go.uber.org/zap"
)

// GetPortfolio values every symbol the account currently holds at its live
// price. Any failed quote fails the whole portfolio.
func (s *LedgerService) GetPortfolio(ctx context.Context, accountId string) (*models.Portfolio, error) {
	user, err := s.store.GetUserById(ctx, accountId)
	if err != nil {
		return nil, err
	}

	symbols, err := s.engine.TradableSymbols(ctx, accountId)
	if err != nil {
		return nil, err
	}

	holdings := make([]models.PortfolioEntry, 0, len(symbols))
	total := user.Cash
	for _, sym := range symbols {
		if sym.Shares <= 0 {
			continue
		}

		q, err := s.quotes.Lookup(ctx, sym.Symbol)
		if err != nil {
			zap.L().Warn("Quote lookup failed while valuing portfolio",
				zap.String("account_id", accountId),
				zap.String("symbol", sym.Symbol),
				zap.Error(err))
			return nil, err
		}

		value := position.Cost(q.Price, sym.Shares)
		total = total.Add(value)
		holdings = append(holdings, models.PortfolioEntry{
			Symbol: sym.Symbol,
			Name:   sym.DisplayName,
			Shares: sym.Shares,
			Price:  q.Price,
			Value:  value,
		})
	}

	return &models.Portfolio{
		AccountId: accountId,
		Holdings:  holdings,
		Cash:      user.Cash,
		Total:     total,
	}, nil
}

// GetHistory returns the account's transactions in the order they happened.
func (s *LedgerService) GetHistory(ctx context.Context, accountId string) ([]models.TransactionRecord, error) {
	transactions, err := s.store.ListTransactions(ctx, accountId)
	if err != nil {
		zap.L().Error("Failed to list transactions", zap.String("account_id", accountId), zap.Error(err))
		return nil, err
	}

	records := make([]models.TransactionRecord, len(transactions))
	for i, tx := range transactions {
		records[i] = models.NewTransactionRecord(tx)
	}
	return records, nil
}

