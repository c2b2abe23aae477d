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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioEntry represents one held symbol annotated with its live price
type PortfolioEntry struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// Portfolio represents a user's holdings, cash, and total assets
type Portfolio struct {
	AccountId string           `json:"account_id"`
	Holdings  []PortfolioEntry `json:"holdings"`
	Cash      decimal.Decimal  `json:"cash"`
	Total     decimal.Decimal  `json:"total"`
}

// TransactionRecord represents a transaction in the user's history
type TransactionRecord struct {
	Id        string          `json:"id"`
	Type      TradeType       `json:"type"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

// TradeResult represents the outcome of a successful buy or sell
type TradeResult struct {
	Transaction TransactionRecord `json:"transaction"`
	Cash        decimal.Decimal   `json:"cash"`
	Holding     int64             `json:"holding"`
}

// UserProfile is the public view of a user
type UserProfile struct {
	Id       string          `json:"id"`
	Username string          `json:"username"`
	Cash     decimal.Decimal `json:"cash"`
}

// NewTransactionRecord converts a ledger row to its API view
func NewTransactionRecord(tx Transaction) TransactionRecord {
	return TransactionRecord{
		Id:        tx.Id,
		Type:      tx.Type,
		Symbol:    tx.Symbol,
		Name:      tx.DisplayName,
		Price:     tx.Price,
		Quantity:  tx.Quantity,
		Total:     tx.Total(),
		Timestamp: tx.Timestamp,
	}
}
