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

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrAuthenticationFailed = errors.New("invalid username and/or password")
)

// maxTradeAttempts bounds retries of a trade that lost an optimistic-lock race.
const maxTradeAttempts = 3

var defaultInitialCash = decimal.NewFromInt(10000)

// LedgerService sequences the user-facing operations: quote lookup, position
// validation and the atomic ledger write. Every call names its account explicitly.
type LedgerService struct {
	store       store.LedgerStore
	quotes      quote.Provider
	engine      *position.Engine
	initialCash decimal.Decimal
}

func NewLedgerService(ledger store.LedgerStore, quotes quote.Provider, cfg models.LedgerConfig) *LedgerService {
	initialCash := cfg.InitialCash
	if initialCash.IsZero() {
		initialCash = defaultInitialCash
	}

	return &LedgerService{
		store:       ledger,
		quotes:      quotes,
		engine:      position.NewEngine(ledger),
		initialCash: initialCash,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	_, err := s.store.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("ledger health check failed: %w", err)
	}
	return nil
}
