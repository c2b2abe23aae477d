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

package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultWorkers caps how many users are reconciled at once.
const defaultWorkers = 4

// Mismatch is a materialized position that disagrees with the transaction log.
type Mismatch struct {
	AccountId string
	Username  string
	Symbol    string
	Err       error
}

// Report summarizes one reconciliation pass.
type Report struct {
	Users      int
	Checked    int
	Mismatches []Mismatch
	Failures   int
}

// Reconciler periodically checks every materialized position against the
// transaction log it was derived from.
type Reconciler struct {
	ledger   store.LedgerStore
	interval time.Duration
	workers  int

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewReconciler(ledger store.LedgerStore, interval time.Duration) *Reconciler {
	return &Reconciler{
		ledger:   ledger,
		interval: interval,
		workers:  defaultWorkers,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs a pass immediately and then one per interval until Stop or ctx is done.
func (r *Reconciler) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("reconcile interval must be positive, got %s", r.interval)
	}

	go r.loop(ctx)

	zap.L().Info("Position reconciler started", zap.Duration("interval", r.interval))
	return nil
}

// Stop waits for the running pass, if any, to finish.
func (r *Reconciler) Stop() {
	zap.L().Info("Stopping position reconciler")
	close(r.stopChan)
	<-r.doneChan
	zap.L().Info("Position reconciler stopped")
}

func (r *Reconciler) loop(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runAndLog(ctx)

	for {
		select {
		case <-ticker.C:
			r.runAndLog(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) runAndLog(ctx context.Context) {
	report, err := r.RunOnce(ctx, nil)
	if err != nil {
		zap.L().Error("Reconciliation pass failed", zap.Error(err))
		return
	}

	if len(report.Mismatches) > 0 || report.Failures > 0 {
		zap.L().Warn("Reconciliation found problems",
			zap.Int("checked", report.Checked),
			zap.Int("mismatched", len(report.Mismatches)),
			zap.Int("failed", report.Failures))
		return
	}
	zap.L().Debug("Reconciliation clean", zap.Int("checked", report.Checked))
}

// RunOnce reconciles the given users, or every user when users is nil.
// At most workers users are checked at a time.
func (r *Reconciler) RunOnce(ctx context.Context, users []models.User) (*Report, error) {
	if users == nil {
		var err error
		users, err = r.ledger.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
	}

	report := &Report{Users: len(users)}
	var mutex sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.workers)

	for _, user := range users {
		g.Go(func() error {
			checked, mismatches, failures := r.reconcileUser(ctx, user)

			mutex.Lock()
			defer mutex.Unlock()
			report.Checked += checked
			report.Mismatches = append(report.Mismatches, mismatches...)
			report.Failures += failures
			return nil
		})
	}

	// reconcileUser never returns an error; failures are counted in the report
	_ = g.Wait()
	return report, nil
}

// symbolsToCheck is every symbol with a materialized row plus every symbol in
// the account's log, so rows that drifted to zero or went missing are covered.
func (r *Reconciler) symbolsToCheck(ctx context.Context, accountId string) ([]string, error) {
	positions, err := r.ledger.GetPositions(ctx, accountId)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	traded, err := r.ledger.ListTransactionsGroupedBySymbol(ctx, accountId)
	if err != nil {
		return nil, fmt.Errorf("failed to list traded symbols: %w", err)
	}

	seen := make(map[string]struct{}, len(positions)+len(traded))
	symbols := make([]string, 0, len(positions)+len(traded))
	add := func(symbol string) {
		if _, ok := seen[symbol]; ok {
			return
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}
	for _, p := range positions {
		add(p.Symbol)
	}
	for _, tx := range traded {
		add(tx.Symbol)
	}
	return symbols, nil
}

func (r *Reconciler) reconcileUser(ctx context.Context, user models.User) (int, []Mismatch, int) {
	symbols, err := r.symbolsToCheck(ctx, user.Id)
	if err != nil {
		zap.L().Error("Failed to collect symbols",
			zap.String("user_id", user.Id),
			zap.Error(err))
		return 0, nil, 1
	}

	var (
		mismatches []Mismatch
		failures   int
	)
	for _, symbol := range symbols {
		err := r.ledger.ReconcilePosition(ctx, user.Id, symbol)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrPositionMismatch):
			zap.L().Warn("Position mismatch",
				zap.String("user_id", user.Id),
				zap.String("symbol", symbol),
				zap.Error(err))
			mismatches = append(mismatches, Mismatch{
				AccountId: user.Id,
				Username:  user.Username,
				Symbol:    symbol,
				Err:       err,
			})
		default:
			zap.L().Error("Failed to reconcile position",
				zap.String("user_id", user.Id),
				zap.String("symbol", symbol),
				zap.Error(err))
			failures++
		}
	}
	return len(symbols), mismatches, failures
}
