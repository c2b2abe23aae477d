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

package main

import (
	"context"
	"flag"
	"fmt"

	"stock-ledger-go/internal/common"
	"stock-ledger-go/internal/config"
	"stock-ledger-go/internal/reconciler"

	"go.uber.org/zap"
)

func printMismatches(mismatches []reconciler.Mismatch) {
	for i, m := range mismatches {
		prefix := common.BoxPrefix(i == len(mismatches)-1)
		fmt.Printf("%s ✗ %-12s %-8s %v\n", prefix, m.Username, m.Symbol, m.Err)
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	usernameFlag := flag.String("username", "", "Filter by specific username (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ledger, err := common.InitializeLedgerOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize ledger", zap.Error(err))
	}
	defer ledger.Close()

	users, err := common.InitializeUsers(ctx, ledger, *usernameFlag)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("POSITION RECONCILIATION", common.DefaultWidth)

	report, err := reconciler.NewReconciler(ledger, 0).RunOnce(ctx, users)
	if err != nil {
		logger.Fatal("Reconciliation failed", zap.Error(err))
	}

	if len(report.Mismatches) > 0 {
		fmt.Printf("\n┌─ Mismatched positions: %d\n", len(report.Mismatches))
		common.PrintBoxSeparator(78)
		printMismatches(report.Mismatches)
	}

	summary := fmt.Sprintf("SUMMARY: %d positions checked across %d users, %d mismatched, %d failed",
		report.Checked, report.Users, len(report.Mismatches), report.Failures)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Reconciliation completed",
		zap.Int("checked", report.Checked),
		zap.Int("mismatched", len(report.Mismatches)),
		zap.Int("failed", report.Failures))
}
