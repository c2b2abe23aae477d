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
	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/store"

	"go.uber.org/zap"
)

type portfolioStats struct {
	totalUsers         int
	totalPositions     int
	usersWithPositions int
}

func formatTransactionId(txId string) string {
	if txId == "" {
		return "none"
	}
	if len(txId) > 8 {
		return txId[:8] + "..."
	}
	return txId
}

func printPosition(position models.Position, isLast bool) {
	symbol := common.BoxPrefix(isLast)
	lastTx := formatTransactionId(position.LastTransactionId)

	fmt.Printf("%s %-8s %-24s: %10d shares (v%d, last_tx: %s, updated: %s)\n",
		symbol,
		position.Symbol,
		position.DisplayName,
		position.Shares,
		position.Version,
		lastTx,
		position.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printPositions(positions []models.Position) {
	for i, position := range positions {
		isLast := i == len(positions)-1
		printPosition(position, isLast)
	}
}

func printUserHeader(user models.User, positionCount int) {
	fmt.Printf("\n┌─ User: %s\n", user.Username)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Cash: %s\n", common.FormatUSD(user.Cash))
	fmt.Printf("│  Positions: %d\n", positionCount)
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, user models.User, ledger store.LedgerStore) (int, error) {
	positions, err := ledger.GetPositions(ctx, user.Id)
	if err != nil {
		return 0, fmt.Errorf("failed to get positions: %w", err)
	}

	printUserHeader(user, len(positions))
	printPositions(positions)

	return len(positions), nil
}

func processUsersAndGenerateReport(ctx context.Context, users []models.User, ledger store.LedgerStore) portfolioStats {
	stats := portfolioStats{}

	for _, user := range users {
		stats.totalUsers++

		positionCount, err := processUser(ctx, user, ledger)
		if err != nil {
			zap.L().Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("username", user.Username),
				zap.Error(err))
			continue
		}

		if positionCount > 0 {
			stats.usersWithPositions++
			stats.totalPositions += positionCount
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	usernameFlag := flag.String("username", "", "Filter by specific username (optional)")
	flag.Parse()

	logger.Info("Starting portfolio query")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Positions are materialized in the ledger, no quote provider needed
	logger.Info("Connecting to ledger", zap.String("backend", cfg.Backend))
	ledger, err := common.InitializeLedgerOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize ledger", zap.Error(err))
	}
	defer ledger.Close()

	users, err := common.InitializeUsers(ctx, ledger, *usernameFlag)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("USER PORTFOLIO REPORT", common.WideWidth)

	stats := processUsersAndGenerateReport(ctx, users, ledger)

	summary := fmt.Sprintf("SUMMARY: %d users holding shares (%d total positions across %d users queried)",
		stats.usersWithPositions, stats.totalPositions, stats.totalUsers)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Portfolio query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_positions", stats.usersWithPositions),
		zap.Int("total_positions", stats.totalPositions))
}
