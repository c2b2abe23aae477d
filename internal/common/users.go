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

package common

import (
	"context"
	"fmt"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/store"

	"go.uber.org/zap"
)

// InitializeUsers retrieves users based on an optional username filter.
// If usernameFilter is provided, returns the single matching user.
// If usernameFilter is empty, returns all users.
func InitializeUsers(ctx context.Context, ledger store.LedgerStore, usernameFilter string) ([]models.User, error) {
	if usernameFilter != "" {
		zap.L().Info("Looking up user by username", zap.String("username", usernameFilter))
		user, err := ledger.GetUserByUsername(ctx, usernameFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return []models.User{*user}, nil
	}

	users, err := ledger.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	zap.L().Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}
