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
	"strings"

	"stock-ledger-go/internal/auth"
	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Register creates an account funded with the initial cash. The password is
// stored only as a bcrypt hash.
func (s *LedgerService) Register(ctx context.Context, username, password, confirmation string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: must provide username", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: must provide password", ErrInvalidInput)
	}
	if password != confirmation {
		return nil, fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, store.CreateUserParams{
		Username:       username,
		CredentialHash: hash,
		Cash:           s.initialCash,
	})
	if err != nil {
		if !errors.Is(err, store.ErrDuplicateUsername) {
			zap.L().Error("Failed to register user", zap.String("username", username), zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("User registered", zap.String("user_id", user.Id), zap.String("username", username))
	return user, nil
}

// Login verifies credentials. Unknown users and wrong passwords are indistinguishable.
func (s *LedgerService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrAuthenticationFailed
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	if err := auth.CheckPassword(user.CredentialHash, password); err != nil {
		zap.L().Info("Login rejected", zap.String("username", username))
		return nil, ErrAuthenticationFailed
	}

	return user, nil
}

func (s *LedgerService) GetProfile(ctx context.Context, accountId string) (*models.UserProfile, error) {
	user, err := s.store.GetUserById(ctx, accountId)
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{Id: user.Id, Username: user.Username, Cash: user.Cash}, nil
}
