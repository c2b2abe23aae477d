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

package database

const (
	// User queries
	queryGetUsers = `
		SELECT id, username, hash, cash, version, created_at, updated_at
		FROM users
		ORDER BY created_at, username`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, username, hash, cash) VALUES (?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, username, hash, cash, version, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryGetUserByUsername = `
		SELECT id, username, hash, cash, version, created_at, updated_at
		FROM users
		WHERE username = ?`

	queryUpdateUserCash = `
		UPDATE users
		SET cash = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Trade queries
	queryGetUserCash = `
		SELECT cash, version
		FROM users
		WHERE id = ?`

	queryUpdateUserCashVersioned = `
		UPDATE users
		SET cash = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (id, account_id, symbol, display_name, price, quantity, tx_type, tx_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryListTransactions = `
		SELECT id, account_id, symbol, display_name, price, quantity, tx_type, tx_date
		FROM transactions
		WHERE account_id = ?
		ORDER BY seq`

	queryListTransactionsGroupedBySymbol = `
		SELECT id, account_id, symbol, display_name, price, quantity, tx_type, tx_date
		FROM transactions
		WHERE seq IN (
			SELECT MIN(seq)
			FROM transactions
			WHERE account_id = ?
			GROUP BY symbol
		)
		ORDER BY seq`

	querySumShares = `
		SELECT COALESCE(SUM(quantity), 0)
		FROM transactions
		WHERE account_id = ? AND symbol = ? AND tx_type = ?`

	// Position queries
	queryUpsertPosition = `
		INSERT INTO positions (account_id, symbol, display_name, shares, last_transaction_id, version, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(account_id, symbol) DO UPDATE SET
			shares = shares + excluded.shares,
			last_transaction_id = excluded.last_transaction_id,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP`

	queryGetPositionShares = `
		SELECT shares
		FROM positions
		WHERE account_id = ? AND symbol = ?`

	queryGetPositions = `
		SELECT account_id, symbol, display_name, shares, last_transaction_id, version, updated_at
		FROM positions
		WHERE account_id = ? AND shares != 0
		ORDER BY symbol`
)
