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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"stock-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	quoteTimeout, err := getEnvDuration("QUOTE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvDuration("QUOTE_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	sessionTTL, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	reconcileInterval, err := getEnvDuration("RECONCILE_INTERVAL", 0)
	if err != nil {
		return nil, err
	}

	initialCash, err := getEnvDecimal("INITIAL_CASH", decimal.NewFromInt(10000))
	if err != nil {
		return nil, err
	}
	if !initialCash.IsPositive() {
		return nil, fmt.Errorf("INITIAL_CASH must be positive, got %s", initialCash.String())
	}

	backend := getEnvString("LEDGER_BACKEND", "sqlite")
	if backend != "sqlite" && backend != "formance" {
		return nil, fmt.Errorf("unsupported LEDGER_BACKEND %q (want sqlite or formance)", backend)
	}

	quoteProvider := getEnvString("QUOTE_PROVIDER", "iex")
	if quoteProvider != "iex" && quoteProvider != "file" {
		return nil, fmt.Errorf("unsupported QUOTE_PROVIDER %q (want iex or file)", quoteProvider)
	}

	return &models.Config{
		Backend: backend,
		Database: models.DatabaseConfig{
			Path:             getEnvString("DATABASE_PATH", "ledger.db"),
			MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  connMaxLifetime,
			ConnMaxIdleTime:  connMaxIdleTime,
			PingTimeout:      pingTimeout,
			CreateDummyUsers: getEnvBool("CREATE_DUMMY_USERS", false),
		},
		Formance: models.FormanceConfig{
			StackURL:     os.Getenv("FORMANCE_STACK_URL"),
			ClientID:     os.Getenv("FORMANCE_CLIENT_ID"),
			ClientSecret: os.Getenv("FORMANCE_CLIENT_SECRET"),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "stock-ledger"),
		},
		Ledger: models.LedgerConfig{
			InitialCash: initialCash,
		},
		Quote: models.QuoteConfig{
			Provider: quoteProvider,
			BaseURL:  os.Getenv("QUOTE_API_URL"),
			APIKey:   os.Getenv("QUOTE_API_KEY"),
			File:     getEnvString("QUOTES_FILE", "quotes.yaml"),
			Timeout:  quoteTimeout,
			CacheTTL: cacheTTL,
		},
		Redis: models.RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Server: models.ServerConfig{
			Addr:              getEnvString("HTTP_ADDR", ":8080"),
			JWTSecret:         os.Getenv("JWT_SECRET"),
			SessionTTL:        sessionTTL,
			SecureCookies:     getEnvBool("SECURE_COOKIES", false),
			ShutdownTimeout:   shutdownTimeout,
			ReconcileInterval: reconcileInterval,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
