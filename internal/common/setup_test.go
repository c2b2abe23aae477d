package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stock-ledger-go/internal/models"
)

func testConfig(t *testing.T) *models.Config {
	t.Helper()

	quotesFile := filepath.Join(t.TempDir(), "quotes.yaml")
	data := []byte("quotes:\n  - symbol: AAPL\n    name: Apple Inc.\n    price: \"150\"\n")
	if err := os.WriteFile(quotesFile, data, 0o600); err != nil {
		t.Fatalf("Failed to write quotes file: %v", err)
	}

	return &models.Config{
		Backend: "sqlite",
		Database: models.DatabaseConfig{
			Path:             ":memory:",
			MaxOpenConns:     1,
			MaxIdleConns:     1,
			PingTimeout:      5 * time.Second,
			CreateDummyUsers: true,
		},
		Quote: models.QuoteConfig{
			Provider: "file",
			File:     quotesFile,
		},
	}
}

func TestInitializeServices_SeedsDemoUsers(t *testing.T) {
	ctx := context.Background()

	services, err := InitializeServices(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("InitializeServices failed: %v", err)
	}
	defer services.Close()

	users, err := InitializeUsers(ctx, services.Ledger, "")
	if err != nil {
		t.Fatalf("InitializeUsers failed: %v", err)
	}
	if len(users) != len(demoUsernames) {
		t.Fatalf("Expected %d demo users, got %d", len(demoUsernames), len(users))
	}

	if _, err := services.LedgerService.Login(ctx, "alice", demoPassword); err != nil {
		t.Errorf("Expected demo login to succeed, got %v", err)
	}

	q, err := services.Quotes.Lookup(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if q.Price.String() != "150" {
		t.Errorf("Expected price 150, got %s", q.Price.String())
	}
}

func TestInitializeUsers_Filter(t *testing.T) {
	ctx := context.Background()

	services, err := InitializeServices(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("InitializeServices failed: %v", err)
	}
	defer services.Close()

	users, err := InitializeUsers(ctx, services.Ledger, "bob")
	if err != nil {
		t.Fatalf("InitializeUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Username != "bob" {
		t.Errorf("Expected only bob, got %+v", users)
	}

	if _, err := InitializeUsers(ctx, services.Ledger, "nobody"); err == nil {
		t.Error("Expected error for unknown username")
	}
}

func TestInitializeServices_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quote.Provider = "yahoo"

	if _, err := InitializeServices(context.Background(), cfg); err == nil {
		t.Error("Expected error for unknown quote provider")
	}
}
