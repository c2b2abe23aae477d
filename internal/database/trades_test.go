package database

import (
	"context"
	"errors"
	"testing"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/position"
	"stock-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func trade(service *Service, accountId, symbol string, price int64, qty int64, txType models.TradeType) (*store.TradeResult, error) {
	return service.ExecuteTrade(context.Background(), store.TradeParams{
		AccountId:   accountId,
		Symbol:      symbol,
		DisplayName: symbol + " Inc.",
		Price:       decimal.NewFromInt(price),
		Quantity:    qty,
		Type:        txType,
	})
}

func cashOf(t *testing.T, service *Service, userId string) decimal.Decimal {
	t.Helper()
	user, err := service.GetUserById(context.Background(), userId)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	return user.Cash
}

func TestExecuteTrade_Buy(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "alice", 10000)

	result, err := trade(service, user.Id, "AAPL", 150, 10, models.TradeBuy)
	if err != nil {
		t.Fatalf("ExecuteTrade failed: %v", err)
	}

	if !result.CashBefore.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected cash before 10000, got %s", result.CashBefore.String())
	}
	if !result.CashAfter.Equal(decimal.NewFromInt(8500)) {
		t.Errorf("Expected cash after 8500, got %s", result.CashAfter.String())
	}
	if result.Holding != 10 {
		t.Errorf("Expected holding 10, got %d", result.Holding)
	}
	if cash := cashOf(t, service, user.Id); !cash.Equal(decimal.NewFromInt(8500)) {
		t.Errorf("Expected stored cash 8500, got %s", cash.String())
	}
}

func TestExecuteTrade_SellMoreThanHeld(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "alice", 10000)
	if _, err := trade(service, user.Id, "AAPL", 150, 10, models.TradeBuy); err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	_, err := trade(service, user.Id, "AAPL", 150, 15, models.TradeSell)
	if !errors.Is(err, position.ErrInsufficientShares) {
		t.Fatalf("Expected ErrInsufficientShares, got %v", err)
	}

	// Nothing written by the rejected sell
	transactions, err := service.ListTransactions(context.Background(), user.Id)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(transactions) != 1 {
		t.Errorf("Expected 1 transaction, got %d", len(transactions))
	}
	if cash := cashOf(t, service, user.Id); !cash.Equal(decimal.NewFromInt(8500)) {
		t.Errorf("Expected cash to stay 8500, got %s", cash.String())
	}
}

func TestExecuteTrade_InsufficientFunds(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "alice", 100)

	_, err := trade(service, user.Id, "AAPL", 150, 1, models.TradeBuy)
	if !errors.Is(err, position.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if cash := cashOf(t, service, user.Id); !cash.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected cash unchanged at 100, got %s", cash.String())
	}
}

func TestExecuteTrade_InvalidQuantity(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "alice", 10000)
	for _, qty := range []int64{0, -1} {
		for _, txType := range []models.TradeType{models.TradeBuy, models.TradeSell} {
			_, err := trade(service, user.Id, "AAPL", 150, qty, txType)
			if !errors.Is(err, position.ErrInvalidQuantity) {
				t.Errorf("%s qty=%d: expected ErrInvalidQuantity, got %v", txType, qty, err)
			}
		}
	}
}

func TestExecuteTrade_SequentialBuysThenSells(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "alice", 10000)
	if _, err := trade(service, user.Id, "MSFT", 10, 5, models.TradeBuy); err != nil {
		t.Fatalf("first buy failed: %v", err)
	}
	if _, err := trade(service, user.Id, "MSFT", 10, 3, models.TradeBuy); err != nil {
		t.Fatalf("second buy failed: %v", err)
	}
	result, err := trade(service, user.Id, "MSFT", 10, 6, models.TradeSell)
	if err != nil {
		t.Fatalf("sell of 6 failed: %v", err)
	}
	if result.Holding != 2 {
		t.Errorf("Expected holding 2, got %d", result.Holding)
	}

	_, err = trade(service, user.Id, "MSFT", 10, 3, models.TradeSell)
	if !errors.Is(err, position.ErrInsufficientShares) {
		t.Fatalf("Expected ErrInsufficientShares, got %v", err)
	}
	if cash := cashOf(t, service, user.Id); !cash.Equal(decimal.NewFromInt(9980)) {
		t.Errorf("Expected cash 9980, got %s", cash.String())
	}
}

func TestExecuteTrade_RoundTrip(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "alice", 10000)
	price := decimal.RequireFromString("123.45")

	for _, txType := range []models.TradeType{models.TradeBuy, models.TradeSell} {
		_, err := service.ExecuteTrade(context.Background(), store.TradeParams{
			AccountId:   user.Id,
			Symbol:      "IBM",
			DisplayName: "IBM",
			Price:       price,
			Quantity:    7,
			Type:        txType,
		})
		if err != nil {
			t.Fatalf("%s failed: %v", txType, err)
		}
	}

	if cash := cashOf(t, service, user.Id); !cash.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected cash back at 10000, got %s", cash.String())
	}
}

func TestExecuteTrade_UnknownUser(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := trade(service, "missing", "AAPL", 1, 1, models.TradeBuy)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
