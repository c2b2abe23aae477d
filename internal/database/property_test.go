package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/position"
	"stock-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var propertySymbols = []string{"AAPL", "MSFT", "TSLA"}

func newPropertyDb(t *rapid.T) *Service {
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	return service
}

func newPropertyUser(t *rapid.T, service *Service, cash decimal.Decimal) *models.User {
	user, err := service.CreateUser(context.Background(), store.CreateUserParams{
		Username:       "trader",
		CredentialHash: "hash",
		Cash:           cash,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

// Whatever sequence of trades is attempted, cash and holdings stay non-negative
// and every materialized position matches the log.
func TestProperty_ExecuteTradeHoldingNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		service := newPropertyDb(t)
		defer service.Close()

		user := newPropertyUser(t, service, decimal.NewFromInt(rapid.Int64Range(0, 50_000).Draw(t, "cash")))
		engine := position.NewEngine(service)

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			txType := models.TradeSell
			if rapid.Bool().Draw(t, "buy") {
				txType = models.TradeBuy
			}
			symbol := rapid.SampledFrom(propertySymbols).Draw(t, "symbol")

			_, err := service.ExecuteTrade(ctx, store.TradeParams{
				AccountId:   user.Id,
				Symbol:      symbol,
				DisplayName: symbol,
				Price:       decimal.NewFromInt(rapid.Int64Range(1, 500).Draw(t, "price")),
				Quantity:    rapid.Int64Range(1, 30).Draw(t, "qty"),
				Type:        txType,
			})
			if err != nil && !errors.Is(err, position.ErrInsufficientFunds) && !errors.Is(err, position.ErrInsufficientShares) {
				t.Fatalf("ExecuteTrade failed: %v", err)
			}

			current, err := service.GetUserById(ctx, user.Id)
			if err != nil {
				t.Fatalf("GetUserById failed: %v", err)
			}
			if current.Cash.IsNegative() {
				t.Fatalf("cash went negative: %s", current.Cash.String())
			}
			for _, s := range propertySymbols {
				held, err := engine.CurrentHolding(ctx, user.Id, s)
				if err != nil {
					t.Fatalf("CurrentHolding failed: %v", err)
				}
				if held < 0 {
					t.Fatalf("holding for %s went negative: %d", s, held)
				}
				if err := service.ReconcilePosition(ctx, user.Id, s); err != nil {
					t.Fatalf("ReconcilePosition for %s failed: %v", s, err)
				}
			}
		}
	})
}

// Buying q at p and selling q at p through the store restores cash exactly.
func TestProperty_ExecuteTradeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		service := newPropertyDb(t)
		defer service.Close()

		price := decimal.New(rapid.Int64Range(1, 100_000).Draw(t, "priceCents"), -2)
		qty := rapid.Int64Range(1, 100).Draw(t, "qty")
		start := price.Mul(decimal.NewFromInt(qty)).Add(decimal.NewFromInt(rapid.Int64Range(0, 10_000).Draw(t, "spare")))
		user := newPropertyUser(t, service, start)

		for _, txType := range []models.TradeType{models.TradeBuy, models.TradeSell} {
			_, err := service.ExecuteTrade(ctx, store.TradeParams{
				AccountId:   user.Id,
				Symbol:      "AAPL",
				DisplayName: "Apple Inc.",
				Price:       price,
				Quantity:    qty,
				Type:        txType,
			})
			if err != nil {
				t.Fatalf("%s failed: %v", txType, err)
			}
		}

		if cash := cashOfUser(ctx, t, service, user.Id); !cash.Equal(start) {
			t.Fatalf("expected cash %s after round trip, got %s", start.String(), cash.String())
		}
	})
}

func cashOfUser(ctx context.Context, t *rapid.T, service *Service, userId string) decimal.Decimal {
	user, err := service.GetUserById(ctx, userId)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	return user.Cash
}
