package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/position"

	"github.com/shopspring/decimal"
)

// setupFileDb opens a database file with a real connection pool so trades can race.
func setupFileDb(t *testing.T, conns int) (*Service, func()) {
	t.Helper()

	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: conns,
		MaxIdleConns: conns,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	return service, service.Close
}

// raceTrades runs n identical one-share trades at once and counts the outcomes.
func raceTrades(t *testing.T, service *Service, accountId string, n int, txType models.TradeType, wantRejection error) int {
	t.Helper()

	var (
		wg      sync.WaitGroup
		mutex   sync.Mutex
		ok      int
		unknown []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := trade(service, accountId, "AAPL", 100, 1, txType)

			mutex.Lock()
			defer mutex.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, wantRejection):
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	for _, err := range unknown {
		t.Errorf("Unexpected %s error: %v", txType, err)
	}
	return ok
}

func TestExecuteTrade_ConcurrentBuysAndSells(t *testing.T) {
	service, cleanup := setupFileDb(t, 8)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "alice", 1000)

	if ok := raceTrades(t, service, user.Id, 30, models.TradeBuy, position.ErrInsufficientFunds); ok != 10 {
		t.Fatalf("Expected 10 buys to succeed, got %d", ok)
	}
	if cash := cashOf(t, service, user.Id); !cash.IsZero() {
		t.Errorf("Expected cash 0 after buys, got %s", cash.String())
	}
	if held, _ := position.NewEngine(service).CurrentHolding(ctx, user.Id, "AAPL"); held != 10 {
		t.Errorf("Expected holding 10, got %d", held)
	}
	if err := service.ReconcilePosition(ctx, user.Id, "AAPL"); err != nil {
		t.Errorf("ReconcilePosition after buys failed: %v", err)
	}

	if ok := raceTrades(t, service, user.Id, 30, models.TradeSell, position.ErrInsufficientShares); ok != 10 {
		t.Fatalf("Expected 10 sells to succeed, got %d", ok)
	}
	if cash := cashOf(t, service, user.Id); !cash.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected cash 1000 after sells, got %s", cash.String())
	}
	if held, _ := position.NewEngine(service).CurrentHolding(ctx, user.Id, "AAPL"); held != 0 {
		t.Errorf("Expected holding 0, got %d", held)
	}
	if err := service.ReconcilePosition(ctx, user.Id, "AAPL"); err != nil {
		t.Errorf("ReconcilePosition after sells failed: %v", err)
	}

	transactions, err := service.ListTransactions(ctx, user.Id)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(transactions) != 20 {
		t.Errorf("Expected 20 transactions, got %d", len(transactions))
	}
}
