package database

import (
	"context"
	"errors"
	"testing"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/store"
)

func TestGetPositions(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "alice", 10000)
	appendTestTransaction(t, service, user.Id, "TSLA", 4, models.TradeBuy)
	appendTestTransaction(t, service, user.Id, "AAPL", 5, models.TradeBuy)
	last := appendTestTransaction(t, service, user.Id, "AAPL", 2, models.TradeSell)
	appendTestTransaction(t, service, user.Id, "TSLA", 4, models.TradeSell)

	positions, err := service.GetPositions(context.Background(), user.Id)
	if err != nil {
		t.Fatalf("GetPositions failed: %v", err)
	}

	// TSLA is flat and left out
	if len(positions) != 1 {
		t.Fatalf("Expected 1 position, got %d", len(positions))
	}
	p := positions[0]
	if p.Symbol != "AAPL" || p.Shares != 3 {
		t.Errorf("Expected AAPL 3, got %s %d", p.Symbol, p.Shares)
	}
	if p.LastTransactionId != last.Id {
		t.Errorf("Expected last transaction %s, got %s", last.Id, p.LastTransactionId)
	}
	if p.Version != 2 {
		t.Errorf("Expected version 2, got %d", p.Version)
	}
}

func TestReconcilePosition(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "alice", 10000)
	appendTestTransaction(t, service, user.Id, "AAPL", 5, models.TradeBuy)
	appendTestTransaction(t, service, user.Id, "AAPL", 1, models.TradeSell)

	if err := service.ReconcilePosition(ctx, user.Id, "AAPL"); err != nil {
		t.Fatalf("ReconcilePosition failed: %v", err)
	}

	// Untraded symbols reconcile to zero on both sides
	if err := service.ReconcilePosition(ctx, user.Id, "NFLX"); err != nil {
		t.Fatalf("ReconcilePosition on untraded symbol failed: %v", err)
	}
}

func TestReconcilePosition_Mismatch(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "alice", 10000)
	appendTestTransaction(t, service, user.Id, "AAPL", 5, models.TradeBuy)

	if _, err := service.db.ExecContext(ctx, "UPDATE positions SET shares = 7 WHERE account_id = ?", user.Id); err != nil {
		t.Fatalf("Failed to tamper with position: %v", err)
	}

	err := service.ReconcilePosition(ctx, user.Id, "AAPL")
	if !errors.Is(err, store.ErrPositionMismatch) {
		t.Fatalf("Expected ErrPositionMismatch, got %v", err)
	}
}
