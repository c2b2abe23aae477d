package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	// A single connection keeps every query on the same in-memory database
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	return service, service.Close
}

func createTestUser(t *testing.T, service *Service, username string, cash int64) *models.User {
	t.Helper()

	user, err := service.CreateUser(context.Background(), store.CreateUserParams{
		Username:       username,
		CredentialHash: "hash-" + username,
		Cash:           decimal.NewFromInt(cash),
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestNewService_InvalidConfig(t *testing.T) {
	_, err := NewService(context.Background(), models.DatabaseConfig{Path: "", MaxOpenConns: 1, PingTimeout: time.Second})
	if err == nil {
		t.Fatalf("Expected error for empty path, got nil")
	}

	_, err = NewService(context.Background(), models.DatabaseConfig{Path: ":memory:", MaxOpenConns: 0, PingTimeout: time.Second})
	if err == nil {
		t.Fatalf("Expected error for zero max open connections, got nil")
	}
}

func TestCreateUser(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "alice", 10000)

	if user.Id == "" {
		t.Errorf("Expected generated id, got empty string")
	}
	if user.Username != "alice" {
		t.Errorf("Expected username alice, got %s", user.Username)
	}
	if user.CredentialHash != "hash-alice" {
		t.Errorf("Expected hash hash-alice, got %s", user.CredentialHash)
	}
	if !user.Cash.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected cash 10000, got %s", user.Cash.String())
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	createTestUser(t, service, "alice", 10000)

	_, err := service.CreateUser(context.Background(), store.CreateUserParams{
		Username:       "alice",
		CredentialHash: "other",
		Cash:           decimal.NewFromInt(5),
	})
	if !errors.Is(err, store.ErrDuplicateUsername) {
		t.Fatalf("Expected ErrDuplicateUsername, got %v", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	created := createTestUser(t, service, "bob", 250)

	user, err := service.GetUserByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if user.Id != created.Id {
		t.Errorf("Expected id %s, got %s", created.Id, user.Id)
	}

	_, err = service.GetUserByUsername(context.Background(), "nobody")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetUserById_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetUserById(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetUsers(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	createTestUser(t, service, "alice", 1)
	createTestUser(t, service, "bob", 2)

	users, err := service.GetUsers(context.Background())
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
}

func TestUpdateCash(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "alice", 10000)

	if err := service.UpdateCash(ctx, user.Id, decimal.RequireFromString("1234.56")); err != nil {
		t.Fatalf("UpdateCash failed: %v", err)
	}

	updated, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !updated.Cash.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("Expected cash 1234.56, got %s", updated.Cash.String())
	}
	if updated.Version != user.Version+1 {
		t.Errorf("Expected version %d, got %d", user.Version+1, updated.Version)
	}

	err = service.UpdateCash(ctx, "missing", decimal.Zero)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}
