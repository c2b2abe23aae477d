package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"stock-ledger-go/internal/api"
	"stock-ledger-go/internal/database"
	"stock-ledger-go/internal/formance"
	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/quote"
	"stock-ledger-go/internal/store"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

const demoPassword = "password"

var demoUsernames = []string{"alice", "bob", "carol"}

type Services struct {
	Ledger        store.LedgerStore
	Quotes        quote.Provider
	LedgerService *api.LedgerService
	redis         *redis.Client
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	ledger, err := InitializeLedgerOnly(ctx, cfg)
	if err != nil {
		return nil, err
	}

	services := &Services{Ledger: ledger}

	upstream, err := newQuoteProvider(cfg.Quote)
	if err != nil {
		services.Close()
		return nil, err
	}
	services.Quotes = upstream

	if cfg.Redis.Addr != "" {
		zap.L().Info("Caching quotes in redis",
			zap.String("addr", cfg.Redis.Addr),
			zap.Duration("ttl", cfg.Quote.CacheTTL))

		services.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := services.redis.Ping(ctx).Err(); err != nil {
			// The cache degrades to the upstream provider on errors
			zap.L().Warn("Redis unreachable at startup", zap.Error(err))
		}
		services.Quotes = quote.NewCachedProvider(upstream, services.redis, cfg.Quote.CacheTTL)
	}

	services.LedgerService = api.NewLedgerService(ledger, services.Quotes, cfg.Ledger)

	if cfg.Database.CreateDummyUsers {
		seedDemoUsers(ctx, services.LedgerService)
	} else {
		zap.L().Info("Skipping demo user creation (CREATE_DUMMY_USERS=false)")
	}

	return services, nil
}

// InitializeLedgerOnly opens the configured ledger backend without a quote provider.
// Useful for read-only operations like listing portfolios
func InitializeLedgerOnly(ctx context.Context, cfg *models.Config) (store.LedgerStore, error) {
	switch cfg.Backend {
	case "formance":
		svc, err := formance.NewService(ctx, cfg.Formance)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "sqlite", "":
		svc, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.Backend)
	}
}

func newQuoteProvider(cfg models.QuoteConfig) (quote.Provider, error) {
	switch cfg.Provider {
	case "file":
		zap.L().Info("Using file quote provider", zap.String("file", cfg.File))
		p, err := quote.NewFileProvider(cfg.File)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "iex", "":
		zap.L().Info("Using HTTP quote provider", zap.String("base_url", cfg.BaseURL))
		p, err := quote.NewHTTPProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported quote provider: %s", cfg.Provider)
	}
}

func seedDemoUsers(ctx context.Context, ledger *api.LedgerService) {
	for _, username := range demoUsernames {
		user, err := ledger.Register(ctx, username, demoPassword, demoPassword)
		if errors.Is(err, store.ErrDuplicateUsername) {
			continue
		}
		if err != nil {
			zap.L().Error("Failed to insert demo user", zap.String("username", username), zap.Error(err))
			continue
		}
		zap.L().Info("Demo user created", zap.String("id", user.Id), zap.String("username", username))
	}
}

func (cs *Services) Close() {
	if cs.redis != nil {
		if err := cs.redis.Close(); err != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if cs.Ledger != nil {
		cs.Ledger.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
