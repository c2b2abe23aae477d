package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Backend  string
	Database DatabaseConfig
	Formance FormanceConfig
	Ledger   LedgerConfig
	Quote    QuoteConfig
	Redis    RedisConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	CreateDummyUsers bool
}

// FormanceConfig holds Formance Stack connection settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// LedgerConfig holds trading rules shared by all backends
type LedgerConfig struct {
	InitialCash decimal.Decimal
}

// QuoteConfig holds quote provider settings
type QuoteConfig struct {
	Provider string // "iex" or "file"
	BaseURL  string
	APIKey   string
	File     string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RedisConfig holds the optional quote cache connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServerConfig holds HTTP server and session settings
type ServerConfig struct {
	Addr              string
	JWTSecret         string
	SessionTTL        time.Duration
	SecureCookies     bool
	ShutdownTimeout   time.Duration
	ReconcileInterval time.Duration // 0 disables the background reconciler
}
