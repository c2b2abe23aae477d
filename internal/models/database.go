package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeType is the direction of a ledger transaction
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

func (t TradeType) Valid() bool {
	return t == TradeBuy || t == TradeSell
}

// User represents a registered account holder
type User struct {
	Id             string          `db:"id"`
	Username       string          `db:"username"`
	CredentialHash string          `db:"hash"`
	Cash           decimal.Decimal `db:"cash"`
	Version        int64           `db:"version"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// Transaction represents one immutable row of the trade ledger
type Transaction struct {
	Id          string          `db:"id"`
	AccountId   string          `db:"account_id"`
	Symbol      string          `db:"symbol"`
	DisplayName string          `db:"display_name"`
	Price       decimal.Decimal `db:"price"`
	Quantity    int64           `db:"quantity"`
	Type        TradeType       `db:"tx_type"`
	Timestamp   time.Time       `db:"tx_date"`
}

// Total returns price * quantity
func (t Transaction) Total() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// Position is the materialized share count for an account and symbol (hot data)
type Position struct {
	AccountId         string    `db:"account_id"`
	Symbol            string    `db:"symbol"`
	DisplayName       string    `db:"display_name"`
	Shares            int64     `db:"shares"`
	LastTransactionId string    `db:"last_transaction_id"`
	Version           int64     `db:"version"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// TradableSymbol is a symbol the account has traded at least once
type TradableSymbol struct {
	Symbol      string `json:"symbol"`
	DisplayName string `json:"name"`
	Shares      int64  `json:"shares"`
}
