package models

import "github.com/shopspring/decimal"

// Quote represents a current price snapshot for a symbol
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}
