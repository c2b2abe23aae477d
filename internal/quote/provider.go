// Package quote looks up the current price and company name for a ticker
// symbol. Every failure, from an unknown symbol to an unreachable upstream,
// surfaces as ErrUnavailable.
package quote

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"stock-ledger-go/internal/models"
)

var (
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrUnavailable   = errors.New("quote unavailable")
)

// Provider returns a quote for an already normalized symbol.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (*models.Quote, error)
}

// NormalizeSymbol trims and upper-cases s. Symbols are letters only.
func NormalizeSymbol(s string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(s))
	if symbol == "" {
		return "", ErrInvalidSymbol
	}
	for _, r := range symbol {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return "", ErrInvalidSymbol
		}
	}
	return symbol, nil
}
