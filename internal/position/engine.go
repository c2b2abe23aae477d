// Package position derives holdings from the append-only trade ledger and
// decides whether a buy or sell is allowed. It never mutates state.
package position

import (
	"context"
	"errors"
	"fmt"

	"stock-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Ledger is the read side of the ledger store the engine works over. It is
// satisfied by the store backends and by an open SQL transaction.
type Ledger interface {
	SumShares(ctx context.Context, accountId, symbol string, txType models.TradeType) (int64, error)
	ListTransactionsGroupedBySymbol(ctx context.Context, accountId string) ([]models.Transaction, error)
}

type Engine struct {
	ledger Ledger
}

func NewEngine(ledger Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// BoughtShares returns the number of shares ever bought, 0 if none.
func (e *Engine) BoughtShares(ctx context.Context, accountId, symbol string) (int64, error) {
	n, err := e.ledger.SumShares(ctx, accountId, symbol, models.TradeBuy)
	if err != nil {
		return 0, fmt.Errorf("unable to sum bought shares: %w", err)
	}
	return n, nil
}

// SoldShares returns the number of shares ever sold, 0 if none.
func (e *Engine) SoldShares(ctx context.Context, accountId, symbol string) (int64, error) {
	n, err := e.ledger.SumShares(ctx, accountId, symbol, models.TradeSell)
	if err != nil {
		return 0, fmt.Errorf("unable to sum sold shares: %w", err)
	}
	return n, nil
}

// CurrentHolding returns bought minus sold. A negative result only happens on
// corrupt data and is returned as is; callers treat it as nothing to sell.
func (e *Engine) CurrentHolding(ctx context.Context, accountId, symbol string) (int64, error) {
	bought, err := e.BoughtShares(ctx, accountId, symbol)
	if err != nil {
		return 0, err
	}
	sold, err := e.SoldShares(ctx, accountId, symbol)
	if err != nil {
		return 0, err
	}

	held := bought - sold
	if held < 0 {
		zap.L().Warn("Negative holding derived from ledger",
			zap.String("account_id", accountId),
			zap.String("symbol", symbol),
			zap.Int64("bought", bought),
			zap.Int64("sold", sold))
	}
	return held, nil
}

// TradableSymbols lists every symbol the account has traded, once each, with
// the current holding. The first display name seen for a symbol is kept.
func (e *Engine) TradableSymbols(ctx context.Context, accountId string) ([]models.TradableSymbol, error) {
	rows, err := e.ledger.ListTransactionsGroupedBySymbol(ctx, accountId)
	if err != nil {
		return nil, fmt.Errorf("unable to list traded symbols: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	symbols := make([]models.TradableSymbol, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.Symbol]; ok {
			continue
		}
		seen[row.Symbol] = struct{}{}

		held, err := e.CurrentHolding(ctx, accountId, row.Symbol)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, models.TradableSymbol{
			Symbol:      row.Symbol,
			DisplayName: row.DisplayName,
			Shares:      held,
		})
	}
	return symbols, nil
}

// ValidateSell checks quantity against the account's current holding.
func (e *Engine) ValidateSell(ctx context.Context, accountId, symbol string, quantity int64) error {
	if quantity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	held, err := e.CurrentHolding(ctx, accountId, symbol)
	if err != nil {
		return err
	}
	if held <= 0 || quantity > held {
		return fmt.Errorf("%w: want to sell %d %s, hold %d", ErrInsufficientShares, quantity, symbol, held)
	}
	return nil
}

// ValidateBuy checks that cash covers price * quantity and returns the cash left afterwards.
func ValidateBuy(cash, price decimal.Decimal, quantity int64) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	cost := Cost(price, quantity)
	if cost.GreaterThan(cash) {
		return decimal.Zero, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, cost.String(), cash.String())
	}
	return cash.Sub(cost), nil
}

// Cost is price * quantity.
func Cost(price decimal.Decimal, quantity int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity))
}

// Proceeds is what a sell credits to cash. No fees are modeled.
func Proceeds(price decimal.Decimal, quantity int64) decimal.Decimal {
	return Cost(price, quantity)
}
