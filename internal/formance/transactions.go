package formance

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"time"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/position"
	"stock-ledger-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. Trade details live in transaction metadata so the
// ledger rows can be read back without inspecting postings. The user account
// never overdrafts, so Formance rejects a trade the account cannot cover.
// ---------------------------------------------------------------------------

const numscriptTradeVars = `vars {
  asset $cash_asset
  number $cash_amount
  asset $share_asset
  number $quantity
  account $account_id
  string $transaction_id
  string $symbol
  string $display_name
  string $price
  string $quantity_str
  string $trade_type
}
`

const numscriptTradeMeta = `
set_tx_meta("event_type", "trade")
set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("account_id", $account_id)
set_tx_meta("symbol", $symbol)
set_tx_meta("display_name", $display_name)
set_tx_meta("price", $price)
set_tx_meta("quantity", $quantity_str)
set_tx_meta("trade_type", $trade_type)
`

const numscriptBuy = numscriptTradeVars + `
send [$cash_asset $cash_amount] (
  source = @users:$account_id
  destination = @market:cash
)

send [$share_asset $quantity] (
  source = @market:shares allowing unbounded overdraft
  destination = @users:$account_id
)
` + numscriptTradeMeta

const numscriptSell = numscriptTradeVars + `
send [$share_asset $quantity] (
  source = @users:$account_id
  destination = @market:shares
)

send [$cash_asset $cash_amount] (
  source = @market:cash allowing unbounded overdraft
  destination = @users:$account_id
)
` + numscriptTradeMeta

// Record-only variants move shares without touching cash.
const numscriptRecordBuy = numscriptTradeVars + `
send [$share_asset $quantity] (
  source = @market:shares allowing unbounded overdraft
  destination = @users:$account_id
)
` + numscriptTradeMeta

const numscriptRecordSell = numscriptTradeVars + `
send [$share_asset $quantity] (
  source = @users:$account_id allowing unbounded overdraft
  destination = @market:shares
)
` + numscriptTradeMeta

// ---------------------------------------------------------------------------
// Transaction operations
// ---------------------------------------------------------------------------

// AppendTransaction records a trade row and its share movement without moving cash.
func (s *Service) AppendTransaction(ctx context.Context, params store.AppendTransactionParams) (*models.Transaction, error) {
	if params.Quantity < 1 || !params.Price.IsPositive() || !params.Type.Valid() || params.Symbol == "" {
		return nil, fmt.Errorf("invalid transaction: %s %d %s at %s", params.Type, params.Quantity, params.Symbol, params.Price.String())
	}

	script := numscriptRecordBuy
	if params.Type == models.TradeSell {
		script = numscriptRecordSell
	}
	return s.postTrade(ctx, script, params)
}

// ExecuteTrade validates against the current ledger state and posts cash and
// shares in a single Formance transaction.
func (s *Service) ExecuteTrade(ctx context.Context, params store.TradeParams) (*store.TradeResult, error) {
	zap.L().Info("Executing trade in Formance",
		zap.String("account_id", params.AccountId),
		zap.String("symbol", params.Symbol),
		zap.String("type", string(params.Type)),
		zap.String("price", params.Price.String()),
		zap.Int64("quantity", params.Quantity))

	user, err := s.GetUserById(ctx, params.AccountId)
	if err != nil {
		return nil, err
	}

	engine := position.NewEngine(s)

	var script string
	var newCash decimal.Decimal
	switch params.Type {
	case models.TradeBuy:
		newCash, err = position.ValidateBuy(user.Cash, params.Price, params.Quantity)
		if err != nil {
			return nil, err
		}
		script = numscriptBuy
	case models.TradeSell:
		if err := engine.ValidateSell(ctx, params.AccountId, params.Symbol, params.Quantity); err != nil {
			return nil, err
		}
		newCash = user.Cash.Add(position.Proceeds(params.Price, params.Quantity))
		script = numscriptSell
	default:
		return nil, fmt.Errorf("invalid trade type %q", params.Type)
	}

	transaction, err := s.postTrade(ctx, script, store.AppendTransactionParams(params))
	if err != nil {
		if isInsufficientFundError(err) {
			// Another request spent the cash or shares between validation and posting.
			if params.Type == models.TradeBuy {
				return nil, fmt.Errorf("%w: %v", position.ErrInsufficientFunds, err)
			}
			return nil, fmt.Errorf("%w: %v", position.ErrInsufficientShares, err)
		}
		return nil, err
	}

	holding, err := engine.CurrentHolding(ctx, params.AccountId, params.Symbol)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Trade executed in Formance",
		zap.String("transaction_id", transaction.Id),
		zap.String("account_id", params.AccountId),
		zap.String("old_cash", user.Cash.String()),
		zap.String("new_cash", newCash.String()),
		zap.Int64("holding", holding))

	return &store.TradeResult{
		Transaction: *transaction,
		CashBefore:  user.Cash,
		CashAfter:   newCash.Round(cashPrecision),
		Holding:     holding,
	}, nil
}

func (s *Service) postTrade(ctx context.Context, script string, params store.AppendTransactionParams) (*models.Transaction, error) {
	timestamp := params.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	transactionId := uuid.New().String()
	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(transactionId),
			Script: &shared.V2PostTransactionScript{
				Plain: script,
				Vars:  tradeVars(transactionId, params),
			},
			Timestamp: &timestamp,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error recording trade: %w", err)
	}

	return &models.Transaction{
		Id:          transactionId,
		AccountId:   params.AccountId,
		Symbol:      shareAsset(params.Symbol),
		DisplayName: params.DisplayName,
		Price:       params.Price,
		Quantity:    params.Quantity,
		Type:        params.Type,
		Timestamp:   timestamp,
	}, nil
}

// ListTransactions returns the account's trades oldest first.
func (s *Service) ListTransactions(ctx context.Context, accountId string) ([]models.Transaction, error) {
	zap.L().Debug("Listing transactions from Formance", zap.String("account_id", accountId))

	var result []models.Transaction
	var cursor *string
	for {
		resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
			Ledger:   s.ledger,
			PageSize: v3.Pointer(defaultPageSize),
			Cursor:   cursor,
			RequestBody: map[string]any{
				"$and": []any{
					map[string]any{"$match": map[string]any{"metadata[event_type]": "trade"}},
					map[string]any{"$match": map[string]any{"metadata[account_id]": accountId}},
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}

		page := resp.V2TransactionsCursorResponse.Cursor
		for _, tx := range page.Data {
			if tx.Reverted {
				continue
			}
			transaction, err := transactionFromMetadata(tx.Metadata, tx.Timestamp)
			if err != nil {
				zap.L().Warn("Skipping malformed trade transaction",
					zap.String("formance_id", fmt.Sprintf("%d", tx.ID)), zap.Error(err))
				continue
			}
			result = append(result, *transaction)
		}
		if !page.HasMore || page.Next == nil {
			break
		}
		cursor = page.Next
	}

	// Formance lists newest first.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

// ListTransactionsGroupedBySymbol returns the first trade recorded for every symbol.
func (s *Service) ListTransactionsGroupedBySymbol(ctx context.Context, accountId string) ([]models.Transaction, error) {
	transactions, err := s.ListTransactions(ctx, accountId)
	if err != nil {
		return nil, err
	}
	return firstPerSymbol(transactions), nil
}

// SumShares reads share volumes: input is everything bought, output everything sold.
func (s *Service) SumShares(ctx context.Context, accountId, symbol string, txType models.TradeType) (int64, error) {
	vols, err := s.getAccountVolumes(ctx, userAccount(accountId))
	if err != nil {
		return 0, err
	}

	vol, ok := vols[shareAsset(symbol)]
	if !ok {
		return 0, nil
	}
	switch txType {
	case models.TradeBuy:
		return bigToInt64(vol.Input), nil
	case models.TradeSell:
		return bigToInt64(vol.Output), nil
	default:
		return 0, fmt.Errorf("invalid trade type %q", txType)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// getAccountVolumes fetches volumes for a single account. A missing account has none.
func (s *Service) getAccountVolumes(ctx context.Context, address string) (map[string]shared.V2Volume, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		zap.L().Warn("Failed to get account volumes", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("failed to get account volumes: %w", err)
	}
	return resp.V2AccountResponse.Data.Volumes, nil
}

func tradeVars(transactionId string, params store.AppendTransactionParams) map[string]string {
	return map[string]string{
		"cash_asset":     cashAsset(),
		"cash_amount":    toCents(position.Cost(params.Price, params.Quantity)),
		"share_asset":    shareAsset(params.Symbol),
		"quantity":       strconv.FormatInt(params.Quantity, 10),
		"account_id":     params.AccountId,
		"transaction_id": transactionId,
		"symbol":         shareAsset(params.Symbol),
		"display_name":   params.DisplayName,
		"price":          params.Price.String(),
		"quantity_str":   strconv.FormatInt(params.Quantity, 10),
		"trade_type":     string(params.Type),
	}
}

func transactionFromMetadata(meta map[string]string, ts time.Time) (*models.Transaction, error) {
	price, err := decimal.NewFromString(meta["price"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse price '%s': %w", meta["price"], err)
	}
	quantity, err := strconv.ParseInt(meta["quantity"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quantity '%s': %w", meta["quantity"], err)
	}
	txType := models.TradeType(meta["trade_type"])
	if !txType.Valid() {
		return nil, fmt.Errorf("invalid trade type %q", meta["trade_type"])
	}

	return &models.Transaction{
		Id:          meta["transaction_id"],
		AccountId:   meta["account_id"],
		Symbol:      meta["symbol"],
		DisplayName: meta["display_name"],
		Price:       price,
		Quantity:    quantity,
		Type:        txType,
		Timestamp:   ts,
	}, nil
}

func firstPerSymbol(transactions []models.Transaction) []models.Transaction {
	seen := make(map[string]bool)
	var out []models.Transaction
	for _, tx := range transactions {
		if seen[tx.Symbol] {
			continue
		}
		seen[tx.Symbol] = true
		out = append(out, tx)
	}
	return out
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string, precision int) decimal.Decimal {
	vol, ok := vols[fAsset]
	if !ok {
		return decimal.Zero
	}
	if vol.Balance != nil {
		return bigIntToDecimal(vol.Balance, precision)
	}
	if vol.Input == nil {
		return decimal.Zero
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return bigIntToDecimal(result, precision)
}

func bigToInt64(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	return v.Int64()
}

func sortPositions(positions []models.Position) {
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })
}
