package formance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-ledger-go/internal/models"
	"stock-ledger-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const numscriptCashCredit = `vars {
  asset $asset
  number $amount
  account $account_id
  string $reason
}

send [$asset $amount] (
  source = @world
  destination = @users:$account_id
)

set_tx_meta("event_type", "cash_adjustment")
set_tx_meta("account_id", $account_id)
set_tx_meta("reason", $reason)
`

const numscriptCashDebit = `vars {
  asset $asset
  number $amount
  account $account_id
  string $reason
}

send [$asset $amount] (
  source = @users:$account_id allowing unbounded overdraft
  destination = @world
)

set_tx_meta("event_type", "cash_adjustment")
set_tx_meta("account_id", $account_id)
set_tx_meta("reason", $reason)
`

// ---------- User CRUD ----------

func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	// Reject duplicates up front; Formance has no unique constraint on metadata.
	_, err := s.GetUserByUsername(ctx, params.Username)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrDuplicateUsername, params.Username)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	userId := uuid.New().String()
	addr := userAccount(userId)
	zap.L().Info("Creating user in Formance", zap.String("address", addr), zap.String("username", params.Username))

	_, err = s.client.Ledger.V2.AddMetadataToAccount(ctx, operations.V2AddMetadataToAccountRequest{
		Ledger:  s.ledger,
		Address: addr,
		RequestBody: map[string]string{
			"entity_type":     "end_user",
			"username":        params.Username,
			"credential_hash": params.CredentialHash,
			"created_at":      time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user account: %w", err)
	}

	if params.Cash.IsPositive() {
		if err := s.adjustCash(ctx, userId, params.Cash, "opening_balance", "opening-"+userId); err != nil {
			return nil, fmt.Errorf("failed to fund opening cash: %w", err)
		}
	}

	return s.GetUserById(ctx, userId)
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: userAccount(userId),
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, userId)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	acct := resp.V2AccountResponse.Data
	if acct.Metadata["username"] == "" {
		return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, userId)
	}

	return accountToUser(&acct), nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	resp, err := s.client.Ledger.V2.ListAccounts(ctx, operations.V2ListAccountsRequest{
		Ledger:   s.ledger,
		PageSize: v3.Pointer(defaultPageSize),
		RequestBody: map[string]any{
			"$match": map[string]any{
				"metadata[username]": username,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search user by username: %w", err)
	}

	for i := range resp.V2AccountsCursorResponse.Cursor.Data {
		acct := &resp.V2AccountsCursorResponse.Cursor.Data[i]
		if isUserAddress(acct.Address) {
			// The listing does not carry volumes, so re-read for the cash balance.
			return s.GetUserById(ctx, strings.TrimPrefix(acct.Address, "users:"))
		}
	}
	return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, username)
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	var cursor *string
	for {
		resp, err := s.client.Ledger.V2.ListAccounts(ctx, operations.V2ListAccountsRequest{
			Ledger:   s.ledger,
			PageSize: v3.Pointer(defaultPageSize),
			Cursor:   cursor,
			Expand:   v3.Pointer("volumes"),
			RequestBody: map[string]any{
				"$match": map[string]any{
					"metadata[entity_type]": "end_user",
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		page := resp.V2AccountsCursorResponse.Cursor
		for i := range page.Data {
			if isUserAddress(page.Data[i].Address) {
				users = append(users, *accountToUser(&page.Data[i]))
			}
		}
		if !page.HasMore || page.Next == nil {
			break
		}
		cursor = page.Next
	}

	zap.L().Info("Retrieved users from Formance", zap.Int("count", len(users)))
	return users, nil
}

// UpdateCash overwrites the cash balance by posting the difference against @world.
func (s *Service) UpdateCash(ctx context.Context, userId string, cash decimal.Decimal) error {
	user, err := s.GetUserById(ctx, userId)
	if err != nil {
		return err
	}

	diff := cash.Round(cashPrecision).Sub(user.Cash)
	if diff.IsZero() {
		return nil
	}
	return s.adjustCash(ctx, userId, diff, "cash_overwrite", "")
}

// adjustCash posts a signed cash amount between @world and the user account.
func (s *Service) adjustCash(ctx context.Context, userId string, amount decimal.Decimal, reason, reference string) error {
	script := numscriptCashCredit
	if amount.IsNegative() {
		script = numscriptCashDebit
	}

	postTx := shared.V2PostTransaction{
		Script: &shared.V2PostTransactionScript{
			Plain: script,
			Vars: map[string]string{
				"asset":      cashAsset(),
				"amount":     toCents(amount.Abs()),
				"account_id": userId,
				"reason":     reason,
			},
		},
	}
	if reference != "" {
		postTx.Reference = strPtr(reference)
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) && reference != "" {
			return nil // idempotent
		}
		return fmt.Errorf("error adjusting cash: %w", err)
	}

	zap.L().Info("Cash adjusted in Formance",
		zap.String("user_id", userId),
		zap.String("amount", amount.String()),
		zap.String("reason", reason))
	return nil
}

// ---------- helpers ----------

// isUserAddress reports whether address is a top-level users:{id} account.
func isUserAddress(address string) bool {
	parts := strings.Split(address, ":")
	return len(parts) == 2 && parts[0] == "users" && parts[1] != ""
}

func accountToUser(acct *shared.V2Account) *models.User {
	meta := acct.Metadata

	created := time.Now()
	if t, err := time.Parse(time.RFC3339, meta["created_at"]); err == nil {
		created = t
	} else if acct.FirstUsage != nil {
		created = *acct.FirstUsage
	}
	updated := created
	if acct.UpdatedAt != nil {
		updated = *acct.UpdatedAt
	}

	return &models.User{
		Id:             strings.TrimPrefix(acct.Address, "users:"),
		Username:       meta["username"],
		CredentialHash: meta["credential_hash"],
		Cash:           volumeBalance(acct.Volumes, cashAsset(), cashPrecision),
		CreatedAt:      created,
		UpdatedAt:      updated,
	}
}
