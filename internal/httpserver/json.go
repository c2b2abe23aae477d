package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"stock-ledger-go/internal/api"
	"stock-ledger-go/internal/position"
	"stock-ledger-go/internal/quote"
	"stock-ledger-go/internal/store"

	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

// writeServiceError maps a service error to its status. Unclassified errors are
// logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, code, "internal server error")
		return
	}
	writeError(w, code, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, api.ErrInvalidInput),
		errors.Is(err, position.ErrInvalidQuantity),
		errors.Is(err, store.ErrDuplicateUsername),
		errors.Is(err, quote.ErrInvalidSymbol),
		errors.Is(err, quote.ErrUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrAuthenticationFailed),
		errors.Is(err, position.ErrInsufficientFunds),
		errors.Is(err, position.ErrInsufficientShares):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", api.ErrInvalidInput)
	}
	return nil
}

// parseQuantity accepts a whole number of shares. Non-integers are malformed
// input; integers below one are an invalid quantity.
func parseQuantity(raw json.Number) (int64, error) {
	s := strings.TrimSpace(raw.String())
	if s == "" {
		return 0, fmt.Errorf("%w: must provide shares", api.ErrInvalidInput)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: shares must be a whole number, got %q", api.ErrInvalidInput, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d", position.ErrInvalidQuantity, n)
	}
	return n, nil
}
