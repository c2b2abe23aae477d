package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stock-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const defaultBaseURL = "https://cloud.iexapis.com/stable"

// HTTPProvider fetches quotes from an IEX Cloud compatible endpoint.
type HTTPProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

type iexQuote struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"companyName"`
	LatestPrice decimal.Decimal `json:"latestPrice"`
}

func NewHTTPProvider(cfg models.QuoteConfig) (*HTTPProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("quote API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient, err := createCustomHttpClient(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &HTTPProvider{
		client:  httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   5 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

func (p *HTTPProvider) Lookup(ctx context.Context, symbol string) (*models.Quote, error) {
	endpoint := fmt.Sprintf("%s/stock/%s/quote?token=%s", p.baseURL, url.PathEscape(symbol), url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		zap.L().Warn("Quote request failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("Quote provider returned non-OK status",
			zap.String("symbol", symbol), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, symbol, resp.StatusCode)
	}

	var payload iexQuote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: malformed response for %s: %v", ErrUnavailable, symbol, err)
	}
	if payload.Symbol == "" || !payload.LatestPrice.IsPositive() {
		return nil, fmt.Errorf("%w: incomplete response for %s", ErrUnavailable, symbol)
	}

	zap.L().Debug("Fetched quote",
		zap.String("symbol", payload.Symbol),
		zap.String("price", payload.LatestPrice.String()))

	return &models.Quote{
		Symbol: strings.ToUpper(payload.Symbol),
		Name:   payload.CompanyName,
		Price:  payload.LatestPrice,
	}, nil
}
