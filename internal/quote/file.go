package quote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"stock-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type quoteEntry struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
	Price  string `yaml:"price"`
}

type quotesFile struct {
	Quotes []quoteEntry `yaml:"quotes"`
}

// FileProvider serves fixed quotes loaded from a YAML file.
type FileProvider struct {
	quotes map[string]models.Quote
}

func NewFileProvider(quotesFile string) (*FileProvider, error) {
	var quotesPath string
	if filepath.IsAbs(quotesFile) {
		quotesPath = quotesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		quotesPath = filepath.Join(wd, quotesFile)
	}

	data, err := os.ReadFile(quotesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", quotesFile, err)
	}

	return ParseQuotes(data)
}

// ParseQuotes builds a FileProvider from YAML of the form
//
//	quotes:
//	  - symbol: AAPL
//	    name: Apple Inc.
//	    price: "150.00"
func ParseQuotes(data []byte) (*FileProvider, error) {
	var config quotesFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse quotes: %w", err)
	}

	quotes := make(map[string]models.Quote, len(config.Quotes))
	for i, entry := range config.Quotes {
		symbol, err := NormalizeSymbol(entry.Symbol)
		if err != nil {
			return nil, fmt.Errorf("quote at index %d: %w %q", i, err, entry.Symbol)
		}
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("quote at index %d has invalid price %q: %w", i, entry.Price, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("quote at index %d has non-positive price %s", i, entry.Price)
		}
		name := entry.Name
		if name == "" {
			name = symbol
		}
		quotes[symbol] = models.Quote{Symbol: symbol, Name: name, Price: price}
	}

	return &FileProvider{quotes: quotes}, nil
}

func (p *FileProvider) Lookup(_ context.Context, symbol string) (*models.Quote, error) {
	q, ok := p.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: unknown symbol %s", ErrUnavailable, symbol)
	}
	return &q, nil
}
