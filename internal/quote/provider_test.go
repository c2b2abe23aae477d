package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeSymbol(t *testing.T) {
	valid := map[string]string{
		"aapl":   "AAPL",
		" msft ": "MSFT",
		"Tsla":   "TSLA",
	}
	for input, want := range valid {
		got, err := NormalizeSymbol(input)
		if err != nil {
			t.Errorf("NormalizeSymbol(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", input, got, want)
		}
	}

	for _, input := range []string{"", "   ", "BRK.B", "A1", "ÄPPL", "GO OG"} {
		if _, err := NormalizeSymbol(input); !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("NormalizeSymbol(%q): expected ErrInvalidSymbol, got %v", input, err)
		}
	}
}

const testQuotes = `
quotes:
  - symbol: aapl
    name: Apple Inc.
    price: "150.00"
  - symbol: MSFT
    price: "410.25"
`

func TestParseQuotes(t *testing.T) {
	provider, err := ParseQuotes([]byte(testQuotes))
	if err != nil {
		t.Fatalf("ParseQuotes failed: %v", err)
	}

	q, err := provider.Lookup(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if q.Name != "Apple Inc." || !q.Price.Equal(decimal.NewFromInt(150)) {
		t.Errorf("unexpected quote: %+v", q)
	}

	q, err = provider.Lookup(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if q.Name != "MSFT" {
		t.Errorf("Expected name to default to symbol, got %s", q.Name)
	}

	_, err = provider.Lookup(context.Background(), "NFLX")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestParseQuotes_Invalid(t *testing.T) {
	cases := []string{
		"quotes:\n  - symbol: AAPL\n    price: abc\n",
		"quotes:\n  - symbol: AAPL\n    price: \"0\"\n",
		"quotes:\n  - symbol: A1\n    price: \"1\"\n",
		"quotes: [",
	}
	for _, data := range cases {
		if _, err := ParseQuotes([]byte(data)); err == nil {
			t.Errorf("Expected error for %q", data)
		}
	}
}
