package validation

import (
	"testing"
)

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		wantErr bool
	}{
		// Valid symbols
		{"equity", "NVDA", false},
		{"single char", "A", false},
		{"class share dot", "BRK.A", false},
		{"crypto pair", "BTC-USD", false},
		{"yahoo forex", "EURUSD=X", false},
		{"gold futures", "GC=F", false},
		{"max length", "ABCDEFGHIJKL", false},

		// Invalid symbols - injection attempts
		{"empty", "", true},
		{"path traversal", "../etc/passwd", true},
		{"query injection", "BTC?period=1d", true},
		{"lowercase", "nvda", true},
		{"spaces", "BTC USD", true},
		{"too long", "ABCDEFGHIJKLM", true},
		{"raw slash", "EUR/USD", true}, // Must be normalized first
		{"newline", "BTC\nUSD", true},
		{"starts with dot", ".BTC", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSymbol(tt.symbol)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSymbol(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeSymbol(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		want    string
		wantErr bool
	}{
		{"uppercase passthrough", "BTC-USD", "BTC-USD", false},
		{"lowercase normalized", "nvda", "NVDA", false},
		{"forex pair converted", "EUR/USD", "EURUSD=X", false},
		{"lowercase forex pair", "gbp/usd", "GBPUSD=X", false},
		{"yahoo forex passthrough", "USDJPY=X", "USDJPY=X", false},
		{"with spaces trimmed", "  TSLA  ", "TSLA", false},
		{"non-forex slash rejected", "BTCUSD/EXTRA", "", true},
		{"invalid rejected", "bad!", "", true},
		{"empty rejected", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeSymbol(tt.symbol)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeSymbol(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("SanitizeSymbol(%q) = %q, want %q", tt.symbol, got, tt.want)
			}
		})
	}
}
