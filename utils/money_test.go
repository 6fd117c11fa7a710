package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "1000.00", "1000.00", false},
		{"no decimals", "250", "250.00", false},
		{"empty defaults to zero", "", "0.00", false},
		{"garbage", "ten rupees", "", true},
		{"negative", "-5.00", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) returned nil error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) returned error: %v", tt.in, err)
			}
			if FormatAmount(got) != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, FormatAmount(got), tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("113.2")); got != "113.20" {
		t.Errorf("FormatAmount(113.2) = %s, want 113.20", got)
	}
	if got := FormatAmount(decimal.Zero); got != "0.00" {
		t.Errorf("FormatAmount(0) = %s, want 0.00", got)
	}
}

func TestAmountFromFloat(t *testing.T) {
	if got := AmountFromFloat(1000); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("AmountFromFloat(1000) = %s, want 1000", got)
	}
	// JSON numbers arrive as float64; sub-paisa noise is rounded away
	if got := FormatAmount(AmountFromFloat(19.999999999)); got != "20.00" {
		t.Errorf("AmountFromFloat(19.999999999) = %s, want 20.00", got)
	}
}
