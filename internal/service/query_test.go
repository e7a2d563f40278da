package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseRateQuery(t *testing.T) {
	def := decimal.RequireFromString("2.5")

	tests := []struct {
		name       string
		args       []string
		wantAmount string
		wantFrom   string
		wantTo     string
		wantErr    error
	}{
		{name: "amount from to", args: []string{"100", "USD", "EUR"}, wantAmount: "100", wantFrom: "USD", wantTo: "EUR"},
		{name: "from to", args: []string{"USD", "EUR"}, wantAmount: "2.5", wantFrom: "USD", wantTo: "EUR"},
		{name: "from only", args: []string{"EUR"}, wantAmount: "2.5", wantFrom: "EUR", wantTo: "RUB"},
		{name: "amount from", args: []string{"100", "usd"}, wantAmount: "100", wantFrom: "USD", wantTo: "RUB"},
		{name: "lower case and comma", args: []string{"12,5", "eur", "usd"}, wantAmount: "12.5", wantFrom: "EUR", wantTo: "USD"},
		{name: "filler word", args: []string{"100", "USD", "to", "EUR"}, wantAmount: "100", wantFrom: "USD", wantTo: "EUR"},
		{name: "russian filler", args: []string{"5", "BTC", "в", "USDT"}, wantAmount: "5", wantFrom: "BTC", wantTo: "USDT"},
		{name: "no args", args: nil, wantErr: ErrUsage},
		{name: "too many", args: []string{"1", "USD", "EUR", "GBP"}, wantErr: ErrUsage},
		{name: "bad amount", args: []string{"abc", "USD", "EUR"}, wantErr: ErrInvalidAmount},
		{name: "negative amount", args: []string{"-5", "USD", "EUR"}, wantErr: ErrInvalidAmount},
		{name: "bad code", args: []string{"US$"}, wantErr: ErrInvalidCurrency},
		{name: "too long code", args: []string{"DOLLARS", "EUR"}, wantErr: ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseRateQuery(tt.args, def, "rub")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseRateQuery(%v) error = %v, want %v", tt.args, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRateQuery(%v) unexpected error: %v", tt.args, err)
			}
			if !q.Amount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("Amount = %s, want %s", q.Amount, tt.wantAmount)
			}
			if q.From != tt.wantFrom || q.To != tt.wantTo {
				t.Errorf("pair = %s/%s, want %s/%s", q.From, q.To, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"100", "100", true},
		{"0,75", "0.75", true},
		{"1 000.50", "1000.5", true},
		{"1 000", "1000", true},
		{"-5", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"", "", false},
		{"1.2.3", "", false},
		{"0.00000001", "0.00000001", true},
		{"999999999999999", "999999999999999", true},
		{"1e400", "", false},
		{"1E3", "", false},
		{"1000000000000000", "", false},
		{"0.000000001", "", false},
		{"0." + strings.Repeat("0", 50) + "1", "", false},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.raw)
		if tt.ok {
			if err != nil {
				t.Errorf("ParseAmount(%q) error: %v", tt.raw, err)
				continue
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.raw, got, tt.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tt.raw, err)
		}
	}
}

func TestIsBaseCurrencyCode(t *testing.T) {
	for _, code := range []string{"RUB", "USDT", "XAU"} {
		if !IsBaseCurrencyCode(code) {
			t.Errorf("IsBaseCurrencyCode(%q) = false, want true", code)
		}
	}
	for _, code := range []string{"US", "1INCH", "A1B", "SHIBA", "rub", ""} {
		if IsBaseCurrencyCode(code) {
			t.Errorf("IsBaseCurrencyCode(%q) = true, want false", code)
		}
	}
}

func TestIsCurrencyCode(t *testing.T) {
	valid := []string{"USD", "USDT", "XAU", "DOGE", "BTC", "A1B"}
	for _, code := range valid {
		if !IsCurrencyCode(code) {
			t.Errorf("IsCurrencyCode(%q) = false, want true", code)
		}
	}
	invalid := []string{"", "US", "usd", "1AB", "TOOLONG", "U$D"}
	for _, code := range invalid {
		if IsCurrencyCode(code) {
			t.Errorf("IsCurrencyCode(%q) = true, want false", code)
		}
	}
}
