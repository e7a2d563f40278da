package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"currency-bot/internal/model"
)

// RateQuery is a parsed /rate request.
type RateQuery struct {
	Amount decimal.Decimal
	From   string
	To     string
}

// Pair returns the normalized pair of the query.
func (q RateQuery) Pair() model.Pair {
	return model.NewPair(q.From, q.To)
}

var fillerWords = map[string]struct{}{
	"to": {}, "in": {}, "в": {}, "->": {}, "=": {}, "→": {},
}

// ParseRateQuery understands "[amount] FROM [TO]". Missing TO falls back to base,
// missing amount falls back to defAmount.
func ParseRateQuery(args []string, defAmount decimal.Decimal, base string) (RateQuery, error) {
	tokens := make([]string, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if _, filler := fillerWords[strings.ToLower(arg)]; filler {
			continue
		}
		tokens = append(tokens, arg)
	}

	q := RateQuery{Amount: defAmount, To: model.NormalizeCode(base)}

	switch len(tokens) {
	case 0:
		return RateQuery{}, ErrUsage
	case 1:
		q.From = tokens[0]
	case 2:
		if amount, err := ParseAmount(tokens[0]); err == nil {
			q.Amount = amount
			q.From = tokens[1]
		} else {
			q.From, q.To = tokens[0], tokens[1]
		}
	case 3:
		amount, err := ParseAmount(tokens[0])
		if err != nil {
			return RateQuery{}, err
		}
		q.Amount = amount
		q.From, q.To = tokens[1], tokens[2]
	default:
		return RateQuery{}, fmt.Errorf("%w: too many arguments", ErrUsage)
	}

	q.From = model.NormalizeCode(q.From)
	q.To = model.NormalizeCode(q.To)
	for _, code := range []string{q.From, q.To} {
		if !IsCurrencyCode(code) {
			return RateQuery{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return q, nil
}

// Amount limits keep amounts printable and short enough for callback data.
const (
	MaxAmountDecimals = 8
	maxAmountLength   = 24
)

var maxAmount = decimal.New(1, 15)

// ParseAmount accepts "100", "12,5" and "1 000.50"; the result must be positive,
// below 10^15 and have at most MaxAmountDecimals fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '_':
			return -1
		case ',':
			return '.'
		}
		return r
	}, strings.TrimSpace(raw))
	if clean == "" || len(clean) > maxAmountLength || strings.ContainsAny(clean, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !amount.IsPositive() || amount.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !amount.Equal(amount.Round(MaxAmountDecimals)) {
		return decimal.Zero, fmt.Errorf("%w: too many decimals in %q", ErrInvalidAmount, raw)
	}
	return amount, nil
}

// IsCurrencyCode checks the shape of an upper-cased code: 3-5 latin letters or digits, starting with a letter.
func IsCurrencyCode(code string) bool {
	if len(code) < 3 || len(code) > 5 {
		return false
	}
	for i, r := range code {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// IsBaseCurrencyCode is the stricter shape for a stored base currency: 3-4 latin letters.
func IsBaseCurrencyCode(code string) bool {
	if len(code) < 3 || len(code) > 4 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
