package model

import "strings"

// Pair is an ordered currency pair. Codes are always upper case.
type Pair struct {
	From string
	To   string
}

// NewPair normalizes both codes so lookups are case-insensitive.
func NewPair(from, to string) Pair {
	return Pair{From: NormalizeCode(from), To: NormalizeCode(to)}
}

// IsIdentity reports whether the pair converts a currency into itself.
func (p Pair) IsIdentity() bool {
	return p.From == p.To
}

func (p Pair) String() string {
	return p.From + "/" + p.To
}

// NormalizeCode trims and upper-cases a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
