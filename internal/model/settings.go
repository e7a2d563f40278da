package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Setting keys as they appear in the persisted settings document.
const (
	KeyBaseCurrency  = "base_currency"
	KeyDefaultAmount = "default_amount"
)

// UserSettings stores per-user preferences. Zero values mean "not set".
type UserSettings struct {
	ID            uint            `gorm:"primaryKey"`
	TelegramID    int64           `gorm:"uniqueIndex"`
	BaseCurrency  string          `gorm:"size:8"`
	DefaultAmount decimal.Decimal `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasBaseCurrency reports whether the base currency was explicitly chosen.
func (s UserSettings) HasBaseCurrency() bool {
	return s.BaseCurrency != ""
}

// HasDefaultAmount reports whether a usable default amount is stored.
func (s UserSettings) HasDefaultAmount() bool {
	return s.DefaultAmount.IsPositive()
}
