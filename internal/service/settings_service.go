package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"currency-bot/internal/model"
)

// SettingsStore persists user settings. Update must create a missing record.
type SettingsStore interface {
	Load(ctx context.Context, telegramID int64) (model.UserSettings, bool, error)
	Update(ctx context.Context, telegramID int64, apply func(*model.UserSettings)) error
}

// SettingsService exposes per-key reads with caller-supplied defaults.
type SettingsService struct {
	store SettingsStore
	log   *logrus.Logger
}

func NewSettingsService(store SettingsStore, log *logrus.Logger) *SettingsService {
	return &SettingsService{store: store, log: log}
}

// BaseCurrency returns the stored base currency or def.
func (s *SettingsService) BaseCurrency(ctx context.Context, userID int64, def string) string {
	rec, ok := s.load(ctx, userID)
	if !ok || !rec.HasBaseCurrency() {
		return def
	}
	return rec.BaseCurrency
}

// DefaultAmount returns the stored default amount or def.
func (s *SettingsService) DefaultAmount(ctx context.Context, userID int64, def decimal.Decimal) decimal.Decimal {
	rec, ok := s.load(ctx, userID)
	if !ok || !rec.HasDefaultAmount() {
		return def
	}
	return rec.DefaultAmount
}

func (s *SettingsService) SetBaseCurrency(ctx context.Context, userID int64, code string) error {
	code = model.NormalizeCode(code)
	if !IsBaseCurrencyCode(code) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	if err := s.store.Update(ctx, userID, func(rec *model.UserSettings) {
		rec.BaseCurrency = code
	}); err != nil {
		return fmt.Errorf("set %s: %w", model.KeyBaseCurrency, err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "base_currency": code}).Info("base currency updated")
	return nil
}

// SetDefaultAmount rejects non-positive amounts and keeps the stored value.
func (s *SettingsService) SetDefaultAmount(ctx context.Context, userID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := s.store.Update(ctx, userID, func(rec *model.UserSettings) {
		rec.DefaultAmount = amount
	}); err != nil {
		return fmt.Errorf("set %s: %w", model.KeyDefaultAmount, err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "default_amount": amount.String()}).Info("default amount updated")
	return nil
}

func (s *SettingsService) load(ctx context.Context, userID int64) (model.UserSettings, bool) {
	rec, ok, err := s.store.Load(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("load settings, using defaults")
		return model.UserSettings{}, false
	}
	return rec, ok
}
