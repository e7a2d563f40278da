package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"currency-bot/internal/model"
)

// SettingsRepository keeps user settings in SQLite.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Load(ctx context.Context, telegramID int64) (model.UserSettings, bool, error) {
	var settings model.UserSettings
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&settings).Error
	switch {
	case err == nil:
		return settings, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.UserSettings{TelegramID: telegramID}, false, nil
	default:
		return model.UserSettings{}, false, fmt.Errorf("find settings: %w", err)
	}
}

// Update finds or creates the user's record, applies the mutation and saves it in one transaction.
func (r *SettingsRepository) Update(ctx context.Context, telegramID int64, apply func(*model.UserSettings)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var settings model.UserSettings
		err := tx.Where("telegram_id = ?", telegramID).First(&settings).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			settings = model.UserSettings{TelegramID: telegramID}
		default:
			return fmt.Errorf("find settings: %w", err)
		}

		apply(&settings)
		settings.TelegramID = telegramID

		if err := tx.Save(&settings).Error; err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		return nil
	})
}

func (r *SettingsRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
