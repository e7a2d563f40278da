package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"currency-bot/internal/model"
)

// fileRecord is one user's entry in the settings document. Unset values are omitted.
type fileRecord struct {
	BaseCurrency  string           `json:"base_currency,omitempty"`
	DefaultAmount *decimal.Decimal `json:"default_amount,omitempty"`
}

func toFileRecord(rec model.UserSettings) fileRecord {
	out := fileRecord{BaseCurrency: rec.BaseCurrency}
	if rec.HasDefaultAmount() {
		amount := rec.DefaultAmount
		out.DefaultAmount = &amount
	}
	return out
}

func (r fileRecord) settings(telegramID int64) model.UserSettings {
	rec := model.UserSettings{TelegramID: telegramID, BaseCurrency: r.BaseCurrency}
	if r.DefaultAmount != nil {
		rec.DefaultAmount = *r.DefaultAmount
	}
	return rec
}

// JSONStore keeps every user's settings in one JSON document keyed by user id.
// The whole file is rewritten in place on each update; a crash mid-write can
// leave it truncated, in which case the next start begins with an empty store.
type JSONStore struct {
	path    string
	log     *logrus.Logger
	mu      sync.Mutex
	records map[int64]model.UserSettings
}

// NewJSONStore loads path once. A missing or unreadable file yields an empty store.
func NewJSONStore(path string, log *logrus.Logger) (*JSONStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	s := &JSONStore{
		path:    path,
		log:     log,
		records: make(map[int64]model.UserSettings),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.WithField("path", path).Info("settings file not found, starting empty")
		return s, nil
	case err != nil:
		log.WithError(err).WithField("path", path).Warn("read settings file, starting empty")
		return s, nil
	}

	var raw map[string]fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		log.WithError(err).WithField("path", path).Warn("parse settings file, starting empty")
		return s, nil
	}

	for key, rec := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.WithField("key", key).Warn("skip settings record with non-numeric user id")
			continue
		}
		s.records[id] = rec.settings(id)
	}

	log.WithFields(logrus.Fields{"path": path, "users": len(s.records)}).Info("settings loaded")
	return s, nil
}

func (s *JSONStore) Load(_ context.Context, telegramID int64) (model.UserSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[telegramID]
	if !ok {
		return model.UserSettings{TelegramID: telegramID}, false, nil
	}
	return rec, true, nil
}

// Update creates the record if absent, applies the mutation and rewrites the file.
// The in-memory state only changes once the file has been written.
func (s *JSONStore) Update(_ context.Context, telegramID int64, apply func(*model.UserSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[telegramID]
	if !ok {
		rec = model.UserSettings{TelegramID: telegramID}
	}
	apply(&rec)
	rec.TelegramID = telegramID

	if err := s.flushLocked(telegramID, rec); err != nil {
		return err
	}
	s.records[telegramID] = rec
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// flushLocked writes the current records with pending in place of the user's stored one.
func (s *JSONStore) flushLocked(pendingID int64, pending model.UserSettings) error {
	out := make(map[string]fileRecord, len(s.records)+1)
	for id, rec := range s.records {
		out[strconv.FormatInt(id, 10)] = toFileRecord(rec)
	}
	out[strconv.FormatInt(pendingID, 10)] = toFileRecord(pending)

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
