package services

import (
	"context"
	"errors"
	"strconv"

	"bread-daily-service/storage"

	"go.uber.org/zap"
)

// DarkModeKey is the storage key of the dark-mode flag
const DarkModeKey = "breadDaily_darkMode"

// PreferenceStore keeps UI preferences next to the progress record
type PreferenceStore struct {
	kv     storage.KVStore
	logger *zap.Logger
}

func NewPreferenceStore(kv storage.KVStore, logger *zap.Logger) *PreferenceStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceStore{kv: kv, logger: logger}
}

// DarkMode reads the flag; anything missing or unreadable means off.
func (s *PreferenceStore) DarkMode(ctx context.Context) bool {
	blob, err := s.kv.Get(ctx, DarkModeKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("dark mode read failed", zap.Error(err))
		}
		return false
	}
	on, err := strconv.ParseBool(string(blob))
	if err != nil {
		return false
	}
	return on
}

func (s *PreferenceStore) SetDarkMode(ctx context.Context, on bool) error {
	return s.kv.Put(ctx, DarkModeKey, []byte(strconv.FormatBool(on)))
}
