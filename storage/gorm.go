package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// KVEntry is one row of the kv_entries table
type KVEntry struct {
	Key       string    `gorm:"primaryKey;type:varchar(191)"`
	Value     []byte    `gorm:"type:bytea;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// GormStore persists blobs through GORM. Used with Postgres when the app runs
// as a hosted single-user instance.
type GormStore struct {
	DB *gorm.DB
}

// OpenPostgres connects to dsn and migrates the kv_entries table.
func OpenPostgres(dsn string) (*GormStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return NewGormStore(db), nil
}

// NewGormStore wraps an already opened (and migrated) connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := s.DB.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *GormStore) Put(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{Key: key, Value: value}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.DB.WithContext(ctx).Where("key = ?", key).Delete(&KVEntry{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
