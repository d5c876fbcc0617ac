// Package repo implements the data persistence layer for portal entities,
// backed by GORM. This file provides repository functions for the single-row
// snapshot blob.
package repo

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fixitnow/portal-backend/internal/domain"
)

// LoadSnapshot returns the persisted snapshot payload stored under key, or
// ErrNotFound when nothing has been saved yet.
func LoadSnapshot(ctx context.Context, db *gorm.DB, key string) ([]byte, error) {
	var rec domain.SnapshotRecord
	err := db.WithContext(ctx).
		Where("key = ?", key).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return []byte(rec.Data), nil
}

// SaveSnapshot upserts the snapshot payload under key.
func SaveSnapshot(ctx context.Context, db *gorm.DB, key string, payload []byte) error {
	rec := domain.SnapshotRecord{
		Key:  key,
		Data: datatypes.JSON(payload),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&rec).Error
}

// SnapshotStore adapts the snapshot rows to the engine's persistence
// interface: Load returns nil (not an error) when no snapshot was saved yet.
type SnapshotStore struct {
	DB  *gorm.DB
	Key string
}

// Load returns the stored payload for the configured key, or nil when none
// exists.
func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	payload, err := LoadSnapshot(ctx, s.DB, s.Key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return payload, err
}

// Save upserts the payload under the configured key.
func (s *SnapshotStore) Save(ctx context.Context, payload []byte) error {
	return SaveSnapshot(ctx, s.DB, s.Key, payload)
}
