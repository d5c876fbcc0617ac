// Package repo implements the data persistence layer for portal entities,
// backed by GORM. This file provides repository functions for seen marks,
// the per-user notification watermarks behind unread badges.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fixitnow/portal-backend/internal/domain"
)

// Seen-mark kinds.
const (
	SeenKindBookings = "bookings"
	SeenKindThread   = "thread"
)

// UpsertSeenMark records that a user viewed a notification source at the
// given time, replacing any previous mark for the same (user, kind, thread).
func UpsertSeenMark(ctx context.Context, db *gorm.DB, userEmail, kind, threadID string, at time.Time) error {
	mark := domain.SeenMark{
		ID:        uuid.NewString(),
		UserEmail: userEmail,
		Kind:      kind,
		ThreadID:  threadID,
		LastSeen:  at.UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_email"}, {Name: "kind"}, {Name: "thread_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen", "updated_at"}),
		}).
		Create(&mark).Error
}

// GetSeenMark returns when the user last viewed the source, or the zero time
// (and no error) when no mark exists yet.
func GetSeenMark(ctx context.Context, db *gorm.DB, userEmail, kind, threadID string) (time.Time, error) {
	var mark domain.SeenMark
	err := db.WithContext(ctx).
		Where("user_email = ? AND kind = ? AND thread_id = ?", userEmail, kind, threadID).
		First(&mark).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return mark.LastSeen, nil
}

// ListSeenMarks returns every mark belonging to the user.
func ListSeenMarks(ctx context.Context, db *gorm.DB, userEmail string) ([]domain.SeenMark, error) {
	var out []domain.SeenMark
	err := db.WithContext(ctx).
		Where("user_email = ?", userEmail).
		Find(&out).Error
	return out, err
}
