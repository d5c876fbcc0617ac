package domain

import "time"

// Idempotency records the outcome of a previously processed booking request,
// keyed by (user_email, key). It lets a client retry POST /bookings with the
// same Idempotency-Key and receive the originally created booking id instead
// of tripping the duplicate-request guard.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserEmail string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_key,priority:2"`
	BookingID string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
