package domain

import (
	"time"

	"gorm.io/datatypes"
)

// StorageKey is the well-known key under which the whole portal snapshot is
// persisted. It matches the browser client's localStorage key so exported
// data can be imported either way.
const StorageKey = "fixitnow_portal_data"

// Account is a locally registered login, the offline fallback for the remote
// auth API. Email is unique across all roles: one email, one role, for the
// lifetime of the store.
type Account struct {
	ID                  string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name                string    `json:"name"       gorm:"type:varchar(255);not null"`
	Email               string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_account_email"`
	Password            string    `json:"-"          gorm:"type:varchar(255);not null"`
	Role                string    `json:"role"       gorm:"type:varchar(32);not null"`
	Address             string    `json:"address"    gorm:"type:varchar(255)"`
	Phone               string    `json:"phone"      gorm:"type:varchar(64)"`
	ServiceType         string    `json:"serviceType" gorm:"type:varchar(64)"`
	IDProofType         string    `json:"idProofType" gorm:"type:varchar(64)"`
	IDProofDocumentName string    `json:"idProofDocumentName" gorm:"type:varchar(255)"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// SnapshotRecord is the single-row persisted form of a Snapshot: one JSON
// blob under StorageKey. Tolerating a corrupt blob is the loader's job; the
// engine's defaults fill whatever is missing.
type SnapshotRecord struct {
	Key       string         `gorm:"type:varchar(64);primaryKey"`
	Data      datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName returns the database table name for SnapshotRecord.
func (SnapshotRecord) TableName() string { return "snapshots" }

// SeenMark records when a user last viewed a notification source: the kind
// "bookings" covers booking status updates, "thread" covers one booking's
// message thread (ThreadID set). Seen marks are UI badge state, not domain
// data; they never participate in derivation.
type SeenMark struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	UserEmail string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_seen_user_kind_thread,priority:1"`
	Kind      string    `gorm:"type:varchar(32);not null;uniqueIndex:ux_seen_user_kind_thread,priority:2"`
	ThreadID  string    `gorm:"type:varchar(64);not null;default:'';uniqueIndex:ux_seen_user_kind_thread,priority:3"`
	LastSeen  time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName returns the database table name for SeenMark.
func (SeenMark) TableName() string { return "seen_marks" }
