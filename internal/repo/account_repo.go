// Package repo implements the data persistence layer for portal entities,
// backed by GORM. This file provides repository functions for the Account
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an account is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fixitnow/portal-backend/internal/domain"
)

// FindAccountByEmail fetches a single account by its (normalized) email.
// If the record does not exist, it returns ErrNotFound.
func FindAccountByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	var acct domain.Account
	err := db.WithContext(ctx).
		Where("email = ?", email).
		First(&acct).Error
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// CreateAccount inserts a new account row. CreatedAt is set to UTC when the
// caller left it zero.
func CreateAccount(ctx context.Context, db *gorm.DB, acct *domain.Account) error {
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(acct).Error
}

// SaveAccount persists every field of an existing account row. If no row
// matches the account id, it returns ErrNotFound.
func SaveAccount(ctx context.Context, db *gorm.DB, acct *domain.Account) error {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", acct.ID).
		Updates(map[string]any{
			"name":                   acct.Name,
			"password":               acct.Password,
			"role":                   acct.Role,
			"address":                acct.Address,
			"phone":                  acct.Phone,
			"service_type":           acct.ServiceType,
			"id_proof_type":          acct.IDProofType,
			"id_proof_document_name": acct.IDProofDocumentName,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListAccountsByRole returns all accounts carrying the given role, ordered by
// creation time ascending so hydration backfills providers in registration
// order. It returns an empty slice when none match.
func ListAccountsByRole(ctx context.Context, db *gorm.DB, role string) ([]domain.Account, error) {
	var out []domain.Account
	err := db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
