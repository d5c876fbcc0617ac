package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixitnow/portal-backend/internal/domain"
)

// AccountRepo defines the persistence contract required by the Store.
type AccountRepo interface {
	// FindByEmail returns the account for a normalized email, or
	// gorm.ErrRecordNotFound.
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error)

	// Insert creates a new account row.
	Insert(ctx context.Context, db *gorm.DB, acct *domain.Account) error

	// Update saves changed fields of an existing account row.
	Update(ctx context.Context, db *gorm.DB, acct *domain.Account) error

	// ListByRole returns all accounts carrying the given canonical role.
	ListByRole(ctx context.Context, db *gorm.DB, role string) ([]domain.Account, error)
}

// Store manages locally registered accounts. It is the fully functional
// fallback for the remote auth API: registration, profile upsert, and
// credential validation all work without any network dependency.
type Store struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the account repository used by this store.
	Repo AccountRepo

	// now is a clock seam for tests.
	now func() time.Time
}

// NewStore constructs a Store bound to the given database and repository.
func NewStore(db *gorm.DB, repo AccountRepo) *Store {
	return &Store{DB: db, Repo: repo, now: time.Now}
}

// normalizeAccount builds the stored form of an account: normalized email,
// resolved role, trimmed fields.
func (s *Store) normalizeAccount(in domain.Account) domain.Account {
	in.Email = NormalizeEmail(in.Email)
	in.Role = string(ResolveRole(in.Role))
	in.Name = strings.TrimSpace(in.Name)
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
	}
	return in
}

// Register creates a new local account. It fails with
// ErrDuplicateEmailAccount when the email is already registered for any role.
func (s *Store) Register(ctx context.Context, in domain.Account) (*domain.Account, error) {
	acct := s.normalizeAccount(in)
	if acct.Email == "" {
		return nil, ErrInvalidEmail
	}
	if !Role(acct.Role).Canonical() {
		return nil, ErrInvalidRole
	}

	if _, err := s.Repo.FindByEmail(ctx, s.DB, acct.Email); err == nil {
		return nil, ErrDuplicateEmailAccount
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.Repo.Insert(ctx, s.DB, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// Upsert creates the account when missing or merges profile fields into the
// existing row. The original role and createdAt are preserved; an upsert
// under a different role fails with ErrRoleConflict.
func (s *Store) Upsert(ctx context.Context, in domain.Account) (*domain.Account, error) {
	next := s.normalizeAccount(in)
	if next.Email == "" {
		return nil, ErrInvalidEmail
	}
	if !Role(next.Role).Canonical() {
		return nil, ErrInvalidRole
	}

	existing, err := s.Repo.FindByEmail(ctx, s.DB, next.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.Repo.Insert(ctx, s.DB, &next); err != nil {
			return nil, err
		}
		return &next, nil
	}
	if err != nil {
		return nil, err
	}

	existingRole := ResolveRole(existing.Role)
	if existingRole.Canonical() && existingRole != Role(next.Role) {
		return nil, ErrRoleConflict
	}

	merged := *existing
	merged.Name = firstNonEmpty(next.Name, existing.Name)
	merged.Password = firstNonEmpty(next.Password, existing.Password)
	merged.Address = firstNonEmpty(next.Address, existing.Address)
	merged.Phone = firstNonEmpty(next.Phone, existing.Phone)
	merged.ServiceType = firstNonEmpty(next.ServiceType, existing.ServiceType)
	merged.IDProofType = firstNonEmpty(next.IDProofType, existing.IDProofType)
	merged.IDProofDocumentName = firstNonEmpty(next.IDProofDocumentName, existing.IDProofDocumentName)
	if existingRole.Canonical() {
		merged.Role = string(existingRole)
	} else {
		merged.Role = next.Role
	}

	if err := s.Repo.Update(ctx, s.DB, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ValidateCredentials returns the account matching the exact triple of
// normalized email, canonical role, and password, or ErrInvalidCredentials.
func (s *Store) ValidateCredentials(ctx context.Context, email, password string, role Role) (*domain.Account, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, ErrInvalidCredentials
	}

	acct, err := s.Repo.FindByEmail(ctx, s.DB, normalized)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if role.Canonical() && ResolveRole(acct.Role) != role {
		return nil, ErrInvalidCredentials
	}
	if acct.Password != password {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

// FindByEmail returns the account for an email (any role), or nil when
// absent.
func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}
	acct, err := s.Repo.FindByEmail(ctx, s.DB, normalized)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// ProviderAccounts returns every account registered under the PROVIDER role.
// Snapshot hydration uses this to restrict and backfill the provider queue.
func (s *Store) ProviderAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.Repo.ListByRole(ctx, s.DB, string(RoleProvider))
}

// firstNonEmpty returns the first non-blank string.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
