// Package identity – account store errors.
//
// These sentinels cover the expected business-rule failures of local account
// management. Handlers map them to stable wire codes (invalid_email,
// invalid_role, duplicate_email_account); nothing here is fatal.
package identity

import "errors"

var (
	// ErrInvalidEmail is returned when a normalized email is empty.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidRole is returned when a role value does not resolve to a
	// canonical role.
	ErrInvalidRole = errors.New("invalid role")

	// ErrDuplicateEmailAccount is returned when registering an email that is
	// already registered, for any role. One email, one role, for the lifetime
	// of the store.
	ErrDuplicateEmailAccount = errors.New("email already registered")

	// ErrRoleConflict is returned when an upsert targets an email that exists
	// under a different role.
	ErrRoleConflict = errors.New("account exists under a different role")

	// ErrInvalidCredentials is returned when no account matches the exact
	// (email, role, password) triple.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
