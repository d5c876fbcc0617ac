// Package identity resolves user identity: email normalization, mapping of
// arbitrary role-claim shapes onto the canonical role enum, and the locally
// persisted account store that backs authentication when the remote auth API
// is unreachable.
package identity

import "strings"

// Role is the canonical role enum. ResolveRole may also return an uppercased
// but unmapped value; callers must treat anything outside the three constants
// as "no canonical role".
type Role string

// Canonical roles.
const (
	RoleAdmin    Role = "ADMIN"
	RoleProvider Role = "PROVIDER"
	RoleCustomer Role = "CUSTOMER"
)

// Canonical reports whether the role is one of the three enum values.
func (r Role) Canonical() bool {
	return r == RoleAdmin || r == RoleProvider || r == RoleCustomer
}

// NormalizeEmail trims and lowercases an email address. It is the identity
// key for providers, customers, and local accounts.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizeRole trims and uppercases a role string without mapping it.
func NormalizeRole(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ResolveRole maps a free-form role value onto the canonical enum. Backends
// emit varied shapes ("ROLE_ADMIN", "service-provider", "customer read"),
// so matching is by suffix/substring on the uppercased input. Unmatched
// values are returned uppercased and unmapped.
func ResolveRole(value string) Role {
	normalized := NormalizeRole(value)
	switch {
	case strings.HasSuffix(normalized, "ADMIN"):
		return RoleAdmin
	case strings.Contains(normalized, "PROVIDER"):
		return RoleProvider
	case strings.Contains(normalized, "CUSTOMER"):
		return RoleCustomer
	}
	return Role(normalized)
}

// claimFields is the ordered list of claim names scanned for role candidates.
var claimFields = []string{"role", "roles", "authority", "authorities", "scope", "scp"}

// ResolveRoleFromClaims scans token claims for the first value that resolves
// to a canonical role. Each claim may be a string (split on commas and
// whitespace), a list, or absent. Returns "" when nothing resolves.
func ResolveRoleFromClaims(claims map[string]any) Role {
	if claims == nil {
		return ""
	}
	for _, field := range claimFields {
		for _, candidate := range roleCandidates(claims[field]) {
			if resolved := ResolveRole(candidate); resolved.Canonical() {
				return resolved
			}
		}
	}
	return ""
}

// roleCandidates flattens a claim value into individual role strings.
func roleCandidates(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
	case []string:
		var out []string
		for _, item := range v {
			out = append(out, roleCandidates(item)...)
		}
		return out
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, roleCandidates(item)...)
		}
		return out
	default:
		return nil
	}
}
