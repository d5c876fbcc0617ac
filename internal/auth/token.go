package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fixitnow/portal-backend/internal/identity"
)

// TokenClaims returns the claim set of a bearer token without verifying its
// signature. Token cryptography is the remote auth API's concern; this side
// only reads identity hints out of tokens the remote side issued.
func TokenClaims(token string) map[string]any {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(trimmed, claims); err != nil {
		return nil
	}
	return map[string]any(claims)
}

// RoleFromToken resolves the canonical role carried by a bearer token, or ""
// when the token is unreadable or names no recognizable role.
func RoleFromToken(token string) identity.Role {
	return identity.ResolveRoleFromClaims(TokenClaims(token))
}

// SubjectFromToken extracts the account email a token speaks for, trying the
// conventional claim fields in order.
func SubjectFromToken(token string) string {
	claims := TokenClaims(token)
	for _, field := range []string{"email", "sub", "preferred_username"} {
		if v, ok := claims[field].(string); ok {
			if email := identity.NormalizeEmail(v); email != "" && strings.Contains(email, "@") {
				return email
			}
		}
	}
	return ""
}
