package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/identity"
)

// Session sources reported in Result.Source.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// Result is a completed sign-in or registration: the resolved identity plus,
// when the remote auth API was involved, its bearer token.
type Result struct {
	Email  string
	Name   string
	Role   identity.Role
	Token  string
	Source string
}

// Service coordinates the remote auth API with the local account store. The
// remote side is optional and best-effort; local accounts always work.
type Service struct {
	// Remote is the remote auth client, nil when not configured.
	Remote *Client
	// Local is the persisted account store.
	Local *identity.Store

	Log zerolog.Logger
}

// NewService wires an auth service.
func NewService(remote *Client, local *identity.Store, log zerolog.Logger) *Service {
	return &Service{Remote: remote, Local: local, Log: log}
}

// Login signs a user in. The remote auth API is tried first when configured;
// if it is unreachable the local account store takes over. A remote rejection
// is final and surfaces as identity.ErrInvalidCredentials — local fallback
// exists for outages, not for second-guessing the remote side.
func (s *Service) Login(ctx context.Context, email, password string, role identity.Role) (*Result, error) {
	normalized := identity.NormalizeEmail(email)
	if normalized == "" {
		return nil, identity.ErrInvalidCredentials
	}

	if s.Remote != nil {
		session, err := s.Remote.Login(ctx, Credentials{
			Email:    normalized,
			Password: password,
			Role:     string(role),
		})
		switch {
		case err == nil:
			resolved := RoleFromToken(session.Token)
			if resolved == "" {
				resolved = identity.ResolveRole(firstNonEmptyString(session.Role, string(role)))
			}
			return &Result{
				Email:  firstNonEmptyString(SubjectFromToken(session.Token), normalized),
				Name:   session.Name,
				Role:   resolved,
				Token:  session.Token,
				Source: SourceRemote,
			}, nil
		case errors.Is(err, ErrRemoteRejected):
			return nil, identity.ErrInvalidCredentials
		default:
			s.Log.Warn().Err(err).Msg("remote login unavailable; using local accounts")
		}
	}

	acct, err := s.Local.ValidateCredentials(ctx, normalized, password, role)
	if err != nil {
		return nil, err
	}
	return &Result{
		Email:  acct.Email,
		Name:   acct.Name,
		Role:   identity.ResolveRole(acct.Role),
		Source: SourceLocal,
	}, nil
}

// Register creates an account. The local store is the system of record (the
// snapshot hydrates its provider queue from it), so registration must succeed
// locally; the remote auth API is then notified best-effort, and its token is
// attached when it answers.
func (s *Service) Register(ctx context.Context, in domain.Account) (*Result, error) {
	acct, err := s.Local.Register(ctx, in)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Email:  acct.Email,
		Name:   acct.Name,
		Role:   identity.Role(acct.Role),
		Source: SourceLocal,
	}

	if s.Remote != nil {
		session, err := s.Remote.Register(ctx, Registration{
			Name:     acct.Name,
			Email:    acct.Email,
			Password: in.Password,
			Role:     acct.Role,
			Address:  acct.Address,
			Phone:    acct.Phone,
		})
		if err != nil {
			s.Log.Warn().Err(err).Str("email", acct.Email).Msg("remote registration failed; local account kept")
		} else {
			result.Token = session.Token
			result.Source = SourceRemote
		}
	}
	return result, nil
}

func firstNonEmptyString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
