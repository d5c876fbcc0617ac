// Auth HTTP handlers.
//
// This file exposes REST endpoints for account registration and login:
//   - POST /auth/register
//   - POST /auth/login
//
// Registration is local-first (the account table is the system of record);
// the remote auth API is mirrored best-effort. Provider registrations also
// enter the verification queue as PENDING so admins can review them.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fixitnow/portal-backend/internal/auth"
	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/http/middleware"
	"github.com/fixitnow/portal-backend/internal/identity"
)

// RegisterRequest is the JSON payload for creating an account. Latitude and
// longitude are optional; when the address is blank and both are present the
// server backfills the address via reverse geocoding, best-effort.
type RegisterRequest struct {
	Name                string   `json:"name"`
	Email               string   `json:"email" binding:"required"`
	Password            string   `json:"password" binding:"required"`
	Role                string   `json:"role" binding:"required"`
	Address             string   `json:"address"`
	Phone               string   `json:"phone"`
	ServiceType         string   `json:"serviceType"`
	IDProofType         string   `json:"idProofType"`
	IDProofDocumentName string   `json:"idProofDocumentName"`
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
}

// LoginRequest is the JSON payload for authenticating.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// SessionResponse is the identity returned after a successful register or
// login. Token is empty when only the local store was involved.
type SessionResponse struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Token  string `json:"token,omitempty"`
	Source string `json:"source"`
}

func sessionResponse(res *auth.Result) SessionResponse {
	return SessionResponse{
		Email:  res.Email,
		Name:   res.Name,
		Role:   string(res.Role),
		Token:  res.Token,
		Source: res.Source,
	}
}

// Register creates an account. Provider accounts additionally submit a
// verification request so the admin queue picks them up immediately.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()

	address := strings.TrimSpace(req.Address)
	if address == "" && req.Latitude != nil && req.Longitude != nil && h.geo != nil {
		if place, err := h.geo.ReverseGeocode(ctx, *req.Latitude, *req.Longitude); err == nil {
			address = place
		}
		// Lookup failures degrade to a blank address; the queue backfills
		// "Not specified" on derive.
	}

	res, err := h.auth.Register(ctx, domain.Account{
		Name:                strings.TrimSpace(req.Name),
		Email:               req.Email,
		Password:            req.Password,
		Role:                req.Role,
		Address:             address,
		Phone:               strings.TrimSpace(req.Phone),
		ServiceType:         strings.TrimSpace(req.ServiceType),
		IDProofType:         strings.TrimSpace(req.IDProofType),
		IDProofDocumentName: strings.TrimSpace(req.IDProofDocumentName),
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidEmail):
			fail(c, http.StatusBadRequest, ErrCodeInvalidEmail, err.Error())
		case errors.Is(err, identity.ErrInvalidRole):
			fail(c, http.StatusBadRequest, ErrCodeInvalidRole, err.Error())
		case errors.Is(err, identity.ErrDuplicateEmailAccount), errors.Is(err, identity.ErrRoleConflict):
			fail(c, http.StatusConflict, ErrCodeDuplicateEmail, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	if res.Role == identity.RoleProvider {
		if err := h.store.SubmitProviderVerification(ctx, domain.Provider{
			Name:                res.Name,
			Email:               res.Email,
			Phone:               req.Phone,
			Area:                address,
			Address:             address,
			ServiceType:         req.ServiceType,
			IDProofType:         req.IDProofType,
			IDProofDocumentName: req.IDProofDocumentName,
		}); err != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Str("email", res.Email).Msg("provider verification submit failed after registration")
		}
	}

	ok(c, http.StatusCreated, sessionResponse(res))
}

// Login authenticates against the remote API first and the local account
// store when the remote is unreachable.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, identity.ResolveRole(req.Role))
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sessionResponse(res))
}
