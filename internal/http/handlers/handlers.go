// Handler wiring and shared helpers.
//
// Handlers are transport-thin: they validate input, call the snapshot store
// (or the auth/geo collaborators), and translate results into HTTP responses.
// All domain rules live behind the store; the only logic here is input
// shaping and error mapping.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fixitnow/portal-backend/internal/auth"
	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/identity"
	"github.com/fixitnow/portal-backend/internal/store"
	"github.com/fixitnow/portal-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService authenticates and registers accounts, remote-first with a
// local fallback. Implementations must be safe for concurrent use.
type AuthService interface {
	// Login verifies credentials and returns the resolved identity.
	Login(ctx context.Context, email, password string, role identity.Role) (*auth.Result, error)
	// Register creates a local account and best-effort mirrors it remotely.
	Register(ctx context.Context, in domain.Account) (*auth.Result, error)
}

// Geocoder resolves coordinates to a human-readable place name. A nil
// Geocoder disables address backfill during registration.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

//
// Handler wiring
//

// Handlers groups all HTTP endpoints of the portal API. The snapshot store
// carries every domain mutation; auth and geo are optional collaborators;
// the DB handle backs seen marks and idempotency records directly.
type Handlers struct {
	store   *store.Store
	auth    AuthService
	geo     Geocoder
	db      *gorm.DB
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given collaborators.
func New(st *store.Store, authSvc AuthService, geo Geocoder, db *gorm.DB, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{store: st, auth: authSvc, geo: geo, db: db, idemTTL: idemTTL}
}

// userEmail extracts the acting user's email from Gin context (set by
// upstream middleware). If absent, it falls back to the "X-User-Email"
// header (tests use it), and finally to "". It never touches c.Request if
// it's nil.
func userEmail(c *gin.Context) string {
	if v, ok := c.Get("userEmail"); ok {
		if s, ok := v.(string); ok && s != "" {
			return identity.NormalizeEmail(s)
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-Email")); h != "" {
			return identity.NormalizeEmail(h)
		}
	}
	return ""
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failStore maps store-layer errors onto the HTTP error taxonomy. Unknown
// errors become 500s so nothing leaks as a silent success.
func failStore(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrEmailRequired),
		errors.Is(err, store.ErrCustomerEmailRequired),
		errors.Is(err, store.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, store.ErrProviderNotFound),
		errors.Is(err, store.ErrBookingNotFound),
		errors.Is(err, store.ErrVerificationNotFound),
		errors.Is(err, store.ErrDisputeNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, store.ErrProviderNotApproved):
		fail(c, http.StatusConflict, ErrCodeProviderNotApproved, err.Error())
	case errors.Is(err, store.ErrDuplicatePendingBooking):
		fail(c, http.StatusConflict, ErrCodeDuplicateBooking, err.Error())
	case errors.Is(err, store.ErrBookingFinal):
		fail(c, http.StatusConflict, ErrCodeBookingFinal, err.Error())
	case errors.Is(err, store.ErrBookingNotAccepted):
		fail(c, http.StatusConflict, ErrCodeChatLocked, err.Error())
	case errors.Is(err, store.ErrBookingOwnership):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
