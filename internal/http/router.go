// Package httpapi wires the HTTP transport (Gin) to the snapshot store,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/fixitnow/portal-backend/internal/config"
	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/http/handlers"
	"github.com/fixitnow/portal-backend/internal/http/middleware"
	"github.com/fixitnow/portal-backend/internal/repo"
	"github.com/fixitnow/portal-backend/internal/store"
)

// AccountRepo adapts the repository free functions to the identity.AccountRepo
// interface expected by the account store. This keeps the identity package
// decoupled from the concrete repo package while reusing existing functions.
type AccountRepo struct{}

// FindByEmail proxies repo.FindAccountByEmail.
func (AccountRepo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	return repo.FindAccountByEmail(ctx, db, email)
}

// Insert proxies repo.CreateAccount.
func (AccountRepo) Insert(ctx context.Context, db *gorm.DB, acct *domain.Account) error {
	return repo.CreateAccount(ctx, db, acct)
}

// Update proxies repo.SaveAccount.
func (AccountRepo) Update(ctx context.Context, db *gorm.DB, acct *domain.Account) error {
	return repo.SaveAccount(ctx, db, acct)
}

// ListByRole proxies repo.ListAccountsByRole.
func (AccountRepo) ListByRole(ctx context.Context, db *gorm.DB, role string) ([]domain.Account, error) {
	return repo.ListAccountsByRole(ctx, db, role)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, st *store.Store, authSvc handlers.AuthService, geo handlers.Geocoder, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userEmail, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userEmail, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-Email", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-Email", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := handlers.New(st, authSvc, geo, db, cfg.IdempotencyTTL)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Whole derived snapshot; the only payload large enough to compress.
		api.GET("/snapshot", gzip.Gzip(gzip.DefaultCompression), h.GetSnapshot)

		// Accounts
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// Providers
		api.POST("/providers/verification", h.SubmitVerification)
		api.POST("/providers/:id/approve", h.ApproveProvider)
		api.POST("/providers/:id/hold", h.HoldProvider)
		api.GET("/providers/:id/access", h.ProviderAccess)
		api.PUT("/providers/:id/profile", h.SaveProviderProfile)
		api.PUT("/providers/:id/online", h.SetProviderOnline)
		api.PUT("/providers/:id/slots", h.SaveProviderSlots)
		api.PUT("/providers/:id/services", h.SaveProviderServices)
		api.POST("/providers/:id/services", h.UpsertProviderService)

		// Bookings
		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings", h.ListBookings)
		api.PUT("/bookings/:id/status", h.UpdateBookingStatus)
		api.POST("/bookings/:id/messages", h.AddBookingMessage)

		// Admin queues
		api.POST("/verifications/:id/status", h.UpdateVerificationStatus)
		api.POST("/disputes/:id/status", h.UpdateDisputeStatus)

		// Flat chat logs
		api.POST("/chat/admin-provider", h.AddAdminProviderMessage)
		api.POST("/chat/customer-provider", h.AddCustomerProviderMessage)

		// Customer profile and admin settings
		api.PUT("/customer/profile", h.SaveCustomerProfile)
		api.DELETE("/customer/profile", h.ResetCustomerProfile)
		api.PUT("/admin/settings", h.SaveAdminSettings)

		// Notification watermarks
		api.PUT("/seen/:user", h.RecordSeen)
		api.GET("/seen/:user", h.ListSeen)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
