// Booking HTTP handlers.
//
// This file exposes REST endpoints for the booking lifecycle:
//   - POST /bookings                (create, idempotent via Idempotency-Key)
//   - GET  /bookings                (list, paginated, filter by party email)
//   - PUT  /bookings/{id}/status    (transition, terminal states locked)
//   - POST /bookings/{id}/messages  (thread message, ACCEPTED bookings only)
//
// Creation supports the Idempotency-Key header: a replayed key returns the
// originally created booking id without filing a duplicate.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/http/middleware"
	"github.com/fixitnow/portal-backend/internal/identity"
	"github.com/fixitnow/portal-backend/internal/repo"
	"github.com/fixitnow/portal-backend/internal/store"
)

// CreateBookingRequest is the JSON payload for filing a booking.
type CreateBookingRequest struct {
	ProviderEmail    string `json:"providerEmail" binding:"required"`
	Category         string `json:"category"`
	Subcategory      string `json:"subcategory"`
	Price            int    `json:"price"`
	SelectedSlot     string `json:"selectedSlot"`
	CustomerName     string `json:"customerName"`
	CustomerEmail    string `json:"customerEmail"`
	CustomerLocation string `json:"customerLocation"`
}

// CreateBookingResponse returns the id of the created (or replayed) booking.
type CreateBookingResponse struct {
	ID     string `json:"id"`
	Replay bool   `json:"replay,omitempty"`
}

// ListBookingsResponse wraps a page of bookings and pagination information.
type ListBookingsResponse struct {
	Bookings   []domain.Booking `json:"bookings"`
	Pagination Pagination       `json:"pagination"`
}

// CreateBooking files a booking request against an approved provider.
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	actor := identity.NormalizeEmail(firstNonBlank(req.CustomerEmail, userEmail(c)))

	// Serve a stored result when the key was already used.
	key, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.db != nil && actor != "" {
		if rec, err := repo.GetIdempotency(ctx, h.db, actor, key, time.Now().UTC()); err == nil && rec != nil {
			ok(c, rec.Status, CreateBookingResponse{ID: rec.BookingID, Replay: true})
			return
		}
	}

	id, err := h.store.CreateBookingRequest(ctx, store.BookingRequest{
		ProviderEmail:    req.ProviderEmail,
		Category:         req.Category,
		Subcategory:      req.Subcategory,
		Price:            req.Price,
		SelectedSlot:     req.SelectedSlot,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerLocation: req.CustomerLocation,
	})
	if err != nil {
		failStore(c, err)
		return
	}

	if hasKey && h.db != nil && actor != "" {
		if _, err := repo.CreateIdempotency(ctx, h.db, actor, key, id, http.StatusCreated, h.idemTTL); err != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Str("key", key).Msg("idempotency record not stored")
		}
	}

	ok(c, http.StatusCreated, CreateBookingResponse{ID: id})
}

// ListBookings returns a page of bookings, optionally filtered to one
// customer or provider email.
func (h *Handlers) ListBookings(c *gin.Context) {
	page, pageSize := clampPagination(c)
	customer := identity.NormalizeEmail(c.Query("customer"))
	provider := identity.NormalizeEmail(c.Query("provider"))

	snap := h.store.Snapshot()
	filtered := snap.Bookings[:0:0]
	for _, b := range snap.Bookings {
		if customer != "" && identity.NormalizeEmail(b.CustomerEmail) != customer {
			continue
		}
		if provider != "" && identity.NormalizeEmail(b.ProviderEmail) != provider {
			continue
		}
		filtered = append(filtered, b)
	}

	total := int64(len(filtered))
	start := (page - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListBookingsResponse{
		Bookings: filtered[start:end],
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// BookingStatusRequest carries a lifecycle transition. ActorEmail, when set,
// must match the booking's provider.
type BookingStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	ActorEmail string `json:"actorEmail"`
}

// UpdateBookingStatus transitions a booking. Terminal states refuse further
// transitions; repeating the current status is a quiet no-op.
func (h *Handlers) UpdateBookingStatus(c *gin.Context) {
	var req BookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	status := domain.NormalizeBookingStatus(req.Status)
	actor := firstNonBlank(req.ActorEmail, userEmail(c))
	if err := h.store.UpdateBookingStatus(c.Request.Context(), c.Param("id"), status, actor); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// BookingMessageRequest is one message posted into a booking thread.
type BookingMessageRequest struct {
	From        string `json:"from"`
	Text        string `json:"text" binding:"required"`
	SenderRole  string `json:"senderRole"`
	SenderEmail string `json:"senderEmail"`
}

// AddBookingMessage appends a message to an accepted booking's thread.
func (h *Handlers) AddBookingMessage(c *gin.Context) {
	var req BookingMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	err := h.store.AddBookingMessage(c.Request.Context(), c.Param("id"), domain.BookingMessage{
		From:        req.From,
		Text:        req.Text,
		SenderRole:  req.SenderRole,
		SenderEmail: firstNonBlank(req.SenderEmail, userEmail(c)),
	})
	if err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
