// Admin and customer HTTP handlers.
//
// This file exposes REST endpoints for the admin console and the customer
// profile:
//   - POST   /disputes/{id}/status
//   - POST   /chat/admin-provider
//   - POST   /chat/customer-provider
//   - PUT    /customer/profile
//   - DELETE /customer/profile
//   - PUT    /admin/settings
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixitnow/portal-backend/internal/domain"
)

// UpdateDisputeStatus sets a dispute's status; the badge tone follows.
func (h *Handlers) UpdateDisputeStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	if err := h.store.UpdateDisputeStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// ChatMessageRequest is one entry for the flat admin-provider or
// customer-provider chat logs.
type ChatMessageRequest struct {
	From string `json:"from"`
	Text string `json:"text" binding:"required"`
}

// AddAdminProviderMessage appends to the admin-provider chat log.
func (h *Handlers) AddAdminProviderMessage(c *gin.Context) {
	h.addChat(c, h.store.AddAdminProviderMessage)
}

// AddCustomerProviderMessage appends to the customer-provider chat log.
func (h *Handlers) AddCustomerProviderMessage(c *gin.Context) {
	h.addChat(c, h.store.AddCustomerProviderMessage)
}

func (h *Handlers) addChat(c *gin.Context, appendFn func(ctx context.Context, from, text string) error) {
	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	if err := appendFn(c.Request.Context(), req.From, req.Text); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// SaveCustomerProfile merges non-empty profile fields into the singleton
// customer record.
func (h *Handlers) SaveCustomerProfile(c *gin.Context) {
	var req domain.CustomerProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.store.SaveCustomerProfile(c.Request.Context(), req); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// ResetCustomerProfile clears the singleton customer record.
func (h *Handlers) ResetCustomerProfile(c *gin.Context) {
	if err := h.store.ResetCustomerProfile(c.Request.Context()); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// SaveAdminSettings merges non-empty fields into the admin configuration.
func (h *Handlers) SaveAdminSettings(c *gin.Context) {
	var req domain.AdminSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.store.SaveAdminSettings(c.Request.Context(), req); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}
