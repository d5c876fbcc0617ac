// Provider HTTP handlers.
//
// This file exposes REST endpoints for the provider lifecycle:
//   - POST /providers/verification        (submit or resubmit)
//   - POST /providers/{ref}/approve       (admin decision)
//   - POST /providers/{ref}/hold          (admin decision)
//   - GET  /providers/{email}/access      (gate check)
//   - PUT  /providers/{email}/profile     (settings)
//   - PUT  /providers/{email}/online
//   - PUT  /providers/{email}/slots
//   - PUT  /providers/{email}/services    (replace catalog rows)
//   - POST /providers/{email}/services    (upsert one row)
//   - POST /verifications/{id}/status     (admin queue decision)
//
// The {ref} path segment accepts a queue entry id, a provider name, or an
// email; the store resolves whichever matches.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixitnow/portal-backend/internal/domain"
)

// VerificationRequest is the JSON payload for submitting provider details
// for review. Resubmitting under the same email resets the review state.
type VerificationRequest struct {
	Name                string   `json:"name"`
	Email               string   `json:"email" binding:"required"`
	Phone               string   `json:"phone"`
	Area                string   `json:"area"`
	Address             string   `json:"address"`
	ServiceType         string   `json:"serviceType"`
	IDProofType         string   `json:"idProofType"`
	IDProofDocumentName string   `json:"idProofDocumentName"`
	SelectedSlots       []string `json:"selectedSlots"`
}

// SubmitVerification files (or re-files) a provider verification request.
func (h *Handlers) SubmitVerification(c *gin.Context) {
	var req VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err := h.store.SubmitProviderVerification(c.Request.Context(), domain.Provider{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		Area:                req.Area,
		Address:             req.Address,
		ServiceType:         req.ServiceType,
		IDProofType:         req.IDProofType,
		IDProofDocumentName: req.IDProofDocumentName,
		SelectedSlots:       req.SelectedSlots,
	})
	if err != nil {
		failStore(c, err)
		return
	}
	ok(c, http.StatusAccepted, gin.H{"status": string(domain.ProviderPending)})
}

// ApproveProvider marks the referenced provider APPROVED.
func (h *Handlers) ApproveProvider(c *gin.Context) {
	if err := h.store.ApproveProvider(c.Request.Context(), c.Param("id")); err != nil {
		failStore(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"status": string(domain.ProviderApproved)})
}

// HoldProvider puts the referenced provider ON HOLD.
func (h *Handlers) HoldProvider(c *gin.Context) {
	if err := h.store.HoldProvider(c.Request.Context(), c.Param("id")); err != nil {
		failStore(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"status": string(domain.ProviderOnHold)})
}

// ProviderAccess reports the approval status gating a provider's dashboard.
func (h *Handlers) ProviderAccess(c *gin.Context) {
	status, found := h.store.ProviderAccessStatus(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "provider not found")
		return
	}
	ok(c, http.StatusOK, gin.H{
		"status":  string(status),
		"allowed": status == domain.ProviderApproved,
	})
}

// SaveProviderProfile merges non-empty settings fields for the provider.
func (h *Handlers) SaveProviderProfile(c *gin.Context) {
	var req domain.ProviderSetting
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.store.SaveProviderSettings(c.Request.Context(), c.Param("id"), req); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// OnlineRequest toggles a provider's availability flag.
type OnlineRequest struct {
	Online bool `json:"online"`
}

// SetProviderOnline flips the provider's online flag.
func (h *Handlers) SetProviderOnline(c *gin.Context) {
	var req OnlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.store.SetProviderOnline(c.Request.Context(), c.Param("id"), req.Online); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// SlotsRequest replaces a provider's selected time slots. A null or absent
// slots field clears the selection.
type SlotsRequest struct {
	Slots []string `json:"slots"`
}

// SaveProviderSlots replaces the provider's selected slots.
func (h *Handlers) SaveProviderSlots(c *gin.Context) {
	var req SlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.store.SaveProviderSelectedSlots(c.Request.Context(), c.Param("id"), req.Slots); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// ServicesRequest replaces a provider's whole service catalog.
type ServicesRequest struct {
	Services []domain.ProviderService `json:"services"`
}

// SaveProviderServices replaces every catalog row owned by the provider.
func (h *Handlers) SaveProviderServices(c *gin.Context) {
	var req ServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.store.SaveProviderServices(c.Request.Context(), c.Param("id"), req.Services); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// UpsertProviderService inserts or updates a single catalog row.
func (h *Handlers) UpsertProviderService(c *gin.Context) {
	var req domain.ProviderService
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.store.UpsertProviderService(c.Request.Context(), c.Param("id"), req); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}

// StatusRequest carries an admin queue decision label, e.g. "Approved",
// "On Hold", "Rejected".
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateVerificationStatus applies an admin decision to a verification
// queue entry. Provider-backed entries update the underlying provider.
func (h *Handlers) UpdateVerificationStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	if err := h.store.UpdateVerificationStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		failStore(c, err)
		return
	}
	noContent(c)
}
