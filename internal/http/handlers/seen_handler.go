// Seen-mark HTTP handlers.
//
// Seen marks are per-user notification watermarks: "bookings" covers booking
// status updates, "thread" covers a single booking's message thread. They
// are UI badge state, stored directly in the database and never part of the
// derived snapshot.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fixitnow/portal-backend/internal/identity"
	"github.com/fixitnow/portal-backend/internal/repo"
)

// SeenMarkRequest records that a user viewed a notification source. At is
// optional and defaults to now.
type SeenMarkRequest struct {
	Kind     string     `json:"kind" binding:"required"`
	ThreadID string     `json:"threadId"`
	At       *time.Time `json:"at"`
}

// SeenMarkView is one watermark row in a list response.
type SeenMarkView struct {
	Kind     string    `json:"kind"`
	ThreadID string    `json:"threadId,omitempty"`
	LastSeen time.Time `json:"lastSeen"`
}

// RecordSeen upserts a seen mark for the path user.
func (h *Handlers) RecordSeen(c *gin.Context) {
	user := identity.NormalizeEmail(c.Param("user"))
	if user == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user email required")
		return
	}

	var req SeenMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind required")
		return
	}
	switch req.Kind {
	case repo.SeenKindBookings, repo.SeenKindThread:
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be bookings or thread")
		return
	}
	if req.Kind == repo.SeenKindThread && req.ThreadID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "threadId required for kind thread")
		return
	}

	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}
	if err := repo.UpsertSeenMark(c.Request.Context(), h.db, user, req.Kind, req.ThreadID, at); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// ListSeen returns every seen mark recorded for the path user.
func (h *Handlers) ListSeen(c *gin.Context) {
	user := identity.NormalizeEmail(c.Param("user"))
	if user == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user email required")
		return
	}

	marks, err := repo.ListSeenMarks(c.Request.Context(), h.db, user)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	out := make([]SeenMarkView, 0, len(marks))
	for _, m := range marks {
		out = append(out, SeenMarkView{Kind: m.Kind, ThreadID: m.ThreadID, LastSeen: m.LastSeen})
	}
	ok(c, http.StatusOK, gin.H{"marks": out})
}
