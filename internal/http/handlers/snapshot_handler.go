// Snapshot HTTP handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSnapshot returns the whole derived snapshot. Clients hydrate their
// local state from this payload; the response shape matches the browser
// storage format so exports stay interchangeable.
func (h *Handlers) GetSnapshot(c *gin.Context) {
	ok(c, http.StatusOK, h.store.Snapshot())
}
