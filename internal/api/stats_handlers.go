package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justyntemme/bookscout/internal/session"
)

// GetStats returns a summary of the owner's search and shelf activity for
// the profile page.
func (h *Handler) GetStats(c *gin.Context) {
	ownerID := session.OwnerID(c)

	stats, err := h.db.GetSearchStats(ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get statistics"})
		return
	}

	saved, err := h.db.CountShelf(ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"searches":    stats,
		"books_saved": saved,
	})
}
