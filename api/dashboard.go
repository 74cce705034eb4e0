package api

import (
	"net/http"

	"backend_stm/services"

	"github.com/gin-gonic/gin"
)

const statsCacheKey = "stats:dashboard"

// GetStats returns the dashboard counters, cached briefly in Redis when a
// Redis connection is configured.
func (h *Handler) GetStats(c *gin.Context) {
	var cached services.Stats
	if hit, err := h.cache.GetJSON(c.Request.Context(), statsCacheKey, &cached); err == nil && hit {
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": cached, "cached": true})
		return
	}

	stats, err := services.NewVerificationService(h.db).GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	_ = h.cache.SetJSON(c.Request.Context(), statsCacheKey, stats, services.CacheTTLShort)
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": stats})
}
