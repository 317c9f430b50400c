package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"growthai-backend/internal/ws"
)

// RunMonitor triggers a single monitoring pass on demand and returns its
// results. The pass runs inline; a slow oracle makes this request slow, which
// is intentional for a diagnostics endpoint.
func (h *Handler) RunMonitor(c *gin.Context) {
	result, err := h.monitor.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "failed",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "completed",
		"alerts_found":   result.AlertsFound,
		"decisions_made": result.DecisionsMade,
		"alerts":         result.Alerts,
		"decisions":      result.Decisions,
		"timestamp":      ws.Timestamp(),
	})
}

// GetAlerts returns the newest persisted alerts.
func (h *Handler) GetAlerts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	entries, err := h.alerts.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": entries, "count": len(entries)})
}
