package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger checks storage reachability. Nil means no external dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  "database unreachable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
