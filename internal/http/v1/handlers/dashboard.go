package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"masterdata/internal/dashboard"
)

// DashboardHandler serves the master-data overview.
type DashboardHandler struct {
	*BaseHandler
	aggregator *dashboard.Aggregator
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(base *BaseHandler, aggregator *dashboard.Aggregator) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, aggregator: aggregator}
}

// Get handles GET /master-data/dashboard.
func (h *DashboardHandler) Get(c *gin.Context) {
	sections := h.aggregator.Build(c.Request.Context())
	if sections == nil {
		sections = []dashboard.Section{}
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}
