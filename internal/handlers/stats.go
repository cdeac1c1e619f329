// internal/handlers/stats.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/beycollection/internal/utils"
)

type StatsHandler struct {
	stats Statistics
}

func NewStatsHandler(stats Statistics) *StatsHandler {
	return &StatsHandler{
		stats: stats,
	}
}

// GET /stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.stats.ForUser(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /stats/components
func (h *StatsHandler) GetComponents(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	library, err := h.stats.Components(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"categories": library,
	})
}
