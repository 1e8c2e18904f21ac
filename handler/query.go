package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/priceloka/backend/model"
	"github.com/priceloka/backend/service"
)

type QueryHandler struct {
	leaderboard *service.LeaderboardService
	history     *service.HistoryService
}

func NewQueryHandler(leaderboard *service.LeaderboardService, history *service.HistoryService) *QueryHandler {
	return &QueryHandler{
		leaderboard: leaderboard,
		history:     history,
	}
}

// Leaderboard returns contributing locations ranked by submission count
// over the trailing window.
func (h *QueryHandler) Leaderboard(c *gin.Context) {
	rows, err := h.leaderboard.Rows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute leaderboard: " + err.Error()})
		return
	}
	if rows == nil {
		rows = []model.LeaderboardRow{}
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}

// Prices returns the most recent observations for a product code. An
// unknown code yields an empty list.
func (h *QueryHandler) Prices(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing product code"})
		return
	}

	views, err := h.history.Recent(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load price history: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prices": views})
}
