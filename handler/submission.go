package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/priceloka/backend/model"
	"github.com/priceloka/backend/service"
)

type SubmissionHandler struct {
	submissions *service.SubmissionService
}

func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Submit accepts one price-observation batch and awards one point per
// accepted item.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var batch model.SubmissionBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	points, err := h.submissions.Accept(c.Request.Context(), &batch)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store submission: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"points": points,
	})
}
