package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type predictionResponse struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// CheckPrediction exposes the raw provider job state, for clients that want
// to show progress for a job they are tracking themselves.
func (h HandlerSet) CheckPrediction(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prediction id is required"})
		return
	}

	prediction, err := h.predictions.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "check prediction failed")
		return
	}

	c.JSON(http.StatusOK, predictionResponse{
		ID:     prediction.ID,
		Status: string(prediction.Status),
		Output: prediction.Output,
		Error:  prediction.Error,
	})
}
