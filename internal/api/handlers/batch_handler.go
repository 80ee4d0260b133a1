package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/convolens/internal/services"
)

type BatchHandler struct {
	svc services.BatchHistoryService
}

func NewBatchHandler(svc services.BatchHistoryService) *BatchHandler {
	return &BatchHandler{svc: svc}
}

// Recent lists recorded batch runs, newest first.
func (h *BatchHandler) Recent(c *gin.Context) {
	const op = "BatchHandler.Recent"

	limit, err := queryInt(c, op, "limit", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	runs, err := h.svc.Recent(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(runs),
		"runs":  runs,
	})
}
