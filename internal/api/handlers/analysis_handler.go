package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/convolens/internal/services"
)

// bindBatch reads an optional batch body; an empty body selects the default
// batch.
func bindBatch(c *gin.Context, op string) (services.BatchRequest, bool) {
	var req services.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, badRequest(op, "invalid json body"))
		return req, false
	}
	return req, true
}

type AnalysisHandler struct {
	svc services.AnalysisService
}

func NewAnalysisHandler(svc services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

func (h *AnalysisHandler) Batch(c *gin.Context) {
	req, ok := bindBatch(c, "AnalysisHandler.Batch")
	if !ok {
		return
	}
	res, err := h.svc.AnalyzeBatch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
