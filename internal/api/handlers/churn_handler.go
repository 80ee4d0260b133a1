package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/convolens/internal/services"
)

type ChurnHandler struct {
	svc services.ChurnService
}

func NewChurnHandler(svc services.ChurnService) *ChurnHandler {
	return &ChurnHandler{svc: svc}
}

func (h *ChurnHandler) Get(c *gin.Context) {
	res, err := h.svc.Compute(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ChurnHandler) Batch(c *gin.Context) {
	req, ok := bindBatch(c, "ChurnHandler.Batch")
	if !ok {
		return
	}
	res, err := h.svc.Batch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ChurnHandler) HighRisk(c *gin.Context) {
	const op = "ChurnHandler.HighRisk"

	limit, err := queryInt(c, op, "limit", 50)
	if err != nil {
		writeError(c, err)
		return
	}
	rows, err := h.svc.HighRisk(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":         len(rows),
		"conversations": rows,
	})
}

func (h *ChurnHandler) Summary(c *gin.Context) {
	dist, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}
