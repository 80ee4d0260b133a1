package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/convolens/internal/models"
	"github.com/yoockh/convolens/internal/services"
	"github.com/yoockh/convolens/internal/utils"
)

type ConversationHandler struct {
	svc      services.ConversationService
	analysis services.AnalysisService
}

func NewConversationHandler(svc services.ConversationService, analysis services.AnalysisService) *ConversationHandler {
	return &ConversationHandler{svc: svc, analysis: analysis}
}

type createConversationRequest struct {
	AccountID       string   `json:"account_id"`
	ExternalID      *string  `json:"external_id"`
	Transcript      string   `json:"transcript" binding:"required"`
	Date            string   `json:"date"`
	DurationMinutes *float64 `json:"duration_minutes"`
	Analyze         bool     `json:"analyze"`
}

func (h *ConversationHandler) Create(c *gin.Context) {
	const op = "ConversationHandler.Create"

	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	date, err := parseDate(req.Date, false)
	if err != nil {
		writeError(c, badRequest(op, "date must be YYYY-MM-DD or RFC3339"))
		return
	}

	row, err := h.svc.Create(c.Request.Context(), services.CreateConversationInput{
		AccountID:       req.AccountID,
		ExternalID:      req.ExternalID,
		Transcript:      req.Transcript,
		Date:            date,
		DurationMinutes: req.DurationMinutes,
		Analyze:         req.Analyze,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if row.AnalysisQueued {
		status = http.StatusAccepted
	}
	c.JSON(status, row)
}

func (h *ConversationHandler) List(c *gin.Context) {
	const op = "ConversationHandler.List"

	start, end, err := dateRange(c, op)
	if err != nil {
		writeError(c, err)
		return
	}
	limit, err := queryInt(c, op, "limit", 0)
	if err != nil {
		writeError(c, err)
		return
	}

	rows, err := h.svc.List(c.Request.Context(), models.ConversationFilter{
		AccountID: c.Query("account_id"),
		StartDate: start,
		EndDate:   end,
		Limit:     limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":         len(rows),
		"conversations": rows,
	})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	row, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *ConversationHandler) Analyze(c *gin.Context) {
	out, err := h.analysis.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
