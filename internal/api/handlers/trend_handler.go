package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/convolens/internal/models"
	"github.com/yoockh/convolens/internal/services"
)

type TrendHandler struct {
	svc services.TrendService
}

func NewTrendHandler(svc services.TrendService) *TrendHandler {
	return &TrendHandler{svc: svc}
}

func trendQuery(c *gin.Context, op string) (services.TrendQuery, error) {
	start, end, err := dateRange(c, op)
	if err != nil {
		return services.TrendQuery{}, err
	}
	return services.TrendQuery{
		AccountID: c.Query("account_id"),
		StartDate: start,
		EndDate:   end,
	}, nil
}

func accountLabel(q services.TrendQuery) string {
	if q.AccountID == "" {
		return models.GlobalAccount
	}
	return q.AccountID
}

func (h *TrendHandler) Recompute(c *gin.Context) {
	q, err := trendQuery(c, "TrendHandler.Recompute")
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.svc.Recompute(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *TrendHandler) Series(c *gin.Context) {
	q, err := trendQuery(c, "TrendHandler.Series")
	if err != nil {
		writeError(c, err)
		return
	}
	points, err := h.svc.Series(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id": accountLabel(q),
		"trends":     points,
	})
}

func (h *TrendHandler) Forecast(c *gin.Context) {
	const op = "TrendHandler.Forecast"

	q, err := trendQuery(c, op)
	if err != nil {
		writeError(c, err)
		return
	}
	days, err := queryInt(c, op, "days", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	fc, err := h.svc.Forecast(c.Request.Context(), q, days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id": accountLabel(q),
		"forecast":   fc,
	})
}

func (h *TrendHandler) Anomalies(c *gin.Context) {
	q, err := trendQuery(c, "TrendHandler.Anomalies")
	if err != nil {
		writeError(c, err)
		return
	}
	an, err := h.svc.Anomalies(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id": accountLabel(q),
		"anomalies":  an,
	})
}

func (h *TrendHandler) Insights(c *gin.Context) {
	const op = "TrendHandler.Insights"

	q, err := trendQuery(c, op)
	if err != nil {
		writeError(c, err)
		return
	}
	days, err := queryInt(c, op, "days", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	in, err := h.svc.Insights(c.Request.Context(), q, days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}
