package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/convolens/internal/api/handlers"
	"github.com/yoockh/convolens/internal/metrics"
)

type Deps struct {
	Conversation *handlers.ConversationHandler
	Analysis     *handlers.AnalysisHandler
	Churn        *handlers.ChurnHandler
	Trend        *handlers.TrendHandler
	Batch        *handlers.BatchHandler
	// WS is nil when no Redis is configured.
	WS *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	conv := r.Group("/conversations")
	conv.POST("", d.Conversation.Create)
	conv.GET("", d.Conversation.List)
	conv.GET("/:id", d.Conversation.Get)
	conv.POST("/:id/analyze", d.Conversation.Analyze)

	r.POST("/analysis/batch", d.Analysis.Batch)
	r.GET("/batches", d.Batch.Recent)

	ch := r.Group("/churn")
	ch.GET("/high-risk", d.Churn.HighRisk)
	ch.GET("/summary", d.Churn.Summary)
	ch.POST("/batch", d.Churn.Batch)
	ch.GET("/:id", d.Churn.Get)

	tr := r.Group("/trends")
	tr.POST("/recompute", d.Trend.Recompute)
	tr.GET("", d.Trend.Series)
	tr.GET("/forecast", d.Trend.Forecast)
	tr.GET("/anomalies", d.Trend.Anomalies)
	tr.GET("/insights", d.Trend.Insights)

	if d.WS != nil {
		r.GET("/ws/analysis", d.WS.AnalysisFeed)
	}
}
