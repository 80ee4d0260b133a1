package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-Id"

// quietPaths are logged at debug level; scrapers and probes hit them constantly.
var quietPaths = map[string]bool{
	"/ping":    true,
	"/metrics": true,
}

func RequestLogger(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)
		c.Set("request_id", reqID)

		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if id := c.Param("id"); id != "" {
			fields["conversation_id"] = id
		}
		if acc := c.Query("account_id"); acc != "" {
			fields["account_id"] = acc
		}
		entry := l.WithFields(fields)

		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		case quietPaths[path]:
			entry.Debug("request")
		default:
			entry.Info("request")
		}
	}
}

// Recovery turns a panic into a logged 500 with the API error shape.
func Recovery(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				reqID, _ := c.Get("request_id")
				l.WithFields(logrus.Fields{
					"request_id": reqID,
					"path":       c.Request.URL.Path,
					"panic":      rec,
				}).Error("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    "INTERNAL",
					"message": http.StatusText(http.StatusInternalServerError),
				})
			}
		}()
		c.Next()
	}
}
