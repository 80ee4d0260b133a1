package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestGinMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/churn/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/churn/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	body := scrape(t)
	assert.Contains(t, body, `convolens_http_requests_total{method="GET",route="/churn/:id",status="204"} 3`)
	assert.NotContains(t, body, `route="/churn/a"`)
}

func TestObserveChurn(t *testing.T) {
	ObserveChurn(88, "high")
	body := scrape(t)
	assert.Contains(t, body, `convolens_churn_scores_total{level="high"}`)
	assert.Contains(t, body, "convolens_churn_score_bucket")
}
