package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/tuma-app/tuma/backend/pkg/metrics"
)

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	counter := metrics.HTTPRequests.WithLabelValues("GET", "/items/:id", "404")
	before := testutil.ToFloat64(counter)

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/items/:id", func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"error": "item not found"}) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}
	require.Equal(t, before+2, testutil.ToFloat64(counter))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}
