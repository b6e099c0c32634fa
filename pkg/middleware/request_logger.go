package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuma-app/tuma/backend/pkg/logger"
	"github.com/tuma-app/tuma/backend/pkg/metrics"
)

// RequestLogger writes one structured access-log entry per request and records the
// HTTP request metrics. Routes are labelled by their gin pattern to bound cardinality.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		method := c.Request.Method

		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

		fields := []interface{}{
			"method", method,
			"route", route,
			"status", status,
			"latencyMs", elapsed.Milliseconds(),
			"ip", c.ClientIP(),
		}
		if uid := UserID(c); uid != "" {
			fields = append(fields, "userId", uid)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			logger.L().Errorw("request", fields...)
		case status >= 400:
			logger.L().Warnw("request", fields...)
		default:
			logger.L().Infow("request", fields...)
		}
	}
}
