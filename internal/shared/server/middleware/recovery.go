package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/shared/metrics"
	"lexguard-backend/internal/shared/server/respond"
	"lexguard-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 with the standard error body.
// Once the response has been written it only logs.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.ObservePanic(route)
			telemetry.Error("http.panic", map[string]any{
				"request_id":  RequestIDFromContext(c),
				"panic":       fmt.Sprint(rec),
				"stack":       string(debug.Stack()),
				"route":       route,
				"method":      c.Request.Method,
				"analysis_id": c.GetString(AnalysisIDKey),
				"thread_id":   c.GetString(ThreadIDKey),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
