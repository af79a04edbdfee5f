package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	AnalysisIDKey = "analysisId"
	ThreadIDKey   = "threadId"
	TierKey       = "extractTier"
)

var contextLogFields = map[string]string{
	AnalysisIDKey: "analysis_id",
	ThreadIDKey:   "thread_id",
	TierKey:       "extract_tier",
}

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"is_guest":    IsGuest(c),
			"client_ip":   c.ClientIP(),
		}
		for key, field := range contextLogFields {
			if v := c.GetString(key); v != "" {
				fields[field] = v
			}
		}
		telemetry.Info("request.complete", fields)
	}
}
