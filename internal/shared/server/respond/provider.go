package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/shared/telemetry"
)

// ProviderError reports an upstream LLM failure with a generic message. The
// raw upstream body goes to the log only.
func ProviderError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	fields := map[string]any{
		"err":        err,
		"request_id": c.GetString("requestId"),
	}
	if pe, ok := llm.AsProviderError(err); ok {
		fields["kind"] = pe.Kind
		fields["upstream_status"] = pe.StatusCode
		if pe.Body != "" {
			fields["upstream_body"] = pe.Body
		}
		if pe.Kind == llm.KindCredentials {
			status = http.StatusInternalServerError
		}
	}
	telemetry.Error("llm.provider_error", fields)
	Error(c, status, "PROVIDER_ERROR", "The analysis service is temporarily unavailable. Please try again.", nil)
}
