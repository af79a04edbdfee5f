package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/analyses"
	"lexguard-backend/internal/chat"
	"lexguard-backend/internal/extract"
	"lexguard-backend/internal/services/health"
	"lexguard-backend/internal/shared/config"
	"lexguard-backend/internal/shared/metrics"
	"lexguard-backend/internal/shared/server/middleware"
	"lexguard-backend/internal/shared/server/respond"
	"lexguard-backend/internal/usage"
)

const (
	rateGroupAI      = "AI"
	rateGroupDefault = "DEFAULT"
)

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	ExtractHandler  *extract.Handler
	AnalysisHandler *analyses.Handler
	ChatHandler     *chat.Handler
	UsageHandler    *usage.Handler
	RateLimiter     *middleware.RateLimiter
}

// aiRoutes are the provider- or OCR-backed endpoints behind the stricter bucket.
var aiRoutes = map[string]struct{}{
	"/api/v1/extract":           {},
	"/api/v1/analyze":           {},
	"/api/v1/chat":              {},
	"/api/v1/analyses/:id/chat": {},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		metrics.Middleware(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.Env, "/api/v1/health", "/metrics"),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst},
				rateGroupAI:      {Rate: cfg.RateLimit.AIRPS, Burst: cfg.RateLimit.AIBurst},
			},
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		status, ok := deps.Health.Status(c.Request.Context())
		if !ok {
			respond.JSON(c, http.StatusServiceUnavailable, status)
			return
		}
		respond.OK(c, status)
	})
	registerMeRoutes(api)

	if deps.ExtractHandler != nil {
		deps.ExtractHandler.RegisterRoutes(api)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
		deps.AnalysisHandler.RegisterRecordRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
		deps.ChatHandler.RegisterThreadRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
		if config.IsDevLike(cfg.Env) {
			deps.UsageHandler.RegisterDevRoutes(api)
		}
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return rateGroupDefault
	}
	if _, ok := aiRoutes[c.FullPath()]; ok {
		return rateGroupAI
	}
	return rateGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
