package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/analyses"
	"lexguard-backend/internal/chat"
	"lexguard-backend/internal/extract"
	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/llm/openai"
	"lexguard-backend/internal/services/health"
	"lexguard-backend/internal/shared/config"
	"lexguard-backend/internal/shared/server"
	"lexguard-backend/internal/shared/server/middleware"
	"lexguard-backend/internal/shared/storage/db"
	"lexguard-backend/internal/shared/telemetry"
	"lexguard-backend/internal/usage"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	LLM    llm.Client

	Extractor       *extract.Extractor
	Generator       *analyses.Generator
	AnalysesService *analyses.Service
	PlanStore       usage.PlanStore
	Gate            *usage.Gate
	ChatService     *chat.Service
	ExtractHandler  *extract.Handler
	AnalysisHandler *analyses.Handler
	ChatHandler     *chat.Handler
	UsageHandler    *usage.Handler
	HealthService   *health.Service
}

// Build prepares every dependency and the router. The provider client is
// built from cfg.LLM.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	client, err := openai.NewClient(openai.Options{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return BuildWithLLM(ctx, cfg, client)
}

// BuildWithLLM is Build with an injected provider client.
func BuildWithLLM(ctx context.Context, cfg config.Config, client llm.Client) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, LLM: client}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Health:          app.HealthService,
		ExtractHandler:  app.ExtractHandler,
		AnalysisHandler: app.AnalysisHandler,
		ChatHandler:     app.ChatHandler,
		UsageHandler:    app.UsageHandler,
		RateLimiter:     middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_stores", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_stores", map[string]any{"reason": "database connect failed", "err": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildServices(app *App) {
	cfg := app.Config

	var (
		analysisRepo analyses.Repo
		planStore    usage.PlanStore
		chatStore    chat.Store
		onDelete     func(ctx context.Context, analysisID string) error
	)
	if app.DB != nil {
		analysisRepo = &analyses.PGRepo{DB: app.DB}
		planStore = usage.NewPGStore(app.DB)
		chatStore = &chat.PGStore{DB: app.DB}
	} else {
		analysisRepo = analyses.NewMemoryRepo()
		planStore = usage.NewMemoryStore()
		mem := chat.NewMemoryStore()
		chatStore = mem
		onDelete = mem.DeleteByAnalysis
	}

	ocrEnabled := cfg.Extract.OCREnabled && extract.OCRSupported
	if cfg.Extract.OCREnabled && !extract.OCRSupported {
		telemetry.Warn("bootstrap.ocr_unavailable", map[string]any{"reason": "binary built without the ocr tag"})
	}
	app.Extractor = extract.New(extract.Options{
		MinTextLength: cfg.Extract.MinTextLength,
		OCREnabled:    ocrEnabled,
		OCRMaxPages:   cfg.Extract.OCRMaxPages,
		OCRDPI:        cfg.Extract.OCRDPI,
		Rasterizer:    extract.DefaultRasterizer(),
		NewEngine:     extract.DefaultEngineFactory(),
	})

	app.Generator = &analyses.Generator{
		LLM:            app.LLM,
		MaxRedFlags:    cfg.Analysis.MaxRedFlags,
		MaxPromptChars: cfg.Analysis.MaxPromptChars,
		MinTextLength:  cfg.Extract.MinTextLength,
	}
	app.AnalysesService = &analyses.Service{
		Repo:          analysisRepo,
		PromptVersion: cfg.Analysis.PromptVersion,
		MaxRedFlags:   cfg.Analysis.MaxRedFlags,
		OnDelete:      onDelete,
	}

	app.PlanStore = planStore
	app.Gate = usage.NewGate(planStore)
	app.ChatService = &chat.Service{
		Store:          chatStore,
		Analyses:       app.AnalysesService,
		Gate:           app.Gate,
		LLM:            app.LLM,
		GroundedWindow: cfg.Chat.GroundedHistory,
		GeneralWindow:  cfg.Chat.GeneralHistory,
	}

	app.ExtractHandler = extract.NewHandler(app.Extractor, cfg.Extract.MaxUploadBytes)
	app.AnalysisHandler = analyses.NewHandler(app.Generator, app.AnalysesService)
	app.ChatHandler = chat.NewHandler(app.ChatService)
	app.UsageHandler = usage.NewHandler(planStore, app.Gate)

	if app.DB != nil {
		app.HealthService = health.NewService(app.DB, ocrEnabled)
	} else {
		app.HealthService = health.NewService(nil, ocrEnabled)
	}
}
