package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexguard-backend/internal/bootstrap"
	"lexguard-backend/internal/shared/config"
	"lexguard-backend/internal/shared/server"
	"lexguard-backend/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.invalid", map[string]any{"err": err})
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(config.IsDevLike(cfg.Env))
	if err == nil {
		restore := telemetry.SetLogger(logger)
		defer restore()
	}
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx)
	if err != nil {
		telemetry.Warn("tracing.init_failed", map[string]any{"err": err})
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(sctx)
		}()
	}

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"err": err})
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		telemetry.Info("server.start", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Error("server.failed", map[string]any{"err": err})
			stop()
		}
	}()

	<-ctx.Done()
	telemetry.Info("server.shutdown", nil)
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		telemetry.Error("server.shutdown_failed", map[string]any{"err": err})
	}
}
