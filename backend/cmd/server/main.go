package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"conduit/backend/internal/api"
	"conduit/backend/internal/services"
	"conduit/backend/pkg/config"
	"conduit/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel, cfg.ServiceName); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...",
		zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreDriver))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	router, sm, err := buildRouter(ctx, log, cfg)
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sm.Close(shutdownCtx); err != nil {
		log.Error("Failed to close services", zap.Error(err))
	}

	log.Info("Server exited")
}

// buildRouter opens the configured store and mounts the API on it.
func buildRouter(ctx context.Context, log *zap.Logger, cfg *config.Config) (*gin.Engine, *services.ServiceManager, error) {
	sm, err := services.NewServiceManager(ctx, log, cfg)
	if err != nil {
		return nil, nil, err
	}
	return api.NewRouter(sm, log), sm, nil
}
