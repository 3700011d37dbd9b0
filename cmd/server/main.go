package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/stockwatch/internal/api"
	"github.com/andresuchdata/stockwatch/internal/cache"
	"github.com/andresuchdata/stockwatch/internal/config"
	"github.com/andresuchdata/stockwatch/internal/inventory"
	"github.com/andresuchdata/stockwatch/internal/service"
	"github.com/andresuchdata/stockwatch/internal/storage"
	"github.com/andresuchdata/stockwatch/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage")
	}
	defer backend.Close()

	store, err := inventory.Open(ctx, backend)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load inventory")
	}

	dashboardCache, err := cache.NewDashboardCache(ctx, cfg.Cache, cfg.Storage.Redis)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Dashboard cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}
	defer dashboardCache.Close()

	inventoryService := service.NewInventoryService(store, dashboardCache)
	defer inventoryService.Close()

	// Fire pending alerts once at startup so they show up in the logs.
	if _, err := inventoryService.Evaluate(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Initial alert evaluation failed")
	}

	router := api.NewRouter(&api.Services{InventoryService: inventoryService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("storage", cfg.Storage.Driver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
