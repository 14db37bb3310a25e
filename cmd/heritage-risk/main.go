package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/atlasheritage/heritage-risk/internal/alerts"
	"github.com/atlasheritage/heritage-risk/internal/api"
	"github.com/atlasheritage/heritage-risk/internal/batch"
	"github.com/atlasheritage/heritage-risk/internal/config"
	"github.com/atlasheritage/heritage-risk/internal/engine"
	"github.com/atlasheritage/heritage-risk/internal/logging"
	"github.com/atlasheritage/heritage-risk/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// High-priority assessments fan out through the broadcaster; a log sink
	// subscriber makes escalations visible even with no external consumer.
	broadcaster := alerts.NewBroadcaster()
	alertID, alertCh := broadcaster.Subscribe()
	go func() {
		for a := range alertCh {
			slog.Warn("high-priority assessment",
				"site", a.SiteID, "threat", a.ThreatType,
				"magnitude", a.Magnitude, "priority", a.Priority)
		}
	}()

	eng := engine.New(db, engine.NewProfileCache(cfg.Cache.TTL), broadcaster)

	// Batch import manager for bulk survey submissions
	mgr := batch.NewManager(cfg, eng)
	mgr.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.API.RateLimitRPS))

	handler := api.NewHandler(eng, mgr)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	broadcaster.Unsubscribe(alertID)
	broadcaster.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
