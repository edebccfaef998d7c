package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/api"
	"github.com/okonomi-dev/cloud-warden/internal/api/handlers"
	"github.com/okonomi-dev/cloud-warden/internal/auth"
	"github.com/okonomi-dev/cloud-warden/internal/cloud"
	"github.com/okonomi-dev/cloud-warden/internal/config"
	"github.com/okonomi-dev/cloud-warden/internal/db"
	"github.com/okonomi-dev/cloud-warden/internal/metrics"
	"github.com/okonomi-dev/cloud-warden/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	var logger *zap.Logger
	if cfg.Server.Mode == "release" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer logger.Sync()

	// Database
	conn, err := db.NewConnection(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.Migrate(conn, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo := db.NewRepository(conn)

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// External provider ports. The dry-run provider answers until real
	// adapters are configured; monitoring calls are rate limited either way.
	provider := cloud.NewDryRunProvider(logger)
	monitoring := cloud.NewRateLimitedMonitoringPort(provider, cfg.Provider.RequestsPerSecond, cfg.Provider.Burst)

	guard := auth.NewGuard(logger)

	tenantSvc := service.NewTenantService(guard, repo, collector, logger)
	notificationSvc := service.NewNotificationService(guard, repo, collector, logger)
	scheduleSvc := service.NewScheduleService(guard, repo, provider, provider, collector, logger)
	monitorSvc := service.NewMonitorService(guard, monitoring, provider, repo, collector, logger)

	h := handlers.NewHandler(repo, tenantSvc, notificationSvc, scheduleSvc, monitorSvc, logger)
	server := api.NewServer(cfg, repo, h, logger)

	server.Router.GET("/metrics", func(c *gin.Context) {
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("API server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
