package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/api/handlers"
	"github.com/okonomi-dev/cloud-warden/internal/api/middleware"
	"github.com/okonomi-dev/cloud-warden/internal/config"
	"github.com/okonomi-dev/cloud-warden/internal/db"
)

type Server struct {
	Config *config.Config
	Router *gin.Engine
}

func NewServer(cfg *config.Config, repo *db.Repository, h *handlers.Handler, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	server := &Server{
		Config: cfg,
		Router: router,
	}

	server.setupRoutes(repo, h)
	return server
}

func (s *Server) setupRoutes(repo *db.Repository, h *handlers.Handler) {
	s.Router.GET("/health", handlers.HealthCheck)

	api := s.Router.Group("/api/v1")
	api.Use(middleware.AuthRequired(s.Config.Auth.JWTSecret, repo))

	// Tenants
	api.GET("/tenants", h.ListTenants)
	api.POST("/tenants", h.CreateTenant)
	api.PUT("/tenants/:tenant_id", h.UpdateTenant)
	api.DELETE("/tenants/:tenant_id", h.DeleteTenant)
	api.GET("/tenants/:tenant_id/operation-logs", h.ListOperationLogs)
	api.DELETE("/tenants/:tenant_id/operation-logs/:log_id", h.DeleteOperationLog)

	// AWS environments
	api.GET("/tenants/:tenant_id/aws-environments", h.ListEnvironments)
	api.POST("/tenants/:tenant_id/aws-environments", h.CreateEnvironment)
	api.DELETE("/tenants/:tenant_id/aws-environments/:env_id", h.DeleteEnvironment)
	api.PUT("/tenants/:tenant_id/users/:user_id/aws-environments/:env_id", h.GrantUserEnvironment)

	// Notification groups
	api.GET("/tenants/:tenant_id/notification-groups", h.ListNotificationGroups)
	api.POST("/tenants/:tenant_id/notification-groups", h.CreateNotificationGroup)
	api.PUT("/tenants/:tenant_id/notification-groups/:group_id", h.UpdateNotificationGroup)
	api.DELETE("/tenants/:tenant_id/notification-groups/:group_id", h.DeleteNotificationGroup)

	// Resource-scoped schedules and monitors
	resources := api.Group("/tenants/:tenant_id/aws-environments/:env_id/regions/:region/services/:service/resources/:resource_id")
	{
		resources.GET("/schedules", h.ListSchedules)
		resources.POST("/schedules", h.CreateSchedule)
		resources.PUT("/schedules/:event_id", h.UpdateSchedule)
		resources.DELETE("/schedules/:event_id", h.DeleteSchedule)
		resources.POST("/schedules/:event_id/activation", h.RetryScheduleActivation)

		resources.GET("/monitors", h.ListMonitors)
		resources.POST("/monitors", h.SaveMonitor)
		resources.POST("/graph", h.GetGraph)
	}
}
