package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
	"github.com/okonomi-dev/cloud-warden/internal/db"
	"github.com/okonomi-dev/cloud-warden/internal/service"
)

type Handler struct {
	repo          *db.Repository
	tenants       *service.TenantService
	notifications *service.NotificationService
	schedules     *service.ScheduleService
	monitors      *service.MonitorService
	logger        *zap.Logger
}

func NewHandler(
	repo *db.Repository,
	tenants *service.TenantService,
	notifications *service.NotificationService,
	schedules *service.ScheduleService,
	monitors *service.MonitorService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		repo:          repo,
		tenants:       tenants,
		notifications: notifications,
		schedules:     schedules,
		monitors:      monitors,
		logger:        logger,
	}
}

// respondError maps classified orchestration errors onto HTTP statuses.
// Unexpected errors are logged with full detail and returned opaque.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("unexpected error", zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
