package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/api/middleware"
	"github.com/okonomi-dev/cloud-warden/internal/db"
	"github.com/okonomi-dev/cloud-warden/internal/schedule"
	"github.com/okonomi-dev/cloud-warden/internal/service"
)

// scheduleScope resolves the tenant and environment addressed by the nested
// schedule routes. The environment lookup is already tenant-scoped, so a
// cross-tenant environment id comes back NotFound.
func (h *Handler) scheduleScope(c *gin.Context) (*db.Tenant, *db.AwsEnvironment, bool) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return nil, nil, false
	}
	envID, err := uuid.Parse(c.Param("env_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid environment id"})
		return nil, nil, false
	}

	tenant, err := h.repo.GetTenant(tenantID)
	if err != nil {
		h.respondError(c, err)
		return nil, nil, false
	}
	env, err := h.repo.GetAwsEnvironment(envID, tenantID)
	if err != nil {
		h.respondError(c, err)
		return nil, nil, false
	}
	return tenant, env, true
}

func scheduleResponse(result *service.SaveScheduleResult) gin.H {
	resp := gin.H{
		"schedule":   scheduleView(result.Schedule),
		"activation": result.Activation,
	}
	if result.ActivationErr != nil {
		resp["activation_error"] = result.ActivationErr.Error()
	}
	return resp
}

func scheduleView(s *schedule.Schedule) gin.H {
	view := gin.H{
		"event_id":           s.EventID,
		"aws_environment_id": s.AwsEnvironmentID,
		"resource_id":        s.ResourceID,
		"region":             s.Region,
		"service_type":       s.Variant.ServiceType(),
		"action":             s.Variant.Action(),
		"params":             s.Variant.Params(),
	}
	if s.Trigger.Recurring() {
		view["cron"] = s.Trigger.CronExpression
	} else if s.Trigger.RunAt != nil {
		view["run_at"] = s.Trigger.RunAt
	}
	if s.NotifyGroupID != nil {
		view["notification_group_id"] = s.NotifyGroupID
	}
	return view
}

func (h *Handler) ListSchedules(c *gin.Context) {
	tenant, env, ok := h.scheduleScope(c)
	if !ok {
		return
	}

	schedules, err := h.schedules.FetchSchedules(
		c.Request.Context(),
		middleware.Principal(c),
		tenant, env,
		c.Param("region"), c.Param("service"), c.Param("resource_id"),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]gin.H, 0, len(schedules))
	for _, s := range schedules {
		views = append(views, scheduleView(s))
	}
	c.JSON(http.StatusOK, gin.H{"schedules": views})
}

func (h *Handler) saveSchedule(c *gin.Context, eventID string) {
	tenant, env, ok := h.scheduleScope(c)
	if !ok {
		return
	}

	fields := map[string]any{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Construction and validation run before any authorization work.
	sched, err := schedule.Create(schedule.Input{
		ResourceID:       c.Param("resource_id"),
		ServiceType:      c.Param("service"),
		Region:           c.Param("region"),
		AwsEnvironmentID: env.ID,
		EventID:          eventID,
		Fields:           fields,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.schedules.SaveSchedule(c.Request.Context(), middleware.Principal(c), tenant, env, sched)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scheduleResponse(result))
}

func (h *Handler) CreateSchedule(c *gin.Context) {
	h.saveSchedule(c, "")
}

func (h *Handler) UpdateSchedule(c *gin.Context) {
	h.saveSchedule(c, c.Param("event_id"))
}

func (h *Handler) RetryScheduleActivation(c *gin.Context) {
	tenant, env, ok := h.scheduleScope(c)
	if !ok {
		return
	}
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event id"})
		return
	}

	if err := h.schedules.RetryActivation(c.Request.Context(), middleware.Principal(c), tenant, env, eventID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activation": service.ActivationSucceeded})
}

func (h *Handler) DeleteSchedule(c *gin.Context) {
	tenant, env, ok := h.scheduleScope(c)
	if !ok {
		return
	}
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event id"})
		return
	}

	if err := h.schedules.DeleteSchedule(c.Request.Context(), middleware.Principal(c), tenant, env, eventID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
