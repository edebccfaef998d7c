package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okonomi-dev/cloud-warden/internal/api/middleware"
	"github.com/okonomi-dev/cloud-warden/internal/cloud"
)

func (h *Handler) resourceFromPath(c *gin.Context) (cloud.Resource, bool) {
	serviceType := c.Param("service")
	if !cloud.KnownServiceType(serviceType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown service type: " + serviceType})
		return cloud.Resource{}, false
	}
	return cloud.Resource{
		ID:          c.Param("resource_id"),
		ServiceType: cloud.ServiceType(serviceType),
		Region:      c.Param("region"),
	}, true
}

func (h *Handler) ListMonitors(c *gin.Context) {
	_, env, ok := h.scheduleScope(c)
	if !ok {
		return
	}
	res, ok := h.resourceFromPath(c)
	if !ok {
		return
	}

	monitors, err := h.monitors.FetchMonitors(c.Request.Context(), middleware.Principal(c), env, res)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"monitors": monitors})
}

func (h *Handler) SaveMonitor(c *gin.Context) {
	_, env, ok := h.scheduleScope(c)
	if !ok {
		return
	}
	res, ok := h.resourceFromPath(c)
	if !ok {
		return
	}

	saved, err := h.monitors.SaveMonitor(c.Request.Context(), middleware.Principal(c), res, env)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

type GraphRequest struct {
	MetricName string    `json:"metric_name" binding:"required"`
	Statistic  string    `json:"statistic" binding:"required,oneof=Average Sum Minimum Maximum"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	Period     int       `json:"period" binding:"required,min=60"`
}

func (h *Handler) GetGraph(c *gin.Context) {
	_, env, ok := h.scheduleScope(c)
	if !ok {
		return
	}
	res, ok := h.resourceFromPath(c)
	if !ok {
		return
	}

	var req GraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chart, err := h.monitors.Graph(c.Request.Context(), middleware.Principal(c), res, env, cloud.MonitorGraph{
		MetricName: req.MetricName,
		Statistic:  req.Statistic,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Period:     req.Period,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}
