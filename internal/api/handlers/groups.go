package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/api/middleware"
	"github.com/okonomi-dev/cloud-warden/internal/db"
)

type SaveGroupRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=255"`
	Destinations []struct {
		Type    string `json:"type" binding:"required,oneof=email phone"`
		Address string `json:"address" binding:"required"`
	} `json:"destinations" binding:"required,min=1"`
}

func (r SaveGroupRequest) toModel(tenantID uuid.UUID) *db.NotificationGroup {
	group := &db.NotificationGroup{
		TenantID: tenantID,
		Name:     r.Name,
	}
	for _, d := range r.Destinations {
		group.Destinations = append(group.Destinations, db.Destination{Type: d.Type, Address: d.Address})
	}
	return group
}

func (h *Handler) ListNotificationGroups(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}

	tenant, err := h.repo.GetTenant(tenantID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	groups, err := h.notifications.FetchGroups(c.Request.Context(), middleware.Principal(c), tenant)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification_groups": groups})
}

func (h *Handler) CreateNotificationGroup(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}

	var req SaveGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.notifications.SaveGroup(c.Request.Context(), middleware.Principal(c), req.toModel(tenantID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *Handler) UpdateNotificationGroup(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}
	groupID, err := uuid.Parse(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group id"})
		return
	}

	var req SaveGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group := req.toModel(tenantID)
	group.ID = groupID

	saved, err := h.notifications.SaveGroup(c.Request.Context(), middleware.Principal(c), group)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) DeleteNotificationGroup(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}
	groupID, err := uuid.Parse(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group id"})
		return
	}

	if err := h.notifications.DeleteGroup(c.Request.Context(), middleware.Principal(c), tenantID, groupID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
