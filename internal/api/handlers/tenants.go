package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/api/middleware"
	"github.com/okonomi-dev/cloud-warden/internal/db"
)

type CreateTenantRequest struct {
	Tenant struct {
		Name  string `json:"name" binding:"required,min=1,max=255"`
		Email string `json:"email" binding:"required,email"`
		Tel   string `json:"tel"`
	} `json:"tenant" binding:"required"`
	User struct {
		Name  string `json:"name" binding:"required,min=1,max=255"`
		Email string `json:"email" binding:"required,email"`
	} `json:"user" binding:"required"`
}

func (h *Handler) ListTenants(c *gin.Context) {
	user := middleware.Principal(c)

	tenants, err := h.tenants.FetchTenants(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

func (h *Handler) CreateTenant(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := middleware.Principal(c)
	tenantDraft := &db.Tenant{
		Name:  req.Tenant.Name,
		Email: req.Tenant.Email,
		Tel:   req.Tenant.Tel,
	}
	adminDraft := &db.User{
		Name:  req.User.Name,
		Email: req.User.Email,
	}

	tenant, admin, err := h.tenants.CreateTenant(c.Request.Context(), user, tenantDraft, adminDraft)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tenant": tenant, "user": admin})
}

func (h *Handler) UpdateTenant(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}

	var req struct {
		Name  string `json:"name" binding:"required,min=1,max=255"`
		Email string `json:"email" binding:"required,email"`
		Tel   string `json:"tel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := middleware.Principal(c)
	target, err := h.repo.GetTenant(tenantID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	target.Name = req.Name
	target.Email = req.Email
	target.Tel = req.Tel

	tenant, err := h.tenants.UpdateTenant(c.Request.Context(), user, target)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *Handler) DeleteTenant(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}

	user := middleware.Principal(c)
	if err := h.tenants.DeleteTenant(c.Request.Context(), user, tenantID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListOperationLogs(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}

	user := middleware.Principal(c)
	if user.TenantID != tenantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	logs, err := h.repo.GetOperationLogsByTenant(tenantID, 100, 0)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operation_logs": logs})
}

// DeleteOperationLog hides an audit entry from listings. The row itself is
// never removed.
func (h *Handler) DeleteOperationLog(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}
	logID, err := uuid.Parse(c.Param("log_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log id"})
		return
	}

	user := middleware.Principal(c)
	if user.TenantID != tenantID || user.Role != db.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.repo.SoftDeleteOperationLog(logID, tenantID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
