package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/api/middleware"
	"github.com/okonomi-dev/cloud-warden/internal/db"
)

type CreateEnvironmentRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=255"`
	AwsAccountID string `json:"aws_account_id" binding:"required,len=12"`
	AwsRoleName  string `json:"aws_role_name" binding:"required"`
}

func (h *Handler) ListEnvironments(c *gin.Context) {
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

	envs, err := h.repo.GetAwsEnvironmentsByTenant(tenantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"aws_environments": envs})
}

func (h *Handler) CreateEnvironment(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}

	user := middleware.Principal(c)
	if user.TenantID != tenantID || user.Role != db.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req CreateEnvironmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	env := &db.AwsEnvironment{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         req.Name,
		AwsAccountID: req.AwsAccountID,
		AwsRoleName:  req.AwsRoleName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.repo.CreateAwsEnvironment(env); err != nil {
		h.respondError(c, err)
		return
	}

	// The creating admin can use the environment right away.
	if err := h.repo.GrantUserEnvironment(user.ID, env.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, env)
}

func (h *Handler) DeleteEnvironment(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}
	envID, err := uuid.Parse(c.Param("env_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid environment id"})
		return
	}

	user := middleware.Principal(c)
	if user.TenantID != tenantID || user.Role != db.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.repo.DeleteAwsEnvironment(envID, tenantID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GrantUserEnvironment(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	envID, err := uuid.Parse(c.Param("env_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid environment id"})
		return
	}

	actor := middleware.Principal(c)
	if actor.TenantID != tenantID || actor.Role != db.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	// Both the target user and environment must live in this tenant.
	target, err := h.repo.GetUser(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if target.TenantID != tenantID {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if _, err := h.repo.GetAwsEnvironment(envID, tenantID); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.repo.GrantUserEnvironment(userID, envID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
