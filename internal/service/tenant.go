package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
	"github.com/okonomi-dev/cloud-warden/internal/auth"
	"github.com/okonomi-dev/cloud-warden/internal/db"
	"github.com/okonomi-dev/cloud-warden/internal/metrics"
)

// TenantStore is the persistence surface the tenant orchestrator needs.
// *db.Repository satisfies it.
type TenantStore interface {
	OperationLogStore
	CreateTenantWithAdmin(t *db.Tenant, admin *db.User) error
	GetTenant(id uuid.UUID) (*db.Tenant, error)
	GetTenants() ([]*db.Tenant, error)
	UpdateTenant(t *db.Tenant) error
	DeleteTenant(id uuid.UUID) error
}

// TenantService manages the tenant lifecycle.
type TenantService struct {
	guard   *auth.Guard
	store   TenantStore
	metrics *metrics.Collector
	obs     observer
}

func NewTenantService(guard *auth.Guard, store TenantStore, m *metrics.Collector, logger *zap.Logger) *TenantService {
	return &TenantService{
		guard:   guard,
		store:   store,
		metrics: m,
		obs:     observer{logger: logger, metrics: m},
	}
}

// FetchTenants lists the tenants visible to the principal: admins see every
// tenant, other users only their own.
func (s *TenantService) FetchTenants(ctx context.Context, user *db.User) (_ []*db.Tenant, err error) {
	done := s.obs.start("fetch_tenants", zap.String("user_id", user.ID.String()))
	defer func() { done(err) }()

	if user.Role == db.RoleAdmin {
		tenants, terr := s.store.GetTenants()
		if terr != nil {
			err = terr
			return nil, err
		}
		return tenants, nil
	}

	own, terr := s.store.GetTenant(user.TenantID)
	if terr != nil {
		err = terr
		return nil, err
	}
	return []*db.Tenant{own}, nil
}

// CreateTenant creates a tenant together with its first admin user. The two
// writes are inseparable: a tenant must never exist without an admin able to
// manage it.
func (s *TenantService) CreateTenant(ctx context.Context, user *db.User, tenantDraft *db.Tenant, adminDraft *db.User) (_ *db.Tenant, _ *db.User, err error) {
	done := s.obs.start("create_tenant",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_name", tenantDraft.Name),
	)
	defer func() { done(err) }()

	if user.Role != db.RoleAdmin {
		err = apperr.Forbidden("user %s can't create tenants", user.ID)
		return nil, nil, err
	}
	if tenantDraft.Name == "" || tenantDraft.Email == "" {
		err = apperr.BadRequest("tenant name and email are required")
		return nil, nil, err
	}
	if adminDraft.Email == "" || adminDraft.Name == "" {
		err = apperr.BadRequest("admin user email and name are required")
		return nil, nil, err
	}

	now := time.Now().UTC()
	if tenantDraft.ID == uuid.Nil {
		tenantDraft.ID = uuid.New()
	}
	tenantDraft.CreatedAt = now
	tenantDraft.UpdatedAt = now

	adminDraft.ID = uuid.New()
	adminDraft.CreatedAt = now
	adminDraft.UpdatedAt = now

	if err = s.store.CreateTenantWithAdmin(tenantDraft, adminDraft); err != nil {
		return nil, nil, err
	}

	if err = recordOperation(s.store, s.metrics, user, tenantDraft.ID, "tenant created: "+tenantDraft.Name); err != nil {
		return nil, nil, err
	}
	return tenantDraft, adminDraft, nil
}

func (s *TenantService) UpdateTenant(ctx context.Context, user *db.User, tenant *db.Tenant) (_ *db.Tenant, err error) {
	done := s.obs.start("update_tenant",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", tenant.ID.String()),
	)
	defer func() { done(err) }()

	if err = s.guard.AuthorizeTenant(user, tenant); err != nil {
		return nil, err
	}
	if user.Role != db.RoleAdmin {
		err = apperr.Forbidden("user %s can't update tenant %s", user.ID, tenant.ID)
		return nil, err
	}
	if tenant.Name == "" || tenant.Email == "" {
		err = apperr.BadRequest("tenant name and email are required")
		return nil, err
	}

	tenant.UpdatedAt = time.Now().UTC()
	if err = s.store.UpdateTenant(tenant); err != nil {
		return nil, err
	}

	if err = recordOperation(s.store, s.metrics, user, tenant.ID, "tenant updated: "+tenant.Name); err != nil {
		return nil, err
	}
	return tenant, nil
}

// DeleteTenant removes the tenant; owned users, environments, groups and
// schedules cascade. The tenant's own audit trail goes with it, so no entry
// is written for this one operation.
func (s *TenantService) DeleteTenant(ctx context.Context, user *db.User, tenantID uuid.UUID) (err error) {
	done := s.obs.start("delete_tenant",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", tenantID.String()),
	)
	defer func() { done(err) }()

	if user.TenantID != tenantID || user.Role != db.RoleAdmin {
		err = apperr.Forbidden("user %s can't delete tenant %s", user.ID, tenantID)
		return err
	}

	return s.store.DeleteTenant(tenantID)
}
