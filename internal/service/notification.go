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

// NotificationStore is the persistence surface the notification orchestrator
// needs. *db.Repository satisfies it.
type NotificationStore interface {
	OperationLogStore
	GetNotificationGroupsByTenant(tenantID uuid.UUID) ([]*db.NotificationGroup, error)
	CreateNotificationGroup(g *db.NotificationGroup) error
	UpdateNotificationGroup(g *db.NotificationGroup) error
	DeleteNotificationGroup(id, tenantID uuid.UUID) error
}

// NotificationService manages tenant-scoped notification groups. All three
// operations are purely local; no external provider is involved.
type NotificationService struct {
	guard   *auth.Guard
	store   NotificationStore
	metrics *metrics.Collector
	obs     observer
}

func NewNotificationService(guard *auth.Guard, store NotificationStore, m *metrics.Collector, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		guard:   guard,
		store:   store,
		metrics: m,
		obs:     observer{logger: logger, metrics: m},
	}
}

func (s *NotificationService) FetchGroups(ctx context.Context, user *db.User, tenant *db.Tenant) (_ []*db.NotificationGroup, err error) {
	done := s.obs.start("fetch_groups",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", tenant.ID.String()),
	)
	defer func() { done(err) }()

	if err = s.guard.AuthorizeTenant(user, tenant); err != nil {
		return nil, err
	}
	groups, gerr := s.store.GetNotificationGroupsByTenant(tenant.ID)
	if gerr != nil {
		err = gerr
		return nil, err
	}
	return groups, nil
}

// SaveGroup validates and persists a group in one transaction. A zero ID
// creates; a set ID updates.
func (s *NotificationService) SaveGroup(ctx context.Context, user *db.User, group *db.NotificationGroup) (_ *db.NotificationGroup, err error) {
	done := s.obs.start("save_group",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", group.TenantID.String()),
	)
	defer func() { done(err) }()

	if user.TenantID != group.TenantID {
		err = apperr.Forbidden("user %s can't act on tenant %s", user.ID, group.TenantID)
		return nil, err
	}
	if err = validateGroup(group); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	group.UpdatedAt = now

	if group.ID == uuid.Nil {
		group.ID = uuid.New()
		group.CreatedAt = now
		if err = s.store.CreateNotificationGroup(group); err != nil {
			return nil, err
		}
	} else {
		if err = s.store.UpdateNotificationGroup(group); err != nil {
			return nil, err
		}
	}

	if err = recordOperation(s.store, s.metrics, user, group.TenantID, "notification group saved: "+group.Name); err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes a group. Deletion is refused, not silently skipped,
// while the group is still referenced by an active schedule.
func (s *NotificationService) DeleteGroup(ctx context.Context, user *db.User, tenantID, groupID uuid.UUID) (err error) {
	done := s.obs.start("delete_group",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("group_id", groupID.String()),
	)
	defer func() { done(err) }()

	if user.TenantID != tenantID {
		err = apperr.Forbidden("user %s can't act on tenant %s", user.ID, tenantID)
		return err
	}
	if err = s.store.DeleteNotificationGroup(groupID, tenantID); err != nil {
		return err
	}
	return recordOperation(s.store, s.metrics, user, tenantID, "notification group deleted: "+groupID.String())
}

func validateGroup(g *db.NotificationGroup) error {
	if g.Name == "" {
		return apperr.BadRequest("notification group name is required")
	}
	if len(g.Destinations) == 0 {
		return apperr.BadRequest("notification group needs at least one destination")
	}
	for _, d := range g.Destinations {
		if d.Type != "email" && d.Type != "phone" {
			return apperr.BadRequest("unknown destination type: %q", d.Type)
		}
		if d.Address == "" {
			return apperr.BadRequest("destination address is required")
		}
	}
	return nil
}
