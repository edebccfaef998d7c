package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
	"github.com/okonomi-dev/cloud-warden/internal/auth"
	"github.com/okonomi-dev/cloud-warden/internal/cloud"
	"github.com/okonomi-dev/cloud-warden/internal/db"
	"github.com/okonomi-dev/cloud-warden/internal/metrics"
)

// callRecorder captures the order of external and persistence calls so tests
// can assert ordering invariants.
type callRecorder struct {
	calls []string
}

func (r *callRecorder) record(name string) {
	r.calls = append(r.calls, name)
}

// fakeProvider implements all four external ports with scriptable failures.
type fakeProvider struct {
	rec *callRecorder

	describeErr error
	grantErr    error
	putErr      error
	chartErr    error
	registerErr error
	removeErr   error
	catalogErr  error

	monitors []cloud.Monitor
}

func (p *fakeProvider) Describe(ctx context.Context, env cloud.Environment, res cloud.Resource) ([]cloud.Monitor, error) {
	p.rec.record("monitoring.describe")
	return p.monitors, p.describeErr
}

func (p *fakeProvider) PutAlarms(ctx context.Context, env cloud.Environment, res cloud.Resource, channel cloud.NotificationChannel) (cloud.AlarmSetID, error) {
	p.rec.record("monitoring.put_alarms")
	if p.putErr != nil {
		return "", p.putErr
	}
	return cloud.AlarmSetID("alarms-" + res.ID), nil
}

func (p *fakeProvider) GetChart(ctx context.Context, env cloud.Environment, graph cloud.MonitorGraph, res cloud.Resource) (*cloud.ChartData, error) {
	p.rec.record("monitoring.get_chart")
	if p.chartErr != nil {
		return nil, p.chartErr
	}
	return &cloud.ChartData{MetricName: graph.MetricName}, nil
}

func (p *fakeProvider) GrantPermission(ctx context.Context, env cloud.Environment) (cloud.NotificationChannel, error) {
	p.rec.record("notification.grant_permission")
	if p.grantErr != nil {
		return cloud.NotificationChannel{}, p.grantErr
	}
	return cloud.NotificationChannel{ID: "channel-" + env.ID}, nil
}

func (p *fakeProvider) RegisterTrigger(ctx context.Context, env cloud.Environment, eventID string, cron string) error {
	p.rec.record("scheduler.register_trigger")
	return p.registerErr
}

func (p *fakeProvider) RemoveTrigger(ctx context.Context, env cloud.Environment, eventID string) error {
	p.rec.record("scheduler.remove_trigger")
	return p.removeErr
}

func (p *fakeProvider) GetServiceResource(ctx context.Context, env cloud.Environment, region, serviceType, resourceID string) (*cloud.Resource, error) {
	p.rec.record("catalog.get_service_resource")
	if p.catalogErr != nil {
		return nil, p.catalogErr
	}
	return &cloud.Resource{
		ID:          resourceID,
		ServiceType: cloud.ServiceType(serviceType),
		Region:      region,
	}, nil
}

// fakeStore is an in-memory stand-in for *db.Repository covering the store
// interfaces the orchestrators consume.
type fakeStore struct {
	rec *callRecorder

	tenants   map[uuid.UUID]*db.Tenant
	users     map[uuid.UUID]*db.User
	groups    map[uuid.UUID]*db.NotificationGroup
	schedules map[uuid.UUID]*db.ScheduleRecord
	oplog     []*db.OperationLog

	// groupRefs counts live schedule references per notification group.
	groupRefs map[uuid.UUID]int

	failAdminInsert bool
	oplogErr        error
}

func newFakeStore(rec *callRecorder) *fakeStore {
	return &fakeStore{
		rec:       rec,
		tenants:   map[uuid.UUID]*db.Tenant{},
		users:     map[uuid.UUID]*db.User{},
		groups:    map[uuid.UUID]*db.NotificationGroup{},
		schedules: map[uuid.UUID]*db.ScheduleRecord{},
		groupRefs: map[uuid.UUID]int{},
	}
}

func (s *fakeStore) CreateOperationLog(l *db.OperationLog) error {
	s.rec.record("store.create_operation_log")
	if s.oplogErr != nil {
		return s.oplogErr
	}
	s.oplog = append(s.oplog, l)
	return nil
}

func (s *fakeStore) GetNotificationGroupsByTenant(tenantID uuid.UUID) ([]*db.NotificationGroup, error) {
	s.rec.record("store.get_groups")
	out := []*db.NotificationGroup{}
	for _, g := range s.groups {
		if g.TenantID == tenantID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateNotificationGroup(g *db.NotificationGroup) error {
	s.rec.record("store.create_group")
	s.groups[g.ID] = g
	return nil
}

func (s *fakeStore) UpdateNotificationGroup(g *db.NotificationGroup) error {
	s.rec.record("store.update_group")
	if _, ok := s.groups[g.ID]; !ok {
		return apperr.NotFound("notification group not found: %s", g.ID)
	}
	s.groups[g.ID] = g
	return nil
}

func (s *fakeStore) DeleteNotificationGroup(id, tenantID uuid.UUID) error {
	s.rec.record("store.delete_group")
	g, ok := s.groups[id]
	if !ok || g.TenantID != tenantID {
		return apperr.NotFound("notification group not found: %s", id)
	}
	if s.groupRefs[id] > 0 {
		return apperr.Conflict("notification group %s still referenced by %d schedule(s)", id, s.groupRefs[id])
	}
	delete(s.groups, id)
	return nil
}

func (s *fakeStore) GetSchedule(eventID, tenantID, envID uuid.UUID) (*db.ScheduleRecord, error) {
	s.rec.record("store.get_schedule")
	rec, ok := s.schedules[eventID]
	if !ok || rec.TenantID != tenantID || rec.AwsEnvironmentID != envID {
		return nil, apperr.NotFound("schedule not found: %s", eventID)
	}
	copied := *rec
	return &copied, nil
}

func (s *fakeStore) GetSchedulesByResource(tenantID, envID uuid.UUID, resourceID string) ([]*db.ScheduleRecord, error) {
	s.rec.record("store.get_schedules")
	out := []*db.ScheduleRecord{}
	for _, rec := range s.schedules {
		if rec.TenantID == tenantID && rec.AwsEnvironmentID == envID && rec.ResourceID == resourceID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateSchedule(rec *db.ScheduleRecord) error {
	s.rec.record("store.create_schedule")
	copied := *rec
	s.schedules[rec.EventID] = &copied
	return nil
}

func (s *fakeStore) ReplaceSchedule(rec *db.ScheduleRecord) error {
	s.rec.record("store.replace_schedule")
	current, ok := s.schedules[rec.EventID]
	if !ok {
		return apperr.NotFound("schedule not found: %s", rec.EventID)
	}
	if current.Version != rec.Version {
		return apperr.Conflict("schedule %s was modified concurrently", rec.EventID)
	}
	copied := *rec
	copied.Version++
	s.schedules[rec.EventID] = &copied
	rec.Version++
	return nil
}

func (s *fakeStore) DeleteSchedule(eventID, tenantID, envID uuid.UUID) error {
	s.rec.record("store.delete_schedule")
	rec, ok := s.schedules[eventID]
	if !ok || rec.TenantID != tenantID || rec.AwsEnvironmentID != envID {
		return apperr.NotFound("schedule not found: %s", eventID)
	}
	delete(s.schedules, eventID)
	return nil
}

func (s *fakeStore) SetScheduleActivated(eventID uuid.UUID, activated bool) error {
	s.rec.record("store.set_schedule_activated")
	rec, ok := s.schedules[eventID]
	if !ok {
		return apperr.NotFound("schedule not found: %s", eventID)
	}
	rec.Activated = activated
	return nil
}

func (s *fakeStore) CreateTenantWithAdmin(t *db.Tenant, admin *db.User) error {
	s.rec.record("store.create_tenant_with_admin")
	if s.failAdminInsert {
		// Both writes share one transaction; nothing persists.
		return errors.New("admin insert failed")
	}
	s.tenants[t.ID] = t
	admin.TenantID = t.ID
	admin.Role = db.RoleAdmin
	s.users[admin.ID] = admin
	return nil
}

func (s *fakeStore) GetTenant(id uuid.UUID) (*db.Tenant, error) {
	s.rec.record("store.get_tenant")
	t, ok := s.tenants[id]
	if !ok {
		return nil, apperr.NotFound("tenant not found: %s", id)
	}
	return t, nil
}

func (s *fakeStore) GetTenants() ([]*db.Tenant, error) {
	s.rec.record("store.get_tenants")
	out := []*db.Tenant{}
	for _, t := range s.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) UpdateTenant(t *db.Tenant) error {
	s.rec.record("store.update_tenant")
	if _, ok := s.tenants[t.ID]; !ok {
		return apperr.NotFound("tenant not found: %s", t.ID)
	}
	s.tenants[t.ID] = t
	return nil
}

func (s *fakeStore) DeleteTenant(id uuid.UUID) error {
	s.rec.record("store.delete_tenant")
	if _, ok := s.tenants[id]; !ok {
		return apperr.NotFound("tenant not found: %s", id)
	}
	delete(s.tenants, id)
	return nil
}

// Fixtures

func newTestCollector() *metrics.Collector {
	return metrics.NewCollector(prometheus.NewRegistry())
}

func newTestGuard() *auth.Guard {
	return auth.NewGuard(zap.NewNop())
}

type fixture struct {
	tenant *db.Tenant
	env    *db.AwsEnvironment
	user   *db.User
}

// newFixture builds a tenant with one environment and one user permitted to
// use it.
func newFixture() fixture {
	now := time.Now().UTC()
	tenant := &db.Tenant{ID: uuid.New(), Name: "acme", Email: "ops@acme.test", CreatedAt: now, UpdatedAt: now}
	env := &db.AwsEnvironment{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Name:         "production",
		AwsAccountID: "123456789012",
		AwsRoleName:  "warden-role",
	}
	user := &db.User{
		ID:             uuid.New(),
		TenantID:       tenant.ID,
		Email:          "dev@acme.test",
		Name:           "dev",
		Role:           db.RoleUser,
		EnvironmentIDs: db.UUIDSlice{env.ID},
	}
	return fixture{tenant: tenant, env: env, user: user}
}

// outsider returns a user from another tenant with no environment grants.
func outsider() *db.User {
	return &db.User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Email:    "eve@other.test",
		Name:     "eve",
		Role:     db.RoleUser,
	}
}
