package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
	"github.com/okonomi-dev/cloud-warden/internal/db"
)

func newNotificationService(store *fakeStore) *NotificationService {
	return NewNotificationService(newTestGuard(), store, newTestCollector(), zap.NewNop())
}

func validGroup(tenantID uuid.UUID) *db.NotificationGroup {
	return &db.NotificationGroup{
		TenantID: tenantID,
		Name:     "oncall",
		Destinations: db.Destinations{
			{Type: "email", Address: "oncall@acme.test"},
		},
	}
}

func TestSaveGroupCreate(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	store := newFakeStore(rec)
	svc := newNotificationService(store)

	group, err := svc.SaveGroup(context.Background(), fx.user, validGroup(fx.tenant.ID))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, group.ID)
	require.Contains(t, store.groups, group.ID)
	require.Len(t, store.oplog, 1)
}

func TestSaveGroupUpdate(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	store := newFakeStore(rec)
	svc := newNotificationService(store)

	group, err := svc.SaveGroup(context.Background(), fx.user, validGroup(fx.tenant.ID))
	require.NoError(t, err)

	group.Name = "oncall-primary"
	updated, err := svc.SaveGroup(context.Background(), fx.user, group)
	require.NoError(t, err)
	require.Equal(t, "oncall-primary", store.groups[updated.ID].Name)
	require.Len(t, store.groups, 1)
}

func TestSaveGroupCrossTenantForbidden(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	store := newFakeStore(rec)
	svc := newNotificationService(store)

	_, err := svc.SaveGroup(context.Background(), outsider(), validGroup(fx.tenant.ID))
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	require.Empty(t, rec.calls)
	require.Empty(t, store.oplog)
}

func TestSaveGroupValidation(t *testing.T) {
	t.Parallel()

	fx := newFixture()

	cases := []struct {
		name   string
		mutate func(*db.NotificationGroup)
	}{
		{"missing name", func(g *db.NotificationGroup) { g.Name = "" }},
		{"no destinations", func(g *db.NotificationGroup) { g.Destinations = nil }},
		{"unknown destination type", func(g *db.NotificationGroup) { g.Destinations[0].Type = "pager" }},
		{"missing address", func(g *db.NotificationGroup) { g.Destinations[0].Address = "" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := &callRecorder{}
			store := newFakeStore(rec)
			svc := newNotificationService(store)

			group := validGroup(fx.tenant.ID)
			tc.mutate(group)

			_, err := svc.SaveGroup(context.Background(), fx.user, group)
			require.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
			require.Empty(t, store.groups)
			require.Empty(t, store.oplog)
		})
	}
}

// Deleting a group still referenced by a schedule is refused with a conflict;
// nothing is removed and no audit entry is written.
func TestDeleteGroupBlockedByScheduleReference(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	store := newFakeStore(rec)
	svc := newNotificationService(store)

	group, err := svc.SaveGroup(context.Background(), fx.user, validGroup(fx.tenant.ID))
	require.NoError(t, err)
	store.groupRefs[group.ID] = 2

	err = svc.DeleteGroup(context.Background(), fx.user, fx.tenant.ID, group.ID)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	require.Contains(t, store.groups, group.ID)
	// Only the save wrote an entry.
	require.Len(t, store.oplog, 1)
}

func TestDeleteGroup(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	store := newFakeStore(rec)
	svc := newNotificationService(store)

	group, err := svc.SaveGroup(context.Background(), fx.user, validGroup(fx.tenant.ID))
	require.NoError(t, err)

	err = svc.DeleteGroup(context.Background(), fx.user, fx.tenant.ID, group.ID)
	require.NoError(t, err)
	require.NotContains(t, store.groups, group.ID)
	require.Len(t, store.oplog, 2)
}

func TestDeleteGroupCrossTenantForbidden(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	store := newFakeStore(rec)
	svc := newNotificationService(store)

	err := svc.DeleteGroup(context.Background(), outsider(), fx.tenant.ID, uuid.New())
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	require.Empty(t, rec.calls)
}

func TestFetchGroups(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	store := newFakeStore(rec)
	svc := newNotificationService(store)

	_, err := svc.SaveGroup(context.Background(), fx.user, validGroup(fx.tenant.ID))
	require.NoError(t, err)

	groups, err := svc.FetchGroups(context.Background(), fx.user, fx.tenant)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	_, err = svc.FetchGroups(context.Background(), outsider(), fx.tenant)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
