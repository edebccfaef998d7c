package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
	"github.com/okonomi-dev/cloud-warden/internal/cloud"
	"github.com/okonomi-dev/cloud-warden/internal/schedule"
)

func newScheduleService(provider *fakeProvider, store *fakeStore) *ScheduleService {
	return NewScheduleService(newTestGuard(), store, provider, provider, newTestCollector(), zap.NewNop())
}

func newStopSchedule(envID uuid.UUID) *schedule.Schedule {
	s, err := schedule.Create(schedule.Input{
		ResourceID:       "i-0123456789abcdef0",
		ServiceType:      "ec2",
		Region:           "ap-northeast-1",
		AwsEnvironmentID: envID,
		Fields: map[string]any{
			"action": "stop",
			"cron":   "0 21 * * 1-5",
		},
	})
	if err != nil {
		panic(err)
	}
	return s
}

func TestSaveScheduleCreate(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	result, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, newStopSchedule(fx.env.ID))
	require.NoError(t, err)
	require.Equal(t, ActivationSucceeded, result.Activation)
	require.NoError(t, result.ActivationErr)
	require.NotEqual(t, uuid.Nil, result.Schedule.EventID)

	stored := store.schedules[result.Schedule.EventID]
	require.NotNil(t, stored)
	require.Equal(t, 1, stored.Version)
	require.True(t, stored.Activated)
	require.Equal(t, fx.tenant.ID, stored.TenantID)

	// Local write, audit entry, then external activation.
	require.Equal(t, []string{
		"store.create_schedule",
		"store.create_operation_log",
		"scheduler.register_trigger",
		"store.set_schedule_activated",
	}, rec.calls)
}

// An activation failure is a partial success: the record stays committed and
// unactivated, and the result carries the external error instead of failing
// the whole save.
func TestSaveSchedulePartialSuccess(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec, registerErr: errors.New("rule limit exceeded")}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	result, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, newStopSchedule(fx.env.ID))
	require.NoError(t, err)
	require.Equal(t, ActivationFailed, result.Activation)
	require.Equal(t, apperr.KindExternalProvider, apperr.KindOf(result.ActivationErr))

	stored := store.schedules[result.Schedule.EventID]
	require.NotNil(t, stored)
	require.False(t, stored.Activated)
	require.Len(t, store.oplog, 1)
}

// A set event id replaces the stored definition wholesale and bumps the
// version.
func TestSaveScheduleReplace(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	created, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, newStopSchedule(fx.env.ID))
	require.NoError(t, err)
	eventID := created.Schedule.EventID

	replacement := newStopSchedule(fx.env.ID)
	replacement.EventID = eventID
	replacement.Trigger = schedule.Trigger{CronExpression: "0 9 * * 1-5"}
	replacement.Variant = schedule.EC2Variant{Op: "start"}

	result, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, replacement)
	require.NoError(t, err)
	require.Equal(t, eventID, result.Schedule.EventID)

	stored := store.schedules[eventID]
	require.Equal(t, "start", stored.Action)
	require.Equal(t, "0 9 * * 1-5", stored.CronExpression)
	require.Equal(t, 2, stored.Version)
	require.Len(t, store.schedules, 1)
}

func TestSaveScheduleReplaceMissingRecord(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	sched := newStopSchedule(fx.env.ID)
	sched.EventID = uuid.New()

	_, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, sched)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	require.Empty(t, store.oplog)
}

// A denied principal must reach neither the catalog nor the store.
func TestFetchSchedulesForbidden(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	_, err := svc.FetchSchedules(context.Background(), outsider(), fx.tenant, fx.env, "ap-northeast-1", "ec2", "i-0123456789abcdef0")
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	require.Empty(t, rec.calls)
}

func TestFetchSchedules(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	created, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, newStopSchedule(fx.env.ID))
	require.NoError(t, err)

	schedules, err := svc.FetchSchedules(context.Background(), fx.user, fx.tenant, fx.env, "ap-northeast-1", "ec2", "i-0123456789abcdef0")
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, created.Schedule.EventID, schedules[0].EventID)
	require.Equal(t, "stop", schedules[0].Variant.Action())
}

// A resource the catalog can't resolve is a NotFound outcome.
func TestFetchSchedulesResourceNotFound(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec, catalogErr: errors.New("no such instance")}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	_, err := svc.FetchSchedules(context.Background(), fx.user, fx.tenant, fx.env, "ap-northeast-1", "ec2", "i-gone")
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// An unmanaged service type is malformed input, not a missing resource.
func TestFetchSchedulesUnknownServiceType(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec, catalogErr: &cloud.UnknownServiceError{ServiceType: "lambda"}}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	_, err := svc.FetchSchedules(context.Background(), fx.user, fx.tenant, fx.env, "ap-northeast-1", "lambda", "fn-1")
	require.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	require.ErrorContains(t, err, "lambda")
}

func TestSaveScheduleForbidden(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	_, err := svc.SaveSchedule(context.Background(), outsider(), fx.tenant, fx.env, newStopSchedule(fx.env.ID))
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	require.Empty(t, rec.calls)
	require.Empty(t, store.schedules)
}

func TestSaveScheduleEnvironmentMismatch(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	sched := newStopSchedule(uuid.New())
	_, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, sched)
	require.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	require.Empty(t, store.schedules)
}

func TestRetryActivation(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec, registerErr: errors.New("rule limit exceeded")}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	result, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, newStopSchedule(fx.env.ID))
	require.NoError(t, err)
	require.Equal(t, ActivationFailed, result.Activation)

	// First retry still fails.
	err = svc.RetryActivation(context.Background(), fx.user, fx.tenant, fx.env, result.Schedule.EventID)
	require.Equal(t, apperr.KindExternalProvider, apperr.KindOf(err))
	require.False(t, store.schedules[result.Schedule.EventID].Activated)

	// Provider recovers; retry completes the activation.
	provider.registerErr = nil
	err = svc.RetryActivation(context.Background(), fx.user, fx.tenant, fx.env, result.Schedule.EventID)
	require.NoError(t, err)
	require.True(t, store.schedules[result.Schedule.EventID].Activated)
}

// Retrying an already-activated schedule is a no-op, not an error.
func TestRetryActivationIdempotent(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	result, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, newStopSchedule(fx.env.ID))
	require.NoError(t, err)

	registersBefore := countCalls(rec, "scheduler.register_trigger")
	require.NoError(t, svc.RetryActivation(context.Background(), fx.user, fx.tenant, fx.env, result.Schedule.EventID))
	require.Equal(t, registersBefore, countCalls(rec, "scheduler.register_trigger"))
}

// Local deletion is authoritative: a failed external trigger removal is
// logged but never surfaces as an error.
func TestDeleteScheduleSurvivesTriggerCleanupFailure(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec, removeErr: errors.New("rule not found")}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	result, err := svc.SaveSchedule(context.Background(), fx.user, fx.tenant, fx.env, newStopSchedule(fx.env.ID))
	require.NoError(t, err)

	err = svc.DeleteSchedule(context.Background(), fx.user, fx.tenant, fx.env, result.Schedule.EventID)
	require.NoError(t, err)
	require.Empty(t, store.schedules)
	// One audit entry for the save, one for the delete.
	require.Len(t, store.oplog, 2)
}

func TestDeleteScheduleNotFound(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	rec := &callRecorder{}
	provider := &fakeProvider{rec: rec}
	store := newFakeStore(rec)
	svc := newScheduleService(provider, store)

	err := svc.DeleteSchedule(context.Background(), fx.user, fx.tenant, fx.env, uuid.New())
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	require.Empty(t, store.oplog)
}

func countCalls(rec *callRecorder, name string) int {
	n := 0
	for _, c := range rec.calls {
		if c == name {
			n++
		}
	}
	return n
}
