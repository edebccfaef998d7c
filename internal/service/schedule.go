package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
	"github.com/okonomi-dev/cloud-warden/internal/auth"
	"github.com/okonomi-dev/cloud-warden/internal/cloud"
	"github.com/okonomi-dev/cloud-warden/internal/db"
	"github.com/okonomi-dev/cloud-warden/internal/metrics"
	"github.com/okonomi-dev/cloud-warden/internal/schedule"
)

// ScheduleStore is the persistence surface the schedule orchestrator needs.
// *db.Repository satisfies it.
type ScheduleStore interface {
	OperationLogStore
	GetSchedule(eventID, tenantID, envID uuid.UUID) (*db.ScheduleRecord, error)
	GetSchedulesByResource(tenantID, envID uuid.UUID, resourceID string) ([]*db.ScheduleRecord, error)
	CreateSchedule(s *db.ScheduleRecord) error
	ReplaceSchedule(s *db.ScheduleRecord) error
	DeleteSchedule(eventID, tenantID, envID uuid.UUID) error
	SetScheduleActivated(eventID uuid.UUID, activated bool) error
}

// ActivationState tells a retry path apart from a full success: the local
// record is committed either way, but a failed activation means only the
// external registration needs to be repeated.
type ActivationState string

const (
	ActivationSucceeded ActivationState = "activated"
	ActivationFailed    ActivationState = "failed"
)

// SaveScheduleResult is the three-state outcome of SaveSchedule: fully
// succeeded, or partially succeeded with the activation failure attached.
// Full failure is an ordinary error return.
type SaveScheduleResult struct {
	Schedule   *schedule.Schedule
	Activation ActivationState
	// ActivationErr carries the external failure when Activation is failed.
	ActivationErr error
}

// ScheduleService manages scheduled-action definitions. The actual timed
// firing is delegated to the external provider; this core only owns the
// definitions.
type ScheduleService struct {
	guard     *auth.Guard
	store     ScheduleStore
	catalog   cloud.ResourceCatalog
	scheduler cloud.SchedulerPort
	metrics   *metrics.Collector
	logger    *zap.Logger
	obs       observer
}

func NewScheduleService(
	guard *auth.Guard,
	store ScheduleStore,
	catalog cloud.ResourceCatalog,
	scheduler cloud.SchedulerPort,
	m *metrics.Collector,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		guard:     guard,
		store:     store,
		catalog:   catalog,
		scheduler: scheduler,
		metrics:   m,
		logger:    logger,
		obs:       observer{logger: logger, metrics: m},
	}
}

// FetchSchedules lists the schedules defined for one resource. The resource
// lookup runs only after authorization passes.
func (s *ScheduleService) FetchSchedules(ctx context.Context, user *db.User, tenant *db.Tenant, env *db.AwsEnvironment, region, serviceType, resourceID string) (_ []*schedule.Schedule, err error) {
	done := s.obs.start("fetch_schedules",
		zap.String("user_id", user.ID.String()),
		zap.String("aws_environment_id", env.ID.String()),
		zap.String("resource_id", resourceID),
	)
	defer func() { done(err) }()

	if err = s.guard.Authorize(user, env); err != nil {
		return nil, err
	}

	res, cerr := s.catalog.GetServiceResource(ctx, toCloudEnv(env), region, serviceType, resourceID)
	s.metrics.RecordExternalCall("catalog", "get_service_resource", cerr)
	if cerr != nil {
		// An unmanaged service type is a malformed request; only a genuinely
		// missing resource maps to NotFound.
		var unknown *cloud.UnknownServiceError
		if errors.As(cerr, &unknown) {
			err = apperr.BadRequest("unknown service type: %q", unknown.ServiceType)
			return nil, err
		}
		err = apperr.Wrap(apperr.KindNotFound, "resource lookup failed", cerr)
		return nil, err
	}

	records, rerr := s.store.GetSchedulesByResource(tenant.ID, env.ID, res.ID)
	if rerr != nil {
		err = rerr
		return nil, err
	}

	schedules := make([]*schedule.Schedule, 0, len(records))
	for _, rec := range records {
		sched, ferr := schedule.FromRecord(rec)
		if ferr != nil {
			err = ferr
			return nil, err
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

// SaveSchedule persists a schedule definition. A zero event id creates with
// a fresh id; a set event id fully replaces the stored record. The local
// write commits first; external trigger registration happens afterwards and
// its failure surfaces as a partial success, not a rollback.
func (s *ScheduleService) SaveSchedule(ctx context.Context, user *db.User, tenant *db.Tenant, env *db.AwsEnvironment, sched *schedule.Schedule) (_ *SaveScheduleResult, err error) {
	done := s.obs.start("save_schedule",
		zap.String("user_id", user.ID.String()),
		zap.String("aws_environment_id", env.ID.String()),
		zap.String("resource_id", sched.ResourceID),
	)
	defer func() { done(err) }()

	if err = s.guard.Authorize(user, env); err != nil {
		return nil, err
	}
	if sched.AwsEnvironmentID != env.ID {
		err = apperr.BadRequest("schedule environment %s doesn't match target %s", sched.AwsEnvironmentID, env.ID)
		return nil, err
	}

	now := time.Now().UTC()
	record := sched.Record(tenant.ID, now)

	if sched.EventID == uuid.Nil {
		record.EventID = uuid.New()
		record.Version = 1
		if err = s.store.CreateSchedule(record); err != nil {
			return nil, err
		}
		sched.EventID = record.EventID
	} else {
		current, gerr := s.store.GetSchedule(sched.EventID, tenant.ID, env.ID)
		if gerr != nil {
			err = gerr
			return nil, err
		}
		record.Version = current.Version
		if err = s.store.ReplaceSchedule(record); err != nil {
			return nil, err
		}
	}

	if err = recordOperation(s.store, s.metrics, user, tenant.ID, "schedule saved: "+record.EventID.String()); err != nil {
		return nil, err
	}

	result := &SaveScheduleResult{Schedule: sched, Activation: ActivationSucceeded}

	if aerr := s.activate(ctx, env, record); aerr != nil {
		// Local state is committed; only the external step needs a retry.
		s.logger.Warn("schedule saved but not activated",
			zap.String("event_id", record.EventID.String()),
			zap.Error(aerr),
		)
		result.Activation = ActivationFailed
		result.ActivationErr = apperr.External("scheduler", "register_trigger", aerr)
	}
	return result, nil
}

// RetryActivation re-attempts only the external registration step for a
// schedule left in the partially-succeeded state.
func (s *ScheduleService) RetryActivation(ctx context.Context, user *db.User, tenant *db.Tenant, env *db.AwsEnvironment, eventID uuid.UUID) (err error) {
	done := s.obs.start("retry_activation",
		zap.String("user_id", user.ID.String()),
		zap.String("event_id", eventID.String()),
	)
	defer func() { done(err) }()

	if err = s.guard.Authorize(user, env); err != nil {
		return err
	}

	record, gerr := s.store.GetSchedule(eventID, tenant.ID, env.ID)
	if gerr != nil {
		return gerr
	}
	if record.Activated {
		return nil
	}
	if aerr := s.activate(ctx, env, record); aerr != nil {
		err = apperr.External("scheduler", "register_trigger", aerr)
		return err
	}
	return nil
}

// DeleteSchedule removes the local record. Local state is authoritative;
// removing the external trigger is best-effort and only logged on failure.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, user *db.User, tenant *db.Tenant, env *db.AwsEnvironment, eventID uuid.UUID) (err error) {
	done := s.obs.start("delete_schedule",
		zap.String("user_id", user.ID.String()),
		zap.String("event_id", eventID.String()),
	)
	defer func() { done(err) }()

	if err = s.guard.Authorize(user, env); err != nil {
		return err
	}

	if _, err = s.store.GetSchedule(eventID, tenant.ID, env.ID); err != nil {
		return err
	}
	if err = s.store.DeleteSchedule(eventID, tenant.ID, env.ID); err != nil {
		return err
	}

	rerr := s.scheduler.RemoveTrigger(ctx, toCloudEnv(env), eventID.String())
	s.metrics.RecordExternalCall("scheduler", "remove_trigger", rerr)
	if rerr != nil {
		s.logger.Warn("external trigger cleanup failed",
			zap.String("event_id", eventID.String()),
			zap.Error(rerr),
		)
	}

	return recordOperation(s.store, s.metrics, user, tenant.ID, "schedule deleted: "+eventID.String())
}

func (s *ScheduleService) activate(ctx context.Context, env *db.AwsEnvironment, record *db.ScheduleRecord) error {
	cron := record.CronExpression
	if cron == "" && record.RunAt != nil {
		cron = oneShotCron(*record.RunAt)
	}

	err := s.scheduler.RegisterTrigger(ctx, toCloudEnv(env), record.EventID.String(), cron)
	s.metrics.RecordExternalCall("scheduler", "register_trigger", err)
	if err != nil {
		return err
	}
	return s.store.SetScheduleActivated(record.EventID, true)
}

// oneShotCron expresses a single run time as a provider cron expression.
func oneShotCron(at time.Time) string {
	at = at.UTC()
	return at.Format("4 15 2 1") + " ? " + at.Format("2006")
}
