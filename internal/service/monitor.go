package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
	"github.com/okonomi-dev/cloud-warden/internal/auth"
	"github.com/okonomi-dev/cloud-warden/internal/cloud"
	"github.com/okonomi-dev/cloud-warden/internal/db"
	"github.com/okonomi-dev/cloud-warden/internal/metrics"
)

// MonitorService orchestrates alarm management against the external
// alerting provider.
type MonitorService struct {
	guard        *auth.Guard
	monitoring   cloud.MonitoringPort
	notification cloud.NotificationPort
	oplog        OperationLogStore
	metrics      *metrics.Collector
	obs          observer
}

func NewMonitorService(
	guard *auth.Guard,
	monitoring cloud.MonitoringPort,
	notification cloud.NotificationPort,
	oplog OperationLogStore,
	m *metrics.Collector,
	logger *zap.Logger,
) *MonitorService {
	return &MonitorService{
		guard:        guard,
		monitoring:   monitoring,
		notification: notification,
		oplog:        oplog,
		metrics:      m,
		obs:          observer{logger: logger, metrics: m},
	}
}

// FetchMonitors lists the provider-side monitors for a resource. Read-only;
// nothing touches the local store.
func (s *MonitorService) FetchMonitors(ctx context.Context, user *db.User, env *db.AwsEnvironment, res cloud.Resource) (_ []cloud.Monitor, err error) {
	done := s.obs.start("fetch_monitors",
		zap.String("user_id", user.ID.String()),
		zap.String("aws_environment_id", env.ID.String()),
		zap.String("resource_id", res.ID),
	)
	defer func() { done(err) }()

	if err = s.guard.Authorize(user, env); err != nil {
		return nil, err
	}

	monitors, derr := s.monitoring.Describe(ctx, toCloudEnv(env), res)
	s.metrics.RecordExternalCall("monitoring", "describe", derr)
	if derr != nil {
		err = apperr.External("monitoring", "describe", derr)
		return nil, err
	}
	return monitors, nil
}

// SaveMonitor provisions alarms for the resource. The notification
// permission is granted strictly before the alarms referencing the channel
// are created, otherwise alarm creation could succeed while delivery
// silently fails. A failure after the grant leaves the grant in place; the
// whole operation is safe to retry because the grant is idempotent.
func (s *MonitorService) SaveMonitor(ctx context.Context, user *db.User, res cloud.Resource, env *db.AwsEnvironment) (_ *cloud.Resource, err error) {
	done := s.obs.start("save_monitor",
		zap.String("user_id", user.ID.String()),
		zap.String("aws_environment_id", env.ID.String()),
		zap.String("resource_id", res.ID),
	)
	defer func() { done(err) }()

	if err = s.guard.Authorize(user, env); err != nil {
		return nil, err
	}

	channel, gerr := s.notification.GrantPermission(ctx, toCloudEnv(env))
	s.metrics.RecordExternalCall("notification", "grant_permission", gerr)
	if gerr != nil {
		err = apperr.External("notification", "grant_permission", gerr)
		return nil, err
	}

	_, perr := s.monitoring.PutAlarms(ctx, toCloudEnv(env), res, channel)
	s.metrics.RecordExternalCall("monitoring", "put_alarms", perr)
	if perr != nil {
		err = apperr.External("monitoring", "put_alarms", perr)
		return nil, err
	}

	if err = recordOperation(s.oplog, s.metrics, user, env.TenantID, "monitor saved for resource "+res.ID); err != nil {
		return nil, err
	}
	return &res, nil
}

// Graph renders chart data for one resource metric. Unknown metrics fail
// before any provider call.
func (s *MonitorService) Graph(ctx context.Context, user *db.User, res cloud.Resource, env *db.AwsEnvironment, graph cloud.MonitorGraph) (_ *cloud.ChartData, err error) {
	done := s.obs.start("graph",
		zap.String("user_id", user.ID.String()),
		zap.String("aws_environment_id", env.ID.String()),
		zap.String("metric_name", graph.MetricName),
	)
	defer func() { done(err) }()

	if err = s.guard.Authorize(user, env); err != nil {
		return nil, err
	}

	if !res.SupportsMetric(graph.MetricName) {
		err = apperr.BadRequest("service %s doesn't have metric %s", res.ServiceType, graph.MetricName)
		return nil, err
	}
	if graph.Period <= 0 {
		err = apperr.BadRequest("graph period must be positive, got %d", graph.Period)
		return nil, err
	}

	chart, cerr := s.monitoring.GetChart(ctx, toCloudEnv(env), graph, res)
	s.metrics.RecordExternalCall("monitoring", "get_chart", cerr)
	if cerr != nil {
		err = apperr.External("monitoring", "get_chart", cerr)
		return nil, err
	}
	return chart, nil
}
