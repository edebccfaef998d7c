package cloud

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DryRunProvider implements every port against no backend at all: calls are
// logged and answered with canned data. It backs local development and
// deployments that haven't been given provider credentials yet; real
// adapters plug in through the same interfaces.
type DryRunProvider struct {
	logger *zap.Logger
}

func NewDryRunProvider(logger *zap.Logger) *DryRunProvider {
	return &DryRunProvider{logger: logger}
}

func (p *DryRunProvider) Describe(ctx context.Context, env Environment, res Resource) ([]Monitor, error) {
	p.logger.Debug("dry-run describe", zap.String("resource_id", res.ID))
	monitors := make([]Monitor, 0, len(res.SupportedMetrics()))
	for _, metric := range res.SupportedMetrics() {
		monitors = append(monitors, Monitor{
			MetricName: metric,
			Status:     "OK",
			Statistic:  "Average",
			Period:     300,
		})
	}
	return monitors, nil
}

func (p *DryRunProvider) PutAlarms(ctx context.Context, env Environment, res Resource, channel NotificationChannel) (AlarmSetID, error) {
	p.logger.Debug("dry-run put_alarms",
		zap.String("resource_id", res.ID),
		zap.String("channel_id", channel.ID),
	)
	return AlarmSetID("dry-run-" + res.ID), nil
}

func (p *DryRunProvider) GetChart(ctx context.Context, env Environment, graph MonitorGraph, res Resource) (*ChartData, error) {
	p.logger.Debug("dry-run get_chart", zap.String("metric_name", graph.MetricName))
	points := graph.EndTime.Sub(graph.StartTime) / (time.Duration(graph.Period) * time.Second)
	chart := &ChartData{MetricName: graph.MetricName}
	for i := time.Duration(0); i < points; i++ {
		chart.Timestamps = append(chart.Timestamps, graph.StartTime.Add(i*time.Duration(graph.Period)*time.Second))
		chart.Values = append(chart.Values, 0)
	}
	return chart, nil
}

func (p *DryRunProvider) GrantPermission(ctx context.Context, env Environment) (NotificationChannel, error) {
	p.logger.Debug("dry-run grant_permission", zap.String("aws_account_id", env.AwsAccountID))
	return NotificationChannel{ID: "dry-run-channel-" + env.ID}, nil
}

func (p *DryRunProvider) RegisterTrigger(ctx context.Context, env Environment, eventID string, cron string) error {
	p.logger.Debug("dry-run register_trigger", zap.String("event_id", eventID), zap.String("cron", cron))
	return nil
}

func (p *DryRunProvider) RemoveTrigger(ctx context.Context, env Environment, eventID string) error {
	p.logger.Debug("dry-run remove_trigger", zap.String("event_id", eventID))
	return nil
}

func (p *DryRunProvider) GetServiceResource(ctx context.Context, env Environment, region, serviceType, resourceID string) (*Resource, error) {
	if !KnownServiceType(serviceType) {
		return nil, &UnknownServiceError{ServiceType: serviceType}
	}
	return &Resource{
		ID:          resourceID,
		ServiceType: ServiceType(serviceType),
		Region:      region,
		Name:        resourceID,
	}, nil
}

// UnknownServiceError reports a catalog lookup against an unmanaged service.
type UnknownServiceError struct {
	ServiceType string
}

func (e *UnknownServiceError) Error() string {
	return "unknown service type: " + e.ServiceType
}
