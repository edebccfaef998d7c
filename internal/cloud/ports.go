// Package cloud defines the contracts the orchestration layer holds against
// the external provider. Implementations live outside this core; the types
// here are the in-process vocabulary shared with the use cases.
package cloud

import (
	"context"
	"time"
)

// Monitor is a threshold watch on a resource metric as reported by the
// external alerting provider.
type Monitor struct {
	MetricName string  `json:"metric_name"`
	Status     string  `json:"status"`
	Threshold  float64 `json:"threshold"`
	Statistic  string  `json:"statistic"`
	Period     int     `json:"period"`
	Enabled    bool    `json:"enabled"`
}

// MonitorGraph asks for a rendered chart of one metric over a time range.
type MonitorGraph struct {
	MetricName string    `json:"metric_name"`
	Statistic  string    `json:"statistic"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Period     int       `json:"period"`
}

// ChartData is the provider's rendered datapoints for a MonitorGraph.
type ChartData struct {
	MetricName string      `json:"metric_name"`
	Timestamps []time.Time `json:"timestamps"`
	Values     []float64   `json:"values"`
}

// NotificationChannel identifies the provider-side channel alarms publish to.
type NotificationChannel struct {
	ID     string `json:"id"`
	Region string `json:"region"`
}

// AlarmSetID identifies a batch of alarms created by PutAlarms.
type AlarmSetID string

// Environment carries the external account binding the ports act under.
// It mirrors db.AwsEnvironment without dragging persistence types into the
// port contracts.
type Environment struct {
	ID           string
	AwsAccountID string
	AwsRoleName  string
}

// MonitoringPort is the external alerting/metrics provider.
type MonitoringPort interface {
	// Describe lists the provider-side monitors configured for the resource.
	Describe(ctx context.Context, env Environment, res Resource) ([]Monitor, error)
	// PutAlarms creates or replaces the alarms for the resource, publishing
	// to the given channel. The channel permission must already be granted.
	PutAlarms(ctx context.Context, env Environment, res Resource, channel NotificationChannel) (AlarmSetID, error)
	// GetChart renders datapoints for the graph request.
	GetChart(ctx context.Context, env Environment, graph MonitorGraph, res Resource) (*ChartData, error)
}

// NotificationPort is the external pub/sub notification provider.
type NotificationPort interface {
	// GrantPermission allows the alerting provider to publish to the
	// notification channel for this environment. Safe to call repeatedly
	// with the same environment.
	GrantPermission(ctx context.Context, env Environment) (NotificationChannel, error)
}

// SchedulerPort registers and removes provider-side timed triggers for
// schedule definitions. Registration happens after the local record commits.
type SchedulerPort interface {
	RegisterTrigger(ctx context.Context, env Environment, eventID string, cron string) error
	RemoveTrigger(ctx context.Context, env Environment, eventID string) error
}

// ResourceCatalog resolves an addressable resource inside an environment.
// A missing resource is a NotFound outcome, never an authorization failure.
type ResourceCatalog interface {
	GetServiceResource(ctx context.Context, env Environment, region, serviceType, resourceID string) (*Resource, error)
}
