package cloud

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedMonitoringPort throttles calls to the underlying provider so a
// burst of orchestrations cannot trip the provider's API limits.
type RateLimitedMonitoringPort struct {
	port    MonitoringPort
	limiter *rate.Limiter
}

func NewRateLimitedMonitoringPort(port MonitoringPort, rps float64, burst int) *RateLimitedMonitoringPort {
	return &RateLimitedMonitoringPort{
		port:    port,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (p *RateLimitedMonitoringPort) Describe(ctx context.Context, env Environment, res Resource) ([]Monitor, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.port.Describe(ctx, env, res)
}

func (p *RateLimitedMonitoringPort) PutAlarms(ctx context.Context, env Environment, res Resource, channel NotificationChannel) (AlarmSetID, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.port.PutAlarms(ctx, env, res, channel)
}

func (p *RateLimitedMonitoringPort) GetChart(ctx context.Context, env Environment, graph MonitorGraph, res Resource) (*ChartData, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.port.GetChart(ctx, env, graph, res)
}
