package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes orchestration-level metrics: how often each use case
// runs, how it ends, and how external provider calls behave.
type Collector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	externalCalls     *prometheus.CounterVec
	auditEntriesTotal prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_operations_total",
				Help: "Orchestration calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_operation_duration_seconds",
				Help:    "Duration of orchestration calls",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		externalCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_external_calls_total",
				Help: "External provider calls by port, call and outcome",
			},
			[]string{"port", "call", "outcome"},
		),
		auditEntriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_audit_entries_total",
				Help: "Operation log entries written",
			},
		),
	}
}

func (c *Collector) RecordOperation(operation, outcome string, duration time.Duration) {
	c.operationsTotal.WithLabelValues(operation, outcome).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) RecordExternalCall(port, call string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.externalCalls.WithLabelValues(port, call, outcome).Inc()
}

func (c *Collector) RecordAuditEntry() {
	c.auditEntriesTotal.Inc()
}
