package cloud

// ServiceType enumerates the resource services the control plane manages.
type ServiceType string

const (
	ServiceEC2 ServiceType = "ec2"
	ServiceRDS ServiceType = "rds"
	ServiceELB ServiceType = "elb"
)

// Resource is an addressable unit inside an environment.
type Resource struct {
	ID          string      `json:"id"`
	ServiceType ServiceType `json:"service_type"`
	Region      string      `json:"region"`
	Name        string      `json:"name"`
}

// serviceMetrics lists the metric names each service exposes. Graph requests
// are validated against this set before any provider call.
var serviceMetrics = map[ServiceType][]string{
	ServiceEC2: {
		"CPUUtilization",
		"StatusCheckFailed",
		"NetworkIn",
		"NetworkOut",
		"DiskReadBytes",
		"DiskWriteBytes",
	},
	ServiceRDS: {
		"CPUUtilization",
		"FreeableMemory",
		"FreeStorageSpace",
		"DatabaseConnections",
		"ReadLatency",
		"WriteLatency",
	},
	ServiceELB: {
		"RequestCount",
		"HTTPCode_Target_4XX_Count",
		"HTTPCode_Target_5XX_Count",
		"TargetResponseTime",
		"UnHealthyHostCount",
	},
}

// SupportedMetrics returns the metric names this resource exposes.
func (r Resource) SupportedMetrics() []string {
	return serviceMetrics[r.ServiceType]
}

// SupportsMetric reports whether the resource exposes the named metric.
func (r Resource) SupportsMetric(name string) bool {
	for _, m := range r.SupportedMetrics() {
		if m == name {
			return true
		}
	}
	return false
}

// KnownServiceType reports whether s names a managed service.
func KnownServiceType(s string) bool {
	_, ok := serviceMetrics[ServiceType(s)]
	return ok
}
