package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/cloud"
	"github.com/okonomi-dev/cloud-warden/internal/db"
)

// Variant is the service-specific half of a schedule. Each supported service
// type maps to exactly one concrete variant carrying only its own fields.
type Variant interface {
	ServiceType() cloud.ServiceType
	Action() string
	Params() db.JSONB
}

// EC2Variant starts or stops a compute instance.
type EC2Variant struct {
	Op string // start, stop
}

func (v EC2Variant) ServiceType() cloud.ServiceType { return cloud.ServiceEC2 }
func (v EC2Variant) Action() string                 { return v.Op }
func (v EC2Variant) Params() db.JSONB               { return db.JSONB{} }

// RDSVariant starts, stops or resizes a database instance. InstanceClass is
// set only for resize.
type RDSVariant struct {
	Op            string // start, stop, resize
	InstanceClass string
}

func (v RDSVariant) ServiceType() cloud.ServiceType { return cloud.ServiceRDS }
func (v RDSVariant) Action() string                 { return v.Op }

func (v RDSVariant) Params() db.JSONB {
	if v.InstanceClass == "" {
		return db.JSONB{}
	}
	return db.JSONB{"instance_class": v.InstanceClass}
}

// Trigger defines when the schedule fires: a cron expression for recurring
// actions or a single run time for one-shot actions. Exactly one is set.
type Trigger struct {
	CronExpression string
	RunAt          *time.Time
}

// Recurring reports whether the trigger repeats.
func (t Trigger) Recurring() bool { return t.CronExpression != "" }

// Schedule is a validated, typed scheduled action. A zero EventID marks a
// create; a set EventID marks a replace of the existing record.
type Schedule struct {
	EventID          uuid.UUID
	AwsEnvironmentID uuid.UUID
	ResourceID       string
	Region           string
	Trigger          Trigger
	NotifyGroupID    *uuid.UUID
	Variant          Variant
}

// Record flattens the schedule into its persisted form.
func (s *Schedule) Record(tenantID uuid.UUID, now time.Time) *db.ScheduleRecord {
	return &db.ScheduleRecord{
		EventID:          s.EventID,
		TenantID:         tenantID,
		AwsEnvironmentID: s.AwsEnvironmentID,
		ResourceID:       s.ResourceID,
		ServiceType:      string(s.Variant.ServiceType()),
		Region:           s.Region,
		Action:           s.Variant.Action(),
		Params:           s.Variant.Params(),
		CronExpression:   s.Trigger.CronExpression,
		RunAt:            s.Trigger.RunAt,
		NotifyGroupID:    s.NotifyGroupID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// FromRecord rebuilds the typed schedule from a persisted record.
func FromRecord(rec *db.ScheduleRecord) (*Schedule, error) {
	var variant Variant
	switch cloud.ServiceType(rec.ServiceType) {
	case cloud.ServiceEC2:
		variant = EC2Variant{Op: rec.Action}
	case cloud.ServiceRDS:
		v := RDSVariant{Op: rec.Action}
		if class, ok := rec.Params["instance_class"].(string); ok {
			v.InstanceClass = class
		}
		variant = v
	default:
		return nil, errUnknownServiceType(rec.ServiceType)
	}

	return &Schedule{
		EventID:          rec.EventID,
		AwsEnvironmentID: rec.AwsEnvironmentID,
		ResourceID:       rec.ResourceID,
		Region:           rec.Region,
		Trigger:          Trigger{CronExpression: rec.CronExpression, RunAt: rec.RunAt},
		NotifyGroupID:    rec.NotifyGroupID,
		Variant:          variant,
	}, nil
}
