// Package schedule builds validated, typed scheduled-action records from the
// untyped per-service request shapes. Construction runs before authorization
// and touches no external state, so a request that can never succeed fails
// before any authorization or persistence work happens.
package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
)

// Input is the untyped request shape handed to the factory. Fields carries
// the per-service action payload.
type Input struct {
	ResourceID       string
	ServiceType      string
	Region           string
	AwsEnvironmentID uuid.UUID
	// EventID is empty for a create and set for a replace-by-id update.
	EventID string
	Fields  map[string]any
}

func errUnknownServiceType(s string) error {
	return apperr.BadRequest("unknown service type: %q", s)
}

// Create validates the input and returns a fully-populated schedule variant,
// or a BadRequest error. It never returns a partially-populated schedule.
func Create(in Input) (*Schedule, error) {
	if in.ResourceID == "" {
		return nil, apperr.BadRequest("resource_id is required")
	}
	if in.Region == "" {
		return nil, apperr.BadRequest("region is required")
	}
	if in.AwsEnvironmentID == uuid.Nil {
		return nil, apperr.BadRequest("aws_environment_id is required")
	}

	variant, err := buildVariant(in.ServiceType, in.Fields)
	if err != nil {
		return nil, err
	}

	trigger, err := buildTrigger(in.Fields)
	if err != nil {
		return nil, err
	}

	s := &Schedule{
		AwsEnvironmentID: in.AwsEnvironmentID,
		ResourceID:       in.ResourceID,
		Region:           in.Region,
		Trigger:          trigger,
		Variant:          variant,
	}

	if in.EventID != "" {
		id, err := uuid.Parse(in.EventID)
		if err != nil {
			return nil, apperr.BadRequest("invalid event_id: %q", in.EventID)
		}
		s.EventID = id
	}

	if raw, ok := in.Fields["notification_group_id"]; ok {
		str, ok := raw.(string)
		if !ok {
			return nil, apperr.BadRequest("notification_group_id must be a string")
		}
		id, err := uuid.Parse(str)
		if err != nil {
			return nil, apperr.BadRequest("invalid notification_group_id: %q", str)
		}
		s.NotifyGroupID = &id
	}

	return s, nil
}

func buildVariant(serviceType string, fields map[string]any) (Variant, error) {
	action, _ := fields["action"].(string)

	switch serviceType {
	case "ec2":
		switch action {
		case "start", "stop":
			return EC2Variant{Op: action}, nil
		default:
			return nil, apperr.BadRequest("ec2 schedule requires action start or stop, got %q", action)
		}
	case "rds":
		switch action {
		case "start", "stop":
			return RDSVariant{Op: action}, nil
		case "resize":
			class, _ := fields["instance_class"].(string)
			if class == "" {
				return nil, apperr.BadRequest("rds resize requires instance_class")
			}
			return RDSVariant{Op: action, InstanceClass: class}, nil
		default:
			return nil, apperr.BadRequest("rds schedule requires action start, stop or resize, got %q", action)
		}
	default:
		return nil, errUnknownServiceType(serviceType)
	}
}

func buildTrigger(fields map[string]any) (Trigger, error) {
	cron, _ := fields["cron"].(string)
	runAtRaw, hasRunAt := fields["run_at"]

	if cron != "" && hasRunAt {
		return Trigger{}, apperr.BadRequest("cron and run_at are mutually exclusive")
	}
	if cron != "" {
		return Trigger{CronExpression: cron}, nil
	}
	if hasRunAt {
		str, ok := runAtRaw.(string)
		if !ok {
			return Trigger{}, apperr.BadRequest("run_at must be an RFC3339 timestamp")
		}
		at, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return Trigger{}, apperr.BadRequest("invalid run_at: %q", str)
		}
		return Trigger{RunAt: &at}, nil
	}
	return Trigger{}, apperr.BadRequest("either cron or run_at is required")
}
