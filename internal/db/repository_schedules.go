package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
)

// Schedule operations

func (r *Repository) CreateSchedule(s *ScheduleRecord) error {
	query := `
		INSERT INTO schedules (
			event_id, tenant_id, aws_environment_id, resource_id, service_type,
			region, action, params, cron_expression, run_at,
			notification_group_id, activated, version, created_at, updated_at
		) VALUES (
			:event_id, :tenant_id, :aws_environment_id, :resource_id, :service_type,
			:region, :action, :params, :cron_expression, :run_at,
			:notification_group_id, :activated, :version, :created_at, :updated_at
		)`
	if _, err := r.db.NamedExec(query, s); err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// ReplaceSchedule fully replaces the record identified by event_id. The
// version guard makes concurrent replaces of the same event lose explicitly
// instead of silently overwriting each other.
func (r *Repository) ReplaceSchedule(s *ScheduleRecord) error {
	query := `
		UPDATE schedules SET
			resource_id = :resource_id,
			service_type = :service_type,
			region = :region,
			action = :action,
			params = :params,
			cron_expression = :cron_expression,
			run_at = :run_at,
			notification_group_id = :notification_group_id,
			activated = :activated,
			version = version + 1,
			updated_at = :updated_at
		WHERE event_id = :event_id
		  AND tenant_id = :tenant_id
		  AND aws_environment_id = :aws_environment_id
		  AND version = :version`
	result, err := r.db.NamedExec(query, s)
	if err != nil {
		return fmt.Errorf("failed to replace schedule: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Either the event is gone or another writer bumped the version.
		if _, getErr := r.GetSchedule(s.EventID, s.TenantID, s.AwsEnvironmentID); getErr != nil {
			return getErr
		}
		return apperr.Conflict("schedule %s was modified concurrently", s.EventID)
	}
	s.Version++
	return nil
}

func (r *Repository) GetSchedule(eventID, tenantID, envID uuid.UUID) (*ScheduleRecord, error) {
	var s ScheduleRecord
	query := `
		SELECT * FROM schedules
		WHERE event_id = $1 AND tenant_id = $2 AND aws_environment_id = $3`
	err := r.db.Get(&s, query, eventID, tenantID, envID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("schedule not found: %s", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &s, nil
}

func (r *Repository) GetSchedulesByResource(tenantID, envID uuid.UUID, resourceID string) ([]*ScheduleRecord, error) {
	schedules := []*ScheduleRecord{}
	query := `
		SELECT * FROM schedules
		WHERE tenant_id = $1 AND aws_environment_id = $2 AND resource_id = $3
		ORDER BY created_at`
	if err := r.db.Select(&schedules, query, tenantID, envID, resourceID); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (r *Repository) DeleteSchedule(eventID, tenantID, envID uuid.UUID) error {
	query := `
		DELETE FROM schedules
		WHERE event_id = $1 AND tenant_id = $2 AND aws_environment_id = $3`
	result, err := r.db.Exec(query, eventID, tenantID, envID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("schedule not found: %s", eventID)
	}
	return nil
}

// SetScheduleActivated flips the external-registration flag after the
// provider-side trigger is created or repaired.
func (r *Repository) SetScheduleActivated(eventID uuid.UUID, activated bool) error {
	result, err := r.db.Exec(`UPDATE schedules SET activated = $2 WHERE event_id = $1`, eventID, activated)
	if err != nil {
		return fmt.Errorf("failed to update schedule activation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("schedule not found: %s", eventID)
	}
	return nil
}
