package db

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
)

// Operation log operations

func (r *Repository) CreateOperationLog(l *OperationLog) error {
	query := `
		INSERT INTO operation_logs (id, tenant_id, executor_id, operation, status, created_at, updated_at)
		VALUES (:id, :tenant_id, :executor_id, :operation, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExec(query, l); err != nil {
		return fmt.Errorf("failed to create operation log: %w", err)
	}
	return nil
}

func (r *Repository) GetOperationLogsByTenant(tenantID uuid.UUID, limit, offset int) ([]*OperationLog, error) {
	logs := []*OperationLog{}
	query := `
		SELECT * FROM operation_logs
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	if err := r.db.Select(&logs, query, tenantID, OperationLogActive, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list operation logs: %w", err)
	}
	return logs, nil
}

// SoftDeleteOperationLog flips the status flag. Audit entries are never
// physically removed.
func (r *Repository) SoftDeleteOperationLog(id, tenantID uuid.UUID) error {
	query := `
		UPDATE operation_logs SET status = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2`
	result, err := r.db.Exec(query, id, tenantID, OperationLogDeleted)
	if err != nil {
		return fmt.Errorf("failed to soft-delete operation log: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("operation log not found: %s", id)
	}
	return nil
}
