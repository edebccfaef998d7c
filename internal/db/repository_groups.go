package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
)

// Notification group operations

func (r *Repository) CreateNotificationGroup(g *NotificationGroup) error {
	query := `
		INSERT INTO notification_groups (id, tenant_id, name, destinations, created_at, updated_at)
		VALUES (:id, :tenant_id, :name, :destinations, :created_at, :updated_at)`
	if _, err := r.db.NamedExec(query, g); err != nil {
		return fmt.Errorf("failed to create notification group: %w", err)
	}
	return nil
}

func (r *Repository) GetNotificationGroup(id, tenantID uuid.UUID) (*NotificationGroup, error) {
	var g NotificationGroup
	query := `SELECT * FROM notification_groups WHERE id = $1 AND tenant_id = $2`
	err := r.db.Get(&g, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("notification group not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification group: %w", err)
	}
	return &g, nil
}

func (r *Repository) GetNotificationGroupsByTenant(tenantID uuid.UUID) ([]*NotificationGroup, error) {
	groups := []*NotificationGroup{}
	query := `SELECT * FROM notification_groups WHERE tenant_id = $1 ORDER BY created_at`
	if err := r.db.Select(&groups, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list notification groups: %w", err)
	}
	return groups, nil
}

func (r *Repository) UpdateNotificationGroup(g *NotificationGroup) error {
	query := `
		UPDATE notification_groups SET
			name = :name,
			destinations = :destinations,
			updated_at = :updated_at
		WHERE id = :id AND tenant_id = :tenant_id`
	result, err := r.db.NamedExec(query, g)
	if err != nil {
		return fmt.Errorf("failed to update notification group: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("notification group not found: %s", g.ID)
	}
	return nil
}

// DeleteNotificationGroup removes the group unless a schedule still routes
// notifications through it. The reference check and the delete run in one
// transaction so a concurrent schedule save cannot slip between them.
func (r *Repository) DeleteNotificationGroup(id, tenantID uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var refs int
	query := `SELECT COUNT(*) FROM schedules WHERE notification_group_id = $1`
	if err := tx.Get(&refs, query, id); err != nil {
		return fmt.Errorf("failed to count group references: %w", err)
	}
	if refs > 0 {
		return apperr.Conflict("notification group %s still referenced by %d schedule(s)", id, refs)
	}

	result, err := tx.Exec(`DELETE FROM notification_groups WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete notification group: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("notification group not found: %s", id)
	}
	return tx.Commit()
}
