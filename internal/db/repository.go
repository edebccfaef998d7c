package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
)

type Repository struct {
	db *sqlx.DB
}

func NewConnection(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Tenant operations

// CreateTenantWithAdmin persists a tenant together with its first admin user
// in one transaction. A tenant must never exist without an admin able to
// manage it, so the two inserts commit or fail together.
func (r *Repository) CreateTenantWithAdmin(t *Tenant, admin *User) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tenants (id, name, email, tel, created_at, updated_at)
		VALUES (:id, :name, :email, :tel, :created_at, :updated_at)`
	if _, err := tx.NamedExec(query, t); err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	admin.TenantID = t.ID
	admin.Role = RoleAdmin
	if err := insertUser(tx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return tx.Commit()
}

func (r *Repository) GetTenant(id uuid.UUID) (*Tenant, error) {
	var t Tenant
	query := `SELECT * FROM tenants WHERE id = $1`
	err := r.db.Get(&t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("tenant not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

func (r *Repository) GetTenants() ([]*Tenant, error) {
	tenants := []*Tenant{}
	query := `SELECT * FROM tenants ORDER BY created_at`
	if err := r.db.Select(&tenants, query); err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

func (r *Repository) UpdateTenant(t *Tenant) error {
	query := `
		UPDATE tenants SET
			name = :name,
			email = :email,
			tel = :tel,
			updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExec(query, t)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("tenant not found: %s", t.ID)
	}
	return nil
}

// DeleteTenant removes the tenant. Users, environments, notification groups,
// schedules and the tenant's operation logs all cascade at the schema level.
func (r *Repository) DeleteTenant(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("tenant not found: %s", id)
	}
	return nil
}

// User operations

func insertUser(tx *sqlx.Tx, u *User) error {
	query := `
		INSERT INTO users (id, tenant_id, email, name, role, password_hash, created_at, updated_at)
		VALUES (:id, :tenant_id, :email, :name, :role, :password_hash, :created_at, :updated_at)`
	if _, err := tx.NamedExec(query, u); err != nil {
		return err
	}
	for _, envID := range u.EnvironmentIDs {
		_, err := tx.Exec(
			`INSERT INTO user_aws_environments (user_id, aws_environment_id) VALUES ($1, $2)`,
			u.ID, envID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) CreateUser(u *User) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertUser(tx, u); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return tx.Commit()
}

func (r *Repository) GetUser(id uuid.UUID) (*User, error) {
	var u User
	query := `SELECT * FROM users WHERE id = $1`
	err := r.db.Get(&u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := r.loadUserEnvironments(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetUserByEmail(email string) (*User, error) {
	var u User
	query := `SELECT * FROM users WHERE email = $1`
	err := r.db.Get(&u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found: %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := r.loadUserEnvironments(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) loadUserEnvironments(u *User) error {
	ids := []uuid.UUID{}
	query := `SELECT aws_environment_id FROM user_aws_environments WHERE user_id = $1`
	if err := r.db.Select(&ids, query, u.ID); err != nil {
		return fmt.Errorf("failed to load user environments: %w", err)
	}
	u.EnvironmentIDs = UUIDSlice(ids)
	return nil
}

// GrantUserEnvironment adds an environment to the user's permitted set.
// Repeat grants are no-ops.
func (r *Repository) GrantUserEnvironment(userID, envID uuid.UUID) error {
	query := `
		INSERT INTO user_aws_environments (user_id, aws_environment_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	if _, err := r.db.Exec(query, userID, envID); err != nil {
		return fmt.Errorf("failed to grant environment: %w", err)
	}
	return nil
}

// AwsEnvironment operations

func (r *Repository) CreateAwsEnvironment(e *AwsEnvironment) error {
	query := `
		INSERT INTO aws_environments (id, tenant_id, name, aws_account_id, aws_role_name, created_at, updated_at)
		VALUES (:id, :tenant_id, :name, :aws_account_id, :aws_role_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExec(query, e); err != nil {
		return fmt.Errorf("failed to create aws environment: %w", err)
	}
	return nil
}

func (r *Repository) GetAwsEnvironment(id, tenantID uuid.UUID) (*AwsEnvironment, error) {
	var e AwsEnvironment
	query := `SELECT * FROM aws_environments WHERE id = $1 AND tenant_id = $2`
	err := r.db.Get(&e, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("aws environment not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aws environment: %w", err)
	}
	return &e, nil
}

func (r *Repository) GetAwsEnvironmentsByTenant(tenantID uuid.UUID) ([]*AwsEnvironment, error) {
	envs := []*AwsEnvironment{}
	query := `SELECT * FROM aws_environments WHERE tenant_id = $1 ORDER BY created_at`
	if err := r.db.Select(&envs, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list aws environments: %w", err)
	}
	return envs, nil
}

// DeleteAwsEnvironment refuses to remove an environment that still has
// schedules attached. Deleting the binding out from under an active schedule
// would orphan the external trigger.
func (r *Repository) DeleteAwsEnvironment(id, tenantID uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var refs int
	query := `SELECT COUNT(*) FROM schedules WHERE aws_environment_id = $1`
	if err := tx.Get(&refs, query, id); err != nil {
		return fmt.Errorf("failed to count schedule references: %w", err)
	}
	if refs > 0 {
		return apperr.Conflict("aws environment %s still referenced by %d schedule(s)", id, refs)
	}

	result, err := tx.Exec(`DELETE FROM aws_environments WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete aws environment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("aws environment not found: %s", id)
	}
	return tx.Commit()
}
