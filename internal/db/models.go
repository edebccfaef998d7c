package db

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type OperationLogStatus string

const (
	OperationLogActive  OperationLogStatus = "active"
	OperationLogDeleted OperationLogStatus = "deleted"
)

// Tenant is the administrative root. Every other entity is reached through a
// tenant-scoped path.
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Tel       string    `json:"tel" db:"tel"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// User is a principal belonging to exactly one tenant. EnvironmentIDs is the
// explicit set of AWS environments the user may act on; it is loaded from the
// user_aws_environments join table alongside the row.
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TenantID       uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Email          string    `json:"email" db:"email"`
	Name           string    `json:"name" db:"name"`
	Role           Role      `json:"role" db:"role"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	EnvironmentIDs UUIDSlice `json:"aws_environment_ids" db:"-"`
}

// AwsEnvironment binds one external cloud account/credential set to a tenant.
type AwsEnvironment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TenantID     uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name         string    `json:"name" db:"name"`
	AwsAccountID string    `json:"aws_account_id" db:"aws_account_id"`
	AwsRoleName  string    `json:"aws_role_name" db:"aws_role_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NotificationGroup is a named set of delivery destinations scoped to a
// tenant, referenced by alarms and schedules for delivery.
type NotificationGroup struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	TenantID     uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	Name         string       `json:"name" db:"name"`
	Destinations Destinations `json:"destinations" db:"destinations"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

type Destination struct {
	Type    string `json:"type"` // email, phone
	Address string `json:"address"`
}

// ScheduleRecord is the persisted, flattened form of a schedule variant.
// EventID is stable across updates; Version guards concurrent replaces.
type ScheduleRecord struct {
	EventID          uuid.UUID  `json:"event_id" db:"event_id"`
	TenantID         uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	AwsEnvironmentID uuid.UUID  `json:"aws_environment_id" db:"aws_environment_id"`
	ResourceID       string     `json:"resource_id" db:"resource_id"`
	ServiceType      string     `json:"service_type" db:"service_type"`
	Region           string     `json:"region" db:"region"`
	Action           string     `json:"action" db:"action"`
	Params           JSONB      `json:"params" db:"params"`
	CronExpression   string     `json:"cron_expression" db:"cron_expression"`
	RunAt            *time.Time `json:"run_at,omitempty" db:"run_at"`
	NotifyGroupID    *uuid.UUID `json:"notification_group_id,omitempty" db:"notification_group_id"`
	Activated        bool       `json:"activated" db:"activated"`
	Version          int        `json:"version" db:"version"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// OperationLog is the immutable-once-written audit record of a mutating
// orchestration. Executor is nullable so removing a user account never
// removes its trail.
type OperationLog struct {
	ID         uuid.UUID          `json:"id" db:"id"`
	TenantID   uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	ExecutorID *uuid.UUID         `json:"executor_id" db:"executor_id"`
	Operation  string             `json:"operation" db:"operation"`
	Status     OperationLogStatus `json:"status" db:"status"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" db:"updated_at"`
}

// Custom types for PostgreSQL arrays and JSONB

type UUIDSlice []uuid.UUID

func (s UUIDSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *UUIDSlice) Scan(value interface{}) error {
	if value == nil {
		*s = UUIDSlice{}
		return nil
	}
	return json.Unmarshal(value.([]byte), s)
}

// Contains reports whether id is in the slice.
func (s UUIDSlice) Contains(id uuid.UUID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	return json.Unmarshal(value.([]byte), j)
}

type Destinations []Destination

func (d Destinations) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *Destinations) Scan(value interface{}) error {
	if value == nil {
		*d = Destinations{}
		return nil
	}
	return json.Unmarshal(value.([]byte), d)
}
