// Package service holds the use-case orchestrators: they authorize the
// acting principal, sequence external provider calls, persist results and
// write the audit trail. Transport and persistence mechanics live outside.
package service

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
	"github.com/okonomi-dev/cloud-warden/internal/cloud"
	"github.com/okonomi-dev/cloud-warden/internal/db"
	"github.com/okonomi-dev/cloud-warden/internal/metrics"
)

// OperationLogStore is the audit sink. Entries are written only after the
// orchestration actually took effect.
type OperationLogStore interface {
	CreateOperationLog(l *db.OperationLog) error
}

func toCloudEnv(env *db.AwsEnvironment) cloud.Environment {
	return cloud.Environment{
		ID:           env.ID.String(),
		AwsAccountID: env.AwsAccountID,
		AwsRoleName:  env.AwsRoleName,
	}
}

// observer logs every orchestration attempt at entry and its classified
// outcome at exit, and feeds the prometheus collector. This is operational
// visibility, separate from the OperationLog audit trail.
type observer struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

func (o observer) start(operation string, fields ...zap.Field) func(err error) {
	o.logger.Info(operation+" started", fields...)
	begin := time.Now()

	return func(err error) {
		elapsed := time.Since(begin)
		if err == nil {
			o.metrics.RecordOperation(operation, "success", elapsed)
			o.logger.Info(operation+" finished", append(fields, zap.Duration("elapsed", elapsed))...)
			return
		}
		kind := apperr.KindOf(err)
		o.metrics.RecordOperation(operation, kind.String(), elapsed)
		o.logger.Warn(operation+" failed",
			append(fields, zap.String("outcome", kind.String()), zap.Error(err))...)
	}
}

// recordOperation appends one audit entry for a committed mutation.
func recordOperation(store OperationLogStore, m *metrics.Collector, executor *db.User, tenantID uuid.UUID, operation string) error {
	now := time.Now().UTC()
	entry := &db.OperationLog{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Operation: operation,
		Status:    db.OperationLogActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if executor != nil {
		id := executor.ID
		entry.ExecutorID = &id
	}
	if err := store.CreateOperationLog(entry); err != nil {
		return apperr.Wrap(apperr.KindUnexpected, "failed to record operation log", err)
	}
	m.RecordAuditEntry()
	return nil
}
