// Package auth decides whether a principal may act on a tenant-scoped AWS
// environment binding. Every orchestration entry point that touches an
// environment calls the guard before any external call or write.
package auth

import (
	"go.uber.org/zap"

	"github.com/okonomi-dev/cloud-warden/internal/apperr"
	"github.com/okonomi-dev/cloud-warden/internal/db"
)

// HasAwsEnv reports whether the user may act on the environment: same tenant
// and the environment is in the user's explicit permitted set. Pure function
// so it can be tested without persistence.
func HasAwsEnv(user *db.User, env *db.AwsEnvironment) bool {
	if user == nil || env == nil {
		return false
	}
	if user.TenantID != env.TenantID {
		return false
	}
	return user.EnvironmentIDs.Contains(env.ID)
}

type Guard struct {
	logger *zap.Logger
}

func NewGuard(logger *zap.Logger) *Guard {
	return &Guard{logger: logger}
}

// Authorize returns a Forbidden error when the principal may not use the
// environment. The message never reveals whether the environment exists
// under another tenant. A nil principal or environment is denied, never a
// panic.
func (g *Guard) Authorize(user *db.User, env *db.AwsEnvironment) error {
	if HasAwsEnv(user, env) {
		return nil
	}
	if user == nil || env == nil {
		return apperr.Forbidden("missing principal or aws environment")
	}
	g.logger.Warn("authorization denied",
		zap.String("user_id", user.ID.String()),
		zap.String("aws_environment_id", env.ID.String()),
	)
	return apperr.Forbidden("user %s can't use aws environment %s", user.ID, env.ID)
}

// AuthorizeTenant denies principals acting outside their own tenant.
func (g *Guard) AuthorizeTenant(user *db.User, tenant *db.Tenant) error {
	if user != nil && tenant != nil && user.TenantID == tenant.ID {
		return nil
	}
	if user == nil || tenant == nil {
		return apperr.Forbidden("missing principal or tenant")
	}
	return apperr.Forbidden("user %s can't act on tenant %s", user.ID, tenant.ID)
}
