// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/haymanh/success/internal/app/store/audit"
	opportunitystore "github.com/haymanh/success/internal/app/store/opportunities"
	userstore "github.com/haymanh/success/internal/app/store/users"
	"github.com/haymanh/success/internal/app/system/auditlog"
	"github.com/haymanh/success/internal/app/system/metrics"
	"github.com/haymanh/success/internal/app/system/ratelimit"
	"github.com/haymanh/success/internal/app/system/timeouts"
	"github.com/haymanh/success/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after DB connections and schema
// setup, before the HTTP handler is built. It builds the shared services,
// bootstraps the admin account, seeds demo data when asked, and starts
// the deadline expiry worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Services == nil {
		return errors.New("startup: DBDeps.Services is nil")
	}
	db := deps.MongoDatabase
	svc := deps.Services

	timeouts.Configure(timeouts.Config{
		Short:  appCfg.DBTimeoutShort,
		Medium: appCfg.DBTimeoutMedium,
		Long:   appCfg.DBTimeoutLong,
	})

	svc.Metrics = metrics.New()
	svc.AuditLog = auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
		User:  appCfg.AuditLogUser,
	})
	svc.LoginLimiter = ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow)

	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, db, appCfg.AdminName, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
			return err
		}
	}

	if appCfg.SeedDemo {
		if err := seedDemo(ctx, db, logger); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	if appCfg.ExpiryInterval > 0 {
		svc.Expiry = workers.NewDeadlineExpiry(opportunitystore.New(db), logger, appCfg.ExpiryInterval)
		svc.Expiry.Start()
	}
	return nil
}

// ensureAdmin creates the bootstrap admin or promotes an existing account
// with the same email.
func ensureAdmin(ctx context.Context, db *mongo.Database, name, email, password string, logger *zap.Logger) error {
	created, err := userstore.New(db).EnsureAdmin(ctx, name, email, password)
	if err != nil {
		logger.Error("ensure admin failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info("created admin user", zap.String("email", email))
	} else {
		logger.Info("admin user present", zap.String("email", email))
	}
	return nil
}
