// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/haymanh/success/internal/app/system/auditlog"
	"github.com/haymanh/success/internal/app/system/metrics"
	"github.com/haymanh/success/internal/app/system/ratelimit"
	"github.com/haymanh/success/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Services is filled in by Startup and shared with BuildHandler and
	// Shutdown. Hooks receive DBDeps by value, so it is a pointer.
	Services *Services
}

// Services are the long-lived helpers built once at startup.
type Services struct {
	Metrics      *metrics.Metrics
	AuditLog     *auditlog.Logger
	LoginLimiter *ratelimit.LoginLimiter
	Expiry       *workers.DeadlineExpiry
}
