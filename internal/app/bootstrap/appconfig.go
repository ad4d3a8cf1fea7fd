// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging level and request limits.
// Everything specific to the opportunities platform lives here and is
// passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (32+ chars in prod)
	SessionName   string // Cookie name for sessions (default: haymanh-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// Origins allowed to call the API with credentials (the SPA host).
	CORSAllowedOrigins []string

	// Audit logging: "all", "db", "log" or "off" per category.
	AuditLogAuth  string
	AuditLogAdmin string
	AuditLogUser  string

	// Bootstrap admin, created or promoted on startup when AdminEmail is set.
	AdminName     string
	AdminEmail    string
	AdminPassword string

	// SeedDemo inserts sample opportunities and programs into an empty
	// database.
	SeedDemo bool

	// Login throttling: attempts per IP per window.
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// How often active opportunities past their deadline are expired.
	// Zero disables the sweep.
	ExpiryInterval time.Duration

	// Context deadlines around DB work; zero keeps the built-in value.
	DBTimeoutShort  time.Duration
	DBTimeoutMedium time.Duration
	DBTimeoutLong   time.Duration
}
