// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/haymanh/success/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// minProdSessionKeyLen is the shortest session key accepted in prod.
const minProdSessionKeyLen = 32

// appConfigKeys defines the configuration keys for the platform.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: HAYMANH_MONGO_URI, HAYMANH_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "haymanh", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (32+ chars in production)"},
	{Name: "session_name", Default: "haymanh-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session lifetime (e.g., 24h, 168h)"},

	{Name: "cors_allowed_origins", Default: "http://localhost:3000", Desc: "Comma-separated origins allowed to call the API"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_user", Default: "log", Desc: "Selection and enrollment logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Admin bootstrap
	{Name: "admin_name", Default: "Administrator", Desc: "Display name for the bootstrap admin"},
	{Name: "admin_email", Default: "", Desc: "Email of the bootstrap admin (created or promoted on startup)"},
	{Name: "admin_password", Default: "", Desc: "Password for a newly created bootstrap admin"},

	{Name: "seed_demo", Default: false, Desc: "Seed demo opportunities and programs into an empty database"},

	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per IP per window"},
	{Name: "login_rate_window", Default: "1m", Desc: "Login rate limit window"},

	{Name: "expiry_interval", Default: "15m", Desc: "How often past-deadline opportunities are expired (0 disables)"},

	{Name: "db_timeout_short", Default: "5s", Desc: "Deadline for single-document DB operations"},
	{Name: "db_timeout_medium", Default: "10s", Desc: "Deadline for DB list queries"},
	{Name: "db_timeout_long", Default: "30s", Desc: "Deadline for startup and maintenance DB work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// HAYMANH_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "HAYMANH", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 7*24*time.Hour),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
		AuditLogUser:  appValues.String("audit_log_user"),

		AdminName:     appValues.String("admin_name"),
		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		SeedDemo: appValues.Bool("seed_demo"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", time.Minute),

		ExpiryInterval: appValues.Duration("expiry_interval", 15*time.Minute),

		DBTimeoutShort:  appValues.Duration("db_timeout_short", timeouts.DefaultShort),
		DBTimeoutMedium: appValues.Duration("db_timeout_medium", timeouts.DefaultMedium),
		DBTimeoutLong:   appValues.Duration("db_timeout_long", timeouts.DefaultLong),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before connecting. In prod the session key
// must be at least 32 characters and an admin email needs a password.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key must be set")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.SessionKey) < minProdSessionKeyLen {
		return fmt.Errorf("session_key must be at least %d characters in prod", minProdSessionKeyLen)
	}
	if appCfg.AdminEmail != "" && len(appCfg.AdminPassword) < 6 {
		return fmt.Errorf("admin_password must be at least 6 characters when admin_email is set")
	}
	if appCfg.LoginRateLimit < 1 {
		return fmt.Errorf("login_rate_limit must be positive")
	}
	if appCfg.ExpiryInterval < 0 {
		return fmt.Errorf("expiry_interval must not be negative")
	}
	if appCfg.DBTimeoutShort < 0 || appCfg.DBTimeoutMedium < 0 || appCfg.DBTimeoutLong < 0 {
		return fmt.Errorf("db timeouts must not be negative")
	}
	return nil
}
