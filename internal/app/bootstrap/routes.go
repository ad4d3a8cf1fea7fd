// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	accountfeature "github.com/haymanh/success/internal/app/features/account"
	auditlogfeature "github.com/haymanh/success/internal/app/features/auditlog"
	dashboardfeature "github.com/haymanh/success/internal/app/features/dashboard"
	healthfeature "github.com/haymanh/success/internal/app/features/health"
	opportunitiesfeature "github.com/haymanh/success/internal/app/features/opportunities"
	programsfeature "github.com/haymanh/success/internal/app/features/programs"
	userstore "github.com/haymanh/success/internal/app/store/users"
	"github.com/haymanh/success/internal/app/system/apiresp"
	"github.com/haymanh/success/internal/app/system/auth"
	"go.uber.org/zap"
)

// Version is reported by /health. Overridden at build time with -ldflags.
var Version = "dev"

// BuildHandler constructs the root HTTP handler.
//
// Every API route answers the JSON envelope from apiresp. The session
// middleware runs globally so handlers can read auth.CurrentUser(r);
// individual routers add RequireSignedIn or RequireRole.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.Services
	if svc == nil || svc.Metrics == nil {
		return nil, errors.New("build handler: Startup did not initialize services")
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request, so role changes and disabled
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	db := deps.MongoDatabase
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(svc.Metrics.Middleware)
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", svc.Metrics.Handler())

	accountHandler := accountfeature.NewHandler(db, sessionMgr, svc.LoginLimiter, svc.AuditLog, logger)
	oppHandler := opportunitiesfeature.NewHandler(db, svc.Metrics, svc.AuditLog, logger)
	dashboardHandler := dashboardfeature.NewHandler(db, svc.Metrics, svc.AuditLog, logger)
	programsHandler := programsfeature.NewHandler(db, svc.AuditLog, logger)
	auditHandler := auditlogfeature.NewHandler(db, logger)

	r.Route("/api", func(api chi.Router) {
		api.Mount("/auth", accountfeature.Routes(accountHandler))
		api.Mount("/opportunities", opportunitiesfeature.Routes(oppHandler))
		api.Mount("/programs", programsfeature.Routes(programsHandler))
		api.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		api.Mount("/admin/opportunities", opportunitiesfeature.AdminRoutes(oppHandler, sessionMgr))
		api.Mount("/admin/programs", programsfeature.AdminRoutes(programsHandler, sessionMgr))
		api.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			apiresp.Error(w, http.StatusNotFound, "Route not found")
		})
	})

	return r, nil
}
