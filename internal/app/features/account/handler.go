// internal/app/features/account/handler.go
package account

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/haymanh/success/internal/app/store/users"
	"github.com/haymanh/success/internal/app/system/apiresp"
	"github.com/haymanh/success/internal/app/system/auditlog"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/app/system/inputval"
	"github.com/haymanh/success/internal/app/system/normalize"
	"github.com/haymanh/success/internal/app/system/ratelimit"
	"github.com/haymanh/success/internal/app/system/timeouts"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, limiter *ratelimit.LoginLimiter, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sm,
		Limiter:    limiter,
		AuditLog:   al,
		Log:        logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request / response shapes                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User models.User `json:"user"`
}

func validateRegister(req registerRequest) inputval.Result {
	var res inputval.Result
	res.Check(strings.TrimSpace(req.Name) != "", "name", "Name is required")
	res.Check(inputval.IsValidEmail(req.Email), "email", "A valid email is required")
	res.Check(len(req.Password) >= userstore.MinPasswordLen, "password", "Password must be at least 6 characters")
	if req.Language != "" {
		res.Check(req.Language == "ar" || req.Language == "en", "language", "Language must be ar or en")
	}
	return res
}

// Register handles POST /api/auth/register. The new account is signed in
// immediately.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if res := validateRegister(req); !res.OK() {
		apiresp.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    strings.TrimSpace(req.Phone),
		Language: req.Language,
		Role:     models.RoleUser,
	}, req.Password)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		apiresp.Error(w, http.StatusConflict, "A user with this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("register: create user", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not create account")
		return
	}

	h.AuditLog.Registered(ctx, r, u.ID, u.Email)
	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("register: sign in", zap.Error(err))
	}
	apiresp.Created(w, userResponse{User: u})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		apiresp.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, email, "login")
			apiresp.Error(w, http.StatusTooManyRequests, msg)
			return
		}
	}

	u, err := h.Users.Authenticate(ctx, email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, userstore.ErrDisabled) && u != nil:
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, email)
		apiresp.Error(w, http.StatusForbidden, "Account is disabled")
		return
	case errors.Is(err, userstore.ErrBadCredentials):
		if u != nil {
			h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
		} else {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		}
		apiresp.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	default:
		h.Log.Error("login: authenticate", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	now := time.Now().UTC()
	if err := h.Users.SetLastLogin(ctx, u.ID, now); err != nil {
		h.Log.Warn("login: set last login", zap.Error(err))
	}
	u.LastLoginAt = &now
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)

	apiresp.Message(w, http.StatusOK, "Logged in", userResponse{User: *u})
}

// Logout handles POST /api/auth/logout. It succeeds for anonymous callers.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("logout: clear session", zap.Error(err))
	}
	apiresp.Message(w, http.StatusOK, "Logged out", nil)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		apiresp.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	oid, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		apiresp.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, oid)
	if errors.Is(err, userstore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error("me: load user", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load user")
		return
	}
	apiresp.OK(w, userResponse{User: *u})
}
