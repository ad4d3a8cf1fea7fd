package account_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haymanh/success/internal/app/features/account"
	"github.com/haymanh/success/internal/app/store/audit"
	userstore "github.com/haymanh/success/internal/app/store/users"
	"github.com/haymanh/success/internal/app/system/auditlog"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/app/system/ratelimit"
	"github.com/haymanh/success/internal/domain/models"
	"github.com/haymanh/success/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newHandler(t *testing.T, db *mongo.Database, perIP int) *account.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager(testKey, "haymanh-test", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	limiter := ratelimit.NewLoginLimiter(perIP, time.Minute)
	t.Cleanup(limiter.Stop)
	al := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{})
	return account.NewHandler(db, sm, limiter, al, zap.NewNop())
}

func TestRegister_CreatesUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, 10)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Layla Haddad",
		"email":    "Layla@Example.com",
		"password": "secret123",
	})
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	testutil.AssertStatus(t, rec, http.StatusCreated)
	var body struct {
		User models.User `json:"user"`
	}
	env := testutil.DecodeEnvelope(t, rec, &body)
	if !env.Success {
		t.Fatalf("expected success, got %q", env.Message)
	}
	if body.User.Email != "layla@example.com" {
		t.Errorf("email: got %q, want lowercased", body.User.Email)
	}
	if body.User.Role != models.RoleUser {
		t.Errorf("role: got %q, want %q", body.User.Role, models.RoleUser)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie after register")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, _ := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventRegistered})
	if n != 1 {
		t.Errorf("audit registered events: got %d, want 1", n)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "Existing", "taken@example.com", models.RoleUser)

	h := newHandler(t, db, 10)
	rec := httptest.NewRecorder()
	h.Register(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
		"name": "Other", "email": "TAKEN@example.com", "password": "secret123",
	}))
	testutil.AssertStatus(t, rec, http.StatusConflict)
}

func TestRegister_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, 10)

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"missing name", map[string]string{"email": "a@b.com", "password": "secret123"}, "Name is required"},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": "secret123"}, "A valid email is required"},
		{"short password", map[string]string{"name": "A", "email": "a@b.com", "password": "123"}, "Password must be at least 6 characters"},
		{"bad language", map[string]string{"name": "A", "email": "a@b.com", "password": "secret123", "language": "fr"}, "Language must be ar or en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Register(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body))
			testutil.AssertStatus(t, rec, http.StatusBadRequest)
			env := testutil.DecodeEnvelope(t, rec, nil)
			if env.Message != tt.want {
				t.Errorf("message: got %q, want %q", env.Message, tt.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "Omar", "omar@example.com", models.RoleUser)
	fx.CreateDisabledUser(ctx, "Gone", "gone@example.com")

	h := newHandler(t, db, 50)

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"success", "omar@example.com", "password123", http.StatusOK},
		{"mixed case email", "  OMAR@example.com ", "password123", http.StatusOK},
		{"wrong password", "omar@example.com", "nope-nope", http.StatusUnauthorized},
		{"unknown user", "nobody@example.com", "password123", http.StatusUnauthorized},
		{"disabled", "gone@example.com", "password123", http.StatusForbidden},
		{"missing password", "omar@example.com", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
				"email": tt.email, "password": tt.password,
			}))
			testutil.AssertStatus(t, rec, tt.want)
			if tt.want == http.StatusOK && len(rec.Result().Cookies()) == 0 {
				t.Error("expected session cookie")
			}
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, 2)

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.Login(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
			"email": "someone@example.com", "password": "wrong-pass",
		}))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt: got %d, want %d", last, http.StatusTooManyRequests)
	}
}

func TestLoginThenMe_ThroughRouter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "Sara", "sara@example.com", models.RoleUser)

	h := newHandler(t, db, 10)
	h.SessionMgr.SetUserFetcher(userstore.NewFetcher(db))
	router := h.SessionMgr.LoadSessionUser(account.Routes(h))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", map[string]string{
		"email": "sara@example.com", "password": "password123",
	}))
	testutil.AssertStatus(t, rec, http.StatusOK)

	me := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range rec.Result().Cookies() {
		me.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, me)
	testutil.AssertStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "sara@example.com") {
		t.Errorf("me body missing email: %s", rec.Body.String())
	}
}

func TestLogout_Anonymous(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, 10)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
}
