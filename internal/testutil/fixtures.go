package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active user whose password is "password123".
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreateDisabledUser creates a user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, name, email, models.RoleUser)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID,
		map[string]interface{}{"$set": map[string]interface{}{"status": "disabled"}}); err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.Status = "disabled"
	return u
}

// CreateOpportunity inserts an active opportunity of the given type. Use
// mutate to set optional dimensions before insertion.
func (f *Fixtures) CreateOpportunity(ctx context.Context, title, typ string, mutate ...func(*models.Opportunity)) models.Opportunity {
	f.t.Helper()

	now := time.Now().UTC()
	id := primitive.NewObjectID()
	o := models.Opportunity{
		ID:                  id,
		Title:               title,
		TitleCI:             text.Fold(title),
		Description:         "Test description for " + title,
		Type:                typ,
		Category:            "technology",
		Company:             models.Company{Name: "Test Co"},
		ApplicationDeadline: now.Add(30 * 24 * time.Hour),
		Status:              models.OpportunityActive,
		SEO:                 models.SEO{Slug: "test-" + id.Hex()},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, m := range mutate {
		m(&o)
	}

	if _, err := f.db.Collection("opportunities").InsertOne(ctx, o); err != nil {
		f.t.Fatalf("failed to create test opportunity: %v", err)
	}
	return o
}

// CreateProgram inserts an active program.
func (f *Fixtures) CreateProgram(ctx context.Context, title string) models.Program {
	f.t.Helper()

	now := time.Now().UTC()
	id := primitive.NewObjectID()
	p := models.Program{
		ID:          id,
		Title:       title,
		TitleCI:     text.Fold(title),
		Slug:        "program-" + id.Hex(),
		Description: "Test program " + title,
		Category:    "leadership",
		Duration:    "8 weeks",
		Status:      models.ProgramActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("programs").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test program: %v", err)
	}
	return p
}

// CreateProgressRaw inserts a user_progress document as-is, letting tests
// seed legacy selection shapes.
func (f *Fixtures) CreateProgressRaw(ctx context.Context, doc interface{}) {
	f.t.Helper()
	if _, err := f.db.Collection("user_progress").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test progress: %v", err)
	}
}
