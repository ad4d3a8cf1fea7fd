package programs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haymanh/success/internal/app/features/programs"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/domain/models"
	"github.com/haymanh/success/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestList_ActiveByDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateProgram(ctx, "Bravo")
	fx.CreateProgram(ctx, "Alpha")
	old := fx.CreateProgram(ctx, "Archived One")
	if _, err := db.Collection("programs").UpdateByID(ctx, old.ID,
		map[string]interface{}{"$set": map[string]string{"status": models.ProgramArchived}}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	router := programs.Routes(programs.NewHandler(db, nil, zap.NewNop()))

	var data struct {
		Programs []models.Program `json:"programs"`
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeEnvelope(t, rec, &data)
	if len(data.Programs) != 2 || data.Programs[0].Title != "Alpha" {
		t.Errorf("got %+v, want [Alpha Bravo]", data.Programs)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?status=all", nil))
	testutil.DecodeEnvelope(t, rec, &data)
	if len(data.Programs) != 3 {
		t.Errorf("status=all: got %d, want 3", len(data.Programs))
	}
}

func TestGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := fx.CreateProgram(ctx, "Mentoring")

	router := programs.Routes(programs.NewHandler(db, nil, zap.NewNop()))
	for target, want := range map[string]int{
		"/" + p.ID.Hex():                   http.StatusOK,
		"/not-an-id":                       http.StatusBadRequest,
		"/" + primitive.NewObjectID().Hex(): http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != want {
			t.Errorf("GET %s: got %d, want %d", target, rec.Code, want)
		}
	}
}

func TestAdminCRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "t", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	router := programs.AdminRoutes(programs.NewHandler(db, nil, zap.NewNop()), sm)
	admin := testutil.AdminUser()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
		"title": "Youth Leaders", "description": "Eight weeks", "duration": "8 weeks",
	}), admin))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var created struct {
		Program models.Program `json:"program"`
	}
	testutil.DecodeEnvelope(t, rec, &created)
	if created.Program.Slug != "youth-leaders" || created.Program.Status != models.ProgramActive {
		t.Errorf("created: %+v", created.Program)
	}
	id := created.Program.ID.Hex()

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPut, "/"+id, map[string]string{
		"title": "Youth Leaders II", "description": "Ten weeks", "status": "archived",
	}), admin))
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
		"title": "", "description": "x",
	}), admin))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest(http.MethodDelete, "/"+id, nil), admin))
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest(http.MethodDelete, "/"+id, nil), testutil.RegularUser()))
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}
