package dashboard_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/haymanh/success/internal/app/features/dashboard"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/app/system/indexes"
	"github.com/haymanh/success/internal/app/system/metrics"
	"github.com/haymanh/success/internal/domain/models"
	"github.com/haymanh/success/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type dashboardData struct {
	UserProgress struct {
		SelectedOpportunities []models.Selection  `json:"selectedOpportunities"`
		EnrolledPrograms      []models.Enrollment `json:"enrolledPrograms"`
	} `json:"userProgress"`
	User struct {
		ID    string `json:"_id"`
		Email string `json:"email"`
	} `json:"user"`
	Stats struct {
		SelectedOpportunities int `json:"selectedOpportunities"`
		EnrolledPrograms      int `json:"enrolledPrograms"`
	} `json:"stats"`
}

func newRouter(t *testing.T, db *mongo.Database) http.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "t", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	h := dashboard.NewHandler(db, metrics.New(), nil, zap.NewNop())
	return dashboard.Routes(h, sm)
}

func do(t *testing.T, router http.Handler, user testutil.TestUser, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(t, method, target, body), user))
	return rec
}

func loadDashboard(t *testing.T, router http.Handler, user testutil.TestUser) dashboardData {
	t.Helper()
	rec := do(t, router, user, http.MethodGet, "/", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var d dashboardData
	testutil.DecodeEnvelope(t, rec, &d)
	return d
}

func TestDashboard_RequiresSignIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec := httptest.NewRecorder()
	newRouter(t, db).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestDashboard_EmptyForNewUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.RegularUser()

	d := loadDashboard(t, newRouter(t, db), user)
	if d.UserProgress.SelectedOpportunities == nil || len(d.UserProgress.SelectedOpportunities) != 0 {
		t.Errorf("selections: got %v, want empty list", d.UserProgress.SelectedOpportunities)
	}
	if d.User.ID != user.ID {
		t.Errorf("user id: got %q, want %q", d.User.ID, user.ID)
	}
}

func TestSelectThenRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	o := fx.CreateOpportunity(ctx, "Coding Camp", models.TypeCamp)

	router := newRouter(t, db)
	user := testutil.RegularUser()

	rec := do(t, router, user, http.MethodPost, "/select-opportunity", map[string]string{"opportunityId": o.ID.Hex()})
	testutil.AssertStatus(t, rec, http.StatusOK)
	if env := testutil.DecodeEnvelope(t, rec, nil); env.Message != dashboard.MsgSelected {
		t.Errorf("message: got %q", env.Message)
	}

	d := loadDashboard(t, router, user)
	if len(d.UserProgress.SelectedOpportunities) != 1 {
		t.Fatalf("selections: got %d, want 1", len(d.UserProgress.SelectedOpportunities))
	}
	ref := d.UserProgress.SelectedOpportunities[0].Opportunity
	if ref.ID != o.ID.Hex() || ref.Title != "Coding Camp" || ref.Kind != models.RefEmbedded {
		t.Errorf("selection ref: %+v", ref)
	}
	if d.UserProgress.SelectedOpportunities[0].Status != models.SelectionSelected {
		t.Errorf("status: got %q", d.UserProgress.SelectedOpportunities[0].Status)
	}

	rec = do(t, router, user, http.MethodDelete, "/selected-opportunities/"+o.ID.Hex(), nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	if d := loadDashboard(t, router, user); len(d.UserProgress.SelectedOpportunities) != 0 {
		t.Errorf("selections after remove: %d", len(d.UserProgress.SelectedOpportunities))
	}

	rec = do(t, router, user, http.MethodDelete, "/selected-opportunities/"+o.ID.Hex(), nil)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestSelect_DuplicateIsSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	o := fx.CreateOpportunity(ctx, "Grant", models.TypeGrant)

	router := newRouter(t, db)
	user := testutil.RegularUser()
	body := map[string]string{"opportunityId": o.ID.Hex()}

	testutil.AssertStatus(t, do(t, router, user, http.MethodPost, "/select-opportunity", body), http.StatusOK)
	rec := do(t, router, user, http.MethodPost, "/select-opportunity", body)
	testutil.AssertStatus(t, rec, http.StatusOK)
	env := testutil.DecodeEnvelope(t, rec, nil)
	if !env.Success || env.Message != dashboard.MsgAlreadySelected {
		t.Errorf("duplicate: success=%v message=%q", env.Success, env.Message)
	}
	if d := loadDashboard(t, router, user); len(d.UserProgress.SelectedOpportunities) != 1 {
		t.Errorf("selections: got %d, want 1", len(d.UserProgress.SelectedOpportunities))
	}
}

func TestSelect_DuplicateOfLegacyEmbeddedShape(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	o := fx.CreateOpportunity(ctx, "Fellowship", models.TypeFellowship)
	user := testutil.RegularUser()
	uid, _ := primitive.ObjectIDFromHex(user.ID)
	fx.CreateProgressRaw(ctx, bson.M{
		"user_id": uid,
		"selected_opportunities": bson.A{
			bson.M{"opportunity_id": bson.M{"_id": o.ID.Hex(), "title": "Fellowship"}, "status": "selected"},
		},
		"enrolled_programs": bson.A{},
	})

	router := newRouter(t, db)
	rec := do(t, router, user, http.MethodPost, "/select-opportunity", map[string]string{"opportunityId": o.ID.Hex()})
	env := testutil.DecodeEnvelope(t, rec, nil)
	if env.Message != dashboard.MsgAlreadySelected {
		t.Errorf("message: got %q, want %q", env.Message, dashboard.MsgAlreadySelected)
	}
}

func TestSelect_Rejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newRouter(t, db)
	user := testutil.RegularUser()

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"empty", "", http.StatusBadRequest},
		{"placeholder id", "opp1", http.StatusBadRequest},
		{"unknown", primitive.NewObjectID().Hex(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, user, http.MethodPost, "/select-opportunity", map[string]string{"opportunityId": tt.id})
			testutil.AssertStatus(t, rec, tt.want)
		})
	}

	rec := do(t, router, user, http.MethodDelete, "/selected-opportunities/opp1", nil)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestSelect_ConcurrentAddsLeaveOneEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	o := fx.CreateOpportunity(ctx, "Popular", models.TypeJob)

	router := newRouter(t, db)
	user := testutil.RegularUser()
	body := map[string]string{"opportunityId": o.ID.Hex()}

	reqs := make([]*http.Request, 8)
	for i := range reqs {
		reqs[i] = testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/select-opportunity", body), user)
	}

	var wg sync.WaitGroup
	for _, req := range reqs {
		wg.Add(1)
		go func(req *http.Request) {
			defer wg.Done()
			router.ServeHTTP(httptest.NewRecorder(), req)
		}(req)
	}
	wg.Wait()

	if d := loadDashboard(t, router, user); len(d.UserProgress.SelectedOpportunities) != 1 {
		t.Errorf("selections: got %d, want 1", len(d.UserProgress.SelectedOpportunities))
	}
}

func TestDashboard_DropsMalformedAndDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	live := fx.CreateOpportunity(ctx, "Live", models.TypeJob)
	user := testutil.RegularUser()
	uid, _ := primitive.ObjectIDFromHex(user.ID)
	fx.CreateProgressRaw(ctx, bson.M{
		"user_id": uid,
		"selected_opportunities": bson.A{
			bson.M{"opportunity_id": "opp1", "status": "selected"},
			bson.M{"opportunity_id": primitive.NewObjectID(), "status": "selected"},
			bson.M{"opportunity_id": live.ID, "status": "selected"},
			bson.M{"opportunity_id": live.ID.Hex(), "status": "selected"},
		},
		"enrolled_programs": bson.A{},
	})

	d := loadDashboard(t, newRouter(t, db), user)
	if len(d.UserProgress.SelectedOpportunities) != 1 {
		t.Fatalf("selections: got %d, want 1", len(d.UserProgress.SelectedOpportunities))
	}
	if d.Stats.SelectedOpportunities != 1 {
		t.Errorf("stats: got %d, want 1", d.Stats.SelectedOpportunities)
	}
}

func TestEnrollAndUnenroll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := fx.CreateProgram(ctx, "Leadership Track")

	router := newRouter(t, db)
	user := testutil.RegularUser()
	body := map[string]string{"programId": p.ID.Hex()}

	testutil.AssertStatus(t, do(t, router, user, http.MethodPost, "/enroll-program", body), http.StatusOK)
	rec := do(t, router, user, http.MethodPost, "/enroll-program", body)
	if env := testutil.DecodeEnvelope(t, rec, nil); env.Message != dashboard.MsgAlreadyEnrolled {
		t.Errorf("second enroll message: %q", env.Message)
	}
	if d := loadDashboard(t, router, user); d.Stats.EnrolledPrograms != 1 {
		t.Errorf("enrolled: got %d, want 1", d.Stats.EnrolledPrograms)
	}

	testutil.AssertStatus(t, do(t, router, user, http.MethodDelete, "/enrolled-programs/"+p.ID.Hex(), nil), http.StatusOK)
	testutil.AssertStatus(t, do(t, router, user, http.MethodDelete, "/enrolled-programs/"+p.ID.Hex(), nil), http.StatusNotFound)
	testutil.AssertStatus(t, do(t, router, user, http.MethodPost, "/enroll-program",
		map[string]string{"programId": primitive.NewObjectID().Hex()}), http.StatusNotFound)
}
