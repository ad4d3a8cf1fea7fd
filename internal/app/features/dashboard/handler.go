// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	opportunitystore "github.com/haymanh/success/internal/app/store/opportunities"
	programstore "github.com/haymanh/success/internal/app/store/programs"
	progressstore "github.com/haymanh/success/internal/app/store/progress"
	"github.com/haymanh/success/internal/app/system/apiresp"
	"github.com/haymanh/success/internal/app/system/auditlog"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/app/system/metrics"
	"github.com/haymanh/success/internal/app/system/timeouts"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ProgressStore is the slice of the progress store the dashboard uses.
type ProgressStore interface {
	Ensure(ctx context.Context, userID primitive.ObjectID) (models.UserProgress, error)
	AddSelection(ctx context.Context, userID primitive.ObjectID, oppID string, notes string) (models.Selection, error)
	RemoveSelection(ctx context.Context, userID primitive.ObjectID, oppID string) error
	Enroll(ctx context.Context, userID, programID primitive.ObjectID) (models.Enrollment, error)
	Unenroll(ctx context.Context, userID, programID primitive.ObjectID) error
}

// OpportunityLookup resolves selected opportunity IDs.
type OpportunityLookup interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	BriefsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[string]opportunitystore.Brief, error)
}

// ProgramLookup resolves programs for enrollment.
type ProgramLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Program, error)
}

type Handler struct {
	Progress ProgressStore
	Opps     OpportunityLookup
	Programs ProgramLookup
	Metrics  *metrics.Metrics
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, m *metrics.Metrics, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Progress: progressstore.New(db),
		Opps:     opportunitystore.New(db),
		Programs: programstore.New(db),
		Metrics:  m,
		AuditLog: al,
		Log:      logger,
	}
}

type userView struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type progressView struct {
	SelectedOpportunities []models.Selection  `json:"selectedOpportunities"`
	EnrolledPrograms      []models.Enrollment `json:"enrolledPrograms"`
}

type stats struct {
	SelectedOpportunities int `json:"selectedOpportunities"`
	EnrolledPrograms      int `json:"enrolledPrograms"`
	CompletedPrograms     int `json:"completedPrograms"`
}

type dashboardResponse struct {
	UserProgress progressView `json:"userProgress"`
	User         userView     `json:"user"`
	Stats        stats        `json:"stats"`
}

// currentUserID returns the signed-in user's ObjectID. Routes are behind
// RequireSignedIn, so a miss here means a malformed session.
func currentUserID(w http.ResponseWriter, r *http.Request) (*auth.SessionUser, primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apiresp.Error(w, http.StatusUnauthorized, "Authentication required")
		return nil, primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apiresp.Error(w, http.StatusUnauthorized, "Authentication required")
		return nil, primitive.NilObjectID, false
	}
	return u, oid, true
}

// Serve handles GET /api/dashboard.
//
// Selections are returned in the embedded shape for opportunities that
// still exist. Repeats and malformed stored IDs are dropped, whatever
// shape they were stored in.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	u, userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Progress.Ensure(ctx, userID)
	if err != nil {
		h.Log.Error("dashboard: load progress", zap.Error(err), zap.String("user_id", u.ID))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load dashboard")
		return
	}

	sels, err := h.liveSelections(ctx, p.SelectedOpportunities)
	if err != nil {
		h.Log.Error("dashboard: resolve selections", zap.Error(err), zap.String("user_id", u.ID))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load dashboard")
		return
	}

	st := stats{SelectedOpportunities: len(sels), EnrolledPrograms: len(p.EnrolledPrograms)}
	for _, e := range p.EnrolledPrograms {
		if e.Status == models.EnrollmentCompleted {
			st.CompletedPrograms++
		}
	}

	apiresp.OK(w, dashboardResponse{
		UserProgress: progressView{SelectedOpportunities: sels, EnrolledPrograms: p.EnrolledPrograms},
		User:         userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
		Stats:        st,
	})
}

func (h *Handler) liveSelections(ctx context.Context, stored []models.Selection) ([]models.Selection, error) {
	ids := models.SelectedIDs(stored)
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	briefs, err := h.Opps.BriefsByIDs(ctx, oids)
	if err != nil {
		return nil, err
	}

	out := make([]models.Selection, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, s := range stored {
		id := s.Opportunity.Normalize().ID
		b, live := briefs[id]
		if !live {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		s.Opportunity = models.OpportunityRef{Kind: models.RefEmbedded, ID: id, Title: b.Title, Category: b.Category}
		out = append(out, s)
	}
	return out, nil
}
