// internal/app/features/opportunities/handler.go
package opportunities

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	opportunitystore "github.com/haymanh/success/internal/app/store/opportunities"
	progressstore "github.com/haymanh/success/internal/app/store/progress"
	"github.com/haymanh/success/internal/app/system/apiresp"
	"github.com/haymanh/success/internal/app/system/auditlog"
	"github.com/haymanh/success/internal/app/system/metrics"
	"github.com/haymanh/success/internal/app/system/oppfilter"
	"github.com/haymanh/success/internal/app/system/paging"
	"github.com/haymanh/success/internal/app/system/timeouts"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Opps     *opportunitystore.Store
	Progress *progressstore.Store
	Metrics  *metrics.Metrics
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, m *metrics.Metrics, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Opps:     opportunitystore.New(db),
		Progress: progressstore.New(db),
		Metrics:  m,
		AuditLog: al,
		Log:      logger,
	}
}

type listResponse struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Pagination    paging.Pagination    `json:"pagination"`
}

type opportunityResponse struct {
	Opportunity models.Opportunity `json:"opportunity"`
}

// listFilter reads the store-side filter from the query string. Public
// listings default to active; the admin listing defaults to every status.
// "all" clears a field.
func listFilter(r *http.Request, defaultStatus string) opportunitystore.ListFilter {
	f := opportunitystore.ListFilter{
		Status:   strings.TrimSpace(query.Get(r, "status")),
		Category: strings.TrimSpace(query.Get(r, "category")),
		Search:   query.Search(r, "search"),
	}
	if f.Status == "" {
		f.Status = defaultStatus
	}
	if f.Status == oppfilter.All {
		f.Status = ""
	}
	if f.Category == oppfilter.All {
		f.Category = ""
	}
	if v := query.Get(r, "featured"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Featured = &b
		}
	}
	return f
}

// List handles GET /api/opportunities.
//
// When no Filter Evaluator dimension is set the page comes straight from
// the store; otherwise the full store match is filtered in memory and the
// page is cut from the filtered list, so pagination totals reflect both.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.OpportunityActive)
}

// AdminList handles GET /api/admin/opportunities.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, defaultStatus string) {
	f := listFilter(r, defaultStatus)
	crit := oppfilter.ParseCriteria(r.URL.Query())
	p := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		rows  []models.Opportunity
		total int64
		err   error
	)
	if crit.IsAll() {
		total, err = h.Opps.Count(ctx, f)
		if err == nil {
			rows, err = h.Opps.FindPage(ctx, f, p.Skip(), p.Limit64())
		}
	} else {
		var all []models.Opportunity
		all, err = h.Opps.Find(ctx, f)
		if err == nil {
			filtered := oppfilter.Apply(all, crit)
			total = int64(len(filtered))
			rows = paging.Slice(filtered, p)
		}
	}
	if err != nil {
		h.Log.Error("opportunities: list", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load opportunities")
		return
	}

	h.Metrics.OpportunityListed()
	apiresp.OK(w, listResponse{Opportunities: rows, Pagination: paging.NewPagination(p, total)})
}

// parseID reads the {id} URL parameter as an ObjectID.
func parseID(r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	return oid, err == nil
}

// Get handles GET /api/opportunities/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	oid, ok := parseID(r)
	if !ok {
		apiresp.Error(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.Opps.GetByID(ctx, oid)
	h.writeOne(w, o, err)
}

// hiddenFromPublic reports whether o must not be served on public routes.
func hiddenFromPublic(o models.Opportunity) bool {
	return o.Status == models.OpportunityDraft
}

// GetBySlug handles GET /api/opportunities/slug/{slug}.
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		apiresp.Error(w, http.StatusBadRequest, "Slug is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.Opps.GetBySlug(ctx, slug)
	h.writeOne(w, o, err)
}

// writeOne answers a public single-record lookup. Drafts answer 404 as if
// they did not exist.
func (h *Handler) writeOne(w http.ResponseWriter, o models.Opportunity, err error) {
	if errors.Is(err, opportunitystore.ErrNotFound) || (err == nil && hiddenFromPublic(o)) {
		apiresp.Error(w, http.StatusNotFound, "Opportunity not found")
		return
	}
	if err != nil {
		h.Log.Error("opportunities: get", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load opportunity")
		return
	}
	apiresp.OK(w, opportunityResponse{Opportunity: o})
}
