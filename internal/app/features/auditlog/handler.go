// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/haymanh/success/internal/app/store/audit"
	"github.com/haymanh/success/internal/app/system/apiresp"
	"github.com/haymanh/success/internal/app/system/paging"
	"github.com/haymanh/success/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const pageSize = 50

type Handler struct {
	Store *audit.Store
	Log   *zap.Logger
}

// NewHandler constructs an audit log handler bound to the given database.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Store: audit.New(db), Log: logger}
}

type listResponse struct {
	Events     []audit.Event     `json:"events"`
	Pagination paging.Pagination `json:"pagination"`
}

// ServeList handles GET /api/admin/audit. Filters: category, event_type,
// user_id, start_date and end_date (YYYY-MM-DD, end date inclusive), page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p := paging.Params{Page: paging.Parse(r).Page, Limit: pageSize}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
		Limit:     p.Limit64(),
		Offset:    p.Skip(),
	}

	if s := strings.TrimSpace(query.Get(r, "user_id")); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			apiresp.Error(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		filter.UserID = &oid
	}
	if s := strings.TrimSpace(query.Get(r, "start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apiresp.Error(w, http.StatusBadRequest, "Invalid start_date")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(query.Get(r, "end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apiresp.Error(w, http.StatusBadRequest, "Invalid end_date")
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("audit: count", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load audit log")
		return
	}
	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.Log.Error("audit: query", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load audit log")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	apiresp.OK(w, listResponse{Events: events, Pagination: paging.NewPagination(p, total)})
}

// ServeFailedLogins handles GET /api/admin/audit/failed-logins: failed
// login attempts in the last ?hours (default 24).
func (h *Handler) ServeFailedLogins(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if s := strings.TrimSpace(query.Get(r, "hours")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			apiresp.Error(w, http.StatusBadRequest, "Invalid hours")
			return
		}
		hours = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	events, err := h.Store.GetFailedLogins(ctx, since, pageSize)
	if err != nil {
		h.Log.Error("audit: failed logins", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load audit log")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	apiresp.OK(w, map[string]interface{}{"events": events})
}

// ServeUser handles GET /api/admin/audit/users/{id}: the most recent
// events for one user.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Store.GetByUser(ctx, oid, pageSize)
	if err != nil {
		h.Log.Error("audit: by user", zap.Error(err), zap.String("user_id", oid.Hex()))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load audit log")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	apiresp.OK(w, map[string]interface{}{"events": events})
}
