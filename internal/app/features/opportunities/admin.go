// internal/app/features/opportunities/admin.go
package opportunities

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/haymanh/success/internal/app/store/audit"
	opportunitystore "github.com/haymanh/success/internal/app/store/opportunities"
	"github.com/haymanh/success/internal/app/system/apiresp"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/app/system/inputval"
	"github.com/haymanh/success/internal/app/system/timeouts"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// validateOpportunity checks the admin-authored fields shared by create
// and update.
func validateOpportunity(o models.Opportunity) inputval.Result {
	var res inputval.Result
	res.Check(strings.TrimSpace(o.Title) != "", "title", "Title is required")
	res.Check(strings.TrimSpace(o.Description) != "", "description", "Description is required")
	res.Check(inputval.IsValidOpportunityType(o.Type), "type", "Type is not a known opportunity type")
	res.Check(strings.TrimSpace(o.Category) != "", "category", "Category is required")
	res.Check(!o.ApplicationDeadline.IsZero(), "applicationDeadline", "Application deadline is required")
	if o.Status != "" {
		res.Check(inputval.IsValidOpportunityStatus(o.Status), "status", "Status is not valid")
	}
	if o.Location.Type != nil {
		res.Check(inputval.IsValidLocationType(*o.Location.Type), "location.type", "Location type must be remote, onsite or hybrid")
	}
	if o.ApplicationURL != "" {
		res.Check(inputval.IsValidHTTPURL(o.ApplicationURL), "applicationUrl", "Application URL must be an http(s) URL")
	}
	if o.MaxApplicants != nil {
		res.Check(*o.MaxApplicants > 0, "maxApplicants", "Max applicants must be positive")
	}
	return res
}

func actorID(r *http.Request) primitive.ObjectID {
	if u, ok := auth.CurrentUser(r); ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			return oid
		}
	}
	return primitive.NilObjectID
}

// Create handles POST /api/admin/opportunities.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Opportunity
	if err := apiresp.Decode(r, &in); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if res := validateOpportunity(in); !res.OK() {
		apiresp.Error(w, http.StatusBadRequest, res.First())
		return
	}
	actor := actorID(r)
	if !actor.IsZero() {
		in.CreatedByID = &actor
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.Opps.Create(ctx, in)
	if errors.Is(err, opportunitystore.ErrDuplicateSlug) {
		apiresp.Error(w, http.StatusConflict, "An opportunity with this slug already exists")
		return
	}
	if err != nil {
		h.Log.Error("opportunities: create", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not create opportunity")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventOpportunityCreated, actor, o.ID, o.Title, map[string]string{"slug": o.SEO.Slug})
	apiresp.Created(w, opportunityResponse{Opportunity: o})
}

// Update handles PUT /api/admin/opportunities/{id}. Status is ignored
// here; lifecycle moves go through UpdateStatus.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	oid, ok := parseID(r)
	if !ok {
		apiresp.Error(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}
	var in models.Opportunity
	if err := apiresp.Decode(r, &in); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in.Status = ""
	if res := validateOpportunity(in); !res.OK() {
		apiresp.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.Opps.Update(ctx, oid, in)
	switch {
	case errors.Is(err, opportunitystore.ErrNotFound):
		apiresp.Error(w, http.StatusNotFound, "Opportunity not found")
		return
	case errors.Is(err, opportunitystore.ErrDuplicateSlug):
		apiresp.Error(w, http.StatusConflict, "An opportunity with this slug already exists")
		return
	case err != nil:
		h.Log.Error("opportunities: update", zap.Error(err), zap.String("id", oid.Hex()))
		apiresp.Error(w, http.StatusInternalServerError, "Could not update opportunity")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventOpportunityUpdated, actorID(r), o.ID, o.Title, nil)
	apiresp.OK(w, opportunityResponse{Opportunity: o})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /api/admin/opportunities/{id}/status.
// Closed and expired are terminal; any other move answers 409.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	oid, ok := parseID(r)
	if !ok {
		apiresp.Error(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}
	var req statusRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	to := strings.ToLower(strings.TrimSpace(req.Status))
	if !inputval.IsValidOpportunityStatus(to) {
		apiresp.Error(w, http.StatusBadRequest, "Status is not valid")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.Opps.SetStatus(ctx, oid, to)
	switch {
	case errors.Is(err, opportunitystore.ErrNotFound):
		apiresp.Error(w, http.StatusNotFound, "Opportunity not found")
		return
	case errors.Is(err, opportunitystore.ErrInvalidTransition):
		apiresp.Error(w, http.StatusConflict, "Status change not allowed")
		return
	case err != nil:
		h.Log.Error("opportunities: set status", zap.Error(err), zap.String("id", oid.Hex()))
		apiresp.Error(w, http.StatusInternalServerError, "Could not change status")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventOpportunityStatusChanged, actorID(r), o.ID, o.Title, map[string]string{"status": to})
	apiresp.OK(w, opportunityResponse{Opportunity: o})
}

// Delete handles DELETE /api/admin/opportunities/{id}. The opportunity is
// also pulled from every user's selections.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	oid, ok := parseID(r)
	if !ok {
		apiresp.Error(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	o, err := h.Opps.GetByID(ctx, oid)
	if errors.Is(err, opportunitystore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "Opportunity not found")
		return
	}
	if err != nil {
		h.Log.Error("opportunities: load for delete", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not delete opportunity")
		return
	}
	if err := h.Opps.Delete(ctx, oid); err != nil && !errors.Is(err, opportunitystore.ErrNotFound) {
		h.Log.Error("opportunities: delete", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not delete opportunity")
		return
	}
	pulled, err := h.Progress.PullOpportunityEverywhere(ctx, oid.Hex())
	if err != nil {
		h.Log.Warn("opportunities: pull from selections", zap.Error(err), zap.String("id", oid.Hex()))
	}

	h.AuditLog.Admin(ctx, r, audit.EventOpportunityDeleted, actorID(r), oid, o.Title, nil)
	apiresp.Message(w, http.StatusOK, "Opportunity deleted", map[string]int64{"selectionsRemoved": pulled})
}

// Stats handles GET /api/admin/opportunities/{id}/stats: how many users
// currently have the opportunity selected, counting both stored shapes.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	oid, ok := parseID(r)
	if !ok {
		apiresp.Error(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	o, err := h.Opps.GetByID(ctx, oid)
	if errors.Is(err, opportunitystore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "Opportunity not found")
		return
	}
	if err != nil {
		h.Log.Error("opportunities: load for stats", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load opportunity")
		return
	}
	n, err := h.Progress.CountSelecting(ctx, oid.Hex())
	if err != nil {
		h.Log.Error("opportunities: count selecting", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load opportunity stats")
		return
	}

	apiresp.OK(w, map[string]interface{}{
		"opportunityId":  oid.Hex(),
		"status":         o.Status,
		"selectedBy":     n,
		"applicantCount": o.ApplicantCount,
	})
}
