// internal/app/features/dashboard/selections.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/haymanh/success/internal/app/store/audit"
	programstore "github.com/haymanh/success/internal/app/store/programs"
	progressstore "github.com/haymanh/success/internal/app/store/progress"
	"github.com/haymanh/success/internal/app/system/apiresp"
	"github.com/haymanh/success/internal/app/system/metrics"
	"github.com/haymanh/success/internal/app/system/timeouts"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Messages returned by the selection endpoints. Clients match on
// MsgAlreadySelected to treat a duplicate add as success.
const (
	MsgSelected        = "Opportunity selected successfully"
	MsgAlreadySelected = "Opportunity already selected"
	MsgRemoved         = "Opportunity removed from selection"
	MsgEnrolled        = "Enrolled in program"
	MsgAlreadyEnrolled = "Already enrolled in program"
	MsgUnenrolled      = "Unenrolled from program"
)

type selectRequest struct {
	OpportunityID string `json:"opportunityId"`
	Notes         string `json:"notes"`
}

type selectionResponse struct {
	Selection models.Selection `json:"selection"`
}

type idResponse struct {
	OpportunityID string `json:"opportunityId,omitempty"`
	ProgramID     string `json:"programId,omitempty"`
}

// SelectOpportunity handles POST /api/dashboard/select-opportunity.
//
// The duplicate check and the insert are one conditional update in the
// store, so two concurrent adds of the same ID leave a single entry. A
// duplicate answers 200 with MsgAlreadySelected.
func (h *Handler) SelectOpportunity(w http.ResponseWriter, r *http.Request) {
	u, userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	oppID := strings.TrimSpace(req.OpportunityID)
	oid, err := primitive.ObjectIDFromHex(oppID)
	if err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	exists, err := h.Opps.Exists(ctx, oid)
	if err != nil {
		h.Log.Error("dashboard: check opportunity", zap.Error(err), zap.String("opportunity_id", oppID))
		apiresp.Error(w, http.StatusInternalServerError, "Could not select opportunity")
		return
	}
	if !exists {
		apiresp.Error(w, http.StatusNotFound, "Opportunity not found")
		return
	}

	sel, err := h.Progress.AddSelection(ctx, userID, oppID, strings.TrimSpace(req.Notes))
	if errors.Is(err, progressstore.ErrAlreadySelected) {
		h.Metrics.SelectionChanged(metrics.OpDuplicate)
		apiresp.Message(w, http.StatusOK, MsgAlreadySelected, idResponse{OpportunityID: oppID})
		return
	}
	if err != nil {
		h.Log.Error("dashboard: add selection", zap.Error(err),
			zap.String("user_id", u.ID), zap.String("opportunity_id", oppID))
		apiresp.Error(w, http.StatusInternalServerError, "Could not select opportunity")
		return
	}

	h.Metrics.SelectionChanged(metrics.OpAdd)
	h.AuditLog.UserAction(ctx, r, audit.EventOpportunitySelected, userID, oppID)
	apiresp.Message(w, http.StatusOK, MsgSelected, selectionResponse{Selection: sel})
}

// RemoveSelection handles DELETE /api/dashboard/selected-opportunities/{id}.
// Every stored shape of the ID is removed; an ID that is not selected
// answers 404.
func (h *Handler) RemoveSelection(w http.ResponseWriter, r *http.Request) {
	u, userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	oppID := strings.TrimSpace(chi.URLParam(r, "id"))
	if !models.IsWellFormedID(oppID) {
		apiresp.Error(w, http.StatusBadRequest, "Invalid opportunity ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Progress.RemoveSelection(ctx, userID, oppID)
	if errors.Is(err, progressstore.ErrNotSelected) {
		apiresp.Error(w, http.StatusNotFound, "Opportunity not in selection")
		return
	}
	if err != nil {
		h.Log.Error("dashboard: remove selection", zap.Error(err),
			zap.String("user_id", u.ID), zap.String("opportunity_id", oppID))
		apiresp.Error(w, http.StatusInternalServerError, "Could not remove opportunity")
		return
	}

	h.Metrics.SelectionChanged(metrics.OpRemove)
	h.AuditLog.UserAction(ctx, r, audit.EventOpportunityRemoved, userID, oppID)
	apiresp.Message(w, http.StatusOK, MsgRemoved, idResponse{OpportunityID: oppID})
}

type enrollRequest struct {
	ProgramID string `json:"programId"`
}

// EnrollProgram handles POST /api/dashboard/enroll-program. Enrolling
// twice answers 200 with MsgAlreadyEnrolled. Archived programs cannot be
// joined.
func (h *Handler) EnrollProgram(w http.ResponseWriter, r *http.Request) {
	u, userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req enrollRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	pid, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProgramID))
	if err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid program ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	prog, err := h.Programs.GetByID(ctx, pid)
	if errors.Is(err, programstore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "Program not found")
		return
	}
	if err != nil {
		h.Log.Error("dashboard: load program", zap.Error(err), zap.String("program_id", pid.Hex()))
		apiresp.Error(w, http.StatusInternalServerError, "Could not enroll in program")
		return
	}
	if prog.Status != models.ProgramActive {
		apiresp.Error(w, http.StatusConflict, "Program is not open for enrollment")
		return
	}

	e, err := h.Progress.Enroll(ctx, userID, pid)
	if errors.Is(err, progressstore.ErrAlreadyEnrolled) {
		apiresp.Message(w, http.StatusOK, MsgAlreadyEnrolled, idResponse{ProgramID: pid.Hex()})
		return
	}
	if err != nil {
		h.Log.Error("dashboard: enroll", zap.Error(err),
			zap.String("user_id", u.ID), zap.String("program_id", pid.Hex()))
		apiresp.Error(w, http.StatusInternalServerError, "Could not enroll in program")
		return
	}

	h.Metrics.SelectionChanged(metrics.OpEnroll)
	h.AuditLog.UserAction(ctx, r, audit.EventProgramEnrolled, userID, pid.Hex())
	apiresp.Message(w, http.StatusOK, MsgEnrolled, map[string]models.Enrollment{"enrollment": e})
}

// Unenroll handles DELETE /api/dashboard/enrolled-programs/{id}.
func (h *Handler) Unenroll(w http.ResponseWriter, r *http.Request) {
	u, userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	pid, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid program ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Progress.Unenroll(ctx, userID, pid)
	if errors.Is(err, progressstore.ErrNotEnrolled) {
		apiresp.Error(w, http.StatusNotFound, "Not enrolled in program")
		return
	}
	if err != nil {
		h.Log.Error("dashboard: unenroll", zap.Error(err),
			zap.String("user_id", u.ID), zap.String("program_id", pid.Hex()))
		apiresp.Error(w, http.StatusInternalServerError, "Could not unenroll from program")
		return
	}

	h.Metrics.SelectionChanged(metrics.OpUnenroll)
	h.AuditLog.UserAction(ctx, r, audit.EventProgramUnenrolled, userID, pid.Hex())
	apiresp.Message(w, http.StatusOK, MsgUnenrolled, idResponse{ProgramID: pid.Hex()})
}
