// internal/app/features/programs/handler.go
package programs

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/haymanh/success/internal/app/store/audit"
	programstore "github.com/haymanh/success/internal/app/store/programs"
	"github.com/haymanh/success/internal/app/system/apiresp"
	"github.com/haymanh/success/internal/app/system/auditlog"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/app/system/inputval"
	"github.com/haymanh/success/internal/app/system/timeouts"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Programs *programstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Programs: programstore.New(db), AuditLog: al, Log: logger}
}

type programResponse struct {
	Program models.Program `json:"program"`
}

type listResponse struct {
	Programs []models.Program `json:"programs"`
}

// List handles GET /api/programs. Only active programs are listed unless
// ?status=all or ?status=archived is given.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(query.Get(r, "status"))
	switch status {
	case "":
		status = models.ProgramActive
	case "all":
		status = ""
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Programs.List(ctx, status)
	if err != nil {
		h.Log.Error("programs: list", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load programs")
		return
	}
	apiresp.OK(w, listResponse{Programs: rows})
}

func parseID(r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	return oid, err == nil
}

// Get handles GET /api/programs/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	oid, ok := parseID(r)
	if !ok {
		apiresp.Error(w, http.StatusBadRequest, "Invalid program ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Programs.GetByID(ctx, oid)
	if errors.Is(err, programstore.ErrNotFound) {
		apiresp.Error(w, http.StatusNotFound, "Program not found")
		return
	}
	if err != nil {
		h.Log.Error("programs: get", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not load program")
		return
	}
	apiresp.OK(w, programResponse{Program: p})
}

func validateProgram(p models.Program) inputval.Result {
	var res inputval.Result
	res.Check(strings.TrimSpace(p.Title) != "", "title", "Title is required")
	res.Check(strings.TrimSpace(p.Description) != "", "description", "Description is required")
	if p.Status != "" {
		res.Check(p.Status == models.ProgramActive || p.Status == models.ProgramArchived,
			"status", "Status must be active or archived")
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

// Create handles POST /api/admin/programs.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Program
	if err := apiresp.Decode(r, &in); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if res := validateProgram(in); !res.OK() {
		apiresp.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Programs.Create(ctx, in)
	if errors.Is(err, programstore.ErrDuplicateSlug) {
		apiresp.Error(w, http.StatusConflict, "A program with this slug already exists")
		return
	}
	if err != nil {
		h.Log.Error("programs: create", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not create program")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventProgramCreated, actorID(r), p.ID, p.Title, nil)
	apiresp.Created(w, programResponse{Program: p})
}

// Update handles PUT /api/admin/programs/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	oid, ok := parseID(r)
	if !ok {
		apiresp.Error(w, http.StatusBadRequest, "Invalid program ID")
		return
	}
	var in models.Program
	if err := apiresp.Decode(r, &in); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if res := validateProgram(in); !res.OK() {
		apiresp.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Programs.Update(ctx, oid, in)
	switch {
	case errors.Is(err, programstore.ErrNotFound):
		apiresp.Error(w, http.StatusNotFound, "Program not found")
		return
	case errors.Is(err, programstore.ErrDuplicateSlug):
		apiresp.Error(w, http.StatusConflict, "A program with this slug already exists")
		return
	case err != nil:
		h.Log.Error("programs: update", zap.Error(err), zap.String("id", oid.Hex()))
		apiresp.Error(w, http.StatusInternalServerError, "Could not update program")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventProgramUpdated, actorID(r), p.ID, p.Title, nil)
	apiresp.OK(w, programResponse{Program: p})
}

// Delete handles DELETE /api/admin/programs/{id}. Existing enrollments are
// kept as history.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	oid, ok := parseID(r)
	if !ok {
		apiresp.Error(w, http.StatusBadRequest, "Invalid program ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Programs.Delete(ctx, oid); err != nil {
		if errors.Is(err, programstore.ErrNotFound) {
			apiresp.Error(w, http.StatusNotFound, "Program not found")
			return
		}
		h.Log.Error("programs: delete", zap.Error(err), zap.String("id", oid.Hex()))
		apiresp.Error(w, http.StatusInternalServerError, "Could not delete program")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventProgramDeleted, actorID(r), oid, "", nil)
	apiresp.Message(w, http.StatusOK, "Program deleted", nil)
}
