// Package inputval holds the enum and format checks shared by the API
// handlers and the stores.
package inputval

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/dalemusser/waffle/pantry/validate"
	"github.com/haymanh/success/internal/domain/models"
)

var opportunityTypes = []string{
	models.TypeJob, models.TypeInternship, models.TypeVolunteer, models.TypeScholarship,
	models.TypeFellowship, models.TypeCompetition, models.TypeGrant,
	models.TypeCamp, models.TypeHackathon, models.TypeJobFair, models.TypeStartup,
	models.TypeIncubator, models.TypeConference, models.TypeCourse, models.TypeExchange,
}

var opportunityStatuses = []string{
	models.OpportunityActive, models.OpportunityClosed, models.OpportunityExpired, models.OpportunityDraft,
}

var locationTypes = []string{models.LocationRemote, models.LocationOnsite, models.LocationHybrid}

// OpportunityTypes returns the accepted opportunity types.
func OpportunityTypes() []string { return append([]string(nil), opportunityTypes...) }

// OpportunityStatuses returns the accepted opportunity statuses.
func OpportunityStatuses() []string { return append([]string(nil), opportunityStatuses...) }

// IsValidOpportunityType reports whether t is a known opportunity type.
func IsValidOpportunityType(t string) bool { return oneOf(t, opportunityTypes) }

// IsValidOpportunityStatus reports whether s is a known opportunity status.
func IsValidOpportunityStatus(s string) bool { return oneOf(s, opportunityStatuses) }

// IsValidLocationType reports whether s is remote, onsite or hybrid.
func IsValidLocationType(s string) bool { return oneOf(s, locationTypes) }

// IsValidEmail performs a light syntax check.
func IsValidEmail(s string) bool {
	return validate.SimpleEmailValid(strings.TrimSpace(s))
}

// IsValidHTTPURL reports whether s is an absolute http(s) URL.
func IsValidHTTPURL(s string) bool {
	return urlutil.IsValidAbsHTTPURL(strings.TrimSpace(s))
}

// IsValidObjectID reports whether s is a 24-character hex ObjectID.
func IsValidObjectID(s string) bool {
	return models.IsWellFormedID(strings.TrimSpace(s))
}

// Result collects field errors in insertion order.
type Result struct {
	fields []string
	msgs   map[string]string
}

// Add records msg for field unless the field already has an error.
func (r *Result) Add(field, msg string) {
	if r.msgs == nil {
		r.msgs = map[string]string{}
	}
	if _, ok := r.msgs[field]; ok {
		return
	}
	r.fields = append(r.fields, field)
	r.msgs[field] = msg
}

// Check adds msg for field when ok is false.
func (r *Result) Check(ok bool, field, msg string) {
	if !ok {
		r.Add(field, msg)
	}
}

// OK reports whether no errors were recorded.
func (r *Result) OK() bool { return len(r.fields) == 0 }

// First returns the first recorded message, or "".
func (r *Result) First() string {
	if len(r.fields) == 0 {
		return ""
	}
	return r.msgs[r.fields[0]]
}

// All returns field -> message.
func (r *Result) All() map[string]string {
	out := make(map[string]string, len(r.msgs))
	for k, v := range r.msgs {
		out[k] = v
	}
	return out
}

func oneOf(s string, allowed []string) bool {
	s = strings.TrimSpace(s)
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
