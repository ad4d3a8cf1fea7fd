// internal/domain/models/opportunity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Opportunity types. The first block is the stored enum; the second block
// holds the looser values the listing pages filter on.
const (
	TypeJob         = "job"
	TypeInternship  = "internship"
	TypeVolunteer   = "volunteer"
	TypeScholarship = "scholarship"
	TypeFellowship  = "fellowship"
	TypeCompetition = "competition"
	TypeGrant       = "grant"

	TypeCamp       = "camp"
	TypeHackathon  = "hackathon"
	TypeJobFair    = "job_fair"
	TypeStartup    = "startup"
	TypeIncubator  = "incubator"
	TypeConference = "conference"
	TypeCourse     = "course"
	TypeExchange   = "exchange"
)

// Opportunity statuses.
const (
	OpportunityActive  = "active"
	OpportunityClosed  = "closed"
	OpportunityExpired = "expired"
	OpportunityDraft   = "draft"
)

// Location types.
const (
	LocationRemote = "remote"
	LocationOnsite = "onsite"
	LocationHybrid = "hybrid"
)

// Opportunity is one listed external program, job, scholarship or
// competition. The optional filter dimensions are pointers: nil means the
// record does not carry the attribute at all.
type Opportunity struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title   string             `bson:"title" json:"title"`
	TitleCI string             `bson:"title_ci" json:"-"` // lowercase, diacritics-stripped

	Description      string   `bson:"description" json:"description"`
	ShortDescription string   `bson:"short_description,omitempty" json:"shortDescription,omitempty"`
	Type             string   `bson:"type" json:"type"`
	Category         string   `bson:"category" json:"category"`
	Tags             []string `bson:"tags,omitempty" json:"tags,omitempty"`

	Company      Company      `bson:"company" json:"company"`
	Location     Location     `bson:"location" json:"location"`
	Requirements Requirements `bson:"requirements" json:"requirements"`

	AgeGroup       *string `bson:"age_group,omitempty" json:"ageGroup,omitempty"`
	AttendanceType *string `bson:"attendance_type,omitempty" json:"attendanceType,omitempty"`
	CostType       *string `bson:"cost_type,omitempty" json:"costType,omitempty"`
	DurationType   *string `bson:"duration_type,omitempty" json:"durationType,omitempty"`

	ApplicationURL      string     `bson:"application_url,omitempty" json:"applicationUrl,omitempty"`
	ApplicationDeadline time.Time  `bson:"application_deadline" json:"applicationDeadline"`
	StartDate           *time.Time `bson:"start_date,omitempty" json:"startDate,omitempty"`

	Status string `bson:"status" json:"status"` // active | closed | expired | draft

	ApplicantCount int                  `bson:"applicant_count" json:"applicantCount"`
	MaxApplicants  *int                 `bson:"max_applicants,omitempty" json:"maxApplicants,omitempty"`
	Applicants     []primitive.ObjectID `bson:"applicants,omitempty" json:"applicants,omitempty"`

	Featured bool `bson:"featured" json:"featured"`
	Urgent   bool `bson:"urgent" json:"urgent"`

	SEO SEO `bson:"seo" json:"seo"`

	CreatedByID *primitive.ObjectID `bson:"created_by_id,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

// Company is the sponsoring organization.
type Company struct {
	Name        string `bson:"name" json:"name"`
	Logo        string `bson:"logo,omitempty" json:"logo,omitempty"`
	Website     string `bson:"website,omitempty" json:"website,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// Location describes where the opportunity happens. Type doubles as the
// location-type filter dimension and is optional for that reason.
type Location struct {
	Type    *string `bson:"type,omitempty" json:"type,omitempty"`
	Address string  `bson:"address,omitempty" json:"address,omitempty"`
	City    string  `bson:"city,omitempty" json:"city,omitempty"`
	Country string  `bson:"country,omitempty" json:"country,omitempty"`
}

// Requirements lists free-text eligibility items.
type Requirements struct {
	Education  []string `bson:"education,omitempty" json:"education,omitempty"`
	Experience []string `bson:"experience,omitempty" json:"experience,omitempty"`
	Skills     []string `bson:"skills,omitempty" json:"skills,omitempty"`
	Languages  []string `bson:"languages,omitempty" json:"languages,omitempty"`
}

// SEO carries the slug, which is unique across opportunities.
type SEO struct {
	Slug            string `bson:"slug" json:"slug"`
	MetaTitle       string `bson:"meta_title,omitempty" json:"metaTitle,omitempty"`
	MetaDescription string `bson:"meta_description,omitempty" json:"metaDescription,omitempty"`
}

// IsOpen reports whether the opportunity still accepts selections.
func (o Opportunity) IsOpen() bool {
	return o.Status == OpportunityActive
}

// CanTransition reports whether an opportunity may move from one status to
// another. Closed and expired are terminal.
func CanTransition(from, to string) bool {
	switch from {
	case OpportunityDraft:
		return to == OpportunityActive
	case OpportunityActive:
		return to == OpportunityClosed || to == OpportunityExpired
	}
	return false
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
