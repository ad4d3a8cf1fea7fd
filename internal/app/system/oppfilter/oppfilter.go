// Package oppfilter narrows an in-memory opportunity list by the listing
// page's filter dimensions.
//
// Every dimension defaults to All. Dimensions combine with AND, and the
// result keeps the input order. Apply does no I/O and holds no state, so the
// same list and criteria always produce the same output.
package oppfilter

import (
	"net/url"
	"strings"

	"github.com/haymanh/success/internal/domain/models"
)

// All is the sentinel meaning "no constraint" on a dimension.
const All = "all"

// Query parameter names used by the listing pages.
const (
	ParamType           = "type"
	ParamAgeGroup       = "ageGroup"
	ParamAttendanceType = "attendanceType"
	ParamCostType       = "costType"
	ParamDurationType   = "durationType"
	ParamLocationType   = "locationType"
)

// typeUnions lists the extra record types a primary type filter also
// accepts.
var typeUnions = map[string][]string{
	models.TypeCompetition: {models.TypeHackathon},
	models.TypeStartup:     {models.TypeIncubator},
	models.TypeConference:  {models.TypeJobFair},
}

// Criteria is the tuple of active filter values.
type Criteria struct {
	Type           string
	AgeGroup       string
	AttendanceType string
	CostType       string
	DurationType   string
	LocationType   string
}

// Default returns criteria with every dimension set to All.
func Default() Criteria {
	return Criteria{
		Type:           All,
		AgeGroup:       All,
		AttendanceType: All,
		CostType:       All,
		DurationType:   All,
		LocationType:   All,
	}
}

// IsAll reports whether no dimension constrains the result.
func (c Criteria) IsAll() bool {
	return isAll(c.Type) && isAll(c.AgeGroup) && isAll(c.AttendanceType) &&
		isAll(c.CostType) && isAll(c.DurationType) && isAll(c.LocationType)
}

// Values encodes the non-All dimensions as query parameters.
func (c Criteria) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if !isAll(val) {
			v.Set(k, val)
		}
	}
	set(ParamType, c.Type)
	set(ParamAgeGroup, c.AgeGroup)
	set(ParamAttendanceType, c.AttendanceType)
	set(ParamCostType, c.CostType)
	set(ParamDurationType, c.DurationType)
	set(ParamLocationType, c.LocationType)
	return v
}

// ParseCriteria reads criteria from query parameters. Missing or blank
// values become All.
func ParseCriteria(q url.Values) Criteria {
	get := func(k string) string {
		s := strings.TrimSpace(q.Get(k))
		if s == "" {
			return All
		}
		return s
	}
	return Criteria{
		Type:           get(ParamType),
		AgeGroup:       get(ParamAgeGroup),
		AttendanceType: get(ParamAttendanceType),
		CostType:       get(ParamCostType),
		DurationType:   get(ParamDurationType),
		LocationType:   get(ParamLocationType),
	}
}

// Apply returns the opportunities matching every active dimension, in input
// order. Duplicates in the input pass through unchanged.
func Apply(opps []models.Opportunity, c Criteria) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		if Matches(o, c) {
			out = append(out, o)
		}
	}
	return out
}

// Matches reports whether a single opportunity satisfies c.
func Matches(o models.Opportunity, c Criteria) bool {
	return MatchType(c.Type, o.Type) &&
		MatchOptional(c.AgeGroup, o.AgeGroup) &&
		MatchOptional(c.AttendanceType, o.AttendanceType) &&
		MatchOptional(c.CostType, o.CostType) &&
		MatchOptional(c.DurationType, o.DurationType) &&
		MatchOptional(c.LocationType, o.Location.Type)
}

// MatchType applies the primary type rule: exact equality plus the type
// unions. A record with no type fails any constraint other than All.
func MatchType(criterion, typ string) bool {
	if isAll(criterion) {
		return true
	}
	if typ == "" {
		return false
	}
	if typ == criterion {
		return true
	}
	for _, alt := range typeUnions[criterion] {
		if typ == alt {
			return true
		}
	}
	return false
}

// MatchOptional applies the rule for optional dimensions: a record without
// the attribute always matches.
func MatchOptional(criterion string, v *string) bool {
	if isAll(criterion) || v == nil {
		return true
	}
	return *v == criterion
}

func isAll(s string) bool {
	return s == "" || s == All
}
