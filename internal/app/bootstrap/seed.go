// internal/app/bootstrap/seed.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	opportunitystore "github.com/haymanh/success/internal/app/store/opportunities"
	programstore "github.com/haymanh/success/internal/app/store/programs"
	"github.com/haymanh/success/internal/app/system/normalize"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// seedDemo fills empty opportunities and programs collections with sample
// records. Collections that already hold data are left alone.
func seedDemo(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	opps := opportunitystore.New(db)
	n, err := opps.CountAll(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		demo := demoOpportunities(time.Now().UTC())
		if err := opps.InsertMany(ctx, demo); err != nil {
			return err
		}
		logger.Info("seeded demo opportunities", zap.Int("count", len(demo)))
	}

	progs := programstore.New(db)
	existing, err := progs.List(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, p := range demoPrograms() {
			if _, err := progs.Create(ctx, p); err != nil {
				return err
			}
		}
		logger.Info("seeded demo programs", zap.Int("count", len(demoPrograms())))
	}
	return nil
}

type demoOpp struct {
	title, typ, category, company string
	ageGroup, attendance, cost    string
	duration, location            string
	featured                      bool
	days                          int
}

func demoOpportunities(now time.Time) []models.Opportunity {
	rows := []demoOpp{
		{"Youth Innovation Hackathon", models.TypeHackathon, "technology", "Khartoum Tech Hub", "15-18", "in_person", "free", "short", models.LocationOnsite, true, 21},
		{"National Science Olympiad", models.TypeCompetition, "science", "Ministry of Education", "under-15", "in_person", "free", "short", models.LocationOnsite, false, 45},
		{"Remote Software Internship", models.TypeInternship, "technology", "Nile Software", "18+", "online", "free", "long", models.LocationRemote, true, 30},
		{"Women in STEM Scholarship", models.TypeScholarship, "education", "Future Leaders Fund", "18+", "", "free", "long", "", false, 60},
		{"Summer Coding Camp", models.TypeCamp, "technology", "Code Club", "15-18", "hybrid", "paid", "short", models.LocationHybrid, false, 14},
		{"Startup Incubator Cohort", models.TypeIncubator, "entrepreneurship", "Launchpad Africa", "18+", "in_person", "free", "long", models.LocationOnsite, false, 40},
		{"Regional Career Job Fair", models.TypeJobFair, "careers", "Chamber of Commerce", "", "in_person", "free", "short", models.LocationOnsite, false, 10},
		{"Community Health Volunteers", models.TypeVolunteer, "health", "Red Crescent", "18+", "in_person", "free", "", models.LocationOnsite, false, 90},
	}

	out := make([]models.Opportunity, 0, len(rows))
	for i, r := range rows {
		created := now.Add(-time.Duration(len(rows)-i) * time.Hour)
		o := models.Opportunity{
			ID:                  primitive.NewObjectID(),
			Title:               r.title,
			TitleCI:             text.Fold(r.title),
			Description:         "<p>" + r.title + " hosted by " + r.company + ".</p>",
			ShortDescription:    r.title + " hosted by " + r.company,
			Type:                r.typ,
			Category:            r.category,
			Company:             models.Company{Name: r.company},
			AgeGroup:            models.StringPtr(r.ageGroup),
			AttendanceType:      models.StringPtr(r.attendance),
			CostType:            models.StringPtr(r.cost),
			DurationType:        models.StringPtr(r.duration),
			Location:            models.Location{Type: models.StringPtr(r.location)},
			ApplicationDeadline: now.AddDate(0, 0, r.days),
			Status:              models.OpportunityActive,
			Featured:            r.featured,
			SEO:                 models.SEO{Slug: normalize.Slug(r.title)},
			CreatedAt:           created,
			UpdatedAt:           created,
		}
		out = append(out, o)
	}
	return out
}

func demoPrograms() []models.Program {
	return []models.Program{
		{Title: "Leadership Fundamentals", Description: "Weekly sessions on teamwork and public speaking.", Category: "leadership", Duration: "8 weeks"},
		{Title: "Digital Skills Bootcamp", Description: "Hands-on introduction to programming and the web.", Category: "technology", Duration: "12 weeks"},
		{Title: "Career Readiness", Description: "CV writing, interviews and job search strategy.", Category: "careers", Duration: "4 weeks"},
	}
}
