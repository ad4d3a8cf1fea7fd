package opportunitystore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/haymanh/success/internal/app/system/htmlsanitize"
	"github.com/haymanh/success/internal/app/system/normalize"
	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no opportunity matches.
	ErrNotFound = errors.New("opportunity not found")
	// ErrDuplicateSlug is returned when an explicit slug is already taken.
	ErrDuplicateSlug = errors.New("an opportunity with this slug already exists")
	// ErrInvalidTransition is returned by SetStatus for a move the status
	// lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// slugAttempts bounds the suffix retries for generated slugs.
const slugAttempts = 4

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("opportunities")}
}

// ListFilter selects opportunities on the fields the store answers.
// Filter Evaluator dimensions are applied in memory by the caller.
type ListFilter struct {
	Status   string // empty means any status
	Category string
	Type     string // exact type, used by the admin listing
	Search   string // prefix match on the folded title
	Featured *bool
}

// BSON builds the Mongo filter.
func (f ListFilter) BSON() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if lo, hi := text.PrefixRange(text.Fold(strings.TrimSpace(f.Search))); lo != "" {
		q["title_ci"] = bson.M{"$gte": lo, "$lt": hi}
	}
	return q
}

// listSort puts featured records first, then newest.
var listSort = bson.D{{Key: "featured", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// Find returns every opportunity matching f in list order.
func (s *Store) Find(ctx context.Context, f ListFilter) ([]models.Opportunity, error) {
	cur, err := s.c.Find(ctx, f.BSON(), options.Find().SetSort(listSort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Opportunity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindPage returns one page of matches, for callers that need no in-memory
// filtering.
func (s *Store) FindPage(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Opportunity, error) {
	opts := options.Find().SetSort(listSort).SetSkip(skip).SetLimit(limit)
	cur, err := s.c.Find(ctx, f.BSON(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Opportunity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of matches.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.BSON())
}

// GetByID loads one opportunity.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Opportunity, error) {
	var o models.Opportunity
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Opportunity{}, ErrNotFound
		}
		return models.Opportunity{}, err
	}
	return o, nil
}

// GetBySlug loads one opportunity by its SEO slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Opportunity, error) {
	var o models.Opportunity
	if err := s.c.FindOne(ctx, bson.M{"seo.slug": strings.TrimSpace(slug)}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Opportunity{}, ErrNotFound
		}
		return models.Opportunity{}, err
	}
	return o, nil
}

// Exists reports whether an opportunity with this ID is stored.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// Brief is the projection embedded into dashboard selections.
type Brief struct {
	ID       primitive.ObjectID `bson:"_id"`
	Title    string             `bson:"title"`
	Category string             `bson:"category"`
	Type     string             `bson:"type"`
	Status   string             `bson:"status"`
}

// BriefsByIDs returns title and category for each stored ID, keyed by hex.
// Missing IDs are absent from the map.
func (s *Store) BriefsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[string]Brief, error) {
	out := make(map[string]Brief, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"title": 1, "category": 1, "type": 1, "status": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var b Brief
		if err := cur.Decode(&b); err != nil {
			return nil, err
		}
		out[b.ID.Hex()] = b
	}
	return out, cur.Err()
}

// prepare normalizes the fields Create and Update share.
func prepare(o *models.Opportunity) {
	o.Title = normalize.Name(o.Title)
	o.TitleCI = text.Fold(o.Title)
	o.Description = htmlsanitize.Sanitize(o.Description)
	o.ShortDescription = htmlsanitize.StripTags(o.ShortDescription)
	o.Company.Description = htmlsanitize.StripTags(o.Company.Description)
	o.SEO.Slug = normalize.Slug(o.SEO.Slug)
}

// Create inserts a new opportunity. When no slug is given one is derived
// from the title, and collisions get a short random suffix. An explicit
// slug that collides returns ErrDuplicateSlug.
func (s *Store) Create(ctx context.Context, o models.Opportunity) (models.Opportunity, error) {
	prepare(&o)
	o.ID = primitive.NewObjectID()
	if o.Status == "" {
		o.Status = models.OpportunityActive
	}
	o.ApplicantCount = 0
	o.Applicants = nil
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	explicit := o.SEO.Slug != ""
	base := o.SEO.Slug
	if !explicit {
		base = normalize.Slug(o.Title)
		if base == "" {
			base = "opportunity"
		}
	}
	o.SEO.Slug = base

	for attempt := 0; ; attempt++ {
		_, err := s.c.InsertOne(ctx, o)
		if err == nil {
			return o, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Opportunity{}, err
		}
		if explicit || attempt+1 >= slugAttempts {
			return models.Opportunity{}, ErrDuplicateSlug
		}
		o.SEO.Slug = base + "-" + shortSuffix()
	}
}

func shortSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// Update replaces the editable fields of an opportunity. Status, counters
// and creation metadata are left alone; status moves through SetStatus.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, o models.Opportunity) (models.Opportunity, error) {
	prepare(&o)
	set := bson.M{
		"title":                o.Title,
		"title_ci":             o.TitleCI,
		"description":          o.Description,
		"short_description":    o.ShortDescription,
		"type":                 o.Type,
		"category":             o.Category,
		"tags":                 o.Tags,
		"company":              o.Company,
		"location":             o.Location,
		"requirements":         o.Requirements,
		"age_group":            o.AgeGroup,
		"attendance_type":      o.AttendanceType,
		"cost_type":            o.CostType,
		"duration_type":        o.DurationType,
		"application_url":      o.ApplicationURL,
		"application_deadline": o.ApplicationDeadline,
		"start_date":           o.StartDate,
		"max_applicants":       o.MaxApplicants,
		"featured":             o.Featured,
		"urgent":               o.Urgent,
		"seo.meta_title":       o.SEO.MetaTitle,
		"seo.meta_description": o.SEO.MetaDescription,
		"updated_at":           time.Now().UTC(),
	}
	if o.SEO.Slug != "" {
		set["seo.slug"] = o.SEO.Slug
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Opportunity{}, ErrDuplicateSlug
		}
		return models.Opportunity{}, err
	}
	if res.MatchedCount == 0 {
		return models.Opportunity{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// SetStatus moves an opportunity to a new status if the lifecycle allows
// it. The update is conditional on the status read, so concurrent moves
// cannot both succeed.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, to string) (models.Opportunity, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Opportunity{}, err
	}
	if !models.CanTransition(cur.Status, to) {
		return models.Opportunity{}, ErrInvalidTransition
	}
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": cur.Status},
		bson.M{"$set": bson.M{"status": to, "updated_at": now}})
	if err != nil {
		return models.Opportunity{}, err
	}
	if res.MatchedCount == 0 {
		return models.Opportunity{}, ErrInvalidTransition
	}
	cur.Status = to
	cur.UpdatedAt = now
	return cur, nil
}

// ExpirePastDeadline moves active opportunities whose deadline has passed
// to expired and returns how many changed.
func (s *Store) ExpirePastDeadline(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.OpportunityActive, "application_deadline": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.OpportunityExpired, "updated_at": now}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes an opportunity.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertMany stores pre-built opportunities as-is; used for demo seeding.
func (s *Store) InsertMany(ctx context.Context, opps []models.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(opps))
	for i := range opps {
		docs = append(docs, opps[i])
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// CountAll returns the total number of stored opportunities.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
