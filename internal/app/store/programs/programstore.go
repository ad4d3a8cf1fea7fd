package programstore

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
	// ErrNotFound is returned when no program matches.
	ErrNotFound = errors.New("program not found")
	// ErrDuplicateSlug is returned when the slug is already taken.
	ErrDuplicateSlug = errors.New("a program with this slug already exists")

	errBadStatus = errors.New(`status must be "active"|"archived"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("programs")}
}

// List returns programs ordered by title. An empty status lists all.
func (s *Store) List(ctx context.Context, status string) ([]models.Program, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Program{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads one program.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Program, error) {
	var p models.Program
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Program{}, ErrNotFound
		}
		return models.Program{}, err
	}
	return p, nil
}

// Create inserts a program, deriving the slug from the title when none is
// given.
func (s *Store) Create(ctx context.Context, p models.Program) (models.Program, error) {
	p.ID = primitive.NewObjectID()
	p.Title = normalize.Name(p.Title)
	p.TitleCI = text.Fold(p.Title)
	p.Description = htmlsanitize.Sanitize(p.Description)
	if p.Status == "" {
		p.Status = models.ProgramActive
	}
	if p.Status != models.ProgramActive && p.Status != models.ProgramArchived {
		return models.Program{}, errBadStatus
	}
	explicit := strings.TrimSpace(p.Slug) != ""
	if explicit {
		p.Slug = normalize.Slug(p.Slug)
	} else {
		p.Slug = normalize.Slug(p.Title)
	}
	if p.Slug == "" {
		p.Slug = "program-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if !wafflemongo.IsDup(err) {
			return models.Program{}, err
		}
		if explicit {
			return models.Program{}, ErrDuplicateSlug
		}
		p.Slug = p.Slug + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		if _, err := s.c.InsertOne(ctx, p); err != nil {
			if wafflemongo.IsDup(err) {
				return models.Program{}, ErrDuplicateSlug
			}
			return models.Program{}, err
		}
	}
	return p, nil
}

// Update replaces the editable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p models.Program) (models.Program, error) {
	title := normalize.Name(p.Title)
	set := bson.M{
		"title":       title,
		"title_ci":    text.Fold(title),
		"description": htmlsanitize.Sanitize(p.Description),
		"category":    p.Category,
		"duration":    p.Duration,
		"updated_at":  time.Now().UTC(),
	}
	if p.Status != "" {
		if p.Status != models.ProgramActive && p.Status != models.ProgramArchived {
			return models.Program{}, errBadStatus
		}
		set["status"] = p.Status
	}
	if slug := normalize.Slug(p.Slug); slug != "" {
		set["slug"] = slug
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Program{}, ErrDuplicateSlug
		}
		return models.Program{}, err
	}
	if res.MatchedCount == 0 {
		return models.Program{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete removes a program.
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
