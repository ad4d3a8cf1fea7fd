package progressstore

import (
	"context"
	"errors"
	"time"

	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrAlreadySelected is returned when the opportunity is already in the
	// user's selection, in any stored shape.
	ErrAlreadySelected = errors.New("opportunity already selected")
	// ErrNotSelected is returned when removing an opportunity that is not
	// selected.
	ErrNotSelected = errors.New("opportunity not selected")
	// ErrAlreadyEnrolled is returned when the user is already enrolled.
	ErrAlreadyEnrolled = errors.New("already enrolled in program")
	// ErrNotEnrolled is returned when unenrolling from a program the user
	// is not enrolled in.
	ErrNotEnrolled = errors.New("not enrolled in program")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_progress")}
}

// Ensure returns the user's progress document, creating an empty one on
// first use.
func (s *Store) Ensure(ctx context.Context, userID primitive.ObjectID) (models.UserProgress, error) {
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":                userID,
		"selected_opportunities": bson.A{},
		"enrolled_programs":      bson.A{},
		"created_at":             now,
		"updated_at":             now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p models.UserProgress
	err := s.c.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&p)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an upsert race on the unique user_id index; the winner's
		// document is there now.
		err = s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	}
	if err != nil {
		return models.UserProgress{}, err
	}
	if p.SelectedOpportunities == nil {
		p.SelectedOpportunities = []models.Selection{}
	}
	if p.EnrolledPrograms == nil {
		p.EnrolledPrograms = []models.Enrollment{}
	}
	return p, nil
}

// refMatchers returns a query matching a selection entry that refers to id
// in any stored shape: bare ObjectID, bare hex string, or an embedded
// object whose _id is either.
func refMatchers(id string) bson.A {
	m := bson.A{
		bson.M{"opportunity_id": id},
		bson.M{"opportunity_id._id": id},
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		m = append(m,
			bson.M{"opportunity_id": oid},
			bson.M{"opportunity_id._id": oid},
		)
	}
	return m
}

// AddSelection appends a selection for oppID unless one already exists in
// any shape. The guard and the push are a single conditional update.
func (s *Store) AddSelection(ctx context.Context, userID primitive.ObjectID, oppID string, notes string) (models.Selection, error) {
	if _, err := s.Ensure(ctx, userID); err != nil {
		return models.Selection{}, err
	}

	sel := models.Selection{
		Opportunity: models.IDRef(oppID),
		Status:      models.SelectionSelected,
		SelectedAt:  time.Now().UTC(),
		Notes:       notes,
	}
	filter := bson.M{
		"user_id": userID,
		"selected_opportunities": bson.M{
			"$not": bson.M{"$elemMatch": bson.M{"$or": refMatchers(oppID)}},
		},
	}
	update := bson.M{
		"$push": bson.M{"selected_opportunities": sel},
		"$set":  bson.M{"updated_at": sel.SelectedAt},
	}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return models.Selection{}, err
	}
	if res.MatchedCount == 0 {
		return models.Selection{}, ErrAlreadySelected
	}
	return sel, nil
}

// RemoveSelection pulls every entry referring to oppID, whatever its
// shape.
func (s *Store) RemoveSelection(ctx context.Context, userID primitive.ObjectID, oppID string) error {
	update := bson.M{
		"$pull": bson.M{"selected_opportunities": bson.M{"$or": refMatchers(oppID)}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.c.UpdateOne(ctx, bson.M{
		"user_id":                userID,
		"selected_opportunities": bson.M{"$elemMatch": bson.M{"$or": refMatchers(oppID)}},
	}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotSelected
	}
	return nil
}

// Enroll adds a program enrollment unless one exists.
func (s *Store) Enroll(ctx context.Context, userID, programID primitive.ObjectID) (models.Enrollment, error) {
	if _, err := s.Ensure(ctx, userID); err != nil {
		return models.Enrollment{}, err
	}

	e := models.Enrollment{
		ProgramID:  programID,
		Status:     models.EnrollmentEnrolled,
		Progress:   0,
		EnrolledAt: time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "enrolled_programs.program_id": bson.M{"$ne": programID}},
		bson.M{
			"$push": bson.M{"enrolled_programs": e},
			"$set":  bson.M{"updated_at": e.EnrolledAt},
		})
	if err != nil {
		return models.Enrollment{}, err
	}
	if res.MatchedCount == 0 {
		return models.Enrollment{}, ErrAlreadyEnrolled
	}
	return e, nil
}

// Unenroll removes a program enrollment.
func (s *Store) Unenroll(ctx context.Context, userID, programID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "enrolled_programs.program_id": programID},
		bson.M{
			"$pull": bson.M{"enrolled_programs": bson.M{"program_id": programID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotEnrolled
	}
	return nil
}

// CountSelecting returns how many users have oppID selected.
func (s *Store) CountSelecting(ctx context.Context, oppID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"selected_opportunities": bson.M{"$elemMatch": bson.M{"$or": refMatchers(oppID)}},
	})
}

// PullOpportunityEverywhere removes oppID from every user's selections;
// used when an opportunity is deleted.
func (s *Store) PullOpportunityEverywhere(ctx context.Context, oppID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"selected_opportunities": bson.M{"$elemMatch": bson.M{"$or": refMatchers(oppID)}}},
		bson.M{"$pull": bson.M{"selected_opportunities": bson.M{"$or": refMatchers(oppID)}}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
