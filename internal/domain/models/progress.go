package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment statuses.
const (
	EnrollmentEnrolled  = "enrolled"
	EnrollmentCompleted = "completed"
	EnrollmentDropped   = "dropped"
)

// Enrollment ties a user to a program.
type Enrollment struct {
	ProgramID  primitive.ObjectID `bson:"program_id" json:"programId"`
	Status     string             `bson:"status" json:"status"`
	Progress   int                `bson:"progress" json:"progress"` // percent, 0-100
	EnrolledAt time.Time          `bson:"enrolled_at" json:"enrolledAt"`
}

// UserProgress is the per-user dashboard record. There is at most one per
// user (unique index on user_id).
type UserProgress struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID                primitive.ObjectID `bson:"user_id" json:"userId"`
	SelectedOpportunities []Selection        `bson:"selected_opportunities" json:"selectedOpportunities"`
	EnrolledPrograms      []Enrollment       `bson:"enrolled_programs" json:"enrolledPrograms"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
