package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program statuses.
const (
	ProgramActive   = "active"
	ProgramArchived = "archived"
)

// Program is an in-house track users can enroll in.
type Program struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Duration    string             `bson:"duration,omitempty" json:"duration,omitempty"`
	Status      string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
