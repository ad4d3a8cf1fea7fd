// internal/domain/models/selection.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Selection statuses. Only SelectionSelected is written by the selection
// flow; the rest are carried for application tracking.
const (
	SelectionSelected  = "selected"
	SelectionApplied   = "applied"
	SelectionAccepted  = "accepted"
	SelectionRejected  = "rejected"
	SelectionWithdrawn = "withdrawn"
)

// Selection records that a user chose an opportunity.
type Selection struct {
	Opportunity OpportunityRef `bson:"opportunity_id" json:"opportunityId"`
	Status      string         `bson:"status" json:"status"`
	SelectedAt  time.Time      `bson:"selected_at" json:"selectedAt"`
	Notes       string         `bson:"notes,omitempty" json:"notes,omitempty"`
}

// RefKind tags the shape an OpportunityRef was stored in.
type RefKind int

const (
	// RefID is a bare identifier.
	RefID RefKind = iota
	// RefEmbedded is an object carrying the identifier plus a copy of
	// title and category.
	RefEmbedded
)

// OpportunityRef points at an opportunity. Older progress documents hold a
// bare ID (ObjectID or hex string); others hold an embedded object. Both
// decode into this type, and Normalize collapses either to RefID.
type OpportunityRef struct {
	Kind     RefKind
	ID       string
	Title    string
	Category string
}

// IDRef builds a bare reference.
func IDRef(id string) OpportunityRef {
	return OpportunityRef{Kind: RefID, ID: id}
}

// EmbeddedRef builds an embedded reference from an opportunity.
func EmbeddedRef(o Opportunity) OpportunityRef {
	return OpportunityRef{Kind: RefEmbedded, ID: o.ID.Hex(), Title: o.Title, Category: o.Category}
}

// Normalize drops the embedded copy and keeps the bare identifier.
func (r OpportunityRef) Normalize() OpportunityRef {
	return OpportunityRef{Kind: RefID, ID: r.ID}
}

// WellFormed reports whether the reference carries a usable ObjectID.
func (r OpportunityRef) WellFormed() bool {
	return IsWellFormedID(r.ID)
}

// ObjectID parses the reference identifier.
func (r OpportunityRef) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(r.ID)
}

// IsWellFormedID reports whether id is a 24-character hex ObjectID.
// Demo fixtures with short placeholder IDs fail this check.
func IsWellFormedID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// embeddedRefBSON is the stored embedded shape.
type embeddedRefBSON struct {
	ID       interface{} `bson:"_id"`
	Title    string      `bson:"title,omitempty"`
	Category string      `bson:"category,omitempty"`
}

// MarshalBSONValue writes well-formed IDs as ObjectIDs so they match the
// opportunities collection; anything else is kept as a string.
func (r OpportunityRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	var id interface{} = r.ID
	if oid, err := primitive.ObjectIDFromHex(r.ID); err == nil {
		id = oid
	}
	if r.Kind == RefEmbedded {
		return bson.MarshalValue(embeddedRefBSON{ID: id, Title: r.Title, Category: r.Category})
	}
	return bson.MarshalValue(id)
}

// UnmarshalBSONValue accepts an ObjectID, a string, or a subdocument with
// an _id (or id) field.
func (r *OpportunityRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*r = OpportunityRef{}
		return nil
	case bsontype.ObjectID:
		*r = IDRef(rv.ObjectID().Hex())
		return nil
	case bsontype.String:
		*r = IDRef(rv.StringValue())
		return nil
	case bsontype.EmbeddedDocument:
		doc := rv.Document()
		out := OpportunityRef{Kind: RefEmbedded}
		idVal, err := doc.LookupErr("_id")
		if err != nil {
			idVal, err = doc.LookupErr("id")
		}
		if err == nil {
			out.ID = rawIDString(idVal)
		}
		if v, err := doc.LookupErr("title"); err == nil {
			out.Title, _ = v.StringValueOK()
		}
		if v, err := doc.LookupErr("category"); err == nil {
			out.Category, _ = v.StringValueOK()
		}
		*r = out
		return nil
	}
	return fmt.Errorf("opportunity reference: unsupported bson type %s", t)
}

func rawIDString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return ""
}

type embeddedRefJSON struct {
	ID       string `json:"_id"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
}

// MarshalJSON writes a bare string or the embedded object.
func (r OpportunityRef) MarshalJSON() ([]byte, error) {
	if r.Kind == RefEmbedded {
		return json.Marshal(embeddedRefJSON{ID: r.ID, Title: r.Title, Category: r.Category})
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts a string or an object with _id (or id).
func (r *OpportunityRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = OpportunityRef{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = IDRef(s)
		return nil
	}
	var obj struct {
		UnderscoreID string `json:"_id"`
		ID           string `json:"id"`
		Title        string `json:"title"`
		Category     string `json:"category"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("opportunity reference: %w", err)
	}
	id := obj.UnderscoreID
	if id == "" {
		id = obj.ID
	}
	*r = OpportunityRef{Kind: RefEmbedded, ID: id, Title: obj.Title, Category: obj.Category}
	return nil
}

// SelectedIDs normalizes every selection to its bare ID and keeps only the
// well-formed ones, preserving order and dropping repeats.
func SelectedIDs(sels []Selection) []string {
	seen := make(map[string]struct{}, len(sels))
	out := make([]string, 0, len(sels))
	for _, s := range sels {
		ref := s.Opportunity.Normalize()
		if !ref.WellFormed() {
			continue
		}
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		out = append(out, ref.ID)
	}
	return out
}
