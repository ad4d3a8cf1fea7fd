package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	idA = "64b7f0c2a1b2c3d4e5f60718"
	idB = "64b7f0c2a1b2c3d4e5f60719"
)

func TestOpportunityRef_UnmarshalJSON_BothShapes(t *testing.T) {
	body := `[
		{"opportunityId": "` + idA + `", "status": "selected"},
		{"opportunityId": {"_id": "` + idB + `", "title": "X", "category": "tech"}, "status": "selected"}
	]`
	var sels []Selection
	if err := json.Unmarshal([]byte(body), &sels); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sels[0].Opportunity.Kind != RefID || sels[0].Opportunity.ID != idA {
		t.Errorf("bare ref: got %+v", sels[0].Opportunity)
	}
	if sels[1].Opportunity.Kind != RefEmbedded || sels[1].Opportunity.ID != idB {
		t.Errorf("embedded ref: got %+v", sels[1].Opportunity)
	}
	if sels[1].Opportunity.Title != "X" {
		t.Errorf("embedded title: got %q", sels[1].Opportunity.Title)
	}
}

func TestOpportunityRef_UnmarshalJSON_IDField(t *testing.T) {
	var ref OpportunityRef
	if err := json.Unmarshal([]byte(`{"id":"`+idA+`"}`), &ref); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ref.ID != idA {
		t.Errorf("ID: got %q, want %q", ref.ID, idA)
	}
}

func TestOpportunityRef_UnmarshalJSON_Null(t *testing.T) {
	var ref OpportunityRef
	if err := json.Unmarshal([]byte(`null`), &ref); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ref.ID != "" {
		t.Errorf("expected empty ref, got %+v", ref)
	}
}

func TestOpportunityRef_BSON_StoredShapes(t *testing.T) {
	oidA, _ := primitive.ObjectIDFromHex(idA)
	oidB, _ := primitive.ObjectIDFromHex(idB)

	docs := []bson.M{
		{"opportunity_id": oidA, "status": "selected"},
		{"opportunity_id": idA, "status": "selected"},
		{"opportunity_id": bson.M{"_id": oidB, "title": "X"}, "status": "selected"},
		{"opportunity_id": bson.M{"_id": idB}, "status": "selected"},
		{"opportunity_id": "opp1", "status": "selected"},
	}
	want := []string{idA, idA, idB, idB, "opp1"}

	for i, d := range docs {
		raw, err := bson.Marshal(d)
		if err != nil {
			t.Fatalf("marshal %d: %v", i, err)
		}
		var s Selection
		if err := bson.Unmarshal(raw, &s); err != nil {
			t.Fatalf("unmarshal %d: %v", i, err)
		}
		if s.Opportunity.ID != want[i] {
			t.Errorf("doc %d: ID got %q, want %q", i, s.Opportunity.ID, want[i])
		}
	}
}

func TestOpportunityRef_MarshalBSON_WritesObjectID(t *testing.T) {
	raw, err := bson.Marshal(Selection{Opportunity: IDRef(idA), Status: SelectionSelected})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v := bson.Raw(raw).Lookup("opportunity_id")
	oid, ok := v.ObjectIDOK()
	if !ok {
		t.Fatalf("expected ObjectID, got %s", v.Type)
	}
	if oid.Hex() != idA {
		t.Errorf("got %s, want %s", oid.Hex(), idA)
	}
}

func TestSelectedIDs_NormalizesAndDropsMalformed(t *testing.T) {
	sels := []Selection{
		{Opportunity: IDRef(idA)},
		{Opportunity: OpportunityRef{Kind: RefEmbedded, ID: idB, Title: "X"}},
		{Opportunity: IDRef("opp1")},
		{Opportunity: IDRef("")},
		{Opportunity: IDRef(idA)},
	}
	got := SelectedIDs(sels)
	if len(got) != 2 || got[0] != idA || got[1] != idB {
		t.Errorf("SelectedIDs = %v, want [%s %s]", got, idA, idB)
	}
}

func TestIsWellFormedID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{idA, true},
		{"opp1", false},
		{"", false},
		{"zzzzzzzzzzzzzzzzzzzzzzzz", false},
		{idA + "0", false},
	}
	for _, tt := range tests {
		if got := IsWellFormedID(tt.id); got != tt.want {
			t.Errorf("IsWellFormedID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OpportunityDraft, OpportunityActive, true},
		{OpportunityActive, OpportunityClosed, true},
		{OpportunityActive, OpportunityExpired, true},
		{OpportunityClosed, OpportunityActive, false},
		{OpportunityExpired, OpportunityActive, false},
		{OpportunityActive, OpportunityDraft, false},
		{OpportunityClosed, OpportunityExpired, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
