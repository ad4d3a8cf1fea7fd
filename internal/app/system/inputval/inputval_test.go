package inputval

import "testing"

func TestIsValidOpportunityType(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"scholarship", true},
		{"hackathon", true},
		{"job_fair", true},
		{" internship ", true},
		{"Scholarship", false},
		{"", false},
		{"party", false},
	}
	for _, tt := range tests {
		if got := IsValidOpportunityType(tt.in); got != tt.want {
			t.Errorf("IsValidOpportunityType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidOpportunityStatus(t *testing.T) {
	for _, s := range []string{"active", "closed", "expired", "draft"} {
		if !IsValidOpportunityStatus(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	if IsValidOpportunityStatus("archived") {
		t.Error("archived should be invalid")
	}
}

func TestIsValidObjectID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"64b7f0c2a1b2c3d4e5f60718", true},
		{" 64b7f0c2a1b2c3d4e5f60718 ", true},
		{"opp1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidObjectID(tt.in); got != tt.want {
			t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResult(t *testing.T) {
	var r Result
	if !r.OK() || r.First() != "" {
		t.Fatal("zero Result should be OK")
	}

	r.Check(true, "title", "title is required")
	r.Check(false, "type", "type is invalid")
	r.Add("deadline", "deadline is required")
	r.Add("type", "second message ignored")

	if r.OK() {
		t.Fatal("expected errors")
	}
	if r.First() != "type is invalid" {
		t.Errorf("First() = %q", r.First())
	}
	all := r.All()
	if len(all) != 2 || all["type"] != "type is invalid" {
		t.Errorf("All() = %v", all)
	}
}
