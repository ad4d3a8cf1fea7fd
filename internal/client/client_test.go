package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/haymanh/success/internal/domain/models"
	"github.com/tidwall/gjson"
)

// fakeAPI is a minimal in-memory stand-in for the server's JSON surface.
type fakeAPI struct {
	mu       sync.Mutex
	selected []string
	opps     []string
	loggedIn bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Invalid email or password"}`))
			return
		}
		f.mu.Lock()
		f.loggedIn = true
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "ok", Path: "/"})
		_, _ = w.Write([]byte(`{"success":true,"message":"Logged in"}`))
	})
	mux.HandleFunc("/api/opportunities", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		// two records per page regardless of the requested limit
		start := (page - 1) * 2
		end := start + 2
		if start > len(f.opps) {
			start = len(f.opps)
		}
		if end > len(f.opps) {
			end = len(f.opps)
		}
		var rows []map[string]string
		for _, t := range f.opps[start:end] {
			rows = append(rows, map[string]string{"title": t, "type": "job"})
		}
		pages := (len(f.opps) + 1) / 2
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"opportunities": rows,
				"pagination":    map[string]int{"page": page, "limit": 2, "total": len(f.opps), "pages": pages},
			},
		})
	})
	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err != nil || c.Value != "ok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Authentication required"}`))
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		var sels []map[string]string
		for _, id := range f.selected {
			sels = append(sels, map[string]string{"opportunityId": id})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"userProgress": map[string]interface{}{"selectedOpportunities": sels}},
		})
	})
	mux.HandleFunc("/api/dashboard/select-opportunity", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, id := range f.selected {
			if id == body["opportunityId"] {
				_, _ = w.Write([]byte(`{"success":true,"message":"Opportunity already selected"}`))
				return
			}
		}
		f.selected = append(f.selected, body["opportunityId"])
		_, _ = w.Write([]byte(`{"success":true,"message":"Opportunity selected"}`))
	})
	mux.HandleFunc("/api/dashboard/selected-opportunities/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/dashboard/selected-opportunities/"):]
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.selected {
			if s == id {
				f.selected = append(f.selected[:i], f.selected[i+1:]...)
				_, _ = w.Write([]byte(`{"success":true,"message":"Opportunity removed"}`))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Opportunity not selected"}`))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "://nope"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) should fail", raw)
		}
	}
}

func TestLogin_KeepsSessionCookie(t *testing.T) {
	f := &fakeAPI{selected: []string{"a"}}
	c := newTestClient(t, f)
	ctx := context.Background()

	if _, err := c.Selections(ctx); !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("anonymous selections err = %v, want 401", err)
	}
	if err := c.Login(ctx, "u@example.com", "wrong"); !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("bad login err = %v, want 401", err)
	}
	if err := c.Login(ctx, "u@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	refs, err := c.Selections(ctx)
	if err != nil {
		t.Fatalf("Selections: %v", err)
	}
	if len(refs) != 1 || refs[0].ID != "a" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestAllOpportunities_WalksPages(t *testing.T) {
	f := &fakeAPI{opps: []string{"A", "B", "C", "D", "E"}}
	c := newTestClient(t, f)

	all, err := c.AllOpportunities(context.Background(), url.Values{"status": {"active"}})
	if err != nil {
		t.Fatalf("AllOpportunities: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d opportunities, want 5", len(all))
	}
	if all[0].Title != "A" || all[4].Title != "E" {
		t.Errorf("order lost: first=%s last=%s", all[0].Title, all[4].Title)
	}
}

func TestSelectAndRemove(t *testing.T) {
	f := &fakeAPI{}
	c := newTestClient(t, f)
	ctx := context.Background()

	already, err := c.SelectOpportunity(ctx, "x")
	if err != nil || already {
		t.Fatalf("first select: already=%v err=%v", already, err)
	}
	already, err = c.SelectOpportunity(ctx, "x")
	if err != nil || !already {
		t.Fatalf("duplicate select: already=%v err=%v", already, err)
	}
	if err := c.RemoveSelection(ctx, "x"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := c.RemoveSelection(ctx, "x"); !IsStatus(err, http.StatusNotFound) {
		t.Errorf("second remove err = %v, want 404", err)
	}
}

func TestParseSelectionRefs_BothShapes(t *testing.T) {
	raw := `[
		{"opportunityId":"64b7f0c2a1b2c3d4e5f60718"},
		{"opportunityId":{"_id":"64b7f0c2a1b2c3d4e5f60719","title":"Hack","category":"technology"}},
		{"opportunityId":{"id":"64b7f0c2a1b2c3d4e5f6071a"}},
		{"opportunityId":{}},
		{"selectedAt":"2024-01-01T00:00:00Z"},
		{"opportunityId":"bogus"}
	]`
	refs := ParseSelectionRefs(gjson.Parse(raw))
	if len(refs) != 4 {
		t.Fatalf("got %d refs, want 4: %+v", len(refs), refs)
	}
	if refs[0].Kind != models.RefID {
		t.Errorf("refs[0] kind = %v", refs[0].Kind)
	}
	if refs[1].Kind != models.RefEmbedded || refs[1].Title != "Hack" {
		t.Errorf("refs[1] = %+v", refs[1])
	}
	if refs[2].ID != "64b7f0c2a1b2c3d4e5f6071a" {
		t.Errorf("refs[2] = %+v", refs[2])
	}
	if refs[3].WellFormed() {
		t.Error("bogus id reported well formed")
	}
}

func TestParseSelectionRefs_MissingArray(t *testing.T) {
	refs := ParseSelectionRefs(gjson.Parse(`{}`).Get("userProgress.selectedOpportunities"))
	if refs == nil || len(refs) != 0 {
		t.Errorf("refs = %#v, want empty non-nil", refs)
	}
}

func TestListOpportunities_ToleratesMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()
	c, err := New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	rows, _, err := c.ListOpportunities(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListOpportunities: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}
