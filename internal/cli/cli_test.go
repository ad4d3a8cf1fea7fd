package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const (
	oppHack = "64b7f0c2a1b2c3d4e5f60718"
	oppJob  = "64b7f0c2a1b2c3d4e5f60719"
	oppCamp = "64b7f0c2a1b2c3d4e5f6071a"
)

// newFakeServer serves the handful of endpoints the CLI touches.
func newFakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	selected := []interface{}{
		map[string]interface{}{"opportunityId": oppJob},
		map[string]interface{}{"opportunityId": map[string]string{"_id": oppCamp, "title": "Camp"}},
		map[string]interface{}{"opportunityId": "1"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "ok", Path: "/"})
		_, _ = w.Write([]byte(`{"success":true,"message":"Logged in"}`))
	})
	mux.HandleFunc("/api/opportunities", func(w http.ResponseWriter, r *http.Request) {
		online := "online"
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"opportunities": []map[string]interface{}{
					{"_id": oppHack, "title": "Hack Night", "type": "hackathon", "category": "technology"},
					{"_id": oppJob, "title": "Junior Dev", "type": "job", "category": "technology", "attendanceType": online},
					{"_id": oppCamp, "title": "Summer Camp", "type": "camp", "category": "education"},
				},
				"pagination": map[string]int{"page": 1, "limit": 100, "total": 3, "pages": 1},
			},
		})
	})
	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"userProgress": map[string]interface{}{"selectedOpportunities": selected}},
		})
	})
	mux.HandleFunc("/api/dashboard/select-opportunity", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body["opportunityId"]) != 24 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"Invalid opportunity ID"}`))
			return
		}
		mu.Lock()
		selected = append(selected, map[string]interface{}{"opportunityId": body["opportunityId"]})
		mu.Unlock()
		_, _ = w.Write([]byte(`{"success":true,"message":"Opportunity selected"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvEmail, "")
	t.Setenv(EnvPassword, "")

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestOpportunities_FiltersLocally(t *testing.T) {
	srv := newFakeServer(t)

	out, _, err := run(t, "opportunities", "--api", srv.URL, "--type", "competition")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Hack Night") {
		t.Errorf("competition should include hackathons:\n%s", out)
	}
	if strings.Contains(out, "Junior Dev") || strings.Contains(out, "Summer Camp") {
		t.Errorf("unexpected rows:\n%s", out)
	}
	if !strings.Contains(out, "1 opportunities") {
		t.Errorf("missing count:\n%s", out)
	}
}

func TestOpportunities_AbsentAttributeMatches(t *testing.T) {
	srv := newFakeServer(t)

	out, _, err := run(t, "opportunities", "--api", srv.URL, "--attendance-type", "in_person")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// Junior Dev is online; the other two carry no attendance type.
	if strings.Contains(out, "Junior Dev") || !strings.Contains(out, "2 opportunities") {
		t.Errorf("got:\n%s", out)
	}
}

func TestOpportunities_JSONOutput(t *testing.T) {
	srv := newFakeServer(t)

	out, _, err := run(t, "opportunities", "--api", srv.URL, "-o", "json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3", len(rows))
	}
}

func TestOpportunities_BadOutputFormat(t *testing.T) {
	if _, _, err := run(t, "opportunities", "-o", "yaml"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestSelections_RequiresCredentials(t *testing.T) {
	srv := newFakeServer(t)
	if _, _, err := run(t, "selections", "list", "--api", srv.URL); err == nil {
		t.Error("expected credentials error")
	}
}

func TestSelections_ListNormalizes(t *testing.T) {
	srv := newFakeServer(t)

	out, _, err := run(t, "selections", "list", "--api", srv.URL, "--email", "u@example.com", "--password", "secret1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := oppJob + "\n" + oppCamp + "\n2 selected\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestSelections_Add(t *testing.T) {
	srv := newFakeServer(t)

	out, errOut, err := run(t, "selections", "add", oppHack,
		"--api", srv.URL, "--email", "u@example.com", "--password", "secret1", "--refresh-delay", "10ms")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, oppHack) || !strings.Contains(out, "3 selected") {
		t.Errorf("out:\n%s", out)
	}
	if !strings.Contains(errOut, "[info] Opportunity added") {
		t.Errorf("stderr:\n%s", errOut)
	}
}

func TestSelections_AddFailureKeepsSet(t *testing.T) {
	srv := newFakeServer(t)

	out, errOut, err := run(t, "selections", "add", "nope",
		"--api", srv.URL, "--email", "u@example.com", "--password", "secret1", "--refresh-delay", "10ms")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "2 selected") {
		t.Errorf("set changed on failure:\n%s", out)
	}
	if !strings.Contains(errOut, "[error] Invalid opportunity ID") {
		t.Errorf("stderr:\n%s", errOut)
	}
}

func TestSelections_AddCanonicalizesID(t *testing.T) {
	srv := newFakeServer(t)

	out, _, err := run(t, "selections", "add", " 64B7F0C2A1B2C3D4E5F60718 ",
		"--api", srv.URL, "--email", "u@example.com", "--password", "secret1", "--refresh-delay", "10ms")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, oppHack+"\n") || !strings.Contains(out, "3 selected") {
		t.Errorf("out:\n%s", out)
	}
	if strings.Contains(out, "64B7F0C2") {
		t.Errorf("non-canonical ID leaked into the set:\n%s", out)
	}
}
