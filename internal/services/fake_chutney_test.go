package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"campaign-editor/backend/pkg/models"
)

// fakeChutney is an in-memory stand-in for the Chutney server API.
type fakeChutney struct {
	mu        sync.Mutex
	campaigns map[int64]models.Campaign
	nextID    int64
	links     map[string]string
	requests  []string
	failSave  bool
}

func newFakeChutney(t *testing.T) (*fakeChutney, *httptest.Server) {
	t.Helper()
	f := &fakeChutney{
		campaigns: map[int64]models.Campaign{},
		nextID:    100,
		links:     map[string]string{},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeChutney) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == scenarioPath:
		writeTestJSON(w, []models.ScenarioIndex{
			{ID: "1", Title: "Login", Tags: []string{"smoke"}},
			{ID: "2", Title: "Search"},
			{ID: "7-1", Title: "Composed checkout"},
		})
	case r.Method == http.MethodGet && path == environmentPath:
		writeTestJSON(w, []string{"staging", "Acceptance"})
	case r.Method == http.MethodGet && path == componentPath+"/7-1/parameters":
		writeTestJSON(w, []models.KeyValue{{Key: "amount", Value: "10"}})
	case r.Method == http.MethodGet && strings.HasPrefix(path, campaignPath+"/"):
		var found *models.Campaign
		for id, c := range f.campaigns {
			if path == campaignPath+"/"+itoa(id) {
				found = &c
			}
		}
		if found == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeTestJSON(w, found)
	case (r.Method == http.MethodPost || r.Method == http.MethodPut) && path == campaignPath:
		if f.failSave {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"Campaign title is mandatory"}`)
			return
		}
		var c models.Campaign
		_ = json.NewDecoder(r.Body).Decode(&c)
		if c.ID == nil {
			id := f.nextID
			f.nextID++
			c.ID = &id
		}
		f.campaigns[*c.ID] = c
		writeTestJSON(w, c)
	case r.Method == http.MethodGet && path == jiraPath+"/configuration/url":
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "https://jira.example.com")
	case r.Method == http.MethodGet && path == jiraPath+"/scenario":
		writeTestJSON(w, map[string]string{"1": "PRJ-1"})
	case r.Method == http.MethodGet && strings.HasPrefix(path, jiraPath+"/testexec/"):
		writeTestJSON(w, []models.IssueLink{{ID: "PRJ-1", ChutneyID: "1", ExecutionStatus: "PASS"}})
	case r.Method == http.MethodGet && strings.HasPrefix(path, jiraPath+"/campaign/"):
		id := strings.TrimPrefix(path, jiraPath+"/campaign/")
		writeTestJSON(w, models.IssueLink{ID: f.links[id], ChutneyID: id})
	case r.Method == http.MethodPost && path == jiraPath+"/campaign":
		var link models.IssueLink
		_ = json.NewDecoder(r.Body).Decode(&link)
		f.links[link.ChutneyID] = link.ID
		writeTestJSON(w, link)
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "unexpected request "+r.Method+" "+path)
	}
}

func (f *fakeChutney) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeChutney) campaign(id int64) models.Campaign {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.campaigns[id]
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
