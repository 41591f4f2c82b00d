// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/salespipe/leaddash/internal/action"
	"github.com/salespipe/leaddash/internal/dashboard"
	"github.com/salespipe/leaddash/internal/filter"
	"github.com/salespipe/leaddash/internal/metrics"
	"github.com/salespipe/leaddash/internal/models"
	"github.com/salespipe/leaddash/internal/preferences"
)

type stubSource struct{}

func (stubSource) FetchLeads(context.Context) ([]byte, error) {
	return []byte(`{"leads": [
		{"remote_jid": "1", "last_known_name": "Ana", "current_status": "New", "lead_score": 40, "temperature": "Warm", "last_interaction_at": "2026-10-16T09:00:00Z"},
		{"remote_jid": "2", "last_known_name": "Beto", "current_status": "Converted", "lead_score": 95, "temperature": "Hot", "last_interaction_at": "2026-10-15T09:00:00Z"},
		{"remote_jid": "3", "last_known_name": "Caro", "current_status": "Lost", "lead_score": 5, "temperature": "Cold", "last_interaction_at": "2026-08-01T09:00:00Z"}
	]}`), nil
}

func (stubSource) FetchChat(_ context.Context, id string) ([]byte, error) {
	if id == "broken" {
		return nil, errors.New("status 500")
	}
	return []byte(`[{"id": "m1", "remote_jid": "` + id + `", "role": "user", "content": "hola", "created_at": "2026-10-16T09:00:00Z"}]`), nil
}

type stubActions struct {
	err     error
	gotID   string
	gotNote string
}

func (s *stubActions) Execute(_ context.Context, id, feedback string) (action.Result, error) {
	s.gotID, s.gotNote = id, feedback
	if s.err != nil {
		return action.Result{}, s.err
	}
	return action.Result{RequestID: "req-1", Request: models.NewActionRequest(id, "", feedback)}, nil
}

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, acts *stubActions) (*httptest.Server, *preferences.MemoryStore) {
	t.Helper()
	m := metrics.New()
	svc := dashboard.NewService(dashboard.Config{
		Source:  stubSource{},
		Metrics: m,
		Now:     func() time.Time { return fixedNow },
	})
	svc.Refresh(context.Background())

	store := preferences.NewMemoryStore()
	h := NewHandler(svc, acts, preferences.NewResolver(store, preferences.ThemeLight), m)
	h.now = func() time.Time { return fixedNow }

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, user, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// TestLeads_FilterSortPaginate verifies the table endpoint.
func TestLeads_FilterSortPaginate(t *testing.T) {
	srv, _ := newTestServer(t, &stubActions{})

	resp := do(t, http.MethodGet, srv.URL+"/api/leads?date_range=30d&sort=score&direction=asc", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got LeadsResponse
	decode(t, resp, &got)

	if got.Total != 2 {
		t.Fatalf("total = %d, want 2", got.Total)
	}
	if got.Leads[0].RemoteID != "1" || got.Leads[1].RemoteID != "2" {
		t.Errorf("order = %s,%s", got.Leads[0].RemoteID, got.Leads[1].RemoteID)
	}
	if got.Sort.Field != "score" || got.Sort.Direction != "asc" {
		t.Errorf("sort = %+v", got.Sort)
	}
	if got.Snapshot.Count != 3 {
		t.Errorf("snapshot count = %d", got.Snapshot.Count)
	}
}

// TestLeads_BadQuery verifies invalid criteria and sort values are 400s.
func TestLeads_BadQuery(t *testing.T) {
	srv, _ := newTestServer(t, &stubActions{})

	for _, q := range []string{"date_range=90d", "temperature=Lukewarm", "sort=colour", "direction=up", "page=abc", "page=-1", "per_page=x"} {
		resp := do(t, http.MethodGet, srv.URL+"/api/leads?"+q, "", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, resp.StatusCode)
		}
	}
}

// TestReport verifies the aggregate endpoint.
func TestReport(t *testing.T) {
	srv, _ := newTestServer(t, &stubActions{})

	resp := do(t, http.MethodGet, srv.URL+"/api/report?temperature=Hot", "", "")
	var got struct {
		Criteria filter.Criteria `json:"criteria"`
		Report   struct {
			KPIs struct {
				Total     int `json:"total"`
				HotLeads  int `json:"hot_leads"`
				Converted int `json:"converted"`
			} `json:"kpis"`
		} `json:"report"`
	}
	decode(t, resp, &got)

	if got.Report.KPIs.Total != 1 || got.Report.KPIs.HotLeads != 1 || got.Report.KPIs.Converted != 1 {
		t.Errorf("kpis = %+v", got.Report.KPIs)
	}
	if got.Criteria.Temperature != "Hot" {
		t.Errorf("criteria = %+v", got.Criteria)
	}
}

// TestRefresh verifies a manual refresh applies a new snapshot.
func TestRefresh(t *testing.T) {
	srv, _ := newTestServer(t, &stubActions{})

	resp := do(t, http.MethodPost, srv.URL+"/api/refresh", "", "")
	var got RefreshResponse
	decode(t, resp, &got)

	if !got.Applied || got.Snapshot.Seq != 2 {
		t.Errorf("refresh = %+v", got)
	}
}

// TestChat verifies chat history and its fail-soft empty array.
func TestChat(t *testing.T) {
	srv, _ := newTestServer(t, &stubActions{})

	var msgs []models.ChatMessage
	decode(t, do(t, http.MethodGet, srv.URL+"/api/leads/1/chat", "", ""), &msgs)
	if len(msgs) != 1 || msgs[0].RemoteID != "1" {
		t.Errorf("messages = %+v", msgs)
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/leads/broken/chat", "", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("broken chat = %d %q", resp.StatusCode, body)
	}
}

// TestAction verifies the status code mapping of action submissions.
func TestAction(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusAccepted},
		{action.ErrDuplicate, http.StatusConflict},
		{action.ErrMissingLead, http.StatusBadRequest},
		{fmt.Errorf("execute action: %w", errors.New("status 503")), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.want), func(t *testing.T) {
			acts := &stubActions{err: tt.err}
			srv, _ := newTestServer(t, acts)

			resp := do(t, http.MethodPost, srv.URL+"/api/leads/2/action", "", `{"feedback": "cerrar"}`)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if acts.gotID != "2" || acts.gotNote != "cerrar" {
				t.Errorf("executed %q %q", acts.gotID, acts.gotNote)
			}
		})
	}
}

// TestAction_BadBody verifies malformed JSON is rejected before execution.
func TestAction_BadBody(t *testing.T) {
	acts := &stubActions{}
	srv, _ := newTestServer(t, acts)

	resp := do(t, http.MethodPost, srv.URL+"/api/leads/2/action", "", `{feedback`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if acts.gotID != "" {
		t.Error("action executed for malformed body")
	}
}

// TestTheme verifies preference storage and the X-Theme header.
func TestTheme(t *testing.T) {
	srv, store := newTestServer(t, &stubActions{})

	resp := do(t, http.MethodGet, srv.URL+"/health", "", "")
	if got := resp.Header.Get(ThemeHeader); got != "light" {
		t.Errorf("anonymous theme = %q", got)
	}

	resp = do(t, http.MethodPut, srv.URL+"/api/preferences/theme", "", `{"theme": "dark"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("put without user = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPut, srv.URL+"/api/preferences/theme", "ana@example.com", `{"theme": "neon"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("put unknown theme = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPut, srv.URL+"/api/preferences/theme", "ana@example.com", `{"theme": "Dark"}`)
	if resp.StatusCode != http.StatusOK || resp.Header.Get(ThemeHeader) != "dark" {
		t.Errorf("put = %d, header %q", resp.StatusCode, resp.Header.Get(ThemeHeader))
	}
	if th, ok, _ := store.GetTheme(context.Background(), "ana@example.com"); !ok || th != preferences.ThemeDark {
		t.Errorf("stored = %q %v", th, ok)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/preferences/theme", "Ana@Example.com", "")
	var got ThemeBody
	decode(t, resp, &got)
	if got.Theme != preferences.ThemeDark || resp.Header.Get(ThemeHeader) != "dark" {
		t.Errorf("get = %q, header %q", got.Theme, resp.Header.Get(ThemeHeader))
	}
}

// TestMetrics verifies request counting and the exposition endpoint.
func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &stubActions{})

	do(t, http.MethodGet, srv.URL+"/health", "", "")
	resp := do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	body, _ := io.ReadAll(resp.Body)

	want := `leaddash_http_requests_total{code="200",route="GET /health"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics missing %q", want)
	}
	if !strings.Contains(string(body), "leaddash_snapshot_leads") {
		t.Error("metrics missing snapshot gauge")
	}
}
