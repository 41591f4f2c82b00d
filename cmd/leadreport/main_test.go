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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

const leadsPayload = `[
	{"remote_jid": "569001", "last_known_name": "Ana", "current_status": "Qualifying", "lead_score": 72, "temperature": "Hot", "suggested_action": "Agendar demo", "last_interaction_at": "2099-01-01T10:00:00Z"},
	{"remote_jid": "569002", "last_known_name": "Beto", "current_status": "Lost", "lead_score": 12, "temperature": "Cold", "last_interaction_at": "2020-01-01T10:00:00Z"}
]`

// fakeWebhooks serves the three webhooks and records the action body.
func fakeWebhooks(t *testing.T, actionBody *map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /leads", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, leadsPayload)
	})
	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `[{"id": "1", "remote_jid": "569001", "role": "user", "content": "Hola", "created_at": "2026-10-16T10:00:00Z"}]`)
	})
	mux.HandleFunc("POST /action", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(actionBody)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("LEADS_WEBHOOK_URL", srv.URL+"/leads")
	t.Setenv("CHAT_WEBHOOK_URL", srv.URL+"/chat")
	t.Setenv("ACTION_WEBHOOK_URL", srv.URL+"/action")
	t.Setenv("REDIS_URL", "")
	t.Setenv("OAUTH_CLIENT_ID", "")
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// TestSummary_JSON verifies the filtered report is emitted as JSON.
func TestSummary_JSON(t *testing.T) {
	fakeWebhooks(t, nil)

	out, err := run(t, "summary", "--temperature", "Hot", "--date-range", "all", "--status", "all", "-o", "json")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var rep struct {
		KPIs struct {
			Total int `json:"total"`
		} `json:"kpis"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if rep.KPIs.Total != 1 {
		t.Errorf("total = %d, want 1", rep.KPIs.Total)
	}
}

// TestSummary_InvalidFilter verifies bad flags fail before any fetch.
func TestSummary_InvalidFilter(t *testing.T) {
	fakeWebhooks(t, nil)

	if _, err := run(t, "summary", "--date-range", "90d", "--temperature", "all", "-o", "text"); err == nil {
		t.Fatal("expected error for unknown date range")
	}
}

// TestLeads_Text verifies the sorted table.
func TestLeads_Text(t *testing.T) {
	fakeWebhooks(t, nil)

	out, err := run(t, "leads", "--date-range", "all", "--temperature", "all", "--sort", "score", "--direction", "asc", "-o", "text", "--locale", "en-US")
	if err != nil {
		t.Fatalf("leads: %v", err)
	}
	beto, ana := strings.Index(out, "Beto"), strings.Index(out, "Ana")
	if beto < 0 || ana < 0 || beto > ana {
		t.Errorf("want Beto before Ana:\n%s", out)
	}
	if !strings.Contains(out, "Page 1 of 1 (2 leads)") {
		t.Errorf("missing page footer:\n%s", out)
	}
}

// TestChat verifies the conversation printout.
func TestChat(t *testing.T) {
	fakeWebhooks(t, nil)

	out, err := run(t, "chat", "569001", "-o", "text")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(out, "user: Hola") {
		t.Errorf("chat output = %q", out)
	}
}

// TestAction verifies the suggested action is sent as custom notes.
func TestAction(t *testing.T) {
	var body map[string]string
	fakeWebhooks(t, &body)

	out, err := run(t, "action", "569001", "--feedback", "llamar", "-o", "text")
	if err != nil {
		t.Fatalf("action: %v", err)
	}
	if !strings.Contains(out, "Action submitted for 569001") {
		t.Errorf("output = %q", out)
	}
	if body["custom_notes"] != "Agendar demo" || body["action_feedback"] != "llamar" || body["action_executed"] != "false" {
		t.Errorf("action body = %v", body)
	}
}
