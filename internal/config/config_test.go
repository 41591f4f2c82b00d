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

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"CONFIG_PATH", "LEADS_WEBHOOK_URL", "CHAT_WEBHOOK_URL", "ACTION_WEBHOOK_URL",
	"HTTP_TIMEOUT", "OAUTH_TOKEN_URL", "OAUTH_CLIENT_ID", "OAUTH_CLIENT_SECRET", "OAUTH_SCOPES",
	"REDIS_URL", "EVENTS_QUEUE", "ACTION_DEDUP_TTL", "DATABASE_URL", "REFRESH_INTERVAL",
	"DISPLAY_TIMEZONE", "DEFAULT_THEME", "REPORT_LOCALE", "TOP_TOPICS", "PORT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_YAMLWithExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHOOK_HOST", "hooks.example.com")

	path := writeConfig(t, `
webhooks:
  leads_url: https://${WEBHOOK_HOST}/leads
  chat_url: https://${WEBHOOK_HOST}/chat
  action_url: https://${WEBHOOK_HOST}/action
  timeout: 5s
  oauth:
    token_url: https://auth.example.com/token
    client_id: dash
    client_secret: s3cret
    scopes: [leads.read]
redis:
  url: redis://cache:6379/1
  queues:
    events: dash-events
  action_dedup_ttl: 2m
dashboard:
  refresh_interval: 0s
  timezone: UTC
  default_theme: Dark
  top_topics: 3
server:
  port: 9090
  log_level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.LeadsURL != "https://hooks.example.com/leads" {
		t.Errorf("LeadsURL = %q", cfg.LeadsURL)
	}
	if cfg.ActionURL != "https://hooks.example.com/action" {
		t.Errorf("ActionURL = %q", cfg.ActionURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if !cfg.OAuth.Enabled() || cfg.OAuth.ClientSecret != "s3cret" || len(cfg.OAuth.Scopes) != 1 {
		t.Errorf("OAuth = %+v", cfg.OAuth)
	}
	if cfg.RedisURL != "redis://cache:6379/1" || cfg.EventsQueue != "dash-events" {
		t.Errorf("redis settings = %q %q", cfg.RedisURL, cfg.EventsQueue)
	}
	if cfg.ActionDedupTTL != 2*time.Minute {
		t.Errorf("ActionDedupTTL = %v", cfg.ActionDedupTTL)
	}
	if cfg.RefreshInterval != 0 {
		t.Errorf("RefreshInterval = %v, want disabled", cfg.RefreshInterval)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v", cfg.Location)
	}
	if cfg.DefaultTheme != "dark" {
		t.Errorf("DefaultTheme = %q", cfg.DefaultTheme)
	}
	if cfg.TopTopics != 3 || cfg.Port != 9090 {
		t.Errorf("TopTopics = %d, Port = %d", cfg.TopTopics, cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoadFile_MissingFileUsesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEADS_WEBHOOK_URL", "http://localhost:5678/webhook/leads")
	t.Setenv("PORT", "7000")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("OAUTH_SCOPES", "a,b c")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.LeadsURL != "http://localhost:5678/webhook/leads" {
		t.Errorf("LeadsURL = %q", cfg.LeadsURL)
	}
	if cfg.Port != 7000 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("HTTPTimeout default = %v", cfg.HTTPTimeout)
	}
	if cfg.Timezone != "America/Santiago" || cfg.Location == nil {
		t.Errorf("timezone = %q (%v)", cfg.Timezone, cfg.Location)
	}
	if cfg.RedisURL != "" || cfg.DatabaseURL != "" {
		t.Errorf("optional stores should be off by default")
	}
	if cfg.OAuth.Enabled() {
		t.Error("OAuth should be disabled without token url")
	}
	if len(cfg.OAuth.Scopes) != 3 {
		t.Errorf("Scopes = %v", cfg.OAuth.Scopes)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no leads url", "dashboard:\n  timezone: UTC\n"},
		{"bad theme", "webhooks:\n  leads_url: http://x\ndashboard:\n  default_theme: sepia\n"},
		{"bad duration", "webhooks:\n  leads_url: http://x\n  timeout: soon\n"},
		{"negative refresh", "webhooks:\n  leads_url: http://x\ndashboard:\n  refresh_interval: -1m\n"},
		{"bad timezone", "webhooks:\n  leads_url: http://x\ndashboard:\n  timezone: Mars/Olympus\n"},
		{"bad log level", "webhooks:\n  leads_url: http://x\nserver:\n  log_level: loud\n"},
		{"bad yaml", "webhooks: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := LoadFile(writeConfig(t, tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
