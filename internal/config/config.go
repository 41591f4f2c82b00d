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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // display timezones must resolve in minimal containers

	"gopkg.in/yaml.v3"
)

// OAuthConfig holds optional client credentials for the upstream webhooks.
type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Enabled reports whether client-credentials auth should be used.
func (o OAuthConfig) Enabled() bool {
	return o.TokenURL != "" && o.ClientID != ""
}

// Config holds all configuration for the dashboard service and CLI.
type Config struct {
	// Upstream webhooks
	LeadsURL    string
	ChatURL     string
	ActionURL   string
	HTTPTimeout time.Duration
	OAuth       OAuthConfig

	// Redis (optional)
	RedisURL       string
	EventsQueue    string
	ActionDedupTTL time.Duration

	// Postgres (optional)
	DatabaseURL string

	// Dashboard
	RefreshInterval time.Duration
	Timezone        string
	Location        *time.Location
	DefaultTheme    string
	Locale          string
	TopTopics       int

	// Server
	Port     int
	LogLevel slog.Level
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Webhooks struct {
		Leads   string `yaml:"leads_url"`
		Chat    string `yaml:"chat_url"`
		Action  string `yaml:"action_url"`
		Timeout string `yaml:"timeout"`
		OAuth   struct {
			TokenURL     string   `yaml:"token_url"`
			ClientID     string   `yaml:"client_id"`
			ClientSecret string   `yaml:"client_secret"`
			Scopes       []string `yaml:"scopes"`
		} `yaml:"oauth"`
	} `yaml:"webhooks"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Events string `yaml:"events"`
		} `yaml:"queues"`
		ActionDedupTTL string `yaml:"action_dedup_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Dashboard struct {
		RefreshInterval string `yaml:"refresh_interval"`
		Timezone        string `yaml:"timezone"`
		DefaultTheme    string `yaml:"default_theme"`
		Locale          string `yaml:"locale"`
		TopTopics       int    `yaml:"top_topics"`
	} `yaml:"dashboard"`
	Server struct {
		Port     int    `yaml:"port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"server"`
}

// Load reads configuration from the file at CONFIG_PATH (default
// config.yaml). A missing file is not an error: every setting can also come
// from the environment.
func Load() (*Config, error) {
	return LoadFile(envOrDefault("CONFIG_PATH", "config.yaml"))
}

// LoadFile reads configuration from path, expanding ${VAR} references, and
// fills unset values from environment variables and defaults.
func LoadFile(path string) (*Config, error) {
	var raw rawConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// env-only configuration
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	}

	cfg := &Config{
		LeadsURL:     firstNonEmpty(raw.Webhooks.Leads, os.Getenv("LEADS_WEBHOOK_URL")),
		ChatURL:      firstNonEmpty(raw.Webhooks.Chat, os.Getenv("CHAT_WEBHOOK_URL")),
		ActionURL:    firstNonEmpty(raw.Webhooks.Action, os.Getenv("ACTION_WEBHOOK_URL")),
		RedisURL:     firstNonEmpty(raw.Redis.URL, os.Getenv("REDIS_URL")),
		EventsQueue:  firstNonEmpty(raw.Redis.Queues.Events, envOrDefault("EVENTS_QUEUE", "leaddash:events")),
		DatabaseURL:  firstNonEmpty(raw.Postgres.URL, os.Getenv("DATABASE_URL")),
		Timezone:     firstNonEmpty(raw.Dashboard.Timezone, envOrDefault("DISPLAY_TIMEZONE", "America/Santiago")),
		DefaultTheme: strings.ToLower(firstNonEmpty(raw.Dashboard.DefaultTheme, envOrDefault("DEFAULT_THEME", "light"))),
		Locale:       firstNonEmpty(raw.Dashboard.Locale, envOrDefault("REPORT_LOCALE", "es-CL")),
		TopTopics:    firstPositive(raw.Dashboard.TopTopics, envOrDefaultInt("TOP_TOPICS", 5)),
		Port:         firstPositive(raw.Server.Port, envOrDefaultInt("PORT", 8080)),
	}

	cfg.OAuth = OAuthConfig{
		TokenURL:     firstNonEmpty(raw.Webhooks.OAuth.TokenURL, os.Getenv("OAUTH_TOKEN_URL")),
		ClientID:     firstNonEmpty(raw.Webhooks.OAuth.ClientID, os.Getenv("OAUTH_CLIENT_ID")),
		ClientSecret: firstNonEmpty(raw.Webhooks.OAuth.ClientSecret, os.Getenv("OAUTH_CLIENT_SECRET")),
		Scopes:       raw.Webhooks.OAuth.Scopes,
	}
	if scopes := os.Getenv("OAUTH_SCOPES"); len(cfg.OAuth.Scopes) == 0 && scopes != "" {
		cfg.OAuth.Scopes = strings.Fields(strings.ReplaceAll(scopes, ",", " "))
	}

	if cfg.HTTPTimeout, err = durationSetting(raw.Webhooks.Timeout, "HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ActionDedupTTL, err = durationSetting(raw.Redis.ActionDedupTTL, "ACTION_DEDUP_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = durationSetting(raw.Dashboard.RefreshInterval, "REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(firstNonEmpty(raw.Server.LogLevel, envOrDefault("LOG_LEVEL", "info")))); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("load display timezone %q: %w", cfg.Timezone, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LeadsURL == "" {
		return errors.New("no leads webhook configured: set webhooks.leads_url or LEADS_WEBHOOK_URL")
	}
	if c.DefaultTheme != "light" && c.DefaultTheme != "dark" {
		return fmt.Errorf("default theme must be light or dark, got %q", c.DefaultTheme)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative, got %s", c.RefreshInterval)
	}
	return nil
}

// durationSetting parses the YAML value when present, else the environment
// variable, else returns fallback. A malformed YAML value is an error; a
// malformed env value falls back like the other env helpers.
func durationSetting(yamlValue, envKey string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(yamlValue) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(yamlValue))
		if err != nil {
			return 0, fmt.Errorf("parse duration for %s: %w", strings.ToLower(envKey), err)
		}
		return d, nil
	}
	return envOrDefaultDuration(envKey, fallback), nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
