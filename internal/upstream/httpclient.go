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

package upstream

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/salespipe/leaddash/internal/config"
)

// NewHTTPClient returns the client used for webhook calls. When OAuth client
// credentials are configured, requests carry a bearer token obtained (and
// refreshed) through the client-credentials grant; otherwise requests are
// unauthenticated.
func NewHTTPClient(ctx context.Context, cfg *config.Config) *http.Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	if !cfg.OAuth.Enabled() {
		return &http.Client{Timeout: timeout}
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		TokenURL:     cfg.OAuth.TokenURL,
		Scopes:       cfg.OAuth.Scopes,
	}
	client := creds.Client(ctx)
	client.Timeout = timeout

	slog.Info("webhook client uses oauth2 client credentials",
		"token_url", cfg.OAuth.TokenURL,
		"client_id", cfg.OAuth.ClientID,
	)
	return client
}

// EndpointsFrom extracts the webhook URLs from cfg.
func EndpointsFrom(cfg *config.Config) Endpoints {
	return Endpoints{Leads: cfg.LeadsURL, Chat: cfg.ChatURL, Action: cfg.ActionURL}
}
