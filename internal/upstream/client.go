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

// Package upstream talks to the webhook backend that owns lead data: the
// lead list, per-lead chat history, and action execution.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/salespipe/leaddash/internal/models"
)

// maxBodyBytes caps how much of a webhook response is read.
const maxBodyBytes = 10 << 20

// ErrNotConfigured is returned when the webhook for an operation has no URL.
var ErrNotConfigured = errors.New("webhook url not configured")

// StatusError is returned when a webhook answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: webhook returned HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: webhook returned HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Endpoints are the webhook URLs the client calls.
type Endpoints struct {
	Leads  string
	Chat   string
	Action string
}

// Client calls the lead webhooks. Responses are returned as raw JSON: shape
// tolerance belongs to the ingest package.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	tracer     *tracer
}

// NewClient creates a webhook client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, endpoints Endpoints) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		endpoints:  endpoints,
		tracer:     newTracer(),
	}
}

// FetchLeads retrieves the full lead list with a plain GET.
func (c *Client) FetchLeads(ctx context.Context) (payload []byte, err error) {
	ctx, span := c.tracer.start(ctx, spanFetchLeads, c.endpoints.Leads)
	defer func() { c.tracer.finish(span, len(payload), err) }()

	if c.endpoints.Leads == "" {
		return nil, fmt.Errorf("fetch leads: %w", ErrNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.Leads, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, "fetch leads")
}

// FetchChat retrieves the chat history of one lead.
func (c *Client) FetchChat(ctx context.Context, remoteID string) (payload []byte, err error) {
	ctx, span := c.tracer.start(ctx, spanFetchChat, c.endpoints.Chat, remoteIDAttr(remoteID))
	defer func() { c.tracer.finish(span, len(payload), err) }()

	if c.endpoints.Chat == "" {
		return nil, fmt.Errorf("fetch chat: %w", ErrNotConfigured)
	}

	req, err := newJSONRequest(ctx, c.endpoints.Chat, models.ChatRequest{RemoteID: remoteID})
	if err != nil {
		return nil, err
	}
	return c.do(req, "fetch chat")
}

// ExecuteAction posts an action for a lead. Any 2xx response is success; the
// response body is ignored.
func (c *Client) ExecuteAction(ctx context.Context, action models.ActionRequest) (err error) {
	ctx, span := c.tracer.start(ctx, spanExecuteAction, c.endpoints.Action, remoteIDAttr(action.RemoteID))
	defer func() { c.tracer.finish(span, 0, err) }()

	if c.endpoints.Action == "" {
		return fmt.Errorf("execute action: %w", ErrNotConfigured)
	}

	req, err := newJSONRequest(ctx, c.endpoints.Action, action)
	if err != nil {
		return err
	}
	_, err = c.do(req, "execute action")
	return err
}

func newJSONRequest(ctx context.Context, url string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%s: response exceeds %d bytes", op, maxBodyBytes)
	}
	return body, nil
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
