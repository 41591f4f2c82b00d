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

// Package api exposes the dashboard over HTTP. Identity comes from the
// X-User-Email header set by the authenticating proxy in front of the
// service; the API itself performs no authentication.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/salespipe/leaddash/internal/action"
	"github.com/salespipe/leaddash/internal/dashboard"
	"github.com/salespipe/leaddash/internal/derive"
	"github.com/salespipe/leaddash/internal/filter"
	"github.com/salespipe/leaddash/internal/metrics"
	"github.com/salespipe/leaddash/internal/models"
	"github.com/salespipe/leaddash/internal/preferences"
)

const (
	// UserHeader carries the authenticated user's email.
	UserHeader  = "X-User-Email"
	// ThemeHeader carries the requester's resolved theme on every response.
	ThemeHeader = "X-Theme"

	maxRequestBytes = 64 << 10
)

// Dashboard is the subset of dashboard.Service the API uses.
type Dashboard interface {
	Current() dashboard.Snapshot
	Refresh(ctx context.Context) (dashboard.Snapshot, bool)
	View(c filter.Criteria, now time.Time) (dashboard.View, error)
	Chat(ctx context.Context, remoteID string) []models.ChatMessage
}

// Actions submits lead actions. Implemented by action.Executor.
type Actions interface {
	Execute(ctx context.Context, remoteID, feedback string) (action.Result, error)
}

// Handler serves the dashboard API.
type Handler struct {
	dash    Dashboard
	actions Actions
	themes  *preferences.Resolver
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewHandler creates the API handler.
func NewHandler(dash Dashboard, actions Actions, themes *preferences.Resolver, m *metrics.Metrics) *Handler {
	if m == nil {
		m = metrics.New()
	}
	return &Handler{
		dash:    dash,
		actions: actions,
		themes:  themes,
		metrics: m,
		now:     time.Now,
	}
}

// Routes returns the router with every endpoint and middleware installed.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/leads", h.serveLeads)
	mux.HandleFunc("GET /api/report", h.serveReport)
	mux.HandleFunc("POST /api/refresh", h.serveRefresh)
	mux.HandleFunc("GET /api/leads/{remote_id}/chat", h.serveChat)
	mux.HandleFunc("POST /api/leads/{remote_id}/action", h.serveAction)
	mux.HandleFunc("GET /api/preferences/theme", h.serveGetTheme)
	mux.HandleFunc("PUT /api/preferences/theme", h.servePutTheme)
	mux.HandleFunc("GET /health", h.serveHealth)
	mux.Handle("GET /metrics", h.metrics.Handler())

	return h.withTheme(h.withMetrics(mux))
}

// LeadsResponse is one page of filtered, sorted leads.
type LeadsResponse struct {
	Snapshot dashboard.Snapshot `json:"snapshot"`
	Criteria filter.Criteria    `json:"criteria"`
	Sort     derive.SortState   `json:"sort"`
	derive.Page
}

func (h *Handler) serveLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	sortState, err := derive.ParseSortState(q.Get("sort"), q.Get("direction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := queryInt(q, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	perPage, err := queryInt(q, "per_page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, LeadsResponse{
		Snapshot: view.Snapshot,
		Criteria: view.Criteria,
		Sort:     sortState,
		Page:     derive.Paginate(derive.Sort(view.Leads, sortState), page, perPage),
	})
}

// queryInt reads an optional non-negative integer. Absent means 0, which
// Paginate treats as its default.
func queryInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

func (h *Handler) serveReport(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// view parses the criteria in the query string and builds the filtered view.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) (dashboard.View, bool) {
	c, err := filter.ParseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return dashboard.View{}, false
	}
	v, err := h.dash.View(c, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return dashboard.View{}, false
	}
	return v, true
}

// RefreshResponse reports the outcome of a manual refresh.
type RefreshResponse struct {
	Applied  bool               `json:"applied"`
	Snapshot dashboard.Snapshot `json:"snapshot"`
}

func (h *Handler) serveRefresh(w http.ResponseWriter, r *http.Request) {
	snap, applied := h.dash.Refresh(r.Context())
	writeJSON(w, http.StatusOK, RefreshResponse{Applied: applied, Snapshot: snap})
}

func (h *Handler) serveChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("remote_id")
	writeJSON(w, http.StatusOK, h.dash.Chat(r.Context(), id))
}

// ActionBody is the body of an action submission.
type ActionBody struct {
	Feedback string `json:"feedback"`
}

func (h *Handler) serveAction(w http.ResponseWriter, r *http.Request) {
	var body ActionBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.actions.Execute(r.Context(), r.PathValue("remote_id"), body.Feedback)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, res)
	case errors.Is(err, action.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, action.ErrMissingLead):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadGateway, "action webhook failed")
	}
}

// ThemeBody is the theme preference resource.
type ThemeBody struct {
	Theme preferences.Theme `json:"theme"`
}

func (h *Handler) serveGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ThemeBody{Theme: preferences.ThemeFrom(r.Context())})
}

func (h *Handler) servePutTheme(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get(UserHeader)
	if user == "" {
		writeError(w, http.StatusBadRequest, UserHeader+" header is required")
		return
	}
	var body struct {
		Theme string `json:"theme"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	theme, err := preferences.ParseTheme(body.Theme)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.themes.Set(r.Context(), user, theme); err != nil {
		slog.Error("failed to store theme", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "could not store preference")
		return
	}
	w.Header().Set(ThemeHeader, string(theme))
	writeJSON(w, http.StatusOK, ThemeBody{Theme: theme})
}

func (h *Handler) serveHealth(w http.ResponseWriter, _ *http.Request) {
	snap := h.dash.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"seq":        snap.Seq,
		"leads":      snap.Count,
		"last_error": snap.LastError,
	})
}

// withTheme resolves the requester's theme into the context and the
// X-Theme response header.
func (h *Handler) withTheme(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		theme := h.themes.Resolve(r.Context(), r.Header.Get(UserHeader))
		w.Header().Set(ThemeHeader, string(theme))
		next.ServeHTTP(w, r.WithContext(preferences.WithTheme(r.Context(), theme)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withMetrics counts requests by matched route and status code.
func (h *Handler) withMetrics(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			if _, pattern := mux.Handler(r); pattern != "" {
				route = pattern
			} else {
				route = "unmatched"
			}
		}
		h.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
