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

// Package action submits a lead's suggested action to the action webhook.
// Submissions are fire-and-forget: local lead state is never changed, and the
// next refresh picks up whatever the downstream workflow did.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/salespipe/leaddash/internal/events"
	"github.com/salespipe/leaddash/internal/metrics"
	"github.com/salespipe/leaddash/internal/models"
)

var (
	// ErrDuplicate means the same action was submitted inside the guard window.
	ErrDuplicate = errors.New("action already submitted")
	// ErrMissingLead means no remote id was given.
	ErrMissingLead = errors.New("remote id is required")
)

// Webhook posts action requests. Implemented by upstream.Client.
type Webhook interface {
	ExecuteAction(ctx context.Context, action models.ActionRequest) error
}

// Leads finds a lead in the current snapshot. Implemented by dashboard.Service.
type Leads interface {
	Lookup(remoteID string) (models.Lead, bool)
}

// Result describes an accepted action.
type Result struct {
	RequestID string               `json:"request_id"`
	Request   models.ActionRequest `json:"request"`
}

// Executor runs actions against the webhook.
type Executor struct {
	webhook Webhook
	leads   Leads
	guard   Guard
	events  events.Sink
	metrics *metrics.Metrics
}

// NewExecutor creates an executor. Nil guard, sink and metrics get no-op or
// private defaults.
func NewExecutor(webhook Webhook, leads Leads, guard Guard, sink events.Sink, m *metrics.Metrics) *Executor {
	if guard == nil {
		guard = NopGuard{}
	}
	if sink == nil {
		sink = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &Executor{webhook: webhook, leads: leads, guard: guard, events: sink, metrics: m}
}

// Execute posts the action for remoteID with the operator's feedback. The
// lead's suggested action becomes the custom notes when the lead is in the
// current snapshot.
func (e *Executor) Execute(ctx context.Context, remoteID, feedback string) (Result, error) {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		return Result{}, ErrMissingLead
	}

	var notes string
	if lead, ok := e.leads.Lookup(remoteID); ok {
		notes = lead.SuggestedAction
	} else {
		slog.Warn("action for lead not in snapshot, sending without notes", "remote_id", remoteID)
	}

	key := Key(remoteID, feedback)
	acquired, err := e.guard.Acquire(ctx, key)
	if err != nil {
		// The guard is best-effort; an unreachable Redis does not block actions.
		slog.Warn("action guard unavailable", "remote_id", remoteID, "error", err)
		acquired = true
	}
	if !acquired {
		e.metrics.ActionsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		slog.Info("duplicate action suppressed", "remote_id", remoteID)
		return Result{}, ErrDuplicate
	}

	req := models.NewActionRequest(remoteID, notes, feedback)
	if err := e.webhook.ExecuteAction(ctx, req); err != nil {
		e.metrics.ActionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		if rerr := e.guard.Release(context.WithoutCancel(ctx), key); rerr != nil {
			slog.Warn("failed to release action guard", "remote_id", remoteID, "error", rerr)
		}
		slog.Error("action webhook failed",
			"remote_id", remoteID,
			"error", err,
		)
		return Result{}, fmt.Errorf("execute action for %s: %w", remoteID, err)
	}

	res := Result{RequestID: uuid.New().String(), Request: req}
	e.metrics.ActionsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	slog.Info("action submitted",
		"remote_id", remoteID,
		"request_id", res.RequestID,
	)

	if err := e.events.Publish(ctx, events.ActionExecuted, events.ActionPayload{
		RequestID: res.RequestID,
		RemoteID:  remoteID,
		Feedback:  feedback,
	}); err != nil {
		slog.Warn("failed to publish action event", "remote_id", remoteID, "error", err)
	}
	return res, nil
}
