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

// Package ingest turns raw webhook payloads into ordered lead and chat
// records. The upstream envelope is not under our control, so every function
// here degrades to an empty result instead of failing.
package ingest

import (
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/salespipe/leaddash/internal/models"
)

// Result describes the outcome of decoding a lead payload.
type Result struct {
	Leads    []models.Lead
	Envelope Envelope
	// Skipped counts records dropped for failing to decode or validate,
	// including duplicate remote ids.
	Skipped int
}

// Normalize returns the leads contained in payload, in payload order. It
// never fails: any shape mismatch yields an empty, non-nil slice.
func Normalize(payload []byte) []models.Lead {
	return Decode(payload).Leads
}

// Decode is Normalize with diagnostics.
func Decode(payload []byte) Result {
	arr, env := unwrap(payload)
	if env == EnvelopeNone {
		slog.Warn("unexpected lead payload shape, using empty lead set",
			"payload_bytes", len(payload),
		)
		return Result{Leads: []models.Lead{}, Envelope: EnvelopeNone}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(arr, &records); err != nil {
		slog.Warn("lead array could not be decoded", "envelope", env, "error", err)
		return Result{Leads: []models.Lead{}, Envelope: env}
	}

	res := Result{Leads: make([]models.Lead, 0, len(records)), Envelope: env}
	seen := make(map[string]struct{}, len(records))

	for i, raw := range records {
		var lead models.Lead
		if err := json.Unmarshal(raw, &lead); err != nil {
			slog.Warn("skipping malformed lead record", "index", i, "error", err)
			res.Skipped++
			continue
		}
		if err := lead.Validate(); err != nil {
			slog.Warn("skipping invalid lead record", "index", i, "error", err)
			res.Skipped++
			continue
		}
		if _, dup := seen[lead.RemoteID]; dup {
			slog.Warn("skipping duplicate lead record", "index", i, "remote_id", lead.RemoteID)
			res.Skipped++
			continue
		}
		seen[lead.RemoteID] = struct{}{}
		res.Leads = append(res.Leads, lead)
	}

	slog.Debug("lead payload normalised",
		"envelope", env,
		"count", len(res.Leads),
		"skipped", res.Skipped,
	)
	return res
}

// NormalizeChat decodes a chat history payload. Only a bare array is
// accepted. Messages come back in ascending created_at order; messages with
// an unparseable timestamp sort first and keep their relative order.
func NormalizeChat(payload []byte) []models.ChatMessage {
	arr, ok := bareArray(payload)
	if !ok {
		slog.Warn("chat payload is not an array, using empty history",
			"payload_bytes", len(payload),
		)
		return []models.ChatMessage{}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(arr, &records); err != nil {
		slog.Warn("chat array could not be decoded", "error", err)
		return []models.ChatMessage{}
	}

	msgs := make([]models.ChatMessage, 0, len(records))
	for i, raw := range records {
		var m models.ChatMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			slog.Warn("skipping malformed chat message", "index", i, "error", err)
			continue
		}
		msgs = append(msgs, m)
	}

	slices.SortStableFunc(msgs, func(a, b models.ChatMessage) int {
		ta, okA := a.CreatedTime()
		tb, okB := b.CreatedTime()
		return compareTimes(ta, okA, tb, okB)
	})
	return msgs
}

// compareTimes orders invalid timestamps before valid ones.
func compareTimes(ta time.Time, okA bool, tb time.Time, okB bool) int {
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return ta.Compare(tb)
}
