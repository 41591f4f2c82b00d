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

// Package dashboard owns the current lead snapshot. Refreshes are tagged with
// a sequence number so a slow, older response can never overwrite a newer
// one, and every upstream failure degrades to an empty lead set.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/salespipe/leaddash/internal/derive"
	"github.com/salespipe/leaddash/internal/events"
	"github.com/salespipe/leaddash/internal/filter"
	"github.com/salespipe/leaddash/internal/ingest"
	"github.com/salespipe/leaddash/internal/metrics"
	"github.com/salespipe/leaddash/internal/models"
)

// LeadSource fetches raw webhook payloads. Implemented by upstream.Client.
type LeadSource interface {
	FetchLeads(ctx context.Context) ([]byte, error)
	FetchChat(ctx context.Context, remoteID string) ([]byte, error)
}

// Snapshot is the lead set from one applied refresh.
type Snapshot struct {
	Leads     []models.Lead   `json:"-"`
	Count     int             `json:"leads"`
	Seq       uint64          `json:"seq"`
	FetchedAt time.Time       `json:"fetched_at"`
	Envelope  ingest.Envelope `json:"envelope"`
	Skipped   int             `json:"skipped"`
	LastError string          `json:"last_error,omitempty"`
}

// Config holds the dependencies of a Service.
type Config struct {
	Source    LeadSource
	Events    events.Sink
	Metrics   *metrics.Metrics
	Location  *time.Location
	TopTopics int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service holds the current snapshot and derives views from it.
type Service struct {
	source    LeadSource
	events    events.Sink
	metrics   *metrics.Metrics
	loc       *time.Location
	topTopics int
	now       func() time.Time

	// dispatched is the sequence number of the latest refresh started and not
	// cancelled.
	dispatched atomic.Uint64

	mu   sync.RWMutex
	snap Snapshot

	memoMu sync.Mutex
	memo   *memoEntry
	builds int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a dashboard service with an empty snapshot (seq 0).
func NewService(cfg Config) *Service {
	s := &Service{
		source:    cfg.Source,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		loc:       cfg.Location,
		topTopics: cfg.TopTopics,
		now:       cfg.Now,
		snap:      Snapshot{Leads: []models.Lead{}, Envelope: ingest.EnvelopeNone},
	}
	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Current returns the applied snapshot. Its Leads slice is shared and must
// not be modified.
func (s *Service) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Lookup returns the lead with remoteID from the current snapshot.
func (s *Service) Lookup(remoteID string) (models.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.snap.Leads {
		if s.snap.Leads[i].RemoteID == remoteID {
			return s.snap.Leads[i], true
		}
	}
	return models.Lead{}, false
}

// Refresh fetches the lead list and replaces the snapshot wholesale. A
// response is applied only if no newer refresh was dispatched while it was in
// flight; otherwise it is discarded and applied is false. Transport and shape
// failures apply an empty lead set with LastError set.
func (s *Service) Refresh(ctx context.Context) (snap Snapshot, applied bool) {
	seq := s.dispatched.Add(1)
	start := time.Now()

	payload, err := s.source.FetchLeads(ctx)
	s.metrics.FetchSeconds.WithLabelValues(metrics.EndpointLeads).Observe(time.Since(start).Seconds())

	if errors.Is(err, context.Canceled) {
		// The caller went away; nothing was learnt about upstream state.
		// Withdraw the dispatch so an older request still in flight can apply.
		s.dispatched.CompareAndSwap(seq, seq-1)
		slog.Info("lead refresh cancelled", "seq", seq)
		return s.Current(), false
	}

	next := Snapshot{Seq: seq, FetchedAt: s.now()}
	if err != nil {
		slog.Error("lead fetch failed, using empty lead set",
			"seq", seq,
			"error", err,
		)
		s.metrics.FetchesTotal.WithLabelValues(metrics.EndpointLeads, metrics.OutcomeError).Inc()
		next.Leads = []models.Lead{}
		next.Envelope = ingest.EnvelopeNone
		next.LastError = err.Error()
	} else {
		res := ingest.Decode(payload)
		next.Leads = res.Leads
		next.Envelope = res.Envelope
		next.Skipped = res.Skipped
		if res.Envelope == ingest.EnvelopeNone {
			next.LastError = "unexpected lead payload shape"
			s.metrics.FetchesTotal.WithLabelValues(metrics.EndpointLeads, metrics.OutcomeError).Inc()
		} else {
			s.metrics.FetchesTotal.WithLabelValues(metrics.EndpointLeads, metrics.OutcomeOK).Inc()
		}
	}
	next.Count = len(next.Leads)

	if !s.apply(next) {
		slog.Warn("discarding stale lead response",
			"seq", seq,
			"latest", s.dispatched.Load(),
		)
		s.metrics.FetchesTotal.WithLabelValues(metrics.EndpointLeads, metrics.OutcomeStale).Inc()
		s.metrics.StaleDiscarded.Inc()
		return s.Current(), false
	}

	s.metrics.SnapshotLeads.Set(float64(next.Count))
	s.metrics.SnapshotSeq.Set(float64(seq))
	s.metrics.RecordsSkipped.Add(float64(next.Skipped))

	slog.Info("lead snapshot applied",
		"seq", seq,
		"count", next.Count,
		"envelope", next.Envelope,
		"skipped", next.Skipped,
	)

	if err := s.events.Publish(ctx, events.SnapshotRefreshed, events.SnapshotPayload{
		Seq:      seq,
		Leads:    next.Count,
		Envelope: string(next.Envelope),
		Skipped:  next.Skipped,
		Error:    next.LastError,
	}); err != nil {
		slog.Warn("failed to publish snapshot event", "seq", seq, "error", err)
	}
	return next, true
}

// apply installs next if it is still the latest dispatched refresh.
func (s *Service) apply(next Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next.Seq != s.dispatched.Load() || next.Seq <= s.snap.Seq {
		return false
	}
	s.snap = next
	return true
}

// Chat returns the conversation of one lead, oldest first. Failures are
// logged and yield an empty history.
func (s *Service) Chat(ctx context.Context, remoteID string) []models.ChatMessage {
	start := time.Now()
	payload, err := s.source.FetchChat(ctx, remoteID)
	s.metrics.FetchSeconds.WithLabelValues(metrics.EndpointChat).Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("chat fetch failed, using empty history",
			"remote_id", remoteID,
			"error", err,
		)
		s.metrics.FetchesTotal.WithLabelValues(metrics.EndpointChat, metrics.OutcomeError).Inc()
		return []models.ChatMessage{}
	}
	s.metrics.FetchesTotal.WithLabelValues(metrics.EndpointChat, metrics.OutcomeOK).Inc()
	return ingest.NormalizeChat(payload)
}

// StartAutoRefresh refreshes the snapshot every interval until ctx is
// cancelled or Stop is called. A non-positive interval disables it.
func (s *Service) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Info("automatic lead refresh disabled")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.Refresh(loopCtx)
			}
		}
	}()

	slog.Info("automatic lead refresh started", "interval", interval)
}

// Stop shuts down the refresh loop.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Options returns the derivation options for the service's display settings.
func (s *Service) Options(now time.Time) derive.Options {
	return derive.Options{Now: now, Location: s.loc, TopTopics: s.topTopics}
}

// View is a filtered subset of the current snapshot and its aggregates.
// Leads is shared with the memo and must not be modified.
type View struct {
	Snapshot Snapshot        `json:"snapshot"`
	Criteria filter.Criteria `json:"criteria"`
	Leads    []models.Lead   `json:"-"`
	Report   derive.Report   `json:"report"`
}

type memoKey struct {
	seq      uint64
	criteria filter.Criteria
	minute   time.Time
	subset   string
}

type memoEntry struct {
	key  memoKey
	view View
}

// View filters the current snapshot with the exact now and derives every
// aggregate. The aggregates are rebuilt only when the snapshot, the criteria,
// the matching leads, or the wall-clock minute change.
func (s *Service) View(c filter.Criteria, now time.Time) (View, error) {
	c = c.Defaults()
	if err := c.Validate(); err != nil {
		return View{}, err
	}
	snap := s.Current()
	idx := filter.Select(snap.Leads, c, now)
	key := memoKey{seq: snap.Seq, criteria: c, minute: now.Truncate(time.Minute), subset: subsetKey(idx)}

	s.memoMu.Lock()
	defer s.memoMu.Unlock()
	if s.memo != nil && s.memo.key == key {
		v := s.memo.view
		v.Report.GeneratedAt = now
		return v, nil
	}

	subset := make([]models.Lead, len(idx))
	for i, j := range idx {
		subset[i] = snap.Leads[j]
	}
	v := View{
		Snapshot: snap,
		Criteria: c,
		Leads:    subset,
		Report:   derive.BuildReport(subset, s.Options(now)),
	}
	s.memo = &memoEntry{key: key, view: v}
	s.builds++
	return v, nil
}

func subsetKey(idx []int) string {
	b := make([]byte, 0, len(idx)*4)
	for _, i := range idx {
		b = strconv.AppendInt(b, int64(i), 36)
		b = append(b, ',')
	}
	return string(b)
}
