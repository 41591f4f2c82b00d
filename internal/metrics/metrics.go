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

// Package metrics holds the Prometheus metrics of the dashboard service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeStale     = "stale"
	OutcomeDuplicate = "duplicate"
)

// Endpoint label values.
const (
	EndpointLeads  = "leads"
	EndpointChat   = "chat"
	EndpointAction = "action"
)

// Metrics holds all Prometheus metrics for the dashboard service.
type Metrics struct {
	// Upstream
	FetchesTotal   *prometheus.CounterVec
	FetchSeconds   *prometheus.HistogramVec
	StaleDiscarded prometheus.Counter

	// Snapshot
	SnapshotLeads  prometheus.Gauge
	RecordsSkipped prometheus.Counter
	SnapshotSeq    prometheus.Gauge

	// Actions
	ActionsTotal *prometheus.CounterVec

	// HTTP API
	RequestsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates a metrics set registered on a fresh registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWith(reg, reg)
}

// NewWith registers the metrics on reg and serves them from g.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaddash_upstream_fetches_total",
				Help: "Webhook calls by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		FetchSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leaddash_upstream_fetch_seconds",
				Help:    "Webhook call latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		StaleDiscarded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "leaddash_stale_responses_discarded_total",
				Help: "Lead responses dropped because a newer request was dispatched",
			},
		),
		SnapshotLeads: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "leaddash_snapshot_leads",
				Help: "Leads in the current snapshot",
			},
		),
		RecordsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "leaddash_records_skipped_total",
				Help: "Malformed or duplicate lead records dropped during ingestion",
			},
		),
		SnapshotSeq: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "leaddash_snapshot_seq",
				Help: "Sequence number of the applied snapshot",
			},
		),
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaddash_actions_total",
				Help: "Action executions by outcome",
			},
			[]string{"outcome"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaddash_http_requests_total",
				Help: "API requests by route and status code",
			},
			[]string{"route", "code"},
		),
		gatherer: g,
	}
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
