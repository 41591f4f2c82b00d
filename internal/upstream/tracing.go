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
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name for webhook calls.
const TracerName = "leaddash/upstream"

// Span names
const (
	spanFetchLeads    = "upstream.fetch_leads"
	spanFetchChat     = "upstream.fetch_chat"
	spanExecuteAction = "upstream.execute_action"
)

// Span attribute keys
const (
	attrWebhook    = "webhook.url"
	attrRemoteID   = "lead.remote_id"
	attrBytes      = "response.bytes"
	attrStatusCode = "http.response.status_code"
)

type tracer struct {
	tracer trace.Tracer
}

// newTracer uses the global provider, which is a no-op until the process
// installs one.
func newTracer() *tracer {
	return &tracer{tracer: otel.Tracer(TracerName)}
}

func remoteIDAttr(id string) attribute.KeyValue {
	return attribute.String(attrRemoteID, id)
}

func (t *tracer) start(ctx context.Context, name, url string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(attrWebhook, url))
	return t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// finish records the outcome on span and ends it.
func (t *tracer) finish(span trace.Span, n int, err error) {
	defer span.End()
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			span.SetAttributes(attribute.Int(attrStatusCode, se.StatusCode))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if n > 0 {
		span.SetAttributes(attribute.Int(attrBytes, n))
	}
	span.SetStatus(codes.Ok, "")
}
