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

// Package events publishes dashboard domain events to a Redis list so other
// workers (CRM sync, notifications) can react to refreshes and actions.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Type names an event.
type Type string

const (
	SnapshotRefreshed Type = "snapshot.refreshed"
	ActionExecuted    Type = "action.executed"
)

// Envelope is the JSON document pushed for every event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// SnapshotPayload describes an applied lead refresh.
type SnapshotPayload struct {
	Seq      uint64 `json:"seq"`
	Leads    int    `json:"leads"`
	Envelope string `json:"envelope"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// ActionPayload describes an action accepted by the action webhook.
type ActionPayload struct {
	RequestID string `json:"request_id"`
	RemoteID  string `json:"remote_jid"`
	Feedback  string `json:"feedback"`
}

// Sink receives domain events.
type Sink interface {
	Publish(ctx context.Context, typ Type, payload any) error
}

// redisClient is the subset of *redis.Client the publisher uses.
type redisClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Publisher pushes event envelopes onto a Redis list with LPUSH; consumers
// read with BRPOP for FIFO order.
type Publisher struct {
	rdb       redisClient
	queueName string
	now       func() time.Time
}

// NewPublisher creates a Redis publisher targeting the given list.
func NewPublisher(rdb redisClient, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
		now:       time.Now,
	}
}

// Publish wraps payload in an Envelope and pushes it to the queue.
func (p *Publisher) Publish(ctx context.Context, typ Type, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", typ, err)
	}

	env := Envelope{
		ID:         uuid.New().String(),
		Type:       typ,
		OccurredAt: p.now().UTC(),
		Payload:    body,
	}
	msg, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queueName, string(msg)).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Debug("published event",
		"event_id", env.ID,
		"type", typ,
		"queue", p.queueName,
	)
	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}

// NopPublisher discards events. It is used when Redis is not configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Type, any) error { return nil }
