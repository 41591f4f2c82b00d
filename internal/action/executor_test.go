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

package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salespipe/leaddash/internal/events"
	"github.com/salespipe/leaddash/internal/models"
)

type fakeWebhook struct {
	sent []models.ActionRequest
	err  error
}

func (f *fakeWebhook) ExecuteAction(_ context.Context, a models.ActionRequest) error {
	f.sent = append(f.sent, a)
	return f.err
}

type leadMap map[string]models.Lead

func (m leadMap) Lookup(id string) (models.Lead, bool) {
	l, ok := m[id]
	return l, ok
}

type captureSink struct {
	payloads []any
}

func (c *captureSink) Publish(_ context.Context, _ events.Type, p any) error {
	c.payloads = append(c.payloads, p)
	return nil
}

// memRedis mimics SETNX/DEL with a map; ttl is recorded, not enforced.
type memRedis struct {
	keys   map[string]time.Duration
	setErr error
}

func newMemRedis() *memRedis { return &memRedis{keys: make(map[string]time.Duration)} }

func (m *memRedis) SetNX(_ context.Context, key string, _ any, ttl time.Duration) *redis.BoolCmd {
	if m.setErr != nil {
		return redis.NewBoolResult(false, m.setErr)
	}
	if _, ok := m.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.keys[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.keys[k]; ok {
			delete(m.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

var leads = leadMap{
	"5691111": {RemoteID: "5691111", SuggestedAction: "Enviar propuesta"},
}

func TestExecute_SendsSuggestedActionAsNotes(t *testing.T) {
	wh := &fakeWebhook{}
	sink := &captureSink{}
	ex := NewExecutor(wh, leads, nil, sink, nil)

	res, err := ex.Execute(context.Background(), " 5691111 ", "llamar mañana")

	require.NoError(t, err)
	require.Len(t, wh.sent, 1)
	assert.Equal(t, models.ActionRequest{
		RemoteID:       "5691111",
		CustomNotes:    "Enviar propuesta",
		ActionExecuted: "false",
		ActionFeedback: "llamar mañana",
	}, wh.sent[0])
	assert.NotEmpty(t, res.RequestID)
	require.Len(t, sink.payloads, 1)
	assert.Equal(t, events.ActionPayload{
		RequestID: res.RequestID,
		RemoteID:  "5691111",
		Feedback:  "llamar mañana",
	}, sink.payloads[0])
}

func TestExecute_UnknownLeadHasEmptyNotes(t *testing.T) {
	wh := &fakeWebhook{}
	ex := NewExecutor(wh, leads, nil, nil, nil)

	_, err := ex.Execute(context.Background(), "other", "")

	require.NoError(t, err)
	assert.Empty(t, wh.sent[0].CustomNotes)
}

func TestExecute_MissingRemoteID(t *testing.T) {
	wh := &fakeWebhook{}
	ex := NewExecutor(wh, leads, nil, nil, nil)

	_, err := ex.Execute(context.Background(), "  ", "x")

	assert.ErrorIs(t, err, ErrMissingLead)
	assert.Empty(t, wh.sent)
}

func TestExecute_DuplicateSuppressed(t *testing.T) {
	wh := &fakeWebhook{}
	rdb := newMemRedis()
	ex := NewExecutor(wh, leads, NewRedisGuard(rdb, time.Minute), nil, nil)
	ctx := context.Background()

	_, err := ex.Execute(ctx, "5691111", "ok")
	require.NoError(t, err)

	_, err = ex.Execute(ctx, "5691111", "ok")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = ex.Execute(ctx, "5691111", "different feedback")
	assert.NoError(t, err)
	assert.Len(t, wh.sent, 2)

	assert.Equal(t, time.Minute, rdb.keys[keyPrefix+Key("5691111", "ok")])
}

func TestExecute_WebhookFailureReleasesGuard(t *testing.T) {
	wh := &fakeWebhook{err: errors.New("status 500")}
	rdb := newMemRedis()
	sink := &captureSink{}
	ex := NewExecutor(wh, leads, NewRedisGuard(rdb, 0), sink, nil)
	ctx := context.Background()

	_, err := ex.Execute(ctx, "5691111", "ok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.Empty(t, rdb.keys)
	assert.Empty(t, sink.payloads)

	wh.err = nil
	_, err = ex.Execute(ctx, "5691111", "ok")
	assert.NoError(t, err, "retry after failure is allowed")
}

func TestExecute_GuardUnavailableFailsOpen(t *testing.T) {
	wh := &fakeWebhook{}
	rdb := newMemRedis()
	rdb.setErr = errors.New("connection refused")
	ex := NewExecutor(wh, leads, NewRedisGuard(rdb, 0), nil, nil)

	_, err := ex.Execute(context.Background(), "5691111", "ok")

	assert.NoError(t, err)
	assert.Len(t, wh.sent, 1)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("a", "x"), Key("a", "x"))
	assert.NotEqual(t, Key("a", "x"), Key("a", "y"))
	assert.NotEqual(t, Key("a", "x"), Key("b", "x"))
}
