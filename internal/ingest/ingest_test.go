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

package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoLeads = `[
	{"remote_jid": "569111@s.whatsapp.net", "last_known_name": "Ana", "current_status": "New", "lead_score": 80, "temperature": "Hot", "estimated_deal_value": 1000, "last_interaction_at": "2026-10-01T10:00:00Z", "topics_mentioned": ["precio"]},
	{"remote_jid": "569222@s.whatsapp.net", "current_status": "Lost", "lead_score": -1, "temperature": "Cold", "estimated_deal_value": 0, "last_interaction_at": "not a date", "topics_mentioned": null}
]`

func TestNormalize_EnvelopesYieldSameLeads(t *testing.T) {
	bare := Normalize([]byte(twoLeads))
	require.Len(t, bare, 2)

	payloads := map[string]string{
		"leads":       `{"leads": ` + twoLeads + `}`,
		"data":        `{"data": ` + twoLeads + `}`,
		"first_array": `{"ok": true, "count": 2, "items": ` + twoLeads + `}`,
	}
	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, bare, Normalize([]byte(p)))
		})
	}
}

func TestDecode_ReportsEnvelope(t *testing.T) {
	tests := []struct {
		payload string
		want    Envelope
	}{
		{twoLeads, EnvelopeArray},
		{`{"leads": []}`, EnvelopeLeads},
		{`{"leads": "nope", "data": []}`, EnvelopeData},
		{`{"meta": {"page": 1}, "rows": [], "other": []}`, EnvelopeFirstArray},
		{`{"foo": "bar"}`, EnvelopeNone},
		{`"just a string"`, EnvelopeNone},
		{`null`, EnvelopeNone},
		{`not json at all`, EnvelopeNone},
		{``, EnvelopeNone},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode([]byte(tt.payload)).Envelope)
		})
	}
}

func TestNormalize_UnknownShapeIsEmptyNotNil(t *testing.T) {
	leads := Normalize([]byte(`{"foo": "bar"}`))
	require.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestFirstArrayProperty_UsesDocumentOrder(t *testing.T) {
	payload := `{"zeta": [{"remote_jid": "z"}], "alpha": [{"remote_jid": "a"}]}`
	leads := Normalize([]byte(payload))
	require.Len(t, leads, 1)
	assert.Equal(t, "z", leads[0].RemoteID)
}

func TestDecode_SkipsInvalidRecords(t *testing.T) {
	payload := `[
		{"remote_jid": "a", "lead_score": 10},
		{"remote_jid": "", "lead_score": 10},
		{"remote_jid": "b", "lead_score": "high"},
		{"remote_jid": "c", "estimated_deal_value": -5},
		"not an object",
		{"remote_jid": "a", "lead_score": 99},
		{"remote_jid": "d", "lead_score": -20}
	]`

	res := Decode([]byte(payload))

	require.Len(t, res.Leads, 2)
	assert.Equal(t, "a", res.Leads[0].RemoteID)
	assert.Equal(t, 10, res.Leads[0].Score, "first occurrence of a duplicate wins")
	assert.Equal(t, "d", res.Leads[1].RemoteID)
	assert.Equal(t, -20, res.Leads[1].Score, "negative scores are kept")
	assert.Equal(t, 5, res.Skipped)
}

func TestDecode_KeepsFieldsVerbatim(t *testing.T) {
	leads := Normalize([]byte(twoLeads))
	require.Len(t, leads, 2)

	assert.Equal(t, "Ana", leads[0].KnownName)
	assert.Equal(t, []string{"precio"}, leads[0].TopicsMentioned)
	assert.Nil(t, leads[1].TopicsMentioned)
	assert.True(t, leads[1].Flagged())

	_, ok := leads[1].InteractionTime()
	assert.False(t, ok, "invalid timestamps pass ingestion and are handled downstream")
}

func TestNormalizeChat(t *testing.T) {
	payload := `[
		{"id": "3", "remote_jid": "x", "role": "ai", "content": "c", "created_at": "2026-10-01T10:02:00Z"},
		{"id": "1", "remote_jid": "x", "role": "user", "content": "a", "created_at": "2026-10-01T10:00:00Z"},
		{"id": "bad", "remote_jid": "x", "role": "user", "content": "?", "created_at": "yesterday"},
		{"id": "2", "remote_jid": "x", "role": "ai", "content": "b", "created_at": "2026-10-01 10:01:00"}
	]`

	msgs := NormalizeChat([]byte(payload))

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"bad", "1", "2", "3"}, ids)
}

func TestNormalizeChat_NonArrayIsEmpty(t *testing.T) {
	for _, p := range []string{`{"data": []}`, `null`, `oops`} {
		msgs := NormalizeChat([]byte(p))
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	}
}
