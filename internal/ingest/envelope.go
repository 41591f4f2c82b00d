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
	"bytes"
	"encoding/json"
	"io"
)

// Envelope names the payload shape a lead list was found in.
type Envelope string

const (
	EnvelopeNone       Envelope = "none"
	EnvelopeArray      Envelope = "array"
	EnvelopeLeads      Envelope = "leads"
	EnvelopeData       Envelope = "data"
	EnvelopeFirstArray Envelope = "first_array"
)

// shape extracts the record array from a payload, or reports false.
type shape struct {
	name    Envelope
	extract func(payload []byte) (json.RawMessage, bool)
}

// shapes is tried in order; the first match wins.
var shapes = []shape{
	{name: EnvelopeArray, extract: bareArray},
	{name: EnvelopeLeads, extract: property("leads")},
	{name: EnvelopeData, extract: property("data")},
	{name: EnvelopeFirstArray, extract: firstArrayProperty},
}

// unwrap finds the record array in payload.
func unwrap(payload []byte) (json.RawMessage, Envelope) {
	for _, s := range shapes {
		if arr, ok := s.extract(payload); ok {
			return arr, s.name
		}
	}
	return nil, EnvelopeNone
}

func bareArray(payload []byte) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(payload)
	if !isArray(trimmed) || !json.Valid(trimmed) {
		return nil, false
	}
	return trimmed, true
}

func property(key string) func([]byte) (json.RawMessage, bool) {
	return func(payload []byte) (json.RawMessage, bool) {
		if !isObject(payload) {
			return nil, false
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil {
			return nil, false
		}
		v, ok := obj[key]
		if !ok || !isArray(v) {
			return nil, false
		}
		return v, true
	}
}

// firstArrayProperty walks the top-level object in document order and returns
// the first array-valued property. A map would lose the order, so the object
// is read token by token.
func firstArrayProperty(payload []byte) (json.RawMessage, bool) {
	if !isObject(payload) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	if _, err := dec.Token(); err != nil { // '{'
		return nil, false
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			return nil, false
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		if isArray(v) {
			return v, true
		}
	}
	if _, err := dec.Token(); err != nil && err != io.EOF { // '}'
		return nil, false
	}
	return nil, false
}

func isArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
