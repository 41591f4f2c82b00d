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

package models

import "time"

// Role identifies who wrote a chat message.
type Role string

const (
	RoleAI   Role = "ai"
	RoleUser Role = "user"
)

// ChatMessage is a single turn of a lead's conversation history. Messages are
// immutable once received.
type ChatMessage struct {
	ID         string `json:"id" yaml:"id"`
	RemoteID   string `json:"remote_jid" yaml:"remote_jid"`
	Role       Role   `json:"role" yaml:"role"`
	Content    string `json:"content" yaml:"content"`
	MessageID  string `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	SenderName string `json:"sender_name,omitempty" yaml:"sender_name,omitempty"`
	CreatedAt  string `json:"created_at" yaml:"created_at"`
}

// CreatedTime returns the parsed CreatedAt, false when unparseable.
func (m *ChatMessage) CreatedTime() (time.Time, bool) {
	return ParseTimestamp(m.CreatedAt)
}

// ChatRequest is the body posted to the chat history webhook.
type ChatRequest struct {
	RemoteID string `json:"remote_jid"`
}

// ActionRequest is the body posted to the action webhook.
//
// ActionExecuted is sent as the string "false": the webhook flips it once the
// downstream workflow has run the action.
type ActionRequest struct {
	RemoteID       string `json:"remote_jid"`
	CustomNotes    string `json:"custom_notes"`
	ActionExecuted string `json:"action_executed"`
	ActionFeedback string `json:"action_feedback"`
}

// NewActionRequest builds the action body for a lead.
func NewActionRequest(remoteID, notes, feedback string) ActionRequest {
	return ActionRequest{
		RemoteID:       remoteID,
		CustomNotes:    notes,
		ActionExecuted: "false",
		ActionFeedback: feedback,
	}
}
