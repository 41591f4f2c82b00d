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

// Package models defines the data structures shared across the dashboard service.
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Status is the general sales stage of a lead. Values outside the known set
// are kept verbatim so newer upstream stages still flow through.
type Status string

const (
	StatusNew        Status = "New"
	StatusQualifying Status = "Qualifying"
	StatusNurturing  Status = "Nurturing"
	StatusConverted  Status = "Converted"
	StatusLost       Status = "Lost"
)

// CaptureStatus is the captation funnel stage, tracked separately from Status.
type CaptureStatus string

const (
	CaptureProspect      CaptureStatus = "Prospect"
	CaptureLeadQualified CaptureStatus = "Lead_Qualified"
	CaptureMeetingBooked CaptureStatus = "Meeting_Booked"
	CaptureLost          CaptureStatus = "Lost"
)

// Temperature is the server-assigned heat of a lead.
type Temperature string

const (
	TemperatureHot  Temperature = "Hot"
	TemperatureWarm Temperature = "Warm"
	TemperatureCold Temperature = "Cold"
)

// Valid reports whether t is one of the known temperatures.
func (t Temperature) Valid() bool {
	switch t {
	case TemperatureHot, TemperatureWarm, TemperatureCold:
		return true
	}
	return false
}

// EstimateTemperature derives a temperature from score and sentiment for
// leads the server did not classify.
func EstimateTemperature(score int, sentiment float64) Temperature {
	switch {
	case score > 70 && sentiment > 0.5:
		return TemperatureHot
	case score < 30 || sentiment < -0.2:
		return TemperatureCold
	}
	return TemperatureWarm
}

// ChurnRisk is the likelihood a lead disengages before conversion.
type ChurnRisk string

const (
	ChurnHigh   ChurnRisk = "High"
	ChurnMedium ChurnRisk = "Medium"
	ChurnLow    ChurnRisk = "Low"
)

// Channel is a contact channel a lead can be reached on.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelPhone    Channel = "phone"
	ChannelWhatsApp Channel = "whatsapp"
)

// Trajectory describes how a lead's sentiment has been moving.
type Trajectory string

const (
	TrajectoryImproving Trajectory = "Improving"
	TrajectoryStable    Trajectory = "Stable"
	TrajectoryDeclining Trajectory = "Declining"
)

// Lead is a prospective customer record as delivered by the dashboard webhook.
//
// RemoteID is the only stable key across refreshes. Score has no enforced
// bound: negative values flag an error state upstream and are kept as-is.
type Lead struct {
	RemoteID            string        `json:"remote_jid" yaml:"remote_jid"`
	KnownName           string        `json:"last_known_name,omitempty" yaml:"last_known_name,omitempty"`
	Status              Status        `json:"current_status" yaml:"current_status"`
	Score               int           `json:"lead_score" yaml:"lead_score"`
	Temperature         Temperature   `json:"temperature" yaml:"temperature"`
	SummaryText         string        `json:"summary_text" yaml:"summary_text"`
	BuyingIntent        string        `json:"buying_intent" yaml:"buying_intent"`
	SuggestedAction     string        `json:"suggested_action" yaml:"suggested_action"`
	EstimatedDealValue  float64       `json:"estimated_deal_value" yaml:"estimated_deal_value"`
	ChurnRisk           ChurnRisk     `json:"churn_risk" yaml:"churn_risk"`
	LastInteractionAt   string        `json:"last_interaction_at" yaml:"last_interaction_at"`
	SentimentScore      float64       `json:"sentiment_score" yaml:"sentiment_score"`
	TopicsMentioned     []string      `json:"topics_mentioned" yaml:"topics_mentioned"`
	CaptureStatus       CaptureStatus `json:"capture_status,omitempty" yaml:"capture_status,omitempty"`
	MeetingScheduled    bool          `json:"meeting_scheduled,omitempty" yaml:"meeting_scheduled,omitempty"`
	EstimatedContract   float64       `json:"estimated_contract_value,omitempty" yaml:"estimated_contract_value,omitempty"`
	EmailCaptured       bool          `json:"email_captured,omitempty" yaml:"email_captured,omitempty"`
	MeetingProposed     bool          `json:"meeting_proposed,omitempty" yaml:"meeting_proposed,omitempty"`
	PresentationSent    bool          `json:"presentation_sent,omitempty" yaml:"presentation_sent,omitempty"`
	FollowupConfirmed   bool          `json:"followup_confirmed,omitempty" yaml:"followup_confirmed,omitempty"`
	RecommendedNextStep string        `json:"recommended_next_step,omitempty" yaml:"recommended_next_step,omitempty"`
	EmotionalTrajectory Trajectory    `json:"emotional_trajectory,omitempty" yaml:"emotional_trajectory,omitempty"`
	ContactChannels     []Channel     `json:"contact_channels,omitempty" yaml:"contact_channels,omitempty"`
}

// timestampLayouts are the ISO-8601 shapes seen from the webhook, most
// specific first. Zone-less values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp in any of the accepted layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InteractionTime returns the parsed LastInteractionAt. The second result is
// false when the field is empty or not a recognisable timestamp.
func (l *Lead) InteractionTime() (time.Time, bool) {
	return ParseTimestamp(l.LastInteractionAt)
}

// EffectiveTemperature is the temperature every view agrees on: the server
// field when it is known, otherwise EstimateTemperature.
func (l *Lead) EffectiveTemperature() Temperature {
	if l.Temperature.Valid() {
		return l.Temperature
	}
	return EstimateTemperature(l.Score, l.SentimentScore)
}

// Flagged reports whether the upstream marked this lead with a negative score.
func (l *Lead) Flagged() bool {
	return l.Score < 0
}

// DisplayName returns the known name, or the remote id when no name is known.
func (l *Lead) DisplayName() string {
	if name := strings.TrimSpace(l.KnownName); name != "" {
		return name
	}
	return l.RemoteID
}

// Phone returns the phone-number part of a WhatsApp-style remote id
// ("56912345678@s.whatsapp.net" -> "56912345678").
func (l *Lead) Phone() string {
	number, _, _ := strings.Cut(l.RemoteID, "@")
	return number
}

var errMissingRemoteID = errors.New("missing remote_jid")

// Validate checks the fields aggregation depends on. Free-text fields and
// timestamps are not checked: an unparseable timestamp only excludes the lead
// from date-based views.
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.RemoteID) == "" {
		return errMissingRemoteID
	}
	if !finite(l.SentimentScore) {
		return fmt.Errorf("lead %s: sentiment_score is not finite", l.RemoteID)
	}
	if !finite(l.EstimatedDealValue) || l.EstimatedDealValue < 0 {
		return fmt.Errorf("lead %s: invalid estimated_deal_value %v", l.RemoteID, l.EstimatedDealValue)
	}
	if !finite(l.EstimatedContract) || l.EstimatedContract < 0 {
		return fmt.Errorf("lead %s: invalid estimated_contract_value %v", l.RemoteID, l.EstimatedContract)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
