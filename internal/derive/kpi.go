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

// Package derive computes presentation-ready aggregates from a lead subset.
// Every function is pure: it reads only its arguments and returns fresh
// values, so callers may recompute whenever the subset changes.
package derive

import (
	"math"

	"github.com/salespipe/leaddash/internal/models"
)

// KPIs are the headline figures of the sales dashboard.
type KPIs struct {
	Total         int     `json:"total" yaml:"total"`
	HotLeads      int     `json:"hot_leads" yaml:"hot_leads"`
	PipelineValue float64 `json:"pipeline_value" yaml:"pipeline_value"`
	AverageScore  int     `json:"average_score" yaml:"average_score"`
	Converted     int     `json:"converted" yaml:"converted"`
	Flagged       int     `json:"flagged" yaml:"flagged"`
}

// ComputeKPIs returns the headline figures. AverageScore is 0 for an empty
// subset and otherwise rounded half up, negative scores included.
func ComputeKPIs(leads []models.Lead) KPIs {
	k := KPIs{Total: len(leads)}
	scoreSum := 0
	for i := range leads {
		l := &leads[i]
		if TemperatureOf(l) == models.TemperatureHot {
			k.HotLeads++
		}
		if l.Status == models.StatusConverted {
			k.Converted++
		}
		if l.Flagged() {
			k.Flagged++
		}
		k.PipelineValue += l.EstimatedDealValue
		scoreSum += l.Score
	}
	if len(leads) > 0 {
		k.AverageScore = roundHalfUp(float64(scoreSum) / float64(len(leads)))
	}
	return k
}

// CaptureKPIs are the headline figures of the captation view.
type CaptureKPIs struct {
	InCaptation       int     `json:"in_captation" yaml:"in_captation"`
	MeetingsScheduled int     `json:"meetings_scheduled" yaml:"meetings_scheduled"`
	PotentialValue    float64 `json:"potential_value" yaml:"potential_value"`
	// CaptationRate is the percentage of leads that captured an email or
	// scheduled a meeting.
	CaptationRate int `json:"captation_rate" yaml:"captation_rate"`
}

// ComputeCaptureKPIs returns the captation figures. PotentialValue sums the
// contract value of qualified and booked leads only.
func ComputeCaptureKPIs(leads []models.Lead) CaptureKPIs {
	var k CaptureKPIs
	captured := 0
	for i := range leads {
		l := &leads[i]
		if l.CaptureStatus != models.CaptureLost {
			k.InCaptation++
		}
		if l.MeetingScheduled {
			k.MeetingsScheduled++
		}
		if isQualified(l) {
			k.PotentialValue += l.EstimatedContract
		}
		if l.EmailCaptured || l.MeetingScheduled {
			captured++
		}
	}
	k.CaptationRate = roundHalfUp(percent(captured, len(leads)))
	return k
}

// isQualified reports whether a lead reached at least the qualified stage of
// the captation funnel.
func isQualified(l *models.Lead) bool {
	return l.CaptureStatus == models.CaptureLeadQualified || l.CaptureStatus == models.CaptureMeetingBooked
}

// percent returns part/whole*100, or 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
