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

package derive

import "github.com/salespipe/leaddash/internal/models"

// EstimateTemperature derives a temperature from score and sentiment. It is
// only a fallback for leads the server did not classify.
func EstimateTemperature(score int, sentiment float64) models.Temperature {
	return models.EstimateTemperature(score, sentiment)
}

// TemperatureOf returns the server-provided temperature, or an estimate when
// the field is missing or unknown.
func TemperatureOf(l *models.Lead) models.Temperature {
	return l.EffectiveTemperature()
}

// Temperatures counts leads per temperature and per sentiment trajectory.
type Temperatures struct {
	Hot       int `json:"hot" yaml:"hot"`
	Warm      int `json:"warm" yaml:"warm"`
	Cold      int `json:"cold" yaml:"cold"`
	Estimated int `json:"estimated" yaml:"estimated"`

	Improving int `json:"improving" yaml:"improving"`
	Stable    int `json:"stable" yaml:"stable"`
	Declining int `json:"declining" yaml:"declining"`
	Unknown   int `json:"unknown_trajectory" yaml:"unknown_trajectory"`
}

// TemperatureBreakdown counts leads per temperature (see TemperatureOf) and
// per emotional trajectory. Estimated reports how many temperatures were
// derived rather than read.
func TemperatureBreakdown(leads []models.Lead) Temperatures {
	var t Temperatures
	for i := range leads {
		l := &leads[i]
		if !l.Temperature.Valid() {
			t.Estimated++
		}
		switch TemperatureOf(l) {
		case models.TemperatureHot:
			t.Hot++
		case models.TemperatureCold:
			t.Cold++
		default:
			t.Warm++
		}
		switch l.EmotionalTrajectory {
		case models.TrajectoryImproving:
			t.Improving++
		case models.TrajectoryStable:
			t.Stable++
		case models.TrajectoryDeclining:
			t.Declining++
		default:
			t.Unknown++
		}
	}
	return t
}

// ScatterPoint places a lead on the sentiment/score plane.
type ScatterPoint struct {
	RemoteID      string               `json:"remote_jid" yaml:"remote_jid"`
	Name          string               `json:"name" yaml:"name"`
	Sentiment     float64              `json:"sentiment" yaml:"sentiment"`
	Score         int                  `json:"score" yaml:"score"`
	CaptureStatus models.CaptureStatus `json:"capture_status,omitempty" yaml:"capture_status,omitempty"`
	Temperature   models.Temperature   `json:"temperature" yaml:"temperature"`
	Flagged       bool                 `json:"flagged,omitempty" yaml:"flagged,omitempty"`
}

// EngagementScatter returns one point per lead, in input order.
func EngagementScatter(leads []models.Lead) []ScatterPoint {
	out := make([]ScatterPoint, len(leads))
	for i := range leads {
		l := &leads[i]
		out[i] = ScatterPoint{
			RemoteID:      l.RemoteID,
			Name:          l.DisplayName(),
			Sentiment:     l.SentimentScore,
			Score:         l.Score,
			CaptureStatus: l.CaptureStatus,
			Temperature:   TemperatureOf(l),
			Flagged:       l.Flagged(),
		}
	}
	return out
}
