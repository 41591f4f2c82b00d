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

// PipelineStages is the canonical order of the sales pipeline.
var PipelineStages = []models.Status{
	models.StatusNew,
	models.StatusQualifying,
	models.StatusNurturing,
	models.StatusConverted,
	models.StatusLost,
}

// CaptureStages is the canonical order of the captation funnel.
var CaptureStages = []models.CaptureStatus{
	models.CaptureProspect,
	models.CaptureLeadQualified,
	models.CaptureMeetingBooked,
	models.CaptureLost,
}

// StageCount is the number of leads in a stage and their summed deal value.
type StageCount struct {
	Stage string  `json:"stage" yaml:"stage"`
	Count int     `json:"count" yaml:"count"`
	Value float64 `json:"value" yaml:"value"`
}

// StageCounts returns one entry per pipeline stage, in canonical order,
// including stages no lead is in. Leads with a status outside the canonical
// set are not counted.
func StageCounts(leads []models.Lead) []StageCount {
	names := make([]string, len(PipelineStages))
	for i, s := range PipelineStages {
		names[i] = string(s)
	}
	return countStages(leads, names, func(l *models.Lead) (string, float64) {
		return string(l.Status), l.EstimatedDealValue
	})
}

// CaptureStageCounts is StageCounts for the captation funnel; values are
// contract values.
func CaptureStageCounts(leads []models.Lead) []StageCount {
	names := make([]string, len(CaptureStages))
	for i, s := range CaptureStages {
		names[i] = string(s)
	}
	return countStages(leads, names, func(l *models.Lead) (string, float64) {
		return string(l.CaptureStatus), l.EstimatedContract
	})
}

func countStages(leads []models.Lead, stages []string, key func(*models.Lead) (string, float64)) []StageCount {
	out := make([]StageCount, len(stages))
	index := make(map[string]int, len(stages))
	for i, s := range stages {
		out[i] = StageCount{Stage: s}
		index[s] = i
	}
	for i := range leads {
		stage, value := key(&leads[i])
		if j, ok := index[stage]; ok {
			out[j].Count++
			out[j].Value += value
		}
	}
	return out
}

// RiskSlice is the deal value held by leads of one churn risk.
type RiskSlice struct {
	Risk  models.ChurnRisk `json:"risk" yaml:"risk"`
	Value float64          `json:"value" yaml:"value"`
}

// RiskRevenue is the pipeline value split by churn risk.
type RiskRevenue struct {
	Slices []RiskSlice `json:"slices" yaml:"slices"`
	Total  float64     `json:"total" yaml:"total"`
}

var riskOrder = []models.ChurnRisk{models.ChurnLow, models.ChurnMedium, models.ChurnHigh}

// ComputeRiskRevenue groups deal value by churn risk (Low, Medium, High) and
// drops groups whose value is zero.
func ComputeRiskRevenue(leads []models.Lead) RiskRevenue {
	sums := make(map[models.ChurnRisk]float64, len(riskOrder))
	for i := range leads {
		sums[leads[i].ChurnRisk] += leads[i].EstimatedDealValue
	}

	rr := RiskRevenue{Slices: []RiskSlice{}}
	for _, risk := range riskOrder {
		v := sums[risk]
		if v <= 0 {
			continue
		}
		rr.Slices = append(rr.Slices, RiskSlice{Risk: risk, Value: v})
		rr.Total += v
	}
	return rr
}
