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

import (
	"time"

	"github.com/salespipe/leaddash/internal/models"
)

// Options tunes BuildReport. Zero values pick the dashboard defaults.
type Options struct {
	Now          time.Time
	Location     *time.Location
	TopTopics    int
	Weeks        int
	VelocityDays int
}

const (
	defaultWeeks        = 4
	defaultVelocityDays = 14
)

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.TopTopics <= 0 {
		o.TopTopics = DefaultTopTopics
	}
	if o.Weeks <= 0 {
		o.Weeks = defaultWeeks
	}
	if o.VelocityDays <= 0 {
		o.VelocityDays = defaultVelocityDays
	}
	return o
}

// Report bundles every aggregate the dashboard views read.
type Report struct {
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Timezone    string    `json:"timezone" yaml:"timezone"`

	KPIs              KPIs             `json:"kpis" yaml:"kpis"`
	CaptureKPIs       CaptureKPIs      `json:"capture_kpis" yaml:"capture_kpis"`
	Stages            []StageCount     `json:"stages" yaml:"stages"`
	CaptureStages     []StageCount     `json:"capture_stages" yaml:"capture_stages"`
	RiskRevenue       RiskRevenue      `json:"risk_revenue" yaml:"risk_revenue"`
	DailyEngagement   []DayBucket      `json:"daily_engagement" yaml:"daily_engagement"`
	TopTopics         []TopicCount     `json:"top_topics" yaml:"top_topics"`
	Funnel            Funnel           `json:"funnel" yaml:"funnel"`
	Flow              Flow             `json:"flow" yaml:"flow"`
	Scores            ScoreHistogram   `json:"scores" yaml:"scores"`
	Objectives        Objectives       `json:"objectives" yaml:"objectives"`
	WeeklyObjectives  []WeekObjectives `json:"weekly_objectives" yaml:"weekly_objectives"`
	Velocity          []DayCount       `json:"velocity" yaml:"velocity"`
	CumulativeContact []DayCount       `json:"cumulative_contacts" yaml:"cumulative_contacts"`
	Temperatures      Temperatures     `json:"temperatures" yaml:"temperatures"`
	Scatter           []ScatterPoint   `json:"scatter" yaml:"scatter"`
}

// BuildReport computes every view over the given subset.
func BuildReport(leads []models.Lead, opts Options) Report {
	o := opts.withDefaults()
	return Report{
		GeneratedAt:       o.Now,
		Timezone:          o.Location.String(),
		KPIs:              ComputeKPIs(leads),
		CaptureKPIs:       ComputeCaptureKPIs(leads),
		Stages:            StageCounts(leads),
		CaptureStages:     CaptureStageCounts(leads),
		RiskRevenue:       ComputeRiskRevenue(leads),
		DailyEngagement:   DailyEngagement(leads, o.Location),
		TopTopics:         TopTopics(leads, o.TopTopics),
		Funnel:            FunnelRates(leads),
		Flow:              CaptureFlow(leads),
		Scores:            ScoreDistribution(leads),
		Objectives:        ObjectivesBreakdown(leads),
		WeeklyObjectives:  WeeklyObjectives(leads, o.Now, o.Weeks, o.Location),
		Velocity:          ObjectivesVelocity(leads, o.Now, o.VelocityDays, o.Location),
		CumulativeContact: CumulativeContacts(leads, o.Location),
		Temperatures:      TemperatureBreakdown(leads),
		Scatter:           EngagementScatter(leads),
	}
}
