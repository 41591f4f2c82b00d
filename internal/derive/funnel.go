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

// Funnel holds the captation cohort sizes and the conversion rates between
// them, as percentages. A rate with a zero denominator is 0.
type Funnel struct {
	Total     int `json:"total" yaml:"total"`
	Qualified int `json:"qualified" yaml:"qualified"`
	Meetings  int `json:"meetings" yaml:"meetings"`

	QualifiedRate float64 `json:"qualified_rate" yaml:"qualified_rate"` // qualified / total
	MeetingRate   float64 `json:"meeting_rate" yaml:"meeting_rate"`     // meetings / qualified
	OverallRate   float64 `json:"overall_rate" yaml:"overall_rate"`     // meetings / total
}

// FunnelRates computes the captation funnel. Qualified counts leads in
// Lead_Qualified or Meeting_Booked; Meetings counts leads with a scheduled
// meeting.
func FunnelRates(leads []models.Lead) Funnel {
	f := Funnel{Total: len(leads)}
	for i := range leads {
		if isQualified(&leads[i]) {
			f.Qualified++
		}
		if leads[i].MeetingScheduled {
			f.Meetings++
		}
	}
	f.QualifiedRate = percent(f.Qualified, f.Total)
	f.MeetingRate = percent(f.Meetings, f.Qualified)
	f.OverallRate = percent(f.Meetings, f.Total)
	return f
}

// Flow node names.
const (
	NodeProspects = "prospects"
	NodeQualified = "qualified"
	NodeMeeting   = "meeting"
	NodeLost      = "lost"
)

// FlowLink is a weighted edge between two funnel nodes.
type FlowLink struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Value  int    `json:"value" yaml:"value"`
}

// Flow is a linear approximation of how leads move through captation.
type Flow struct {
	Nodes []string   `json:"nodes" yaml:"nodes"`
	Links []FlowLink `json:"links" yaml:"links"`
	Lost  int        `json:"lost" yaml:"lost"`
}

// CaptureFlow builds the prospect → qualified → meeting flow. Everything that
// does not advance is routed to the lost node. Links with no weight are
// dropped.
func CaptureFlow(leads []models.Lead) Flow {
	prospects := len(leads)
	qualified, meetings, lost := 0, 0, 0
	for i := range leads {
		l := &leads[i]
		if isQualified(l) {
			qualified++
		}
		if l.CaptureStatus == models.CaptureMeetingBooked || l.MeetingScheduled {
			meetings++
		}
		if l.CaptureStatus == models.CaptureLost {
			lost++
		}
	}

	candidates := []FlowLink{
		{Source: NodeProspects, Target: NodeQualified, Value: qualified},
		{Source: NodeProspects, Target: NodeLost, Value: prospects - qualified},
		{Source: NodeQualified, Target: NodeMeeting, Value: meetings},
		{Source: NodeQualified, Target: NodeLost, Value: qualified - meetings},
	}
	f := Flow{
		Nodes: []string{NodeProspects, NodeQualified, NodeMeeting, NodeLost},
		Links: make([]FlowLink, 0, len(candidates)),
		Lost:  lost,
	}
	for _, link := range candidates {
		if link.Value > 0 {
			f.Links = append(f.Links, link)
		}
	}
	return f
}
