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

// Objectives summarises how many leads reached each captation objective.
type Objectives struct {
	EmailCaptured    int `json:"email_captured" yaml:"email_captured"`
	MeetingScheduled int `json:"meeting_scheduled" yaml:"meeting_scheduled"`
	// None counts leads that neither captured an email nor scheduled a meeting.
	None int `json:"none" yaml:"none"`

	// Percentages of the subset, rounded half up.
	EmailCapturedPct     int `json:"email_captured_pct" yaml:"email_captured_pct"`
	MeetingProposedPct   int `json:"meeting_proposed_pct" yaml:"meeting_proposed_pct"`
	PresentationSentPct  int `json:"presentation_sent_pct" yaml:"presentation_sent_pct"`
	FollowupConfirmedPct int `json:"followup_confirmed_pct" yaml:"followup_confirmed_pct"`
}

// ObjectivesBreakdown counts objective flags across the subset. The flags
// are independent, so a lead may count towards several of them.
func ObjectivesBreakdown(leads []models.Lead) Objectives {
	var o Objectives
	proposed, presented, followed := 0, 0, 0
	for i := range leads {
		l := &leads[i]
		if l.EmailCaptured {
			o.EmailCaptured++
		}
		if l.MeetingScheduled {
			o.MeetingScheduled++
		}
		if !l.EmailCaptured && !l.MeetingScheduled {
			o.None++
		}
		if l.MeetingProposed {
			proposed++
		}
		if l.PresentationSent {
			presented++
		}
		if l.FollowupConfirmed {
			followed++
		}
	}
	n := len(leads)
	o.EmailCapturedPct = roundHalfUp(percent(o.EmailCaptured, n))
	o.MeetingProposedPct = roundHalfUp(percent(proposed, n))
	o.PresentationSentPct = roundHalfUp(percent(presented, n))
	o.FollowupConfirmedPct = roundHalfUp(percent(followed, n))
	return o
}

// WeekObjectives counts objective flags for leads whose last interaction
// fell in one Monday-based week.
type WeekObjectives struct {
	WeekStart         string `json:"week_start" yaml:"week_start"`
	ISOWeek           int    `json:"iso_week" yaml:"iso_week"`
	EmailCaptured     int    `json:"email_captured" yaml:"email_captured"`
	MeetingProposed   int    `json:"meeting_proposed" yaml:"meeting_proposed"`
	MeetingScheduled  int    `json:"meeting_scheduled" yaml:"meeting_scheduled"`
	PresentationSent  int    `json:"presentation_sent" yaml:"presentation_sent"`
	FollowupConfirmed int    `json:"followup_confirmed" yaml:"followup_confirmed"`
	None              int    `json:"none" yaml:"none"`
}

// WeeklyObjectives returns the last `weeks` Monday-based weeks ending with the
// week containing now, oldest first. Every week in the window is present,
// even when empty, because the window itself is fixed.
func WeeklyObjectives(leads []models.Lead, now time.Time, weeks int, loc *time.Location) []WeekObjectives {
	if loc == nil {
		loc = time.UTC
	}
	if weeks <= 0 {
		return []WeekObjectives{}
	}

	current := startOfWeek(now.In(loc))
	first := current.AddDate(0, 0, -7*(weeks-1))

	out := make([]WeekObjectives, weeks)
	for i := range out {
		start := first.AddDate(0, 0, 7*i)
		_, week := start.ISOWeek()
		out[i] = WeekObjectives{WeekStart: start.Format(dayLayout), ISOWeek: week}
	}

	for i := range leads {
		l := &leads[i]
		t, ok := l.InteractionTime()
		if !ok {
			continue
		}
		ws := startOfWeek(t.In(loc))
		if ws.Before(first) || ws.After(current) {
			continue
		}
		// Calendar arithmetic, not durations: a DST change shortens a week.
		idx := weeksBetween(first, ws)
		if idx < 0 || idx >= weeks {
			continue
		}
		w := &out[idx]
		if l.EmailCaptured {
			w.EmailCaptured++
		}
		if l.MeetingProposed {
			w.MeetingProposed++
		}
		if l.MeetingScheduled {
			w.MeetingScheduled++
		}
		if l.PresentationSent {
			w.PresentationSent++
		}
		if l.FollowupConfirmed {
			w.FollowupConfirmed++
		}
		if !l.EmailCaptured && !l.MeetingScheduled {
			w.None++
		}
	}
	return out
}

// ObjectivesVelocity counts, per day over the trailing `days` days ending
// today, the leads that captured an email or scheduled a meeting and whose
// last interaction was on that day. Oldest day first; every day in the window
// is present.
func ObjectivesVelocity(leads []models.Lead, now time.Time, days int, loc *time.Location) []DayCount {
	if loc == nil {
		loc = time.UTC
	}
	if days <= 0 {
		return []DayCount{}
	}

	today := startOfDay(now.In(loc))
	first := today.AddDate(0, 0, -(days - 1))
	out := make([]DayCount, days)
	index := make(map[string]int, days)
	for i := range out {
		key := first.AddDate(0, 0, i).Format(dayLayout)
		out[i] = DayCount{Date: key}
		index[key] = i
	}

	for i := range leads {
		l := &leads[i]
		if !l.EmailCaptured && !l.MeetingScheduled {
			continue
		}
		t, ok := l.InteractionTime()
		if !ok {
			continue
		}
		if j, ok := index[t.In(loc).Format(dayLayout)]; ok {
			out[j].Count++
		}
	}
	return out
}

// startOfWeek returns midnight of the Monday on or before t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func weeksBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours()/24) / 7
}
