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
	"cmp"
	"slices"
	"time"

	"github.com/salespipe/leaddash/internal/models"
)

const dayLayout = "2006-01-02"

// DayBucket is the engagement recorded on one calendar day.
type DayBucket struct {
	Date         string  `json:"date" yaml:"date"`
	Interactions int     `json:"interactions" yaml:"interactions"`
	AvgSentiment float64 `json:"avg_sentiment" yaml:"avg_sentiment"`
}

// DailyEngagement groups leads by the calendar day (in loc) of their last
// interaction. Only days with at least one lead appear; gaps are not padded
// with zero days. Leads with an unparseable timestamp are left out.
func DailyEngagement(leads []models.Lead, loc *time.Location) []DayBucket {
	if loc == nil {
		loc = time.UTC
	}

	type acc struct {
		count int
		sum   float64
	}
	byDay := make(map[string]*acc)
	for i := range leads {
		t, ok := leads[i].InteractionTime()
		if !ok {
			continue
		}
		day := t.In(loc).Format(dayLayout)
		a := byDay[day]
		if a == nil {
			a = &acc{}
			byDay[day] = a
		}
		a.count++
		a.sum += leads[i].SentimentScore
	}

	out := make([]DayBucket, 0, len(byDay))
	for day, a := range byDay {
		out = append(out, DayBucket{
			Date:         day,
			Interactions: a.count,
			AvgSentiment: a.sum / float64(a.count),
		})
	}
	// ISO dates order lexically.
	slices.SortFunc(out, func(a, b DayBucket) int {
		return cmp.Compare(a.Date, b.Date)
	})
	return out
}

// DayCount is a count attached to a calendar day.
type DayCount struct {
	Date  string `json:"date" yaml:"date"`
	Count int    `json:"count" yaml:"count"`
}

// CumulativeContacts is the running total of leads that captured an email or
// scheduled a meeting, one point per day from the first such lead's day to
// the last. A running total has a value on every day, so the range is
// contiguous.
func CumulativeContacts(leads []models.Lead, loc *time.Location) []DayCount {
	if loc == nil {
		loc = time.UTC
	}

	perDay := make(map[string]int)
	var first, last time.Time
	for i := range leads {
		l := &leads[i]
		if !l.EmailCaptured && !l.MeetingScheduled {
			continue
		}
		t, ok := l.InteractionTime()
		if !ok {
			continue
		}
		day := startOfDay(t.In(loc))
		perDay[day.Format(dayLayout)]++
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if last.IsZero() || day.After(last) {
			last = day
		}
	}
	if len(perDay) == 0 {
		return []DayCount{}
	}

	var out []DayCount
	total := 0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		total += perDay[key]
		out = append(out, DayCount{Date: key, Count: total})
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
