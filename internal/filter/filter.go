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

// Package filter applies the dashboard's declarative filters (date range,
// temperature, status) to a lead set.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/salespipe/leaddash/internal/models"
)

// All disables a predicate.
const All = "all"

// DateRange bounds how recent a lead's last interaction must be.
type DateRange string

const (
	DateRangeAll    DateRange = All
	DateRangeLast7  DateRange = "7d"
	DateRangeLast30 DateRange = "30d"
)

// Days returns the window length, 0 for DateRangeAll.
func (d DateRange) Days() int {
	switch d {
	case DateRangeLast7:
		return 7
	case DateRangeLast30:
		return 30
	}
	return 0
}

// StatusField selects which lead field the status predicate compares against.
type StatusField string

const (
	// StatusFieldCurrent compares against the general sales status.
	StatusFieldCurrent StatusField = "current_status"
	// StatusFieldCapture compares against the captation funnel status.
	StatusFieldCapture StatusField = "capture_status"
)

// ErrInvalidCriteria is returned by ParseCriteria for unknown filter values.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Criteria is the set of active filters. The zero value matches every lead
// once normalised by Defaults.
type Criteria struct {
	DateRange   DateRange   `json:"date_range" yaml:"date_range"`
	Temperature string      `json:"temperature" yaml:"temperature"`
	Status      string      `json:"status" yaml:"status"`
	StatusField StatusField `json:"status_field" yaml:"status_field"`
}

// Defaults fills empty fields with their "all" / default values.
func (c Criteria) Defaults() Criteria {
	if c.DateRange == "" {
		c.DateRange = DateRangeAll
	}
	if c.Temperature == "" {
		c.Temperature = All
	}
	if c.Status == "" {
		c.Status = All
	}
	if c.StatusField == "" {
		c.StatusField = StatusFieldCurrent
	}
	return c
}

// Validate rejects values the predicates cannot interpret. Status values are
// open-ended and always accepted.
func (c Criteria) Validate() error {
	c = c.Defaults()
	switch c.DateRange {
	case DateRangeAll, DateRangeLast7, DateRangeLast30:
	default:
		return fmt.Errorf("%w: date_range %q", ErrInvalidCriteria, c.DateRange)
	}
	if c.Temperature != All && !models.Temperature(c.Temperature).Valid() {
		return fmt.Errorf("%w: temperature %q", ErrInvalidCriteria, c.Temperature)
	}
	switch c.StatusField {
	case StatusFieldCurrent, StatusFieldCapture:
	default:
		return fmt.Errorf("%w: status_field %q", ErrInvalidCriteria, c.StatusField)
	}
	return nil
}

// ParseCriteria reads criteria from query parameters (date_range,
// temperature, status, status_field).
func ParseCriteria(q url.Values) (Criteria, error) {
	c := Criteria{
		DateRange:   DateRange(strings.TrimSpace(q.Get("date_range"))),
		Temperature: strings.TrimSpace(q.Get("temperature")),
		Status:      strings.TrimSpace(q.Get("status")),
		StatusField: StatusField(strings.TrimSpace(q.Get("status_field"))),
	}
	c = c.Defaults()
	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Apply returns the leads matching every active predicate, in input order.
// The result is a new slice; leads is not modified.
func Apply(leads []models.Lead, c Criteria, now time.Time) []models.Lead {
	idx := Select(leads, c, now)
	out := make([]models.Lead, len(idx))
	for i, j := range idx {
		out[i] = leads[j]
	}
	return out
}

// Select returns the ascending indices of the leads Apply would keep.
func Select(leads []models.Lead, c Criteria, now time.Time) []int {
	c = c.Defaults()

	var cutoff time.Time
	days := c.DateRange.Days()
	if days > 0 {
		cutoff = now.AddDate(0, 0, -days)
	}

	out := make([]int, 0, len(leads))
	for i := range leads {
		l := &leads[i]
		if days > 0 && !interactedSince(l, cutoff) {
			continue
		}
		if c.Temperature != All && string(l.EffectiveTemperature()) != c.Temperature {
			continue
		}
		if c.Status != All && statusOf(l, c.StatusField) != c.Status {
			continue
		}
		out = append(out, i)
	}
	return out
}

// interactedSince is an inclusive lower bound with no upper bound. Leads whose
// timestamp cannot be parsed never pass.
func interactedSince(l *models.Lead, cutoff time.Time) bool {
	t, ok := l.InteractionTime()
	if !ok {
		return false
	}
	return !t.Before(cutoff)
}

func statusOf(l *models.Lead, field StatusField) string {
	if field == StatusFieldCapture {
		return string(l.CaptureStatus)
	}
	return string(l.Status)
}
