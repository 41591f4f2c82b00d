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
	"fmt"
	"slices"
	"strings"

	"github.com/salespipe/leaddash/internal/models"
)

// SortField names a column lead tables can be ordered by.
type SortField string

const (
	SortScore       SortField = "score"
	SortInteraction SortField = "last_interaction_at"
	SortDealValue   SortField = "estimated_deal_value"
	SortName        SortField = "name"
	SortStatus      SortField = "status"
)

// Direction is the sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortState is the active table ordering.
type SortState struct {
	Field     SortField `json:"field" yaml:"field"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// DefaultSortState orders by most recent interaction first.
func DefaultSortState() SortState {
	return SortState{Field: SortInteraction, Direction: Descending}
}

// Toggle returns the state after the user selects field: the same field
// flips direction, a new field starts descending.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field != field {
		return SortState{Field: field, Direction: Descending}
	}
	if s.Direction == Descending {
		return SortState{Field: field, Direction: Ascending}
	}
	return SortState{Field: field, Direction: Descending}
}

// ParseSortState reads a field and direction, falling back to the default
// ordering for empty values.
func ParseSortState(field, direction string) (SortState, error) {
	s := DefaultSortState()
	if field != "" {
		f := SortField(field)
		switch f {
		case SortScore, SortInteraction, SortDealValue, SortName, SortStatus:
			s.Field = f
		default:
			return s, fmt.Errorf("unknown sort field %q", field)
		}
	}
	if direction != "" {
		d := Direction(strings.ToLower(direction))
		if d != Ascending && d != Descending {
			return s, fmt.Errorf("unknown sort direction %q", direction)
		}
		s.Direction = d
	}
	return s, nil
}

// Sort returns a copy of leads ordered by s. The sort is stable in both
// directions: leads that compare equal keep their input order. Unparseable
// interaction dates compare below every valid date.
func Sort(leads []models.Lead, s SortState) []models.Lead {
	out := slices.Clone(leads)
	if out == nil {
		out = []models.Lead{}
	}
	less := comparator(s.Field)
	slices.SortStableFunc(out, func(a, b models.Lead) int {
		c := less(&a, &b)
		if s.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}

func comparator(field SortField) func(a, b *models.Lead) int {
	switch field {
	case SortScore:
		return func(a, b *models.Lead) int { return cmp.Compare(a.Score, b.Score) }
	case SortDealValue:
		return func(a, b *models.Lead) int { return cmp.Compare(a.EstimatedDealValue, b.EstimatedDealValue) }
	case SortName:
		return func(a, b *models.Lead) int {
			return cmp.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
		}
	case SortStatus:
		return func(a, b *models.Lead) int {
			if c := cmp.Compare(stageRank(a.Status), stageRank(b.Status)); c != 0 {
				return c
			}
			return cmp.Compare(a.Status, b.Status)
		}
	default:
		return func(a, b *models.Lead) int {
			ta, okA := a.InteractionTime()
			tb, okB := b.InteractionTime()
			switch {
			case !okA && !okB:
				return 0
			case !okA:
				return -1
			case !okB:
				return 1
			}
			return ta.Compare(tb)
		}
	}
}

// stageRank places canonical stages in pipeline order and unknown stages
// after them.
func stageRank(s models.Status) int {
	if i := slices.Index(PipelineStages, s); i >= 0 {
		return i
	}
	return len(PipelineStages)
}

// DefaultPageSize is the number of rows per table page.
const DefaultPageSize = 10

// Page is one page of a sorted table.
type Page struct {
	Leads      []models.Lead `json:"leads" yaml:"leads"`
	Page       int           `json:"page" yaml:"page"`
	PerPage    int           `json:"per_page" yaml:"per_page"`
	Total      int           `json:"total" yaml:"total"`
	TotalPages int           `json:"total_pages" yaml:"total_pages"`
}

// Paginate slices out 1-based page p. Pages past the end are clamped to the
// last page; perPage <= 0 uses DefaultPageSize.
func Paginate(leads []models.Lead, p, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	total := len(leads)
	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	p = min(max(p, 1), pages)

	start := min((p-1)*perPage, total)
	end := min(start+perPage, total)
	rows := make([]models.Lead, end-start)
	copy(rows, leads[start:end])
	return Page{
		Leads:      rows,
		Page:       p,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}
