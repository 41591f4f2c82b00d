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
	"strconv"

	"github.com/salespipe/leaddash/internal/models"
)

// ScoreBucket counts leads whose score lies in [Min, Max].
type ScoreBucket struct {
	Label string `json:"label" yaml:"label"`
	Min   int    `json:"min" yaml:"min"`
	Max   int    `json:"max" yaml:"max"`
	Count int    `json:"count" yaml:"count"`
}

// ScoreHistogram is the score distribution. Flagged (negative) scores and
// scores above the nominal range are counted apart so they are never folded
// into a regular bucket.
type ScoreHistogram struct {
	Buckets    []ScoreBucket `json:"buckets" yaml:"buckets"`
	Flagged    int           `json:"flagged" yaml:"flagged"`
	OutOfRange int           `json:"out_of_range" yaml:"out_of_range"`
}

var scoreRanges = [][2]int{{0, 25}, {26, 50}, {51, 75}, {76, 100}}

// ScoreDistribution buckets scores into 0-25, 26-50, 51-75 and 76-100.
func ScoreDistribution(leads []models.Lead) ScoreHistogram {
	h := ScoreHistogram{Buckets: make([]ScoreBucket, len(scoreRanges))}
	for i, r := range scoreRanges {
		h.Buckets[i] = ScoreBucket{Label: rangeLabel(r[0], r[1]), Min: r[0], Max: r[1]}
	}

	for i := range leads {
		score := leads[i].Score
		switch {
		case score < 0:
			h.Flagged++
		case score > 100:
			h.OutOfRange++
		default:
			for j := range h.Buckets {
				if score >= h.Buckets[j].Min && score <= h.Buckets[j].Max {
					h.Buckets[j].Count++
					break
				}
			}
		}
	}
	return h
}

func rangeLabel(lo, hi int) string {
	return strconv.Itoa(lo) + "-" + strconv.Itoa(hi)
}
