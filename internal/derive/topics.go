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
	"slices"

	"github.com/salespipe/leaddash/internal/models"
)

// DefaultTopTopics is how many topics the dashboard shows.
const DefaultTopTopics = 5

// TopicCount is how often a topic was mentioned across a subset.
type TopicCount struct {
	Topic string `json:"topic" yaml:"topic"`
	Count int    `json:"count" yaml:"count"`
}

// TopTopics counts topic mentions case-sensitively and returns the n most
// frequent, most frequent first. Equal counts keep first-seen order. A nil
// and an empty topic list are treated the same. n <= 0 returns every topic.
func TopTopics(leads []models.Lead, n int) []TopicCount {
	index := make(map[string]int)
	var counts []TopicCount
	for i := range leads {
		for _, topic := range leads[i].TopicsMentioned {
			j, ok := index[topic]
			if !ok {
				j = len(counts)
				index[topic] = j
				counts = append(counts, TopicCount{Topic: topic})
			}
			counts[j].Count++
		}
	}

	slices.SortStableFunc(counts, func(a, b TopicCount) int {
		return b.Count - a.Count
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	if counts == nil {
		counts = []TopicCount{}
	}
	return counts
}
