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

package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/salespipe/leaddash/internal/derive"
	"github.com/salespipe/leaddash/internal/models"
)

// WriteLeads prints one page of leads as a table. Interaction times are shown
// in loc.
func WriteLeads(w io.Writer, page derive.Page, pr *Printer, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tSCORE\tTEMP\tDEAL VALUE\tLAST INTERACTION")
	for i := range page.Leads {
		l := &page.Leads[i]
		last := "-"
		if t, ok := l.InteractionTime(); ok {
			last = t.In(loc).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			truncate(l.DisplayName(), 28),
			l.Status,
			l.Score,
			derive.TemperatureOf(l),
			pr.Money(l.EstimatedDealValue),
			last,
		)
	}
	fmt.Fprintf(tw, "\nPage %d of %d (%d leads)\n", page.Page, page.TotalPages, page.Total)
	return tw.Flush()
}

// WriteChat prints a conversation, oldest message first.
func WriteChat(w io.Writer, msgs []models.ChatMessage, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	if len(msgs) == 0 {
		_, err := fmt.Fprintln(w, "No messages.")
		return err
	}
	for i := range msgs {
		m := &msgs[i]
		when := m.CreatedAt
		if t, ok := m.CreatedTime(); ok {
			when = t.In(loc).Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "[%s] %s: %s\n", when, m.Role, strings.TrimSpace(m.Content)); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
