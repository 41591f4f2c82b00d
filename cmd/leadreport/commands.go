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

package main

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/salespipe/leaddash/internal/action"
	"github.com/salespipe/leaddash/internal/derive"
	"github.com/salespipe/leaddash/internal/events"
	"github.com/salespipe/leaddash/internal/filter"
	"github.com/salespipe/leaddash/internal/report"
)

// Filter flags shared by summary and leads.
var (
	dateRange   string
	temperature string
	status      string
	statusField string
)

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dateRange, "date-range", filter.All, "Interaction window: all, 7d, 30d")
	cmd.Flags().StringVar(&temperature, "temperature", filter.All, "Temperature: all, Hot, Warm, Cold")
	cmd.Flags().StringVar(&status, "status", filter.All, "Status value to match, or all")
	cmd.Flags().StringVar(&statusField, "status-field", string(filter.StatusFieldCurrent), "Status field: current_status, capture_status")
}

func criteriaFromFlags() (filter.Criteria, error) {
	c := filter.Criteria{
		DateRange:   filter.DateRange(dateRange),
		Temperature: temperature,
		Status:      status,
		StatusField: filter.StatusField(statusField),
	}.Defaults()
	if err := c.Validate(); err != nil {
		return filter.Criteria{}, err
	}
	return c, nil
}

func newSummaryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print KPIs and aggregates for the filtered leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := criteriaFromFlags()
			if err != nil {
				return err
			}
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			e.refresh(cmd.Context())

			view, err := e.service.View(c, time.Now())
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), view.Report, e.format, e.printer)
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func newLeadsCommand() *cobra.Command {
	var (
		sortField string
		direction string
		page      int
		perPage   int
	)
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List the filtered leads as a sorted table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := criteriaFromFlags()
			if err != nil {
				return err
			}
			s, err := derive.ParseSortState(sortField, direction)
			if err != nil {
				return err
			}
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			e.refresh(cmd.Context())

			view, err := e.service.View(c, time.Now())
			if err != nil {
				return err
			}
			p := derive.Paginate(derive.Sort(view.Leads, s), page, perPage)
			if e.format != report.FormatText {
				return report.Encode(cmd.OutOrStdout(), p, e.format)
			}
			return report.WriteLeads(cmd.OutOrStdout(), p, e.printer, e.cfg.Location)
		},
	}
	addFilterFlags(cmd)
	cmd.Flags().StringVar(&sortField, "sort", string(derive.SortInteraction), "Sort field: score, last_interaction_at, estimated_deal_value, name, status")
	cmd.Flags().StringVar(&direction, "direction", string(derive.Descending), "Sort direction: asc, desc")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", derive.DefaultPageSize, "Rows per page")
	return cmd
}

func newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <remote_id>",
		Short: "Print the conversation with a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			msgs := e.service.Chat(cmd.Context(), args[0])
			if e.format != report.FormatText {
				return report.Encode(cmd.OutOrStdout(), msgs, e.format)
			}
			return report.WriteChat(cmd.OutOrStdout(), msgs, e.cfg.Location)
		},
	}
}

func newActionCommand() *cobra.Command {
	var feedback string
	cmd := &cobra.Command{
		Use:   "action <remote_id>",
		Short: "Submit the suggested action for a lead",
		Long: `Submit the suggested action for a lead to the action webhook.

The lead's suggested action is sent as the custom notes, together with the
given feedback. The command does not wait for the action to run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			// The snapshot supplies the suggested action for the notes.
			e.refresh(cmd.Context())

			var (
				guard action.Guard
				sink  events.Sink
			)
			// Share the server's dedup window and event queue when Redis is set up.
			if e.cfg.RedisURL != "" {
				opt, err := redis.ParseURL(e.cfg.RedisURL)
				if err != nil {
					return fmt.Errorf("parse redis url: %w", err)
				}
				rdb := redis.NewClient(opt)
				defer rdb.Close()
				guard = action.NewRedisGuard(rdb, e.cfg.ActionDedupTTL)
				sink = events.NewPublisher(rdb, e.cfg.EventsQueue)
			}

			ex := action.NewExecutor(e.client, e.service, guard, sink, nil)
			res, err := ex.Execute(cmd.Context(), args[0], feedback)
			if err != nil {
				return err
			}
			if e.format != report.FormatText {
				return report.Encode(cmd.OutOrStdout(), res, e.format)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Action submitted for %s (request %s)\n", args[0], res.RequestID)
			return err
		},
	}
	cmd.Flags().StringVar(&feedback, "feedback", "", "Operator feedback sent with the action")
	return cmd
}
