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

// Package report renders a dashboard report for terminals and pipelines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/salespipe/leaddash/internal/derive"
)

// DefaultLocale is used when no locale is given.
const DefaultLocale = "es-CL"

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml; empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Printer formats numbers and money for one locale.
type Printer struct {
	p    *message.Printer
	unit currency.Unit
}

// NewPrinter builds a printer for a BCP 47 locale such as "es-CL". An empty
// locale uses DefaultLocale.
func NewPrinter(locale string) (*Printer, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, _ := currency.FromTag(tag)
	return &Printer{p: message.NewPrinter(tag), unit: unit}, nil
}

// Money formats v in the locale's currency.
func (pr *Printer) Money(v float64) string {
	return pr.p.Sprint(currency.Symbol(pr.unit.Amount(v)))
}

// Int formats n with locale digit grouping.
func (pr *Printer) Int(n int) string {
	return pr.p.Sprintf("%d", n)
}

// Render writes rep to w in the given format. Text output is localized with
// pr; json and yaml are locale independent.
func Render(w io.Writer, rep derive.Report, f Format, pr *Printer) error {
	switch f {
	case FormatJSON, FormatYAML:
		return Encode(w, rep, f)
	case FormatText, "":
		if pr == nil {
			var err error
			if pr, err = NewPrinter(DefaultLocale); err != nil {
				return err
			}
		}
		return renderText(w, rep, pr)
	}
	return fmt.Errorf("unknown output format %q", f)
}

// Encode writes v as indented json or yaml.
func Encode(w io.Writer, v any, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not a structured format", f)
}

func renderText(w io.Writer, rep derive.Report, pr *Printer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Lead report\t%s (%s)\n", rep.GeneratedAt.Format("2006-01-02 15:04"), rep.Timezone)
	fmt.Fprintln(tw)

	k := rep.KPIs
	fmt.Fprintln(tw, "SUMMARY")
	fmt.Fprintf(tw, "  Leads\t%s\n", pr.Int(k.Total))
	fmt.Fprintf(tw, "  Hot leads\t%s\n", pr.Int(k.HotLeads))
	fmt.Fprintf(tw, "  Pipeline value\t%s\n", pr.Money(k.PipelineValue))
	fmt.Fprintf(tw, "  Average score\t%d\n", k.AverageScore)
	fmt.Fprintf(tw, "  Converted\t%s\n", pr.Int(k.Converted))
	fmt.Fprintf(tw, "  Flagged\t%s\n", pr.Int(k.Flagged))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "PIPELINE")
	for _, s := range rep.Stages {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.Stage, pr.Int(s.Count), pr.Money(s.Value))
	}
	fmt.Fprintln(tw)

	c := rep.CaptureKPIs
	fmt.Fprintln(tw, "CAPTATION")
	fmt.Fprintf(tw, "  In captation\t%s\n", pr.Int(c.InCaptation))
	fmt.Fprintf(tw, "  Meetings scheduled\t%s\n", pr.Int(c.MeetingsScheduled))
	fmt.Fprintf(tw, "  Potential value\t%s\n", pr.Money(c.PotentialValue))
	fmt.Fprintf(tw, "  Captation rate\t%d%%\n", c.CaptationRate)
	fmt.Fprintf(tw, "  Funnel\t%d → %d → %d\t(%.1f%% / %.1f%% / %.1f%%)\n",
		rep.Funnel.Total, rep.Funnel.Qualified, rep.Funnel.Meetings,
		rep.Funnel.QualifiedRate, rep.Funnel.MeetingRate, rep.Funnel.OverallRate)
	fmt.Fprintln(tw)

	if len(rep.RiskRevenue.Slices) > 0 {
		fmt.Fprintln(tw, "REVENUE AT RISK")
		for _, s := range rep.RiskRevenue.Slices {
			fmt.Fprintf(tw, "  %s\t%s\n", s.Risk, pr.Money(s.Value))
		}
		fmt.Fprintln(tw)
	}

	t := rep.Temperatures
	fmt.Fprintln(tw, "TEMPERATURE")
	fmt.Fprintf(tw, "  Hot / Warm / Cold\t%d / %d / %d\n", t.Hot, t.Warm, t.Cold)
	fmt.Fprintf(tw, "  Improving / Stable / Declining\t%d / %d / %d\n", t.Improving, t.Stable, t.Declining)
	fmt.Fprintln(tw)

	if len(rep.TopTopics) > 0 {
		fmt.Fprintln(tw, "TOP TOPICS")
		for i, tc := range rep.TopTopics {
			fmt.Fprintf(tw, "  %d. %s\t%s\n", i+1, tc.Topic, pr.Int(tc.Count))
		}
		fmt.Fprintln(tw)
	}

	if len(rep.DailyEngagement) > 0 {
		fmt.Fprintln(tw, "DAILY ENGAGEMENT")
		for _, d := range rep.DailyEngagement {
			fmt.Fprintf(tw, "  %s\t%s\t%+.2f\n", d.Date, pr.Int(d.Interactions), d.AvgSentiment)
		}
	}

	return tw.Flush()
}
