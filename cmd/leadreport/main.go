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

// Command leadreport prints lead dashboard reports from the command line. It
// talks to the same webhooks as the API server and needs no running server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/salespipe/leaddash/internal/config"
	"github.com/salespipe/leaddash/internal/dashboard"
	"github.com/salespipe/leaddash/internal/report"
	"github.com/salespipe/leaddash/internal/upstream"
)

// Global flags.
var (
	cfgFile      string
	outputFormat string
	locale       string
	debug        bool
)

var rootCmd = &cobra.Command{
	Use:   "leadreport",
	Short: "Lead dashboard reports from the command line",
	Long: `leadreport fetches the current lead list from the leads webhook and prints
the same aggregates the dashboard shows.

Examples:
  leadreport summary --date-range 7d --temperature Hot
  leadreport leads --sort score --direction desc
  leadreport chat 56911112222
  leadreport action 56911112222 --feedback "call back tomorrow"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "Locale for numbers and currency (default from config, es-CL)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")

	rootCmd.AddCommand(newSummaryCommand())
	rootCmd.AddCommand(newLeadsCommand())
	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newActionCommand())
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// env is the wiring shared by every subcommand.
type env struct {
	cfg     *config.Config
	client  *upstream.Client
	service *dashboard.Service
	format  report.Format
	printer *report.Printer
}

func loadEnv(ctx context.Context) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	printer, err := report.NewPrinter(firstNonEmpty(locale, cfg.Locale))
	if err != nil {
		return nil, err
	}

	client := upstream.NewClient(upstream.NewHTTPClient(ctx, cfg), upstream.EndpointsFrom(cfg))
	svc := dashboard.NewService(dashboard.Config{
		Source:    client,
		Location:  cfg.Location,
		TopTopics: cfg.TopTopics,
	})
	return &env{cfg: cfg, client: client, service: svc, format: format, printer: printer}, nil
}

// refresh loads the snapshot and warns on stderr when it came back empty
// because of an upstream failure.
func (e *env) refresh(ctx context.Context) dashboard.Snapshot {
	snap, _ := e.service.Refresh(ctx)
	if snap.LastError != "" {
		fmt.Fprintf(os.Stderr, "warning: lead fetch failed, showing an empty set: %s\n", snap.LastError)
	}
	return snap
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
