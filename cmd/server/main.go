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

// Lead dashboard API server.
//
// Entry point for the dashboard service. It:
//  1. Loads .env and config.yaml
//  2. Connects to Redis and PostgreSQL when configured
//  3. Fetches the initial lead snapshot from the leads webhook
//  4. Refreshes the snapshot periodically
//  5. Serves the dashboard API and Prometheus metrics
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/salespipe/leaddash/internal/action"
	"github.com/salespipe/leaddash/internal/api"
	"github.com/salespipe/leaddash/internal/config"
	"github.com/salespipe/leaddash/internal/dashboard"
	"github.com/salespipe/leaddash/internal/events"
	"github.com/salespipe/leaddash/internal/metrics"
	"github.com/salespipe/leaddash/internal/preferences"
	"github.com/salespipe/leaddash/internal/upstream"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting lead dashboard service",
		"leads_url", cfg.LeadsURL,
		"refresh_interval", cfg.RefreshInterval,
		"timezone", cfg.Timezone,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	m := metrics.New()

	// --- Connect to Redis (optional) ---
	var (
		sink  events.Sink  = events.NopPublisher{}
		guard action.Guard = action.NopGuard{}
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()

		publisher := events.NewPublisher(rdb, cfg.EventsQueue)
		if err := publisher.Ping(ctx); err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to Redis", "events_queue", cfg.EventsQueue)
		sink = publisher
		guard = action.NewRedisGuard(rdb, cfg.ActionDedupTTL)
	} else {
		slog.Info("redis not configured, events and action dedup disabled")
	}

	// --- Connect to PostgreSQL (optional) ---
	var store preferences.Store = preferences.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create Postgres pool", "error", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		if err := pgPool.Ping(ctx); err != nil {
			slog.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to PostgreSQL")

		pgStore, err := preferences.NewPostgresStore(ctx, pgPool)
		if err != nil {
			slog.Error("failed to initialise preferences store", "error", err)
			os.Exit(1)
		}
		store = pgStore
	} else {
		slog.Info("postgres not configured, theme preferences kept in memory")
	}

	defaultTheme, err := preferences.ParseTheme(cfg.DefaultTheme)
	if err != nil {
		slog.Error("invalid default theme", "error", err)
		os.Exit(1)
	}

	// --- Upstream webhooks ---
	client := upstream.NewClient(upstream.NewHTTPClient(ctx, cfg), upstream.EndpointsFrom(cfg))

	// --- Dashboard ---
	svc := dashboard.NewService(dashboard.Config{
		Source:    client,
		Events:    sink,
		Metrics:   m,
		Location:  cfg.Location,
		TopTopics: cfg.TopTopics,
	})
	// Failures leave an empty snapshot; the API still starts.
	svc.Refresh(ctx)
	svc.StartAutoRefresh(ctx, cfg.RefreshInterval)

	executor := action.NewExecutor(client, svc, guard, sink, m)

	// --- API Server ---
	handler := api.NewHandler(svc, executor, preferences.NewResolver(store, defaultTheme), m)
	ready, done, err := api.Serve(ctx, cfg.Port, handler.Routes())
	if err != nil {
		slog.Error("failed to start api server", "error", err)
		os.Exit(1)
	}
	<-ready
	slog.Info("lead dashboard service ready", "port", cfg.Port)

	// --- Graceful Shutdown ---
	<-ctx.Done()
	slog.Info("received shutdown signal")
	svc.Stop()
	<-done

	slog.Info("lead dashboard service stopped")
}
