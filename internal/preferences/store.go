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

package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store persists themes keyed by user email.
type Store interface {
	// GetTheme returns the stored theme; ok is false when the user has none.
	GetTheme(ctx context.Context, user string) (theme Theme, ok bool, err error)
	SetTheme(ctx context.Context, user string, theme Theme) error
}

// normalizeUser lower-cases emails so lookups are case-insensitive.
func normalizeUser(user string) string {
	return strings.ToLower(strings.TrimSpace(user))
}

// MemoryStore keeps themes in process memory. Used when Postgres is not
// configured; preferences are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	themes map[string]Theme
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{themes: make(map[string]Theme)}
}

func (m *MemoryStore) GetTheme(_ context.Context, user string) (Theme, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.themes[normalizeUser(user)]
	return t, ok, nil
}

func (m *MemoryStore) SetTheme(_ context.Context, user string, theme Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.themes[normalizeUser(user)] = theme
	return nil
}

// db is the subset of *pgxpool.Pool the Postgres store uses.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists themes in the user_preferences table.
type PostgresStore struct {
	pool db
}

// NewPostgresStore creates a store backed by the given Postgres pool.
// It ensures the user_preferences table exists on creation.
func NewPostgresStore(ctx context.Context, pool db) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure preferences schema: %w", err)
	}
	slog.Info("preferences store initialised")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_preferences (
			user_email TEXT PRIMARY KEY,
			theme      TEXT NOT NULL DEFAULT 'light',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

// GetTheme reads the theme for user.
func (s *PostgresStore) GetTheme(ctx context.Context, user string) (Theme, bool, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `
		SELECT theme FROM user_preferences WHERE user_email = $1
	`, normalizeUser(user)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select theme: %w", err)
	}
	t, err := ParseTheme(raw)
	if err != nil {
		return "", false, fmt.Errorf("stored theme for %s: %w", user, err)
	}
	return t, true, nil
}

// SetTheme inserts or updates the theme for user.
func (s *PostgresStore) SetTheme(ctx context.Context, user string, theme Theme) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_preferences (user_email, theme)
		VALUES ($1, $2)
		ON CONFLICT (user_email) DO UPDATE SET
			theme      = EXCLUDED.theme,
			updated_at = NOW()
	`, normalizeUser(user), string(theme))
	if err != nil {
		return fmt.Errorf("upsert theme: %w", err)
	}
	return nil
}
