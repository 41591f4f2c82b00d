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

// Package preferences persists the per-user display theme and threads the
// resolved theme through request contexts.
package preferences

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Theme is the dashboard colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

type themeKey struct{}

// WithTheme returns a context carrying theme.
func WithTheme(ctx context.Context, theme Theme) context.Context {
	return context.WithValue(ctx, themeKey{}, theme)
}

// ThemeFrom returns the theme carried by ctx, or ThemeLight.
func ThemeFrom(ctx context.Context) Theme {
	if t, ok := ctx.Value(themeKey{}).(Theme); ok {
		return t
	}
	return ThemeLight
}

// Resolver looks up a user's theme, falling back to a configured default.
type Resolver struct {
	store    Store
	fallback Theme
}

// NewResolver creates a resolver over store.
func NewResolver(store Store, fallback Theme) *Resolver {
	return &Resolver{store: store, fallback: fallback}
}

// Default returns the theme used for anonymous users.
func (r *Resolver) Default() Theme {
	return r.fallback
}

// Resolve returns the stored theme for user. Anonymous users, users without
// a stored preference, and store failures all get the default.
func (r *Resolver) Resolve(ctx context.Context, user string) Theme {
	if user == "" {
		return r.fallback
	}
	t, ok, err := r.store.GetTheme(ctx, user)
	if err != nil {
		slog.Warn("theme lookup failed, using default",
			"user", user,
			"error", err,
		)
		return r.fallback
	}
	if !ok {
		return r.fallback
	}
	return t
}

// Set stores theme for user.
func (r *Resolver) Set(ctx context.Context, user string, theme Theme) error {
	return r.store.SetTheme(ctx, user, theme)
}
