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

package action

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a submitted action blocks an identical one.
	DefaultTTL = 10 * time.Minute

	// keyPrefix namespaces guard keys in Redis.
	keyPrefix = "leaddash:action:"
)

// Guard suppresses repeated submissions of the same action.
type Guard interface {
	// Acquire returns true if key was not held and is now held.
	Acquire(ctx context.Context, key string) (bool, error)
	// Release frees key so the action can be retried.
	Release(ctx context.Context, key string) error
}

// Key identifies an action by lead and feedback text.
func Key(remoteID, feedback string) string {
	sum := sha256.Sum256([]byte(feedback))
	return remoteID + ":" + hex.EncodeToString(sum[:8])
}

type redisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisGuard holds keys in Redis with a TTL.
type RedisGuard struct {
	rdb redisClient
	ttl time.Duration
}

// NewRedisGuard creates a guard backed by Redis. A non-positive ttl uses
// DefaultTTL.
func NewRedisGuard(rdb redisClient, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	// SET NX: true only if the key did not exist.
	set, err := g.rdb.SetNX(ctx, keyPrefix+key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("action guard SETNX: %w", err)
	}
	return set, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("action guard DEL: %w", err)
	}
	return nil
}

// NopGuard never reports duplicates.
type NopGuard struct{}

func (NopGuard) Acquire(context.Context, string) (bool, error) { return true, nil }
func (NopGuard) Release(context.Context, string) error { return nil }
