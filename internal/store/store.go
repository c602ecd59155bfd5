// Package store holds the shared state primitives every room, score and
// binding lives in. Redis backs production; Memory backs tests and
// single-process runs.
package store

import (
	"context"
	"fmt"
	"slices"
)

// ZMember is one element of a sorted set.
type ZMember struct {
	Member string
	Score  float64
}

// Store is the set of atomic key-value primitives the engine relies on.
// Each call is atomic on its own; nothing spans calls.
//
// Lookups report absence through the bool result, never through error.
// Errors mean the store itself could not be reached.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetNX sets key only when it does not exist and reports whether it did.
	SetNX(ctx context.Context, key, value string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	// CompareAndDelete removes key only if it currently holds expected.
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
	SRandMember(ctx context.Context, key string) (string, bool, error)

	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRem(ctx context.Context, key string, members ...string) error
	ZScore(ctx context.Context, key, member string) (float64, bool, error)
	// ZIncrBy increments an existing member only; absent members are left
	// alone and reported with ok=false.
	ZIncrBy(ctx context.Context, key string, increment float64, member string) (float64, bool, error)
	// ZRevRank is the 0-based position in descending score order.
	ZRevRank(ctx context.Context, key, member string) (int64, bool, error)
	ZRevRangeWithScores(ctx context.Context, key string) ([]ZMember, error)

	Ping(ctx context.Context) error
	Close() error
}

// Purge deletes every key except the ones listed in keep.
func Purge(ctx context.Context, s Store, keep ...string) (int, error) {
	keys, err := s.Keys(ctx, "*")
	if err != nil {
		return 0, fmt.Errorf("purge: list keys: %w", err)
	}

	stale := make([]string, 0, len(keys))
	for _, k := range keys {
		if !slices.Contains(keep, k) {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := s.Del(ctx, stale...); err != nil {
		return 0, fmt.Errorf("purge: delete keys: %w", err)
	}
	return len(stale), nil
}
