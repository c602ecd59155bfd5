package store

import (
	"cmp"
	"context"
	"math/rand/v2"
	"path"
	"slices"
	"sync"
)

// Memory is an in-process Store. One mutex guards every key, which gives
// each call the same atomicity a single Redis command has.
type Memory struct {
	mu      sync.Mutex
	strings map[string]string
	sets    map[string]map[string]struct{}
	hashes  map[string]map[string]string
	zsets   map[string]map[string]float64
	rnd     *rand.Rand
}

type MemoryOption func(*Memory)

// WithRand makes SRandMember deterministic for tests.
func WithRand(r *rand.Rand) MemoryOption {
	return func(m *Memory) { m.rnd = r }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		hashes:  make(map[string]map[string]string),
		zsets:   make(map[string]map[string]float64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.strings[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop(key)
	m.strings[key] = value
	return nil
}

func (m *Memory) SetNX(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exists(key) {
		return false, nil
	}
	m.strings[key] = value
	return true, nil
}

// exists requires m.mu held.
func (m *Memory) exists(key string) bool {
	if _, ok := m.strings[key]; ok {
		return true
	}
	if _, ok := m.sets[key]; ok {
		return true
	}
	if _, ok := m.hashes[key]; ok {
		return true
	}
	_, ok := m.zsets[key]
	return ok
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.drop(k)
	}
	return nil
}

// drop removes key from every type map. Caller holds mu.
func (m *Memory) drop(key string) {
	delete(m.strings, key)
	delete(m.sets, key)
	delete(m.hashes, key)
	delete(m.zsets, key)
}

func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	collect := func(k string) {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	for k := range m.strings {
		collect(k)
	}
	for k := range m.sets {
		collect(k)
	}
	for k := range m.hashes {
		collect(k)
	}
	for k := range m.zsets {
		collect(k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Memory) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.strings[key]
	if !ok || v != expected {
		return false, nil
	}
	delete(m.strings, key)
	return true, nil
}

func (m *Memory) SAdd(_ context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		m.sets[key] = set
	}
	for _, member := range members {
		set[member] = struct{}{}
	}
	return nil
}

func (m *Memory) SRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		return nil
	}
	for _, member := range members {
		delete(set, member)
	}
	if len(set) == 0 {
		delete(m.sets, key)
	}
	return nil
}

func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedMembers(key), nil
}

func (m *Memory) sortedMembers(key string) []string {
	set := m.sets[key]
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	slices.Sort(out)
	return out
}

func (m *Memory) SCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sets[key])), nil
}

func (m *Memory) SRandMember(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := m.sortedMembers(key)
	if len(members) == 0 {
		return "", false, nil
	}
	var i int
	if m.rnd != nil {
		i = m.rnd.IntN(len(members))
	} else {
		i = rand.IntN(len(members))
	}
	return members[i], true, nil
}

func (m *Memory) HSet(_ context.Context, key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	h[field] = value
	return nil
}

func (m *Memory) HGet(_ context.Context, key, field string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.hashes[key][field]
	return v, ok, nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *Memory) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zsets[key]
	if !ok {
		z = make(map[string]float64)
		m.zsets[key] = z
	}
	z[member] = score
	return nil
}

func (m *Memory) ZRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zsets[key]
	if !ok {
		return nil
	}
	for _, member := range members {
		delete(z, member)
	}
	if len(z) == 0 {
		delete(m.zsets, key)
	}
	return nil
}

func (m *Memory) ZScore(_ context.Context, key, member string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.zsets[key][member]
	return v, ok, nil
}

func (m *Memory) ZIncrBy(_ context.Context, key string, increment float64, member string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z := m.zsets[key]
	v, ok := z[member]
	if !ok {
		return 0, false, nil
	}
	v += increment
	z[member] = v
	return v, true, nil
}

func (m *Memory) ZRevRank(_ context.Context, key, member string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, zm := range m.revRange(key) {
		if zm.Member == member {
			return int64(i), true, nil
		}
	}
	return 0, false, nil
}

func (m *Memory) ZRevRangeWithScores(_ context.Context, key string) ([]ZMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revRange(key), nil
}

// revRange orders like ZREVRANGE: score descending, equal scores by
// member in reverse lexicographic order.
func (m *Memory) revRange(key string) []ZMember {
	z := m.zsets[key]
	out := make([]ZMember, 0, len(z))
	for member, score := range z {
		out = append(out, ZMember{Member: member, Score: score})
	}
	slices.SortFunc(out, func(a, b ZMember) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(b.Member, a.Member)
	})
	return out
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
