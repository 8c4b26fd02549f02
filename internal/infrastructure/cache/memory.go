package cache

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
	"time"
)

const memShards = 32

// Memory is an in-process store with TTL and tag-based bulk deletion.
// Writes to one key are atomic; there is no lock spanning all keys.
type Memory struct {
	shards [memShards]memShard

	tagMu sync.Mutex
	tags  map[string]map[string]struct{}

	defaultTTL time.Duration
	now        func() time.Time
}

type memShard struct {
	mu    sync.RWMutex
	items map[string]memItem
}

type memItem struct {
	val       []byte
	expiresAt time.Time
}

func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	m := &Memory{
		tags:       make(map[string]map[string]struct{}),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for i := range m.shards {
		m.shards[i].items = make(map[string]memItem)
	}
	return m
}

func (m *Memory) shard(key string) *memShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &m.shards[h.Sum32()%memShards]
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) GetJSON(_ context.Context, key string, out any) (bool, error) {
	s := m.shard(key)
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !m.now().Before(it.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && !m.now().Before(cur.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(it.val, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) SetJSON(_ context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	// Memberships go in before the value, and tagMu is held until the value
	// is stored, so neither DeleteTag nor Sweep sees one without the other.
	if len(tags) > 0 {
		m.tagMu.Lock()
		defer m.tagMu.Unlock()
		for _, t := range tags {
			keys, ok := m.tags[t]
			if !ok {
				keys = make(map[string]struct{})
				m.tags[t] = keys
			}
			keys[key] = struct{}{}
		}
	}

	s := m.shard(key)
	s.mu.Lock()
	s.items[key] = memItem{val: b, expiresAt: m.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	s := m.shard(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// DeleteTag removes every key tagged with tag and returns how many were live.
func (m *Memory) DeleteTag(_ context.Context, tag string) (int, error) {
	m.tagMu.Lock()
	keys := m.tags[tag]
	delete(m.tags, tag)
	m.tagMu.Unlock()

	n := 0
	for k := range keys {
		s := m.shard(k)
		s.mu.Lock()
		if _, ok := s.items[k]; ok {
			delete(s.items, k)
			n++
		}
		s.mu.Unlock()
	}
	return n, nil
}

func (m *Memory) SetIfNotExists(_ context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[key]; ok && m.now().Before(it.expiresAt) {
		return false, nil
	}
	s.items[key] = memItem{val: b, expiresAt: m.now().Add(ttl)}
	return true, nil
}

// Sweep drops expired values and tag memberships that no longer point at a
// live value. It returns the number of values removed.
func (m *Memory) Sweep() int {
	now := m.now()
	removed := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, it := range s.items {
			if !now.Before(it.expiresAt) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}

	m.tagMu.Lock()
	defer m.tagMu.Unlock()
	for t, keys := range m.tags {
		for k := range keys {
			s := m.shard(k)
			s.mu.RLock()
			_, ok := s.items[k]
			s.mu.RUnlock()
			if !ok {
				delete(keys, k)
			}
		}
		if len(keys) == 0 {
			delete(m.tags, t)
		}
	}
	return removed
}

func (m *Memory) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}
