package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chashi-bhai/server/pkg/telemetry"
)

type memoryEntry struct {
	value    []byte
	storedAt time.Time
}

// MemoryStore is a process-local Store bounded by entry count. When full,
// the least recently used entry is dropped.
type MemoryStore struct {
	entries *lru.Cache[string, memoryEntry]
	now     Clock
	metrics *telemetry.Metrics
}

type MemoryOption func(*MemoryStore)

// WithClock overrides time.Now.
func WithClock(c Clock) MemoryOption {
	return func(m *MemoryStore) { m.now = c }
}

// WithMetrics reports hits and misses.
func WithMetrics(mt *telemetry.Metrics) MemoryOption {
	return func(m *MemoryStore) { m.metrics = mt }
}

func NewMemoryStore(maxEntries int, opts ...MemoryOption) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, errKey("init", "", err)
	}
	m := &MemoryStore{entries: c, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		m.metrics.RecordCache(ctx, namespace(key), false)
		return nil, false, nil
	}
	if expired(e.storedAt, m.now(), ttl) {
		m.entries.Remove(key)
		m.metrics.RecordCache(ctx, namespace(key), false)
		return nil, false, nil
	}
	m.metrics.RecordCache(ctx, namespace(key), true)
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.entries.Add(key, memoryEntry{value: cp, storedAt: m.now()})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}

func (m *MemoryStore) Len() int {
	return m.entries.Len()
}

var _ Store = (*MemoryStore)(nil)
