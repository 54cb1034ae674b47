package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache returns a process-local RedisCache with the same encoding and
// miss semantics as the Redis one. Clear understands a trailing "*" only.
func NewMemoryCache() RedisCache {
	return &memoryCache{entries: make(map[string]memoryEntry)}
}

func (m *memoryCache) Save(_ context.Context, key string, value any, duration int) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	entry := memoryEntry{value: raw}
	if duration > 0 {
		entry.expiresAt = time.Now().Add(time.Second * time.Duration(duration))
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	return nil
}

func (m *memoryCache) Get(_ context.Context, key string, value any) error {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		return fmt.Errorf("failed to get cache value: %w", Nil)
	}

	if err := json.Unmarshal(entry.value, value); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

func (m *memoryCache) Clear(_ context.Context, prefix string) error {
	prefix = strings.TrimSuffix(prefix, "*")

	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}

	return nil
}
