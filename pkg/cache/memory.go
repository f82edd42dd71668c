package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process TTL cache. Entries are lazily expired on access.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a value by key. Expired entries are removed.
func (memory *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	memory.mu.RLock()
	entry, exists := memory.entries[key]
	memory.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}

	if memory.now().After(entry.expiresAt) {
		memory.mu.Lock()
		// Another goroutine may have refreshed the entry in between.
		if current, stillExists := memory.entries[key]; stillExists && memory.now().After(current.expiresAt) {
			delete(memory.entries, key)
		}
		memory.mu.Unlock()
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a copy of value.
func (memory *Memory) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	memory.mu.Lock()
	memory.entries[key] = memoryEntry{
		value:     stored,
		expiresAt: memory.now().Add(memory.ttl),
	}
	memory.mu.Unlock()
	return nil
}

// Invalidate removes a specific entry.
func (memory *Memory) Invalidate(key string) {
	memory.mu.Lock()
	delete(memory.entries, key)
	memory.mu.Unlock()
}

// Len returns the number of entries, including expired ones not yet removed.
func (memory *Memory) Len() int {
	memory.mu.RLock()
	count := len(memory.entries)
	memory.mu.RUnlock()
	return count
}

// Close drops all entries.
func (memory *Memory) Close() error {
	memory.mu.Lock()
	memory.entries = make(map[string]memoryEntry)
	memory.mu.Unlock()
	return nil
}
