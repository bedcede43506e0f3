package kvstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-process map.
// This is the default backend and provides fast access with no persistence.
// All data is lost when the process exits.
//
// MemoryStore is thread-safe and supports concurrent access using sync.RWMutex.
type MemoryStore struct {
	// entries maps key to value plus expiry.
	entries map[string]memoryEntry

	// mu protects access to the entries map.
	mu sync.RWMutex

	// now is the clock used for expiry decisions. Overridable in tests.
	now func() time.Time

	// janitorInterval is how often expired entries are swept.
	janitorInterval time.Duration

	// done signals the janitor goroutine to stop.
	done      chan struct{}
	closeOnce sync.Once
}

type memoryEntry struct {
	value string

	// expiresAt is the zero time for entries without a TTL.
	expiresAt time.Time
}

// MemoryStoreConfig configures the memory store.
type MemoryStoreConfig struct {
	// JanitorInterval is how often expired entries are removed.
	// Default: 1 minute.
	JanitorInterval time.Duration

	// Now is the clock used for expiry. Defaults to time.Now.
	Now func() time.Time
}

// NewMemoryStore creates a new in-memory store with default settings.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{})
}

// NewMemoryStoreWithConfig creates a new in-memory store with custom configuration.
func NewMemoryStoreWithConfig(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.JanitorInterval == 0 {
		cfg.JanitorInterval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	store := &MemoryStore{
		entries:         make(map[string]memoryEntry),
		now:             cfg.Now,
		janitorInterval: cfg.JanitorInterval,
		done:            make(chan struct{}),
	}

	go store.janitorLoop()

	return store
}

// Get retrieves the value at key. Expired entries are reported as absent.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(m.now()) {
		return "", false, nil
	}

	return entry.value, true, nil
}

// Put writes value at key, replacing any existing entry and its expiry.
func (m *MemoryStore) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry
	return nil
}

// Close stops the janitor goroutine.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	return nil
}

// Size returns the current number of stored entries, including entries that
// have expired but not yet been swept. Useful for monitoring and testing.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// TTL returns the remaining time-to-live for key. The second return value
// reports whether the key exists and has an expiry. Useful for testing
// sliding-expiration behavior.
func (m *MemoryStore) TTL(key string) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok || entry.expiresAt.IsZero() {
		return 0, false
	}

	remaining := entry.expiresAt.Sub(m.now())
	if remaining < 0 {
		return 0, false
	}
	return remaining, true
}

// sweepExpired removes entries whose expiry has passed.
func (m *MemoryStore) sweepExpired() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if !entry.expiresAt.IsZero() && !entry.expiresAt.After(now) {
			delete(m.entries, key)
		}
	}
}

// janitorLoop runs periodic removal of expired entries.
func (m *MemoryStore) janitorLoop() {
	ticker := time.NewTicker(m.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepExpired()
		case <-m.done:
			return
		}
	}
}
