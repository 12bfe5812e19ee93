package di

import (
	"context"
	"sync"
	"time"
)

// snapshotCache is a process-local TTL cache backing the cached scene
// repository in single-instance deployments. Expired entries are dropped
// lazily on read and swept in bulk by a janitor.
type snapshotCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	done    chan struct{}
}

type cacheEntry struct {
	value    interface{}
	deadline time.Time
}

// NewInMemoryCache builds a snapshot cache and starts its sweep loop.
func NewInMemoryCache() *snapshotCache {
	c := &snapshotCache{
		entries: make(map[string]cacheEntry),
		done:    make(chan struct{}),
	}
	go c.sweep(30 * time.Second)
	return c
}

func (c *snapshotCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.deadline) {
		return nil, false
	}
	return entry.value, true
}

func (c *snapshotCache) Set(_ context.Context, key string, value interface{}, ttl int) error {
	c.mu.Lock()
	c.entries[key] = cacheEntry{
		value:    value,
		deadline: time.Now().Add(time.Duration(ttl) * time.Second),
	}
	c.mu.Unlock()
	return nil
}

func (c *snapshotCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *snapshotCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
	return nil
}

// Close stops the sweep loop.
func (c *snapshotCache) Close() {
	close(c.done)
}

func (c *snapshotCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.deadline) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
