// Package audiocache maps (normalized text, language tag) pairs to generated
// audio artifacts. Entries are content-addressed by fingerprint, bounded in
// number, and expire after a TTL.
package audiocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/book-expert/logger"
)

// Cache defaults.
const (
	DefaultMaxEntries = 100
	DefaultTTL        = time.Hour
)

// entry is one cached artifact. createdAt drives both TTL expiry and the
// oldest-created eviction order.
type entry struct {
	path      string
	createdAt time.Time
}

// ArtifactChecker is the slice of the artifact store the cache needs: file
// existence and idempotent removal.
type ArtifactChecker interface {
	Exists(path string) bool
	Remove(path string) error
}

// Cache is a fingerprint-keyed artifact cache. The map is guarded by a
// mutex; file IO always happens outside the critical section.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	maxEntries int
	ttl        time.Duration
	artifacts  ArtifactChecker
	log        *logger.Logger

	now func() time.Time
}

// New creates a cache over the given artifact store. Non-positive bounds
// fall back to the defaults (100 entries, one hour).
func New(maxEntries int, ttl time.Duration, artifacts ArtifactChecker, log *logger.Logger) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		artifacts:  artifacts,
		log:        log,
		now:        time.Now,
	}
}

// Fingerprint computes the deterministic cache key for a text/language pair.
// Text must already be normalized; the fingerprint is over exactly what gets
// synthesized.
func Fingerprint(text, language string) string {
	digest := sha256.Sum256([]byte(text + "|" + language))

	return hex.EncodeToString(digest[:])
}

// Lookup returns the cached artifact path for the pair, or miss. An expired
// entry, or one whose backing file has vanished, is removed along the way
// and reported as a miss, never as an error.
func (c *Cache) Lookup(text, language string) (string, bool) {
	key := Fingerprint(text, language)

	c.mu.Lock()
	cached, ok := c.entries[key]

	if ok && c.expiredLocked(cached) {
		delete(c.entries, key)

		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return "", false
	}

	// Existence check happens outside the lock; a vanished artifact is a
	// silent miss.
	if !c.artifacts.Exists(cached.path) {
		c.mu.Lock()
		// Only drop the entry if it still points at the vanished file.
		if current, still := c.entries[key]; still && current.path == cached.path {
			delete(c.entries, key)
		}
		c.mu.Unlock()

		return "", false
	}

	return cached.path, true
}

// Store inserts or overwrites the entry for the pair. At the size bound it
// first purges TTL-expired entries, then evicts oldest-created entries until
// there is room.
func (c *Cache) Store(text, language, path string) {
	key := Fingerprint(text, language)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.purgeExpiredLocked()

		for len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	c.entries[key] = entry{path: path, createdAt: c.now()}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Sweep removes every expired entry and deletes its backing artifact. The
// lock covers only the bookkeeping pass; file removal runs after it, and an
// already-missing artifact is logged, not failed.
func (c *Cache) Sweep() int {
	c.mu.Lock()

	var stalePaths []string

	for key, cached := range c.entries {
		if c.expiredLocked(cached) {
			stalePaths = append(stalePaths, cached.path)

			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	for _, path := range stalePaths {
		err := c.artifacts.Remove(path)
		if err != nil && c.log != nil {
			c.log.Warn("Failed to remove expired cache artifact %s: %v", path, err)
		}
	}

	return len(stalePaths)
}

// Run drives the periodic sweep until ctx is cancelled.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := c.Sweep()
			if removed > 0 && c.log != nil {
				c.log.Info("Cache sweep removed %d expired entries", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Cache) expiredLocked(e entry) bool {
	return c.now().Sub(e.createdAt) >= c.ttl
}

func (c *Cache) purgeExpiredLocked() {
	for key, cached := range c.entries {
		if c.expiredLocked(cached) {
			delete(c.entries, key)
		}
	}
}

// evictOldestLocked removes the least-recently-created entry. When the cache
// is full of unexpired entries the oldest one is the victim.
func (c *Cache) evictOldestLocked() {
	var (
		oldestKey  string
		oldestTime time.Time
	)

	for key, cached := range c.entries {
		if oldestKey == "" || cached.createdAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = cached.createdAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
