// Package keycache provides an in-process, time-bounded cache of decrypted
// master keys, so the expensive password-based derivation runs once per
// session rather than on every operation. Entries never leave the process
// and are sealed in memguard enclaves while at rest in memory.
package keycache

import (
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/mediasafe/internal/util"
)

// DefaultTTL matches the session lifetime.
const DefaultTTL = 7 * 24 * time.Hour

type entry struct {
	key       *memguard.Enclave
	expiresAt time.Time
}

// Cache maps a user identifier to that user's decrypted master key.
// All operations take a single critical section, so the cache is safe under
// arbitrary concurrent callers without external synchronization.
//
// A Cache is constructed once at process start and owned explicitly by the
// services that need it; there is no process-wide instance.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// New creates an empty Cache with the default TTL.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached master key for the user, or false if no
// entry exists or the entry's expiry has passed. A just-expired entry is
// removed before returning.
func (c *Cache) Get(userID string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, userID)
		return nil, false
	}

	buf, err := e.key.Open()
	if err != nil {
		delete(c.entries, userID)
		return nil, false
	}
	defer buf.Destroy()

	return util.CopyBytes(buf.Bytes()), true
}

// Set stores a master key for the user, unconditionally replacing any
// existing entry. A non-positive ttl falls back to the cache default.
// The caller keeps ownership of rawKey; the cache seals its own copy.
func (c *Cache) Set(userID string, rawKey []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[userID] = entry{
		key:       memguard.NewEnclave(util.CopyBytes(rawKey)),
		expiresAt: c.now().Add(ttl),
	}
}

// Invalidate removes the user's entry, if any. Used on logout and on
// password change.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// ClearExpired sweeps every entry whose expiry has passed. Intended for
// periodic housekeeping; Get already removes expired entries lazily.
func (c *Cache) ClearExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for userID, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, userID)
		}
	}
}

// Clear removes every entry. Called at shutdown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len reports the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
