package gameserver

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// maxIdempotencyEntries triggers a sweep of expired entries
const maxIdempotencyEntries = 1000

// idempotencyKey represents a composite key for idempotent requests
type idempotencyKey struct {
	Scope          string
	IdempotencyKey string
}

// CachedResponse is a recorded HTTP response
type CachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// idempotencyEntry stores a cached response with timestamp
type idempotencyEntry struct {
	response  CachedResponse
	createdAt time.Time
}

// IdempotencyManager handles idempotent request caching. Scope is whatever
// identifies the caller and operation, e.g. actor id plus route.
type IdempotencyManager struct {
	cache   map[idempotencyKey]*idempotencyEntry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	flights singleflight.Group
}

// NewIdempotencyManager creates a new idempotency manager
func NewIdempotencyManager(ttl time.Duration) *IdempotencyManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyManager{
		cache: make(map[idempotencyKey]*idempotencyEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// SetTTL changes how long responses are replayed
func (im *IdempotencyManager) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	im.mu.Lock()
	im.ttl = ttl
	im.mu.Unlock()
}

// Check returns a cached response if the key was seen within the TTL
func (im *IdempotencyManager) Check(scope, key string) (CachedResponse, bool) {
	if key == "" {
		return CachedResponse{}, false
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	entry, exists := im.cache[idempotencyKey{Scope: scope, IdempotencyKey: key}]
	if !exists || im.now().Sub(entry.createdAt) > im.ttl {
		return CachedResponse{}, false
	}
	return entry.response, true
}

// Store caches a response for the given scope and key
func (im *IdempotencyManager) Store(scope, key string, resp CachedResponse) {
	if key == "" {
		return
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	im.cache[idempotencyKey{Scope: scope, IdempotencyKey: key}] = &idempotencyEntry{
		response:  resp,
		createdAt: im.now(),
	}

	if len(im.cache) > maxIdempotencyEntries {
		im.cleanupOldEntriesLocked()
	}
}

// Do runs fn at most once for a scope and key. A response already cached is
// returned with replayed set and fn is not called. Concurrent callers with
// the same key wait for the running call and replay what it recorded; when
// it records nothing (fn returned a nil response), the next waiter runs its
// own fn. A nil response from fn is never cached.
func (im *IdempotencyManager) Do(scope, key string, fn func() (*CachedResponse, error)) (resp CachedResponse, replayed bool, err error) {
	if key == "" {
		r, err := fn()
		if r != nil {
			return *r, false, err
		}
		return CachedResponse{}, false, err
	}

	flight := scope + "\x00" + key
	for {
		if cached, ok := im.Check(scope, key); ok {
			return cached, true, nil
		}

		leader := false
		var stored, own *CachedResponse
		v, flightErr, _ := im.flights.Do(flight, func() (interface{}, error) {
			leader = true
			// the previous flight may have finished after our Check
			if cached, ok := im.Check(scope, key); ok {
				stored = &cached
				return stored, nil
			}
			r, err := fn()
			if r != nil {
				own = r
				im.Store(scope, key, *r)
			}
			return r, err
		})
		if leader {
			switch {
			case stored != nil:
				return *stored, true, nil
			case own != nil:
				return *own, false, flightErr
			}
			return CachedResponse{}, false, flightErr
		}
		if r, _ := v.(*CachedResponse); r != nil {
			return *r, true, nil
		}
		// the running call failed; take a turn
	}
}

// Len returns the number of cached responses
func (im *IdempotencyManager) Len() int {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return len(im.cache)
}

// cleanupOldEntriesLocked removes expired entries from the cache
// Must be called with mu held
func (im *IdempotencyManager) cleanupOldEntriesLocked() {
	cutoff := im.now().Add(-im.ttl)
	for key, entry := range im.cache {
		if entry.createdAt.Before(cutoff) {
			delete(im.cache, key)
		}
	}
}
