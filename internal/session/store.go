package session

import (
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrNotFound is returned when a session key has no stored state.
var ErrNotFound = errors.New("session not found")

// Store holds session state between operations. Implementations may evict
// idle sessions; callers must treat ErrNotFound as "session over".
type Store interface {
	Get(key Key) (*State, error)
	Put(key Key, state *State) error
	// Delete is idempotent; removing an absent key is not an error.
	Delete(key Key) error
}

// CacheStore is the default Store: an in-process TTL cache. Idle sessions
// expire after the TTL and a background janitor reclaims them, bounding
// memory growth without an explicit end call.
type CacheStore struct {
	cache *gocache.Cache
}

// DefaultTTL is how long an idle session survives between operations.
const DefaultTTL = 2 * time.Hour

// NewCacheStore creates a TTL-evicting session store. A ttl of 0 falls
// back to DefaultTTL.
func NewCacheStore(ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CacheStore{
		cache: gocache.New(ttl, ttl/4),
	}
}

// Get returns the state for key, refreshing its TTL.
func (s *CacheStore) Get(key Key) (*State, error) {
	v, ok := s.cache.Get(key.String())
	if !ok {
		return nil, ErrNotFound
	}
	state := v.(*State)
	// Touch: an active session should not expire mid-lesson.
	s.cache.SetDefault(key.String(), state)
	return state, nil
}

// Put stores state under key with a fresh TTL.
func (s *CacheStore) Put(key Key, state *State) error {
	s.cache.SetDefault(key.String(), state)
	return nil
}

// Delete removes key. Absent keys are ignored.
func (s *CacheStore) Delete(key Key) error {
	s.cache.Delete(key.String())
	return nil
}
