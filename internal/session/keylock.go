package session

import (
	"hash/fnv"
	"sync"
)

// keyLocks serializes mutations per session key so concurrent operations
// on the same key cannot race the cursor. Locks are striped: two keys may
// share a stripe, which only costs contention, never correctness.
type keyLocks struct {
	stripes []sync.Mutex
}

func newKeyLocks(n int) *keyLocks {
	if n < 1 {
		n = 64
	}
	return &keyLocks{stripes: make([]sync.Mutex, n)}
}

func (l *keyLocks) lock(key Key) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key.String()))
	m := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	m.Lock()
	return m
}
