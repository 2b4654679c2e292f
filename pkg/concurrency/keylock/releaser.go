package keylock

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// releaser is the per-live-key record described by the engine's data
// model: one bounded semaphore of capacity maxCount, an atomically
// updated reference count of interested parties, and an is-not-in-use
// flag authoritative only under mu.
//
// A releaser pulled from the map by try_get but not yet past
// tryIncrement is held by raw reference only; it must not be mutated
// outside mu, and its fields must never be read without either holding
// mu or having gone through tryIncrement first.
type releaser[K comparable] struct {
	mu sync.Mutex

	key        K
	sem        *semaphore.Weighted
	refCount   int64
	isNotInUse bool

	maxCount int64
}

func newReleaser[K comparable](key K, maxCount int64) *releaser[K] {
	return &releaser[K]{
		key:      key,
		sem:      semaphore.NewWeighted(maxCount),
		refCount: 1,
		maxCount: maxCount,
	}
}

// tryIncrement is the fast-path admission check: under r's monitor it
// verifies the releaser is still live and still represents k before
// counting the caller as an interested party.
//
// The key re-check defeats the pool-reuse ABA hazard: a releaser
// observed via try_get may have been retired and recycled for a
// different key between the lookup and this call.
func (r *releaser[K]) tryIncrement(k K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isNotInUse || r.key != k {
		return false
	}
	r.refCount++
	return true
}

// reinstall rewrites the releaser for a new lifetime: a fresh key, a
// reference count of 1 (the installer), and a new semaphore at full
// capacity. Called by pool.take on an entry it has just popped. A
// goroutine still holding a stale reference from try_get may be inside
// tryIncrement on the same releaser, so the rewrite happens under mu.
func (r *releaser[K]) reinstall(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.key = key
	r.refCount = 1
	r.isNotInUse = false
	r.sem = semaphore.NewWeighted(r.maxCount)
}
