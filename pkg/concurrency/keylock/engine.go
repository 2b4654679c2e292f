package keylock

import "context"

// engine owns the index and, if enabled, the pool, and implements the
// race-free GetOrAdd / Release / ReleaseWithoutPermitRelease protocols
// that keep exactly one releaser per active key despite racing
// acquirers, releases, and pool recycling.
type engine[K comparable] struct {
	index    *index[K]
	pool     *pool[K] // nil when pooling disabled
	maxCount int64
}

func newEngine[K comparable](o *options) *engine[K] {
	e := &engine[K]{
		index:    newIndex[K](o.shardCount),
		maxCount: o.maxCount,
	}
	if o.poolSize > 0 {
		e.pool = newPool[K](o.poolSize, o.poolInitialFill, o.maxCount)
	}
	return e
}

func (e *engine[K]) newReleaser(k K) *releaser[K] {
	if e.pool != nil {
		return e.pool.take(k)
	}
	return newReleaser(k, e.maxCount)
}

// getOrAdd returns the live releaser for k, installing a new one if k
// has no current entry. Exactly one releaser exists per key at any
// instant; every returned releaser carries the caller's +1 already
// counted in refCount.
func (e *engine[K]) getOrAdd(k K) *releaser[K] {
	if r, ok := e.index.tryGet(k); ok {
		if r.tryIncrement(k) {
			return r
		}
	}

	rNew := e.newReleaser(k)
	if e.index.tryInsert(k, rNew) {
		return rNew
	}

	for {
		r := e.index.getOrInsert(k, rNew)
		if r == rNew {
			return r
		}
		if r.tryIncrement(k) {
			rNew.isNotInUse = true
			if e.pool != nil {
				e.pool.put(rNew)
			}
			return r
		}
		// r is being retired concurrently under the index's shard lock
		// releasing before our getOrInsert observed it; retry.
	}
}

// release implements both Release (releasePermit == true) and
// ReleaseWithoutPermitRelease (releasePermit == false). On the
// last-out path the index removal and isNotInUse flip happen under r's
// monitor, strictly before the permit becomes observable and before
// the releaser is offered back to the pool.
func (e *engine[K]) release(r *releaser[K], releasePermit bool) {
	r.mu.Lock()
	sem := r.sem
	if r.refCount == 1 {
		e.index.tryRemove(r.key, r)
		r.isNotInUse = true
		r.mu.Unlock()

		if e.pool != nil {
			e.pool.put(r)
		}
		if releasePermit {
			sem.Release(1)
		}
		return
	}
	r.refCount--
	r.mu.Unlock()

	if releasePermit {
		sem.Release(1)
	}
}

// isInUse reports a racy, advisory snapshot of whether k currently has
// a live releaser.
func (e *engine[K]) isInUse(k K) bool {
	r, ok := e.index.tryGet(k)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.isNotInUse && r.key == k
}

// remainingCount returns r.refCount for k's live releaser, or 0 if k
// has no entry. Advisory by construction.
func (e *engine[K]) remainingCount(k K) int64 {
	r, ok := e.index.tryGet(k)
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isNotInUse || r.key != k {
		return 0
	}
	return r.refCount
}

// waitAcquire blocks on r's semaphore under ctx. It returns nil once a
// permit is taken, or ctx's error if ctx is done first.
func (e *engine[K]) waitAcquire(ctx context.Context, r *releaser[K]) error {
	return r.sem.Acquire(ctx, 1)
}

// tryAcquire attempts a non-blocking permit grab on r's semaphore.
func (e *engine[K]) tryAcquire(r *releaser[K]) bool {
	return r.sem.TryAcquire(1)
}

func (e *engine[K]) dispose() {
	e.index.clear()
	if e.pool != nil {
		e.pool.mu.Lock()
		e.pool.free = nil
		e.pool.mu.Unlock()
	}
}
