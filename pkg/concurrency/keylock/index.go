package keylock

import (
	"hash/maphash"
	"sync"
)

// index is a sharded concurrent map from key to live releaser. Sharding
// spreads lock contention across unrelated keys; per-key mutual
// exclusion for state transitions is the releaser's own monitor, not
// this map's shard lock.
type index[K comparable] struct {
	seed   maphash.Seed
	shards []indexShard[K]
	mask   uint64
}

type indexShard[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*releaser[K]
}

func newIndex[K comparable](shardCount int) *index[K] {
	shards := make([]indexShard[K], shardCount)
	for i := range shards {
		shards[i].entries = make(map[K]*releaser[K])
	}
	return &index[K]{
		seed:   maphash.MakeSeed(),
		shards: shards,
		mask:   uint64(shardCount - 1),
	}
}

func (ix *index[K]) shardFor(k K) *indexShard[K] {
	h := maphash.Comparable(ix.seed, k)
	return &ix.shards[h&ix.mask]
}

// tryGet returns the releaser currently mapped to k, if any.
func (ix *index[K]) tryGet(k K) (*releaser[K], bool) {
	s := ix.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.entries[k]
	return r, ok
}

// tryInsert inserts v under k only if k is absent, reporting whether it won.
func (ix *index[K]) tryInsert(k K, v *releaser[K]) bool {
	s := ix.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[k]; ok {
		return false
	}
	s.entries[k] = v
	return true
}

// getOrInsert inserts v under k if absent, otherwise returns the
// existing winner.
func (ix *index[K]) getOrInsert(k K, v *releaser[K]) *releaser[K] {
	s := ix.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[k]; ok {
		return existing
	}
	s.entries[k] = v
	return v
}

// tryRemove removes k's entry only if it currently maps to expect,
// guarding against removing a releaser that has already been replaced.
func (ix *index[K]) tryRemove(k K, expect *releaser[K]) {
	s := ix.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[k]; ok && cur == expect {
		delete(s.entries, k)
	}
}

// len returns the number of live keys. O(shardCount).
func (ix *index[K]) len() int {
	total := 0
	for i := range ix.shards {
		s := &ix.shards[i]
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// keys returns a snapshot of live keys, for debugging/introspection only.
func (ix *index[K]) keys() []K {
	out := make([]K, 0, ix.len())
	for i := range ix.shards {
		s := &ix.shards[i]
		s.mu.Lock()
		for k := range s.entries {
			out = append(out, k)
		}
		s.mu.Unlock()
	}
	return out
}

// clear drops every entry, for best-effort disposal.
func (ix *index[K]) clear() {
	for i := range ix.shards {
		s := &ix.shards[i]
		s.mu.Lock()
		s.entries = make(map[K]*releaser[K])
		s.mu.Unlock()
	}
}
