// Package keylock provides a keyed asynchronous lock: a family of
// independent bounded semaphores, one per key drawn from a user-supplied
// comparable type. Acquiring the lock for key k admits up to MaxCount
// concurrent holders of that key while remaining fully independent of
// acquisitions on any other key k' != k.
//
// # Use case
//
// Serialize critical sections keyed by a logical entity (account ID,
// file path, tenant ID) without serializing unrelated work — something
// sync.Mutex cannot do without either a single process-wide lock or an
// unbounded map of per-key mutexes that never shrinks.
//
// # Core pieces
//
//   - Releaser: a per-live-key record owning a bounded semaphore, an
//     atomically-guarded reference count, and the key it currently
//     represents.
//   - Pool: a bounded free list that recycles Releasers across hot-key
//     churn instead of allocating one per acquisition.
//   - Engine: the concurrent index plus the GetOrAdd/Release protocol
//     that keeps exactly one Releaser per active key, race-free against
//     concurrent inserts, releases, and pool recycling.
//   - Locker: the public facade — Lock/TryLock/LockAsync with
//     blocking, timed, and cancelable variants, all built on
//     context.Context the way the rest of this module's packages are.
//
// # Quick start
//
//	kl, err := keylock.New[string](keylock.WithMaxCount(3))
//	if err != nil { ... }
//	defer kl.Close()
//
//	h, err := kl.Lock(ctx, "tenant-42")
//	if err != nil { ... }
//	defer h.Unlock()
//
// # Non-goals
//
// Fairness across keys, ordering guarantees between waiters of
// different keys, priority inheritance, reentrancy, and persistence are
// explicitly out of scope. A goroutine that re-enters the same key
// consumes a fresh permit and will deadlock if MaxCount == 1.
package keylock
