package keylock

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/arashi-labs/keylock/pkg/observability/xlog"
	"github.com/arashi-labs/keylock/pkg/observability/xmetrics"
)

// Locker provides a keyed, in-process lock over comparable keys of
// type K. All methods are safe for concurrent use.
type Locker[K comparable] struct {
	engine   *engine[K]
	observer xmetrics.Observer
	logger   xlog.Logger

	maxCount int64

	closed    atomic.Bool
	asyncPool *asyncWorkerPool[K]
}

// New constructs a Locker for key type K. It returns a configuration
// error immediately (no state is created) when MaxCount < 1 or
// PoolInitialFill is out of [0, PoolSize].
func New[K comparable](opts ...Option) (*Locker[K], error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	l := &Locker[K]{
		engine:   newEngine[K](&o),
		observer: o.observer,
		logger:   o.logger,
		maxCount: o.maxCount,
	}
	l.asyncPool = newAsyncWorkerPool[K](l, o.asyncWorkers, o.asyncQueueSize)
	l.asyncPool.start()
	return l, nil
}

// Lock acquires the lock for key, blocking until a permit is available
// or ctx is done. On success it returns a Handle whose Unlock runs the
// engine's Release protocol exactly once. On timeout or cancellation it
// runs ReleaseWithoutPermitRelease and returns ctx.Err().
func (l *Locker[K]) Lock(ctx context.Context, key K) (Handle[K], error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	ctx, span := l.startSpan(ctx, opLock, key)
	r := l.engine.getOrAdd(key)
	if err := l.engine.waitAcquire(ctx, r); err != nil {
		l.engine.release(r, false)
		span.End(xmetrics.Result{Err: err})
		l.logAttempt(ctx, key, err)
		return nil, err
	}
	span.End(xmetrics.Result{Status: xmetrics.StatusOK})
	l.logAttempt(ctx, key, nil)
	return &handle[K]{engine: l.engine, releaser: r, key: key}, nil
}

// TryLock attempts to acquire the lock for key without waiting. It
// returns (nil, false) if the lock is currently at capacity for key.
func (l *Locker[K]) TryLock(key K) (Handle[K], bool) {
	if l.closed.Load() {
		return nil, false
	}
	_, span := l.startSpan(context.Background(), opTryLock, key)
	r := l.engine.getOrAdd(key)
	if !l.engine.tryAcquire(r) {
		l.engine.release(r, false)
		span.End(xmetrics.Result{Status: xmetrics.StatusError, Err: ErrNotEntered})
		return nil, false
	}
	span.End(xmetrics.Result{Status: xmetrics.StatusOK})
	return &handle[K]{engine: l.engine, releaser: r, key: key}, true
}

// LockFunc acquires the lock for key, runs fn, and guarantees Release
// runs on every exit path from fn, including a panic.
func (l *Locker[K]) LockFunc(ctx context.Context, key K, fn func() error) error {
	h, err := l.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = h.Unlock() }()
	return fn()
}

// TryLockFunc attempts to acquire the lock for key without waiting; if
// it enters, it runs fn and guarantees Release on every exit path.
// entered reports whether the lock was taken at all.
func (l *Locker[K]) TryLockFunc(key K, fn func() error) (entered bool, err error) {
	h, ok := l.TryLock(key)
	if !ok {
		return false, nil
	}
	defer func() { _ = h.Unlock() }()
	return true, fn()
}

// IsInUse reports an advisory, racy snapshot of whether key currently
// has a live releaser.
func (l *Locker[K]) IsInUse(key K) bool {
	return l.engine.isInUse(key)
}

// RemainingCount returns the current reference count for key (holders
// + waiters + any installer mid-insertion), or 0 if key has no live
// entry. Advisory by construction.
func (l *Locker[K]) RemainingCount(key K) int64 {
	return l.engine.remainingCount(key)
}

// CurrentCount returns MaxCount - RemainingCount(key), advisory.
func (l *Locker[K]) CurrentCount(key K) int64 {
	return l.maxCount - l.RemainingCount(key)
}

// Len returns the number of currently active keys.
func (l *Locker[K]) Len() int {
	return l.engine.index.len()
}

// Keys returns a snapshot of currently active keys, for debugging only.
func (l *Locker[K]) Keys() []K {
	return l.engine.index.keys()
}

// Close disposes the Locker: best-effort, swallows per-releaser
// disposal failures, stops the async worker pool, clears the index and
// the pool. Stopping the async worker pool waits until the workers have
// finished every LockAsync job already accepted, including one still
// blocked in Lock. Synchronous acquisitions already in flight are not
// waited for and are not guaranteed a coherent error.
func (l *Locker[K]) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if l.asyncPool != nil {
		l.asyncPool.stop()
	}
	l.engine.dispose()
	return nil
}

func (l *Locker[K]) logAttempt(ctx context.Context, key K, err error) {
	if l.logger == nil {
		return
	}
	if err != nil {
		l.logger.Warn(ctx, "keylock: acquire failed", xlog.LockKey(fmt.Sprint(key)), xlog.Err(err))
		return
	}
	l.logger.Debug(ctx, "keylock: acquire succeeded", xlog.LockKey(fmt.Sprint(key)))
}
