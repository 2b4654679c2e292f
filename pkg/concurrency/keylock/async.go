package keylock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arashi-labs/keylock/pkg/observability/xlog"
	"github.com/arashi-labs/keylock/pkg/observability/xmetrics"
)

// LockResult is delivered on the channel returned by LockAsync.
type LockResult[K comparable] struct {
	Handle Handle[K]
	Err    error
}

type asyncJob[K comparable] struct {
	ctx      context.Context
	key      K
	resultCh chan LockResult[K]
}

// asyncWorkerPool runs asyncJob[K] values through a fixed number of
// goroutines draining a bounded channel. Unlike a generic worker pool
// parameterized over any payload, it knows the shape of an async lock
// job: a submission that can't be queued resolves as ErrAsyncQueueFull
// on the job's own resultCh, and a worker panic resolves as an error on
// that same channel rather than being dropped on the floor.
type asyncWorkerPool[K comparable] struct {
	lock      *Locker[K]
	workers   int
	queue     chan asyncJob[K]
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	stopped   chan struct{}
}

func newAsyncWorkerPool[K comparable](lock *Locker[K], workers, queueSize int) *asyncWorkerPool[K] {
	return &asyncWorkerPool[K]{
		lock:    lock,
		workers: workers,
		queue:   make(chan asyncJob[K], queueSize),
		stopped: make(chan struct{}),
	}
}

func (p *asyncWorkerPool[K]) start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

func (p *asyncWorkerPool[K]) worker() {
	defer p.wg.Done()
	for job := range p.queue {
		p.run(job)
	}
}

func (p *asyncWorkerPool[K]) run(job asyncJob[K]) {
	defer func() {
		if r := recover(); r != nil {
			if p.lock.logger != nil {
				p.lock.logger.Error(job.ctx, "keylock: async worker recovered from panic",
					xlog.LockKey(fmt.Sprint(job.key)), slog.Any("panic", r))
			}
			job.resultCh <- LockResult[K]{Err: fmt.Errorf("keylock: async acquire panicked: %v", r)}
			close(job.resultCh)
		}
	}()
	h, err := p.lock.Lock(job.ctx, job.key)
	job.resultCh <- LockResult[K]{Handle: h, Err: err}
	close(job.resultCh)
}

// submit enqueues job without blocking. It reports false (and leaves
// job.resultCh untouched) if the queue is full or the pool has already
// been stopped; the caller is responsible for resolving the channel in
// that case.
func (p *asyncWorkerPool[K]) submit(job asyncJob[K]) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case <-p.stopped:
		return false
	default:
	}
	select {
	case p.queue <- job:
		return true
	default:
		return false
	}
}

func (p *asyncWorkerPool[K]) stop() {
	p.stopOnce.Do(func() {
		close(p.stopped)
		close(p.queue)
		p.wg.Wait()
	})
}

// LockAsync is the asynchronous analogue of Lock: it submits the
// acquisition to a bounded worker pool and returns immediately with a
// channel that receives exactly one LockResult. If the pool's queue is
// full, the result is ErrAsyncQueueFull and no acquisition is attempted.
func (l *Locker[K]) LockAsync(ctx context.Context, key K) <-chan LockResult[K] {
	resultCh := make(chan LockResult[K], 1)
	if l.closed.Load() {
		resultCh <- LockResult[K]{Err: ErrClosed}
		return resultCh
	}

	_, span := l.startSpan(ctx, opAsyncLock, key)
	job := asyncJob[K]{ctx: ctx, key: key, resultCh: resultCh}
	if !l.asyncPool.submit(job) {
		span.End(xmetrics.Result{Err: ErrAsyncQueueFull})
		resultCh <- LockResult[K]{Err: ErrAsyncQueueFull}
		return resultCh
	}
	span.End(xmetrics.Result{Status: xmetrics.StatusOK})
	return resultCh
}
