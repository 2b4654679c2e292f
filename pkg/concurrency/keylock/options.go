package keylock

import (
	"fmt"

	"github.com/arashi-labs/keylock/pkg/observability/xlog"
	"github.com/arashi-labs/keylock/pkg/observability/xmetrics"
)

const (
	defaultShardCount = 32
	maxShardCount      = 1 << 16

	defaultAsyncWorkers   = 4
	defaultAsyncQueueSize = 256
)

// Option 配置一个 Locker。
type Option func(*options)

type options struct {
	maxCount        int64
	poolSize        int
	poolInitialFill int
	shardCount      int

	asyncWorkers   int
	asyncQueueSize int

	observer xmetrics.Observer
	logger   xlog.Logger

	err error
}

func defaultOptions() options {
	return options{
		maxCount:       1,
		shardCount:     defaultShardCount,
		asyncWorkers:   defaultAsyncWorkers,
		asyncQueueSize: defaultAsyncQueueSize,
		observer:       xmetrics.NoopObserver{},
	}
}

// WithMaxCount 设置每个 key 的并发持有者上限（默认 1）。
func WithMaxCount(n int) Option {
	return func(o *options) {
		o.maxCount = int64(n)
	}
}

// WithPool 启用 Releaser 回收池，capacity 为池的最大容量，
// initialFill 为构造时预分配的 Releaser 数量（必须 <= capacity）。
// 不调用本选项等价于 PoolSize = 0（禁用池）。
func WithPool(capacity, initialFill int) Option {
	return func(o *options) {
		o.poolSize = capacity
		o.poolInitialFill = initialFill
	}
}

// WithShardCount 设置索引分片数量，必须是正的 2 的幂，默认 32。
// 更多分片减少不同 key 之间的管理锁争用。
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

// WithAsyncPool 设置异步获取操作背后 worker pool 的大小与队列容量。
func WithAsyncPool(workers, queueSize int) Option {
	return func(o *options) {
		o.asyncWorkers = workers
		o.asyncQueueSize = queueSize
	}
}

// WithObserver 设置指标/追踪观测器，默认 xmetrics.NoopObserver。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithLogger 设置结构化日志记录器，默认 nil（不记录）。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func (o *options) validate() error {
	if o.maxCount < 1 {
		return ErrInvalidMaxCount
	}
	if o.poolSize < 0 || o.poolInitialFill < 0 || o.poolInitialFill > o.poolSize {
		return ErrInvalidPoolFill
	}
	sc := o.shardCount
	if sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return fmt.Errorf("%w: max %d, got %d", ErrInvalidShardCount, maxShardCount, sc)
	}
	if o.asyncWorkers < 1 {
		o.asyncWorkers = defaultAsyncWorkers
	}
	if o.asyncQueueSize < 1 {
		o.asyncQueueSize = defaultAsyncQueueSize
	}
	if o.observer == nil {
		o.observer = xmetrics.NoopObserver{}
	}
	return nil
}
