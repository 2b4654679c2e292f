package keylock

import "errors"

var (
	// ErrInvalidMaxCount 表示 MaxCount < 1。
	ErrInvalidMaxCount = errors.New("keylock: MaxCount must be >= 1")

	// ErrInvalidPoolFill 表示 PoolInitialFill > PoolSize 或为负数。
	ErrInvalidPoolFill = errors.New("keylock: PoolInitialFill must be in [0, PoolSize]")

	// ErrInvalidShardCount 表示 ShardCount 不是正的 2 的幂。
	ErrInvalidShardCount = errors.New("keylock: ShardCount must be a positive power of 2")

	// ErrClosed 表示 Locker 已关闭。
	ErrClosed = errors.New("keylock: closed")

	// ErrLockNotHeld 表示 Handle 已被释放，Unlock 第二次及后续调用返回此错误。
	ErrLockNotHeld = errors.New("keylock: lock not held")

	// ErrAsyncQueueFull 表示异步获取队列已满，任务被丢弃。
	ErrAsyncQueueFull = errors.New("keylock: async acquire queue full")

	// ErrNotEntered 表示 TryLock 未能在不等待的情况下获得锁。
	ErrNotEntered = errors.New("keylock: try-lock did not enter")
)
