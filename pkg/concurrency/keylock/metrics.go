package keylock

import (
	"context"
	"fmt"

	"github.com/arashi-labs/keylock/pkg/observability/xmetrics"
)

const (
	componentName = "keylock"

	opLock      = "lock"
	opTryLock   = "try_lock"
	opAsyncLock = "async_lock"
)

func (l *Locker[K]) startSpan(ctx context.Context, operation string, key K) (context.Context, xmetrics.Span) {
	return xmetrics.Start(ctx, l.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: operation,
		Kind:      xmetrics.KindInternal,
		Attrs: []xmetrics.Attr{
			{Key: "key", Value: fmt.Sprint(key)},
		},
	})
}
