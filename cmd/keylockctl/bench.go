package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arashi-labs/keylock/pkg/concurrency/keylock"
	"github.com/arashi-labs/keylock/pkg/lifecycle/xrun"
	"github.com/arashi-labs/keylock/pkg/observability/xlog"
	"github.com/arashi-labs/keylock/pkg/observability/xmetrics"
)

// benchStats accumulates worker outcomes across the run. All fields are
// updated with atomic ops since every worker goroutine touches them.
type benchStats struct {
	acquired  atomic.Int64
	timedOut  atomic.Int64
	canceled  atomic.Int64
	otherErrs atomic.Int64
}

func (s *benchStats) snapshot() map[string]int64 {
	return map[string]int64{
		"acquired":     s.acquired.Load(),
		"timed_out":    s.timedOut.Load(),
		"canceled":     s.canceled.Load(),
		"other_errors": s.otherErrs.Load(),
	}
}

// runBench wires a keylock.Locker with an otel observer and structured
// logger, then drives it with cfg.Workers concurrent goroutines for
// cfg.Duration, each repeatedly locking a random key from a pool of
// cfg.Keys, holding it for cfg.HoldTime, then unlocking. Alongside the
// workers it runs two xrun-managed services in the same group: an
// optional debug/metrics HTTP endpoint (xrun.HTTPServer) and a periodic
// progress logger (xrun.Ticker).
func runBench(ctx context.Context, cfg benchConfig, baseLogger xlog.LoggerWithLevel) error {
	runID := uuid.New().String()
	logger := baseLogger.With(slog.String("run_id", runID))

	observer, err := xmetrics.NewOTelObserver(
		xmetrics.WithInstrumentationName("github.com/arashi-labs/keylock/cmd/keylockctl"),
	)
	if err != nil {
		return fmt.Errorf("setting up observer: %w", err)
	}

	locker, err := keylock.New[string](
		keylock.WithMaxCount(int(cfg.MaxCount)),
		keylock.WithPool(cfg.PoolSize, cfg.PoolInitialFill),
		keylock.WithObserver(observer),
		keylock.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("constructing locker: %w", err)
	}
	defer func() {
		if err := locker.Close(); err != nil {
			logger.Warn(ctx, "keylockctl: locker close reported error", xlog.Err(err))
		}
	}()

	logger.Info(ctx, "keylockctl: bench starting",
		xlog.Component("bench"),
		slogInt("keys", cfg.Keys),
		slogInt64("max_count", cfg.MaxCount),
		xlog.PoolSize(cfg.PoolSize),
		slogInt("workers", cfg.Workers),
		xlog.Duration(cfg.Duration),
	)

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	stats := &benchStats{}
	g, gCtx := xrun.NewGroup(runCtx, xrun.WithName("keylockctl-bench"))
	for i := 0; i < cfg.Workers; i++ {
		workerID := i
		g.GoWithName(fmt.Sprintf("worker-%d", workerID), func(ctx context.Context) error {
			runWorker(ctx, locker, cfg, stats, rand.New(rand.NewSource(int64(workerID)+time.Now().UnixNano())))
			return nil
		})
	}
	_ = gCtx

	if cfg.MetricsAddr != "" {
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: statsHandler(locker, stats)}
		g.GoWithName("metrics-server", xrun.HTTPServer(server, 2*time.Second))
		logger.Info(ctx, "keylockctl: metrics endpoint listening",
			xlog.Component("bench"), slog.String("addr", cfg.MetricsAddr))
	}

	if cfg.ProgressEvery > 0 {
		g.GoWithName("progress", xrun.Ticker(cfg.ProgressEvery, false, func(ctx context.Context) error {
			logger.Info(ctx, "keylockctl: bench progress",
				xlog.Component("bench"),
				slogInt64("acquired", stats.acquired.Load()),
				slogInt64("timed_out", stats.timedOut.Load()),
				slogInt64("canceled", stats.canceled.Load()),
				slogInt64("other_errors", stats.otherErrs.Load()),
				slogInt("active_keys", locker.Len()),
			)
			return nil
		}))
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("bench group: %w", err)
	}

	logger.Info(ctx, "keylockctl: bench finished",
		xlog.Component("bench"),
		slogInt64("acquired", stats.acquired.Load()),
		slogInt64("timed_out", stats.timedOut.Load()),
		slogInt64("canceled", stats.canceled.Load()),
		slogInt64("other_errors", stats.otherErrs.Load()),
	)
	fmt.Printf("run %s: acquired=%d timed_out=%d canceled=%d other_errors=%d\n",
		runID, stats.acquired.Load(), stats.timedOut.Load(), stats.canceled.Load(), stats.otherErrs.Load())
	return nil
}

// statsHandler serves a JSON snapshot of the running benchStats plus the
// locker's current active-key count, for the optional debug endpoint.
func statsHandler(locker *keylock.Locker[string], stats *benchStats) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := stats.snapshot()
		snap["active_keys"] = int64(locker.Len())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	})
}

// runWorker loops Lock/hold/Unlock against randomly chosen keys until ctx
// is done (the bench duration elapsed or the process received a signal).
func runWorker(ctx context.Context, locker *keylock.Locker[string], cfg benchConfig, stats *benchStats, rng *rand.Rand) {
	for {
		if ctx.Err() != nil {
			return
		}

		key := fmt.Sprintf("key-%d", rng.Intn(cfg.Keys))

		lockCtx, cancel := context.WithTimeout(ctx, cfg.LockTimeout)
		h, err := locker.Lock(lockCtx, key)
		cancel()
		if err != nil {
			recordLockErr(stats, err)
			continue
		}

		stats.acquired.Add(1)
		select {
		case <-time.After(cfg.HoldTime):
		case <-ctx.Done():
		}
		_ = h.Unlock()
	}
}

func recordLockErr(stats *benchStats, err error) {
	switch {
	case err == context.DeadlineExceeded:
		stats.timedOut.Add(1)
	case err == context.Canceled:
		stats.canceled.Add(1)
	default:
		stats.otherErrs.Add(1)
	}
}
