// keylockctl is a load-testing and inspection client for the keylock
// engine.
//
// Usage:
//
//	keylockctl bench [flags]
//
// Global flags:
//
//	--config       path to a YAML/JSON config file (bench.* section)
//	--log-level    debug|info|warn|error (default: info)
//	--log-format   text|json (default: text)
//
// bench flags:
//
//	--keys           number of distinct keys in the rotation (default: 16)
//	--max-count      permits per key (default: 1)
//	--pool-size      releaser recycle pool capacity (default: 0, disabled)
//	--pool-fill      releaser recycle pool initial fill (default: 0)
//	--workers        concurrent goroutines (default: 8)
//	--duration       how long to run (default: 5s)
//	--hold           time each worker holds a lock before releasing (default: 1ms)
//	--lock-timeout   per-attempt acquire timeout (default: 1s)
//	--metrics-addr   if set, serve a JSON stats snapshot on this address
//	--progress-every interval between progress log lines (default: 1s, 0 disables)
//
// Example:
//
//	keylockctl bench --keys 32 --workers 64 --max-count 2 --duration 10s
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/arashi-labs/keylock/pkg/observability/xlog"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func slogInt(key string, n int) slog.Attr      { return slog.Int(key, n) }
func slogInt64(key string, n int64) slog.Attr  { return slog.Int64(key, n) }

func main() {
	os.Exit(run())
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "keylockctl",
		Usage:   "inspect and load-test the keylock engine",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML/JSON config file (bench.* section)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, or error",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "text or json",
				Value: "text",
			},
		},
		Commands:       []*cli.Command{createBenchCommand()},
		DefaultCommand: "bench",
		Authors: []any{
			"keylock maintainers",
		},
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func createBenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "drive concurrent Lock/Unlock traffic against an in-process Locker",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "keys", Usage: "distinct key cardinality"},
			&cli.IntFlag{Name: "max-count", Usage: "permits per key"},
			&cli.IntFlag{Name: "pool-size", Usage: "releaser recycle pool capacity"},
			&cli.IntFlag{Name: "pool-fill", Usage: "releaser recycle pool initial fill"},
			&cli.IntFlag{Name: "workers", Usage: "concurrent worker goroutines"},
			&cli.DurationFlag{Name: "duration", Usage: "total run duration"},
			&cli.DurationFlag{Name: "hold", Usage: "time each worker holds a lock before releasing"},
			&cli.DurationFlag{Name: "lock-timeout", Usage: "per-attempt acquire timeout"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "if set, serve a JSON stats snapshot on this address"},
			&cli.DurationFlag{Name: "progress-every", Usage: "interval between progress log lines, 0 disables"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, cleanup, err := buildLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			cfg, err := loadBenchConfig(cmd)
			if err != nil {
				return err
			}
			return runBench(ctx, cfg, logger)
		},
	}
}

func buildLogger(cmd *cli.Command) (xlog.LoggerWithLevel, func() error, error) {
	return xlog.New().
		SetLevelString(cmd.String("log-level")).
		SetFormat(cmd.String("log-format")).
		Build()
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "keylockctl: %v\n", err)
		return 1
	}
	return 0
}
