package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"
)

// benchConfig describes one load-test run against the keylock engine.
// Values come from the defaults, then an optional config file's "bench"
// section, then explicitly set CLI flags, each overriding the one
// before. A config file that is missing or malformed is an error.
type benchConfig struct {
	Keys            int           `koanf:"keys"`
	MaxCount        int64         `koanf:"max_count"`
	PoolSize        int           `koanf:"pool_size"`
	PoolInitialFill int           `koanf:"pool_initial_fill"`
	Workers         int           `koanf:"workers"`
	Duration        time.Duration `koanf:"duration"`
	HoldTime        time.Duration `koanf:"hold_time"`
	LockTimeout     time.Duration `koanf:"lock_timeout"`
	MetricsAddr     string        `koanf:"metrics_addr"`
	ProgressEvery   time.Duration `koanf:"progress_every"`
}

func defaultBenchConfig() benchConfig {
	return benchConfig{
		Keys:            16,
		MaxCount:        1,
		PoolSize:        0,
		PoolInitialFill: 0,
		Workers:         8,
		Duration:        5 * time.Second,
		HoldTime:        time.Millisecond,
		LockTimeout:     time.Second,
		ProgressEvery:   time.Second,
	}
}

// loadBenchConfig builds a benchConfig from defaults, an optional config
// file (-config), and CLI flags, in that order of increasing precedence.
// The config file is loaded straight off koanf: the YAML/JSON parser is
// picked from the file extension and the "bench" key is unmarshaled
// into cfg, with no generic config-interface wrapper in between.
func loadBenchConfig(cmd *cli.Command) (benchConfig, error) {
	cfg := defaultBenchConfig()

	if path := cmd.String("config"); path != "" {
		if err := loadBenchConfigFile(path, &cfg); err != nil {
			return benchConfig{}, err
		}
	}

	applyFlagOverrides(cmd, &cfg)

	if err := validateBenchConfig(cfg); err != nil {
		return benchConfig{}, err
	}
	return cfg, nil
}

func loadBenchConfigFile(path string, cfg *benchConfig) error {
	parser, err := configParserFor(path)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := k.UnmarshalWithConf("bench", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("parsing bench config: %w", err)
	}
	return nil
}

func configParserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
}

// applyFlagOverrides copies explicitly-set CLI flags onto cfg. Flags the
// user never touched keep whatever the config file (or the defaults)
// already supplied.
func applyFlagOverrides(cmd *cli.Command, cfg *benchConfig) {
	if cmd.IsSet("keys") {
		cfg.Keys = int(cmd.Int("keys"))
	}
	if cmd.IsSet("max-count") {
		cfg.MaxCount = int64(cmd.Int("max-count"))
	}
	if cmd.IsSet("pool-size") {
		cfg.PoolSize = int(cmd.Int("pool-size"))
	}
	if cmd.IsSet("pool-fill") {
		cfg.PoolInitialFill = int(cmd.Int("pool-fill"))
	}
	if cmd.IsSet("workers") {
		cfg.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("duration") {
		cfg.Duration = cmd.Duration("duration")
	}
	if cmd.IsSet("hold") {
		cfg.HoldTime = cmd.Duration("hold")
	}
	if cmd.IsSet("lock-timeout") {
		cfg.LockTimeout = cmd.Duration("lock-timeout")
	}
	if cmd.IsSet("metrics-addr") {
		cfg.MetricsAddr = cmd.String("metrics-addr")
	}
	if cmd.IsSet("progress-every") {
		cfg.ProgressEvery = cmd.Duration("progress-every")
	}
}

func validateBenchConfig(cfg benchConfig) error {
	if cfg.Keys < 1 {
		return fmt.Errorf("keys must be >= 1, got %d", cfg.Keys)
	}
	if cfg.MaxCount < 1 {
		return fmt.Errorf("max-count must be >= 1, got %d", cfg.MaxCount)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", cfg.Workers)
	}
	if cfg.PoolInitialFill < 0 || cfg.PoolInitialFill > cfg.PoolSize {
		return fmt.Errorf("pool-fill must be in [0, pool-size], got %d/%d", cfg.PoolInitialFill, cfg.PoolSize)
	}
	if cfg.ProgressEvery < 0 {
		return fmt.Errorf("progress-every must be >= 0, got %s", cfg.ProgressEvery)
	}
	return nil
}
