package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/IvanBrykalov/fixedlru/internal/util"
)

// config holds the benchmark settings. Environment variables (optionally
// from a .env file) provide the defaults; command-line flags override them.
type config struct {
	Capacity int `env:"CAPACITY" envDefault:"131072"`
	Shards   int `env:"SHARDS" envDefault:"0"`

	Workers  int           `env:"WORKERS" envDefault:"0"`
	Duration time.Duration `env:"DURATION" envDefault:"10s"`
	ReadPct  int           `env:"READS" envDefault:"80"`

	Keys    int     `env:"KEYS" envDefault:"1000000"`
	ZipfS   float64 `env:"ZIPF_S" envDefault:"1.1"`
	ZipfV   float64 `env:"ZIPF_V" envDefault:"1.0"`
	Seed    int64   `env:"SEED" envDefault:"0"`
	Preload int     `env:"PRELOAD" envDefault:"0"`

	PprofAddr   string `env:"PPROF_ADDR"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":8080"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text"`
}

const envPrefix = "FIXEDLRU_"

func loadConfig(args []string) (config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	var cfg config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.IntVar(&cfg.Capacity, "cap", cfg.Capacity, "cache capacity in entries (power of two)")
	fs.IntVar(&cfg.Shards, "shards", cfg.Shards, "number of shards (0=auto)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of worker goroutines (0=2*GOMAXPROCS)")
	fs.DurationVar(&cfg.Duration, "duration", cfg.Duration, "benchmark duration")
	fs.IntVar(&cfg.ReadPct, "reads", cfg.ReadPct, "read percentage [0..100]")
	fs.IntVar(&cfg.Keys, "keys", cfg.Keys, "keyspace size")
	fs.Float64Var(&cfg.ZipfS, "zipf_s", cfg.ZipfS, "Zipf s > 1 (skew)")
	fs.Float64Var(&cfg.ZipfV, "zipf_v", cfg.ZipfV, "Zipf v >= 1")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0=time based)")
	fs.IntVar(&cfg.Preload, "preload", cfg.Preload, "preload entries (0=cap/2)")
	fs.StringVar(&cfg.PprofAddr, "pprof", cfg.PprofAddr, "serve pprof at addr (e.g. :6060); empty = disabled")
	fs.StringVar(&cfg.MetricsAddr, "http", cfg.MetricsAddr, "serve Prometheus metrics at addr; empty = disabled")
	fs.TextVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log_format", cfg.LogFormat, "log format: text | json")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Preload == 0 {
		cfg.Preload = cfg.Capacity / 2
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch {
	case c.Capacity <= 0 || !util.IsPowerOfTwo(uint64(c.Capacity)):
		return fmt.Errorf("capacity %d is not a positive power of two", c.Capacity)
	case c.ReadPct < 0 || c.ReadPct > 100:
		return fmt.Errorf("reads %d outside [0..100]", c.ReadPct)
	case c.Keys < 1:
		return fmt.Errorf("keys %d must be >= 1", c.Keys)
	case c.ZipfS <= 1 || c.ZipfV < 1:
		return fmt.Errorf("zipf parameters s=%v v=%v need s > 1 and v >= 1", c.ZipfS, c.ZipfV)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("unknown log format %q (use text or json)", c.LogFormat)
	}
	return nil
}

func (c config) logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
