// Command bench runs a synthetic workload against the sharded cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/fixedlru/cache"
	pmet "github.com/IvanBrykalov/fixedlru/metrics/prom"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(2)
	}
	log := cfg.logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("bench failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// counters are shared by all workers.
type counters struct {
	reads, writes, hits, misses, total atomic.Uint64
}

func run(ctx context.Context, cfg config, log *slog.Logger) error {
	serve := func(name, addr string, h http.Handler) {
		if addr == "" {
			return
		}
		go func() {
			log.Info("serving", slog.String("endpoint", name), slog.String("addr", addr))
			if err := http.ListenAndServe(addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("server stopped", slog.String("endpoint", name), slog.Any("error", err))
			}
		}()
	}

	// pprof lives on DefaultServeMux; metrics get their own mux.
	serve("pprof", cfg.PprofAddr, nil)
	metrics := pmet.New(nil, "fixedlru", "bench", nil)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	serve("metrics", cfg.MetricsAddr, mux)

	c := cache.NewSharded[string, string](cache.Options[string, string]{
		Capacity: cfg.Capacity,
		Shards:   cfg.Shards,
		Metrics:  metrics,
		Logger:   log,
	})
	metrics.SetCapacity(c.Cap())
	log.Info("cache ready",
		slog.Int("capacity", c.Cap()),
		slog.Int("shards", c.Shards()),
		slog.Int("preload", cfg.Preload))

	for i := 0; i < cfg.Preload; i++ {
		c.Set("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i))
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 2 * runtime.GOMAXPROCS(0)
	}

	var n counters
	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	start := time.Now()
	g, gctx := errgroup.WithContext(runCtx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			work(gctx, c, cfg, cfg.Seed+int64(w)*9973, &n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	report(cfg, workers, elapsed, c, &n)
	return nil
}

// work issues Zipf-distributed reads and writes until ctx is done.
// Each worker owns its RNG (rand.Rand is not goroutine-safe).
func work(ctx context.Context, c *cache.Sharded[string, string], cfg config, seed int64, n *counters) {
	r := rand.New(rand.NewSource(seed))
	zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, uint64(cfg.Keys-1))
	key := func() string { return "k:" + strconv.FormatUint(zipf.Uint64(), 10) }

	for ctx.Err() == nil {
		n.total.Add(1)
		if r.Intn(100) < cfg.ReadPct {
			n.reads.Add(1)
			if _, ok := c.Get(key()); ok {
				n.hits.Add(1)
			} else {
				n.misses.Add(1)
			}
			continue
		}
		n.writes.Add(1)
		c.Set(key(), "v"+strconv.Itoa(r.Int()))
	}
}

func report(cfg config, workers int, elapsed time.Duration, c *cache.Sharded[string, string], n *counters) {
	ops := n.total.Load()
	reads := n.reads.Load()
	hits := n.hits.Load()

	hitRate := 0.0
	if reads > 0 {
		hitRate = float64(hits) / float64(reads) * 100
	}
	st := c.Stats()

	fmt.Printf("cap=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		c.Cap(), c.Shards(), workers, cfg.Keys, elapsed.Round(time.Millisecond), cfg.Seed)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), reads, n.writes.Load())
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%  evictions=%d\n",
		hits, n.misses.Load(), hitRate, st.Evictions)
	fmt.Printf("Len()=%d\n", c.Len())
}
