// Command demo runs a self-contained simulation of concurrent sessions
// contending over a small keyspace: each transaction acquires a lock from
// the lock manager, resolves the name against the binding cache, and
// durably records a fresh binding through the request queue before
// releasing. It exercises cache, lock, and queue together the way a real
// session-handling layer would.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dantel35/reddwarf/cache"
	"github.com/dantel35/reddwarf/lock"
	"github.com/dantel35/reddwarf/logger"
	"github.com/dantel35/reddwarf/queue"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := parseConfig()
	if err != nil {
		log.Printf("configuration error: %v", err)
		return exitFailure
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		return exitFailure
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	reg := prometheus.NewRegistry()
	lg := logger.NewNoOpLogger()

	metricsSrv := startMetricsServer(cfg.MetricsAddr, reg)
	defer func() {
		_ = metricsSrv.Close()
	}()

	bc, err := cache.New(
		cache.WithMetrics(cache.NewPrometheusMetrics(reg)),
		cache.WithLogger(lg),
	)
	if err != nil {
		log.Printf("failed to build binding cache: %v", err)
		return exitFailure
	}

	lm, err := lock.NewManager(
		lock.WithLockTimeout(cfg.LockTimeout),
		lock.WithMetrics(lock.NewPrometheusMetrics(reg)),
		lock.WithLogger(lg),
	)
	if err != nil {
		log.Printf("failed to build lock manager: %v", err)
		return exitFailure
	}

	store := queue.NewMemorySeqnoStore()
	handler := func(ctx context.Context, payload []byte) error {
		return nil // the demo's durability layer always succeeds
	}
	ln, err := queue.NewListener(cfg.ListenAddr, store, handler,
		queue.WithMetrics(queue.NewPrometheusMetrics(reg)),
		queue.WithLogger(lg),
	)
	if err != nil {
		log.Printf("failed to start request queue listener: %v", err)
		return exitFailure
	}
	defer ln.Close()
	go func() {
		if err := ln.Serve(ctx); err != nil {
			log.Printf("listener stopped: %v", err)
		}
	}()

	client, err := queue.NewClient(1, ln.Addr().String())
	if err != nil {
		log.Printf("failed to start request queue client: %v", err)
		return exitFailure
	}
	defer client.Shutdown()

	bs := &bindingStore{
		cache:   bc,
		locks:   lm,
		client:  client,
		stats:   &demoStats{},
		timeout: cfg.LockTimeout,
	}

	log.Printf("running %d workers x %d transactions over a keyspace of %d names",
		cfg.Workers, cfg.TransactionsPerWorker, cfg.Keyspace)

	start := time.Now()
	runWorkers(ctx, bs, cfg.Workers, cfg.TransactionsPerWorker, cfg.Keyspace)
	elapsed := time.Since(start)

	results := &DemoResults{
		Duration:   elapsed,
		Workers:    cfg.Workers,
		Keyspace:   cfg.Keyspace,
		TxnsPerRun: cfg.TransactionsPerWorker,
		Stats:      bs.stats.snapshot(),
	}

	reporter, err := newReporter(cfg.OutputFormat, os.Stdout)
	if err != nil {
		log.Printf("failed to build reporter: %v", err)
		return exitFailure
	}
	if err := reporter.Generate(results); err != nil {
		log.Printf("failed to write report: %v", err)
		return exitFailure
	}

	return exitSuccess
}

// startMetricsServer serves the Prometheus registry at addr and returns
// immediately; its returned server is only used for shutdown.
func startMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server stopped: %v", err)
		}
	}()
	return srv
}
