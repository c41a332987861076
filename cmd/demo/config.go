package main

import (
	"errors"
	"flag"
	"time"
)

// Config holds the demo's command-line configuration.
type Config struct {
	// ListenAddr is where the embedded request queue listener binds.
	ListenAddr string

	// MetricsAddr is where the Prometheus /metrics endpoint is served.
	MetricsAddr string

	// Workers is the number of concurrent simulated sessions.
	Workers int

	// TransactionsPerWorker is how many lock/cache/queue round trips each
	// worker runs before exiting.
	TransactionsPerWorker int

	// Keyspace is the number of distinct binding names contended over;
	// smaller values produce more lock conflicts.
	Keyspace int

	// LockTimeout bounds how long a worker waits for a contended lock.
	LockTimeout time.Duration

	// OutputFormat is "text" or "json".
	OutputFormat string
}

func parseConfig() (*Config, error) {
	cfg := &Config{}
	flag.StringVar(&cfg.ListenAddr, "listen", "127.0.0.1:0", "address for the request queue listener")
	flag.StringVar(&cfg.MetricsAddr, "metrics", "127.0.0.1:9090", "address for the Prometheus metrics endpoint")
	flag.IntVar(&cfg.Workers, "workers", 8, "number of concurrent simulated sessions")
	flag.IntVar(&cfg.TransactionsPerWorker, "txns", 200, "transactions run by each worker")
	flag.IntVar(&cfg.Keyspace, "keyspace", 16, "number of distinct binding names contended over")
	flag.DurationVar(&cfg.LockTimeout, "lock-timeout", 2*time.Second, "per-lock wait timeout")
	flag.StringVar(&cfg.OutputFormat, "format", "text", "report output format: text or json")
	flag.Parse()
	return cfg, nil
}

// Validate rejects configuration the demo cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.TransactionsPerWorker < 1 {
		return errors.New("txns must be at least 1")
	}
	if c.Keyspace < 1 {
		return errors.New("keyspace must be at least 1")
	}
	if c.LockTimeout <= 0 {
		return errors.New("lock-timeout must be positive")
	}
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return errors.New("format must be \"text\" or \"json\"")
	}
	return nil
}
