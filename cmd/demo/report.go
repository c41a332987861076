package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DemoResults summarizes one run of the simulated workload for reporting.
type DemoResults struct {
	Duration   time.Duration
	Workers    int
	Keyspace   int
	TxnsPerRun int
	Stats      demoStats
}

// Reporter renders a DemoResults to a writer in one output format.
type Reporter interface {
	Generate(r *DemoResults) error
}

// newReporter returns the Reporter matching format, writing to w.
func newReporter(format string, w io.Writer) (Reporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &jsonReporter{w: w}, nil
	case "text":
		return &textReporter{w: w}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

type textReporter struct {
	w io.Writer
}

func (r *textReporter) Generate(res *DemoResults) error {
	w := tabwriter.NewWriter(r.w, 0, 0, 3, ' ', 0)
	p := func(format string, a ...any) {
		fmt.Fprintf(w, format+"\n", a...)
	}

	caser := cases.Title(language.English)

	p("binding cache / lock manager / request queue demo")
	p("===================================================")
	p("Duration:\t%s", res.Duration)
	p("Workers:\t%d", res.Workers)
	p("Keyspace:\t%d", res.Keyspace)
	p("")

	p("Metric\tCount")
	p("------\t-----")
	rows := []struct {
		name  string
		value int64
	}{
		{"transactions completed", res.Stats.transactions},
		{"cache hits", res.Stats.cacheHits},
		{"cache misses", res.Stats.cacheMisses},
		{"lock conflicts", res.Stats.lockConflicts},
		{"lock timeouts", res.Stats.lockTimeouts},
		{"deadlocks resolved", res.Stats.deadlocks},
		{"requests submitted", res.Stats.queueSubmitted},
		{"requests failed", res.Stats.queueFailed},
	}
	for _, row := range rows {
		p("%s\t%d", caser.String(row.name), row.value)
	}
	p("")

	if res.Stats.transactions > 0 {
		throughput := float64(res.Stats.transactions) / res.Duration.Seconds()
		p("Throughput:\t%.1f txn/s", throughput)
	}

	return w.Flush()
}

type jsonReporter struct {
	w io.Writer
}

func (r *jsonReporter) Generate(res *DemoResults) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
