// Package aggregate runs one pass over a record source and reduces it to
// top-K counts, either record-at-a-time under a memory bound (Streaming)
// or fully materialized with parallel chunk reduction (Batch).
package aggregate

import "runtime"

const (
	defaultRetain        = 100
	defaultPruneInterval = 10000
)

// Config tunes a pass. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	// Retain is the minimum number of keys the streaming trackers keep
	// across prunes (M). Zero or negative disables pruning, which makes
	// the streaming strategy exact but unbounded.
	Retain int `yaml:"retain"`

	// PruneInterval is how many records are processed between prune
	// attempts.
	PruneInterval int `yaml:"prune_interval"`

	// Workers caps batch parallelism. Zero means one less than the
	// available CPUs, minimum one.
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Retain:        defaultRetain,
		PruneInterval: defaultPruneInterval,
	}
}

func (c Config) pruneInterval() int {
	if c.PruneInterval <= 0 {
		return defaultPruneInterval
	}
	return c.PruneInterval
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// Stats describes what one pass saw. Records counts every record pulled
// from the source, usable or not. Skipped counts the subset the source
// or extractor could not make sense of; those never abort a streaming
// pass.
type Stats struct {
	Records int64
	Skipped int64
	Prunes  int64
	Evicted int64
}
