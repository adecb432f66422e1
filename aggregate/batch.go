package aggregate

import (
	"context"
	"io"

	"github.com/mixpanel/trending"
	"github.com/mixpanel/trending/freq"
	"github.com/mixpanel/trending/logging"
	"github.com/mixpanel/trending/metrics"
	"github.com/mixpanel/trending/obserr"
)

// Batch materializes the whole record set, reduces contiguous chunks in
// parallel, and folds the chunk results. Chunk reduction never prunes;
// within-chunk counts are exact, and the fold is a plain monoid merge, so
// the result does not depend on worker completion order or on where the
// chunk boundaries fall.
//
// Batch trades resilience for throughput: one failed chunk fails the
// whole pass, where the streaming strategy would have skipped and moved
// on.
type Batch struct {
	cfg Config
	log logging.Logger
	mr  metrics.Receiver

	extract trending.KeyExtractor
	pair    trending.PairExtractor

	state  state
	counts *freq.Counter
	pairs  *freq.PairCounter
	stats  Stats
}

// NewBatch builds a batch pass counting the keys ex yields.
func NewBatch(ex trending.KeyExtractor, cfg Config, log logging.Logger, mr metrics.Receiver) *Batch {
	return &Batch{
		cfg:     cfg,
		log:     log.Named("batch"),
		mr:      mr.ScopePrefix("batch"),
		extract: ex,
	}
}

// NewBatchGrouped builds a batch pass over (primary, secondary) pairs.
// Unlike the streaming equivalent it does not require grouped input: the
// full pair counts are kept until the final collapse.
func NewBatchGrouped(px trending.PairExtractor, cfg Config, log logging.Logger, mr metrics.Receiver) *Batch {
	return &Batch{
		cfg:  cfg,
		log:  log.Named("batch"),
		mr:   mr.ScopePrefix("batch"),
		pair: px,
	}
}

type chunkResult struct {
	counts  *freq.Counter
	pairs   *freq.PairCounter
	skipped int64
	err     error
}

func (b *Batch) Run(ctx context.Context, src trending.Source) error {
	if b.state != stateIdle {
		return obserr.New("aggregate: batch pass already ran")
	}
	b.state = stateRunning

	sw := b.mr.StartStopwatch("pass")
	defer sw.Stop()

	tweets, err := b.materialize(ctx, src)
	if err != nil {
		b.state = stateIdle
		b.stats = Stats{}
		b.mr.Incr("failures")
		return err
	}

	chunks := splitChunks(len(tweets), b.cfg.workers())
	b.mr.SetGauge("chunks", float64(len(chunks)))

	results := make(chan chunkResult, len(chunks))
	for _, bounds := range chunks {
		go func(lo, hi int) {
			results <- b.reduce(ctx, tweets[lo:hi])
		}(bounds[0], bounds[1])
	}

	// join: every chunk reports exactly once; fold in completion order
	folded := chunkResult{counts: freq.NewCounter(0), pairs: freq.NewPairCounter()}
	for range chunks {
		res := <-results
		if res.err != nil && folded.err == nil {
			folded.err = res.err
		}
		if res.err != nil {
			continue
		}
		folded.skipped += res.skipped
		if b.pair != nil {
			folded.pairs.Merge(res.pairs)
		} else {
			folded.counts.Merge(res.counts)
		}
	}

	if folded.err != nil {
		b.state = stateIdle
		b.stats = Stats{}
		return obserr.Annotate(folded.err, "batch pass")
	}

	b.stats.Skipped += folded.skipped
	if b.pair != nil {
		b.pairs = folded.pairs
	} else {
		b.counts = folded.counts
	}
	b.state = stateDone

	b.log.Info("pass complete", logging.Fields{
		"records": b.stats.Records,
		"skipped": b.stats.Skipped,
		"chunks":  len(chunks),
	})
	return nil
}

// materialize drains the source into memory, applying the same per-record
// skip policy the streaming strategy uses at this stage. Source-level
// failures are fatal here as everywhere.
func (b *Batch) materialize(ctx context.Context, src trending.Source) ([]trending.Tweet, error) {
	var tweets []trending.Tweet
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tweet, err := src.Next()
		if err == io.EOF {
			return tweets, nil
		}
		if err != nil {
			if trending.IsSkippable(err) {
				b.stats.Records++
				b.mr.Incr("records")
				b.stats.Skipped++
				b.mr.Incr("skipped")
				continue
			}
			return nil, obserr.Annotate(err, "materializing records")
		}

		b.stats.Records++
		b.mr.Incr("records")
		tweets = append(tweets, tweet)
	}
}

const cancelCheckInterval = 4096

// reduce builds exact counts for one chunk. It owns its tracker outright;
// nothing is shared with the other workers.
func (b *Batch) reduce(ctx context.Context, tweets []trending.Tweet) chunkResult {
	res := chunkResult{}
	if b.pair != nil {
		res.pairs = freq.NewPairCounter()
	} else {
		res.counts = freq.NewCounter(0)
	}

	for i, tweet := range tweets {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				res.err = err
				return res
			}
		}

		if b.pair != nil {
			primary, secondary, ok := b.pair(tweet)
			if !ok {
				res.skipped++
				continue
			}
			res.pairs.Incr(primary, secondary)
			continue
		}

		for _, key := range b.extract(tweet) {
			res.counts.Incr(key)
		}
	}
	return res
}

// splitChunks partitions [0, n) into at most p half-open contiguous
// ranges of nearly equal size.
func splitChunks(n, p int) [][2]int {
	if n == 0 {
		return nil
	}
	if p > n {
		p = n
	}

	chunks := make([][2]int, 0, p)
	size := n / p
	extra := n % p
	lo := 0
	for i := 0; i < p; i++ {
		hi := lo + size
		if i < extra {
			hi++
		}
		chunks = append(chunks, [2]int{lo, hi})
		lo = hi
	}
	return chunks
}

// TopKeys returns up to n keys by count, count descending and key
// ascending on ties.
func (b *Batch) TopKeys(n int) ([]freq.Entry, error) {
	if b.state != stateDone {
		return nil, ErrNotDone
	}
	if b.counts == nil {
		return nil, ErrWrongShape
	}
	return b.counts.TopN(n), nil
}

// TopGroups returns up to n primary keys with their best secondary key.
func (b *Batch) TopGroups(n int) ([]freq.GroupEntry, error) {
	if b.state != stateDone {
		return nil, ErrNotDone
	}
	if b.pairs == nil {
		return nil, ErrWrongShape
	}
	return b.pairs.TopGroups(n), nil
}

func (b *Batch) Stats() Stats {
	return b.stats
}
