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

// Streaming processes one record at a time and keeps only a bounded
// working set of candidate keys. It is single-owner: one goroutine, one
// pass, no locks. Results are approximate once pruning has triggered; a
// key whose count surges only after it was evicted is lost. With
// Config.Retain <= 0 it degenerates to exact counting.
type Streaming struct {
	cfg Config
	log logging.Logger
	mr  metrics.Receiver

	extract trending.KeyExtractor
	pair    trending.PairExtractor

	state  state
	counts *freq.Counter
	groups *freq.GroupedCounter
	stats  Stats
}

// NewStreaming builds a streaming pass counting the keys ex yields.
func NewStreaming(ex trending.KeyExtractor, cfg Config, log logging.Logger, mr metrics.Receiver) *Streaming {
	return &Streaming{
		cfg:     cfg,
		log:     log.Named("stream"),
		mr:      mr.ScopePrefix("stream"),
		extract: ex,
		counts:  freq.NewCounter(cfg.Retain),
	}
}

// NewStreamingGrouped builds a streaming pass over (primary, secondary)
// pairs. The source must deliver records grouped by primary key.
func NewStreamingGrouped(px trending.PairExtractor, cfg Config, log logging.Logger, mr metrics.Receiver) *Streaming {
	return &Streaming{
		cfg:    cfg,
		log:    log.Named("stream"),
		mr:     mr.ScopePrefix("stream"),
		pair:   px,
		groups: freq.NewGroupedCounter(cfg.Retain),
	}
}

// Run pulls records until the source is exhausted. Skippable records are
// counted and dropped; any other source error aborts the pass. A
// cancelled context also aborts, discarding everything seen so far.
func (s *Streaming) Run(ctx context.Context, src trending.Source) error {
	if s.state != stateIdle {
		return obserr.New("aggregate: streaming pass already ran")
	}
	s.state = stateRunning

	sw := s.mr.StartStopwatch("pass")
	defer sw.Stop()

	interval := s.cfg.pruneInterval()
	for {
		if err := ctx.Err(); err != nil {
			s.discard()
			return err
		}

		tweet, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if trending.IsSkippable(err) {
				s.stats.Records++
				s.mr.Incr("records")
				s.stats.Skipped++
				s.mr.Incr("skipped")
				if s.log.IsDebug() {
					s.log.Debug("skipping record", logging.Fields{}.WithError(err))
				}
				continue
			}
			s.discard()
			s.mr.Incr("failures")
			return obserr.Annotate(err, "streaming pass")
		}

		s.observe(tweet)

		if s.stats.Records%int64(interval) == 0 {
			s.prune()
		}
	}

	s.state = stateDraining
	if s.groups != nil {
		s.groups.Finish()
	}
	s.state = stateDone

	s.log.Info("pass complete", logging.Fields{
		"records": s.stats.Records,
		"skipped": s.stats.Skipped,
		"prunes":  s.stats.Prunes,
		"evicted": s.stats.Evicted,
		"keys":    s.trackedKeys(),
	})
	return nil
}

func (s *Streaming) observe(tweet trending.Tweet) {
	s.stats.Records++
	s.mr.Incr("records")

	if s.pair != nil {
		primary, secondary, ok := s.pair(tweet)
		if !ok {
			s.stats.Skipped++
			s.mr.Incr("skipped")
			return
		}
		s.groups.Observe(primary, secondary)
		return
	}

	// zero extracted keys is a tweet with nothing to count, not an error
	for _, key := range s.extract(tweet) {
		s.counts.Incr(key)
	}
}

func (s *Streaming) prune() {
	var evicted []string
	if s.groups != nil {
		evicted = s.groups.Prune()
	} else {
		evicted = s.counts.Prune()
	}
	if len(evicted) == 0 {
		return
	}

	s.stats.Prunes++
	s.stats.Evicted += int64(len(evicted))
	s.mr.Incr("prunes")
	s.mr.IncrBy("evicted", float64(len(evicted)))
	if s.log.IsDebug() {
		s.log.Debug("pruned working set", logging.Fields{
			"evicted":   len(evicted),
			"remaining": s.trackedKeys(),
		})
	}
}

func (s *Streaming) trackedKeys() int {
	if s.groups != nil {
		return s.groups.Len()
	}
	return s.counts.Len()
}

func (s *Streaming) discard() {
	s.state = stateIdle
	if s.groups != nil {
		s.groups = freq.NewGroupedCounter(s.cfg.Retain)
	} else {
		s.counts = freq.NewCounter(s.cfg.Retain)
	}
	s.stats = Stats{}
}

// TopKeys returns up to n keys by count, count descending and key
// ascending on ties.
func (s *Streaming) TopKeys(n int) ([]freq.Entry, error) {
	if s.state != stateDone {
		return nil, ErrNotDone
	}
	if s.counts == nil {
		return nil, ErrWrongShape
	}
	return s.counts.TopN(n), nil
}

// TopGroups returns up to n primary keys with their best secondary key.
func (s *Streaming) TopGroups(n int) ([]freq.GroupEntry, error) {
	if s.state != stateDone {
		return nil, ErrNotDone
	}
	if s.groups == nil {
		return nil, ErrWrongShape
	}
	return s.groups.TopGroups(n), nil
}

func (s *Streaming) Stats() Stats {
	return s.stats
}
