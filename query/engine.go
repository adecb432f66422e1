// Package query is what the rest of the system calls: three fixed query
// shapes over a tweet source, each runnable under either execution
// strategy.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/mixpanel/trending"
	"github.com/mixpanel/trending/aggregate"
	"github.com/mixpanel/trending/extract"
	"github.com/mixpanel/trending/freq"
	"github.com/mixpanel/trending/logging"
	"github.com/mixpanel/trending/metrics"
)

// every query surface returns at most this many rows
const resultSize = 10

// Strategy selects how a query executes: record-at-a-time under a memory
// bound, or fully materialized with parallel reduction.
type Strategy int

const (
	Streaming Strategy = iota
	Batch
)

func (s Strategy) String() string {
	switch s {
	case Streaming:
		return "streaming"
	case Batch:
		return "batch"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "streaming":
		return Streaming, nil
	case "batch":
		return Batch, nil
	default:
		return Streaming, fmt.Errorf("query: unknown strategy %q", name)
	}
}

// DateActivity is one row of the date query: a date, how many tweets it
// saw, and its most active user. HasTopUser is false when the streaming
// strategy pruned the user information away before the date's group
// closed.
type DateActivity struct {
	Date       string
	Tweets     int64
	TopUser    string
	HasTopUser bool
}

// Engine wires extractors and aggregators together for the three query
// shapes. One Engine is reusable across queries; each call makes a fresh
// aggregator, so no state crosses invocations.
type Engine struct {
	cfg aggregate.Config
	log logging.Logger
	mr  metrics.Receiver
}

func New(cfg aggregate.Config, log logging.Logger, mr metrics.Receiver) *Engine {
	return &Engine{
		cfg: cfg,
		log: log,
		mr:  mr.ScopePrefix("query"),
	}
}

// TopDates returns the dates with the most tweets, each with its most
// active user. The streaming strategy relies on the archive being in
// chronological order.
func (e *Engine) TopDates(ctx context.Context, src trending.Source, strategy Strategy) ([]DateActivity, error) {
	agg := e.groupedAggregator(extract.DateUser, strategy, "dates")
	if err := agg.Run(ctx, src); err != nil {
		return nil, err
	}

	groups, err := agg.TopGroups(resultSize)
	if err != nil {
		return nil, err
	}

	rows := make([]DateActivity, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, DateActivity{
			Date:       g.Key,
			Tweets:     g.Count,
			TopUser:    g.Best,
			HasTopUser: g.HasBest,
		})
	}
	return rows, nil
}

// TopEmojis returns the most used emoji characters with their counts.
func (e *Engine) TopEmojis(ctx context.Context, src trending.Source, strategy Strategy) ([]freq.Entry, error) {
	return e.runKeys(ctx, src, extract.Emojis, strategy, "emojis")
}

// TopMentions returns the most mentioned usernames with their counts.
func (e *Engine) TopMentions(ctx context.Context, src trending.Source, strategy Strategy) ([]freq.Entry, error) {
	return e.runKeys(ctx, src, extract.Mentions, strategy, "mentions")
}

func (e *Engine) runKeys(ctx context.Context, src trending.Source, ex trending.KeyExtractor, strategy Strategy, name string) ([]freq.Entry, error) {
	agg := e.keyAggregator(ex, strategy, name)
	if err := agg.Run(ctx, src); err != nil {
		return nil, err
	}
	return agg.TopKeys(resultSize)
}

func (e *Engine) keyAggregator(ex trending.KeyExtractor, strategy Strategy, name string) aggregate.Aggregator {
	log, mr := e.scoped(name, strategy)
	if strategy == Batch {
		return aggregate.NewBatch(ex, e.cfg, log, mr)
	}
	return aggregate.NewStreaming(ex, e.cfg, log, mr)
}

func (e *Engine) groupedAggregator(px trending.PairExtractor, strategy Strategy, name string) aggregate.Aggregator {
	log, mr := e.scoped(name, strategy)
	if strategy == Batch {
		return aggregate.NewBatchGrouped(px, e.cfg, log, mr)
	}
	return aggregate.NewStreamingGrouped(px, e.cfg, log, mr)
}

func (e *Engine) scoped(name string, strategy Strategy) (logging.Logger, metrics.Receiver) {
	return e.log.Named(name), e.mr.Scope(name, metrics.Tags{"strategy": strategy.String()})
}
