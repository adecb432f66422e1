package aggregate

import (
	"context"
	"errors"

	"github.com/mixpanel/trending"
	"github.com/mixpanel/trending/freq"
)

var (
	// ErrNotDone is returned when results are read before Run completed.
	ErrNotDone = errors.New("aggregate: pass has not completed")

	// ErrWrongShape is returned when grouped results are read from a
	// plain-key aggregator or vice versa.
	ErrWrongShape = errors.New("aggregate: aggregator has a different result shape")
)

// Aggregator is one pass over a record source. Run must complete without
// error before results can be read; afterwards the Top* methods are
// repeatable and never mutate state.
type Aggregator interface {
	Run(ctx context.Context, src trending.Source) error
	TopKeys(n int) ([]freq.Entry, error)
	TopGroups(n int) ([]freq.GroupEntry, error)
	Stats() Stats
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateDraining
	stateDone
)
