package metrics

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Stopwatch is used for measuring time spent in an operation.
type Stopwatch interface {
	Stop()
}

type stopwatch struct {
	name      string
	clock     clockwork.Clock
	startTime time.Time
	receiver  Receiver
}

func (sw *stopwatch) Stop() {
	latencyMicros := sw.clock.Now().Sub(sw.startTime) / time.Microsecond
	sw.receiver.AddStat(sw.name+"_us", float64(latencyMicros))
}
