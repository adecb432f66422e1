package metrics

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestReceiverCounters(t *testing.T) {
	sink := NewMockSink()
	r := NewReceiver(sink)

	r.Incr("records")
	r.Incr("records")
	r.IncrBy("skipped", 3)

	assert.Equal(t, float64(2), sink.Counter("records"))
	assert.Equal(t, float64(3), sink.Counter("skipped"))
}

func TestReceiverScoping(t *testing.T) {
	sink := NewMockSink()
	r := NewReceiver(sink).ScopePrefix("stream")

	r.Incr("records")
	assert.Equal(t, float64(1), sink.Counter("stream.records"))

	scoped := r.Scope("prune", Tags{"query": "mentions"})
	scoped.Incr("evicted")
	assert.Equal(t, float64(1), sink.Counter("stream.prune.evicted"))

	// a second Scope with the same arguments returns the cached receiver
	assert.Equal(t, scoped, r.Scope("prune", Tags{"query": "mentions"}))
}

func TestStopwatch(t *testing.T) {
	sink := NewMockSink()
	clock := clockwork.NewFakeClock()
	r := NewReceiverWithClock(sink, clock)

	sw := r.StartStopwatch("pass")
	clock.Advance(250 * time.Millisecond)
	sw.Stop()

	assert.Equal(t, 1, sink.NumInvocations())
	for formatted := range sink.Invocations {
		assert.Contains(t, formatted, "pass_us")
		assert.Contains(t, formatted, "250000")
	}
}

func TestFormatTagsDeterministic(t *testing.T) {
	tags := Tags{"b": "2", "a": "1", "c": "3"}
	assert.Equal(t, "a:1,b:2,c:3,", FormatTags(tags))

	parsed, err := ParseTags(FormatTags(tags))
	assert.NoError(t, err)
	assert.Equal(t, tags, parsed)
}

func TestParseTagsMalformed(t *testing.T) {
	_, err := ParseTags("nocolon,")
	assert.Error(t, err)
}

func TestLocalSinkFlush(t *testing.T) {
	dst := NewMockSink()
	local := NewLocalSink(dst)

	assert.NoError(t, local.Handle("records", nil, 5, metricTypeCounter))
	assert.NoError(t, local.Handle("records", nil, 2, metricTypeCounter))
	assert.NoError(t, local.Handle("pass_us", nil, 1200, metricTypeStat))
	assert.Error(t, local.Handle("", nil, 1, metricTypeCounter))

	assert.NoError(t, local.Flush())
	assert.Equal(t, 1, dst.NumFlushes())

	found := false
	for formatted := range dst.Invocations {
		if formatted == "records, map[], 7, g\n" {
			found = true
		}
	}
	assert.True(t, found)
}
