package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// writerSink renders metrics as plain "name value" lines. The CLI pairs
// it with a LocalSink so a whole pass flushes as one readable block.
type writerSink struct {
	mu      sync.Mutex
	w       io.Writer
	pending []string
}

func NewWriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (sink *writerSink) Handle(metric string, tags Tags, value float64, metricType metricType) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	line := metric
	if len(tags) > 0 {
		line += "{" + FormatTags(tags) + "}"
	}
	sink.pending = append(sink.pending, fmt.Sprintf("%s = %v", line, value))
	return nil
}

func (sink *writerSink) Flush() error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	sort.Strings(sink.pending)
	for _, line := range sink.pending {
		if _, err := io.WriteString(sink.w, line+"\n"); err != nil {
			return err
		}
	}
	sink.pending = nil
	return nil
}

func (sink *writerSink) Close() {
	sink.Flush()
}
