package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixpanel/trending"
	"github.com/mixpanel/trending/freq"
	"github.com/mixpanel/trending/logging"
	"github.com/mixpanel/trending/metrics"
	"github.com/mixpanel/trending/obserr"
)

func tweet(date, user, text string) trending.Tweet {
	created, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return trending.Tweet{CreatedAt: created, Username: user, Text: text}
}

func usernameKey(t trending.Tweet) []string {
	return []string{t.Username}
}

func dateUserPair(t trending.Tweet) (string, string, bool) {
	if t.Username == "" {
		return "", "", false
	}
	return t.Date(), t.Username, true
}

// faultySource yields tweets interleaved with per-record errors, in order.
type faultySource struct {
	steps []faultyStep
	index int
}

type faultyStep struct {
	tweet trending.Tweet
	err   error
}

func (f *faultySource) Next() (trending.Tweet, error) {
	if f.index >= len(f.steps) {
		return trending.Tweet{}, io.EOF
	}
	step := f.steps[f.index]
	f.index++
	return step.tweet, step.err
}

func runStreaming(t *testing.T, agg *Streaming, src trending.Source) {
	require.NoError(t, agg.Run(context.Background(), src))
}

func TestStreamingTopKeys(t *testing.T) {
	src := trending.NewSliceSource([]trending.Tweet{
		tweet("2021-02-12", "amy", ""),
		tweet("2021-02-12", "bob", ""),
		tweet("2021-02-12", "amy", ""),
	})

	agg := NewStreaming(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	runStreaming(t, agg, src)

	top, err := agg.TopKeys(10)
	require.NoError(t, err)
	assert.Equal(t, []freq.Entry{{Key: "amy", Count: 2}, {Key: "bob", Count: 1}}, top)
	assert.Equal(t, int64(3), agg.Stats().Records)
}

func TestStreamingResultsBeforeRun(t *testing.T) {
	agg := NewStreaming(usernameKey, DefaultConfig(), logging.Null, metrics.Null)

	_, err := agg.TopKeys(10)
	assert.Equal(t, ErrNotDone, err)
}

func TestStreamingWrongShape(t *testing.T) {
	agg := NewStreaming(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	runStreaming(t, agg, trending.NewSliceSource(nil))

	_, err := agg.TopGroups(10)
	assert.Equal(t, ErrWrongShape, err)

	grouped := NewStreamingGrouped(dateUserPair, DefaultConfig(), logging.Null, metrics.Null)
	runStreaming(t, grouped, trending.NewSliceSource(nil))

	_, err = grouped.TopKeys(10)
	assert.Equal(t, ErrWrongShape, err)
}

func TestStreamingEmptySource(t *testing.T) {
	agg := NewStreaming(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	runStreaming(t, agg, trending.NewSliceSource(nil))

	top, err := agg.TopKeys(10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestStreamingSkipAndContinue(t *testing.T) {
	bad := obserr.Annotate(trending.ErrBadRecord, "decode").Set("line", 4)
	src := &faultySource{steps: []faultyStep{
		{tweet: tweet("2021-02-12", "amy", "")},
		{err: bad},
		{tweet: tweet("2021-02-12", "amy", "")},
		{err: bad},
		{tweet: tweet("2021-02-12", "bob", "")},
	}}

	sink := metrics.NewMockSink()
	agg := NewStreaming(usernameKey, DefaultConfig(), logging.Null, metrics.NewReceiver(sink))
	runStreaming(t, agg, src)

	top, err := agg.TopKeys(10)
	require.NoError(t, err)
	assert.Equal(t, []freq.Entry{{Key: "amy", Count: 2}, {Key: "bob", Count: 1}}, top)

	// skipped records still count as processed records
	assert.Equal(t, int64(5), agg.Stats().Records)
	assert.Equal(t, int64(2), agg.Stats().Skipped)
	assert.Equal(t, float64(5), sink.Counter("stream.records"))
	assert.Equal(t, float64(2), sink.Counter("stream.skipped"))
}

func TestStreamingPairSkipCountsAsRecord(t *testing.T) {
	src := trending.NewSliceSource([]trending.Tweet{
		tweet("2021-02-12", "user1", ""),
		tweet("2021-02-12", "", ""),
	})

	agg := NewStreamingGrouped(dateUserPair, DefaultConfig(), logging.Null, metrics.Null)
	runStreaming(t, agg, src)

	assert.Equal(t, Stats{Records: 2, Skipped: 1}, agg.Stats())
}

func TestBatchSkipAndContinue(t *testing.T) {
	bad := obserr.Annotate(trending.ErrBadRecord, "decode").Set("line", 2)
	src := &faultySource{steps: []faultyStep{
		{tweet: tweet("2021-02-12", "amy", "")},
		{err: bad},
		{tweet: tweet("2021-02-12", "bob", "")},
	}}

	agg := NewBatch(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	require.NoError(t, agg.Run(context.Background(), src))

	top, err := agg.TopKeys(10)
	require.NoError(t, err)
	assert.Equal(t, []freq.Entry{{Key: "amy", Count: 1}, {Key: "bob", Count: 1}}, top)
	assert.Equal(t, int64(3), agg.Stats().Records)
	assert.Equal(t, int64(1), agg.Stats().Skipped)
}

func TestStreamingFatalSourceError(t *testing.T) {
	boom := obserr.Annotate(trending.ErrBadArchive, "open archive")
	src := &faultySource{steps: []faultyStep{
		{tweet: tweet("2021-02-12", "amy", "")},
		{err: boom},
	}}

	agg := NewStreaming(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	err := agg.Run(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, trending.ErrBadArchive))

	// in-flight state is discarded, no partial result is exposed
	_, err = agg.TopKeys(10)
	assert.Equal(t, ErrNotDone, err)
	assert.Equal(t, Stats{}, agg.Stats())
}

func TestStreamingRunTwice(t *testing.T) {
	agg := NewStreaming(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	runStreaming(t, agg, trending.NewSliceSource(nil))

	assert.Error(t, agg.Run(context.Background(), trending.NewSliceSource(nil)))
}

func TestStreamingCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewStreaming(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	err := agg.Run(ctx, trending.NewSliceSource([]trending.Tweet{
		tweet("2021-02-12", "amy", ""),
	}))
	assert.Equal(t, context.Canceled, err)

	_, err = agg.TopKeys(10)
	assert.Equal(t, ErrNotDone, err)
}

func TestStreamingGroupedNesting(t *testing.T) {
	src := trending.NewSliceSource([]trending.Tweet{
		tweet("2021-02-12", "user1", ""),
		tweet("2021-02-12", "user1", ""),
		tweet("2021-02-12", "user2", ""),
		tweet("2021-02-13", "user3", ""),
	})

	agg := NewStreamingGrouped(dateUserPair, DefaultConfig(), logging.Null, metrics.Null)
	runStreaming(t, agg, src)

	groups, err := agg.TopGroups(2)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, freq.GroupEntry{Key: "2021-02-12", Count: 3, Best: "user1", HasBest: true}, groups[0])
	assert.Equal(t, freq.GroupEntry{Key: "2021-02-13", Count: 1, Best: "user3", HasBest: true}, groups[1])
}

func TestStreamingGroupedSkipsPairlessRecords(t *testing.T) {
	src := trending.NewSliceSource([]trending.Tweet{
		tweet("2021-02-12", "user1", ""),
		tweet("2021-02-12", "", ""),
	})

	agg := NewStreamingGrouped(dateUserPair, DefaultConfig(), logging.Null, metrics.Null)
	runStreaming(t, agg, src)

	groups, err := agg.TopGroups(10)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(1), groups[0].Count)
	assert.Equal(t, int64(1), agg.Stats().Skipped)
}

func TestStreamingPruneTriggers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retain = 5
	cfg.PruneInterval = 10

	var tweets []trending.Tweet
	for i := 0; i < 10; i++ {
		for j := 0; j < 3; j++ {
			tweets = append(tweets, tweet("2021-02-12", fmt.Sprintf("regular-%d", i), ""))
		}
	}
	for j := 0; j < 20; j++ {
		tweets = append(tweets, tweet("2021-02-12", "heavy", ""))
	}
	for i := 0; i < 50; i++ {
		tweets = append(tweets, tweet("2021-02-12", fmt.Sprintf("drive-by-%d", i), ""))
	}

	agg := NewStreaming(usernameKey, cfg, logging.Null, metrics.Null)
	runStreaming(t, agg, trending.NewSliceSource(tweets))

	assert.True(t, agg.Stats().Prunes > 0)
	assert.True(t, agg.Stats().Evicted > 0)

	top, err := agg.TopKeys(1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, freq.Entry{Key: "heavy", Count: 20}, top[0])
}

func TestBatchTopKeys(t *testing.T) {
	src := trending.NewSliceSource([]trending.Tweet{
		tweet("2021-02-12", "amy", ""),
		tweet("2021-02-12", "bob", ""),
		tweet("2021-02-12", "amy", ""),
	})

	cfg := DefaultConfig()
	cfg.Workers = 4
	agg := NewBatch(usernameKey, cfg, logging.Null, metrics.Null)
	require.NoError(t, agg.Run(context.Background(), src))

	top, err := agg.TopKeys(10)
	require.NoError(t, err)
	assert.Equal(t, []freq.Entry{{Key: "amy", Count: 2}, {Key: "bob", Count: 1}}, top)
}

func TestBatchEmptySource(t *testing.T) {
	agg := NewBatch(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	require.NoError(t, agg.Run(context.Background(), trending.NewSliceSource(nil)))

	top, err := agg.TopKeys(10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestBatchFatalSourceError(t *testing.T) {
	boom := errors.New("disk died")
	src := &faultySource{steps: []faultyStep{
		{tweet: tweet("2021-02-12", "amy", "")},
		{err: boom},
	}}

	agg := NewBatch(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	err := agg.Run(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, boom, obserr.Original(err))

	_, err = agg.TopKeys(10)
	assert.Equal(t, ErrNotDone, err)
}

func TestBatchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewBatch(usernameKey, DefaultConfig(), logging.Null, metrics.Null)
	err := agg.Run(ctx, trending.NewSliceSource([]trending.Tweet{
		tweet("2021-02-12", "amy", ""),
	}))
	assert.Equal(t, context.Canceled, err)
}

func TestBatchGroupedRunnerUpAcrossChunks(t *testing.T) {
	// user2 is second in each half of the input but first overall; with
	// enough workers the halves land in different chunks
	var tweets []trending.Tweet
	for i := 0; i < 3; i++ {
		tweets = append(tweets, tweet("2021-02-12", "user1", ""))
	}
	for i := 0; i < 2; i++ {
		tweets = append(tweets, tweet("2021-02-12", "user2", ""))
	}
	for i := 0; i < 3; i++ {
		tweets = append(tweets, tweet("2021-02-12", "user3", ""))
	}
	for i := 0; i < 2; i++ {
		tweets = append(tweets, tweet("2021-02-12", "user2", ""))
	}

	cfg := DefaultConfig()
	cfg.Workers = 2
	agg := NewBatchGrouped(dateUserPair, cfg, logging.Null, metrics.Null)
	require.NoError(t, agg.Run(context.Background(), trending.NewSliceSource(tweets)))

	groups, err := agg.TopGroups(1)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, freq.GroupEntry{Key: "2021-02-12", Count: 10, Best: "user2", HasBest: true}, groups[0])
}

func TestStrategyEquivalenceWithoutPruning(t *testing.T) {
	rng := rand.New(rand.NewSource(4242))

	// contiguous dates: the streaming grouped pass needs pre-grouped input
	var tweets []trending.Tweet
	for day := 0; day < 28; day++ {
		date := fmt.Sprintf("2021-03-%02d", day+1)
		for i := 0; i < 1+rng.Intn(60); i++ {
			tweets = append(tweets, tweet(date, fmt.Sprintf("user-%d", rng.Intn(25)), ""))
		}
	}

	cfg := DefaultConfig()
	cfg.Retain = 0 // pruning never triggers; both strategies are exact
	cfg.Workers = 3

	streaming := NewStreaming(usernameKey, cfg, logging.Null, metrics.Null)
	runStreaming(t, streaming, trending.NewSliceSource(tweets))
	batch := NewBatch(usernameKey, cfg, logging.Null, metrics.Null)
	require.NoError(t, batch.Run(context.Background(), trending.NewSliceSource(tweets)))

	streamTop, err := streaming.TopKeys(25)
	require.NoError(t, err)
	batchTop, err := batch.TopKeys(25)
	require.NoError(t, err)
	assert.Equal(t, streamTop, batchTop)

	groupedStreaming := NewStreamingGrouped(dateUserPair, cfg, logging.Null, metrics.Null)
	runStreaming(t, groupedStreaming, trending.NewSliceSource(tweets))
	groupedBatch := NewBatchGrouped(dateUserPair, cfg, logging.Null, metrics.Null)
	require.NoError(t, groupedBatch.Run(context.Background(), trending.NewSliceSource(tweets)))

	streamGroups, err := groupedStreaming.TopGroups(28)
	require.NoError(t, err)
	batchGroups, err := groupedBatch.TopGroups(28)
	require.NoError(t, err)
	assert.Equal(t, streamGroups, batchGroups)
}

func TestSplitChunks(t *testing.T) {
	assert.Nil(t, splitChunks(0, 4))
	assert.Equal(t, [][2]int{{0, 1}}, splitChunks(1, 4))
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 8}, {8, 10}}, splitChunks(10, 4))

	// every element lands in exactly one chunk
	chunks := splitChunks(1337, 7)
	covered := 0
	prev := 0
	for _, c := range chunks {
		assert.Equal(t, prev, c[0])
		assert.True(t, c[1] > c[0])
		covered += c[1] - c[0]
		prev = c[1]
	}
	assert.Equal(t, 1337, covered)
}
