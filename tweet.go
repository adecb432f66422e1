package trending

import "time"

// Tweet is the decoded record the aggregation engine consumes. The source
// archive carries more fields than this; everything the three queries do
// can be answered from these.
type Tweet struct {
	CreatedAt time.Time
	Username  string
	Text      string
}

// Date returns the tweet's calendar date formatted so that lexicographic
// order matches chronological order.
func (t Tweet) Date() string {
	return t.CreatedAt.Format("2006-01-02")
}

// KeyExtractor pulls zero or more countable keys out of a single tweet.
// An empty result means the tweet contributes nothing to this query; it is
// not an error.
type KeyExtractor func(Tweet) []string

// PairExtractor pulls a (primary, secondary) key pair out of a single
// tweet for grouped queries. ok is false when the tweet has no usable pair.
type PairExtractor func(Tweet) (primary, secondary string, ok bool)
