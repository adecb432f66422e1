package trending

import "io"

// Source produces a finite, ordered sequence of tweets. Next returns
// io.EOF after the last tweet. A malformed record is reported as an error
// satisfying IsSkippable; aggregators count it and keep going. Any other
// error is fatal to the pass.
//
// Grouped queries additionally require the source to deliver tweets
// ordered by the grouping key (the archive is chronological, so date
// grouping holds). This is a precondition, not something the engine
// verifies.
type Source interface {
	Next() (Tweet, error)
}

type sliceSource struct {
	tweets []Tweet
	index  int
}

// NewSliceSource wraps an in-memory tweet slice as a Source. Used by the
// batch strategy after materializing, and by tests.
func NewSliceSource(tweets []Tweet) Source {
	return &sliceSource{tweets: tweets}
}

func (s *sliceSource) Next() (Tweet, error) {
	if s.index >= len(s.tweets) {
		return Tweet{}, io.EOF
	}
	t := s.tweets[s.index]
	s.index++
	return t, nil
}
