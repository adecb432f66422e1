package trending

import (
	"errors"

	"github.com/mixpanel/trending/obserr"
)

var (
	// ErrBadRecord marks a single record that cannot be decoded or has no
	// usable fields. Aggregators skip it and continue.
	ErrBadRecord = errors.New("trending: malformed record")

	// ErrBadArchive marks a source that cannot be opened or is structurally
	// invalid. It aborts the whole pass.
	ErrBadArchive = errors.New("trending: invalid archive")
)

// IsSkippable reports whether err is a per-record error that the
// aggregators recover from locally. Everything else coming out of a
// Source (other than io.EOF) is fatal.
func IsSkippable(err error) bool {
	return obserr.Original(err) == ErrBadRecord
}
