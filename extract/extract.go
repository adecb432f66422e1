// Package extract turns tweets into the keys the three queries count:
// calendar dates, emoji characters, and mentioned usernames.
package extract

import (
	"regexp"

	"github.com/forPelevin/gomoji"

	"github.com/mixpanel/trending"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]+)`)

// Date yields the tweet's calendar date, or nothing when the timestamp
// is missing.
func Date(t trending.Tweet) []string {
	if t.CreatedAt.IsZero() {
		return nil
	}
	return []string{t.Date()}
}

// DateUser yields the (date, username) pair for the grouped date query.
func DateUser(t trending.Tweet) (string, string, bool) {
	if t.CreatedAt.IsZero() || t.Username == "" {
		return "", "", false
	}
	return t.Date(), t.Username, true
}

// Emojis yields one key per emoji occurrence in the tweet text. Repeats
// count every time, so "😂😂" contributes two occurrences of the same
// key.
func Emojis(t trending.Tweet) []string {
	var keys []string
	for _, r := range t.Text {
		s := string(r)
		if gomoji.ContainsEmoji(s) {
			keys = append(keys, s)
		}
	}
	return keys
}

// Mentions yields one key per "@username" occurrence in the tweet text,
// without the leading @.
func Mentions(t trending.Tweet) []string {
	matches := mentionPattern.FindAllStringSubmatch(t.Text, -1)
	if len(matches) == 0 {
		return nil
	}

	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, m[1])
	}
	return keys
}
