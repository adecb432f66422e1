// Package freq holds the counting structures behind the top-K queries: a
// bounded-memory Counter, a GroupedCounter for "best sub-key within each
// key" over pre-grouped input, and a PairCounter that keeps the full
// two-level counts for parallel reduction.
package freq

import "sort"

// Entry is one (key, count) result pair.
type Entry struct {
	Key   string
	Count int64
}

// Counter counts occurrences per key. With retain > 0, Prune keeps memory
// bounded by evicting keys whose count has fallen below the retain-th
// largest. Keys that tie the boundary count are all kept, so pruning is
// deterministic for a given insertion history.
type Counter struct {
	counts map[string]int64
	retain int
}

// NewCounter builds a Counter that retains at least `retain` keys across
// prunes. retain <= 0 disables pruning entirely.
func NewCounter(retain int) *Counter {
	return &Counter{
		counts: make(map[string]int64),
		retain: retain,
	}
}

func (c *Counter) Incr(key string) {
	c.counts[key]++
}

func (c *Counter) IncrBy(key string, n int64) {
	c.counts[key] += n
}

// Len returns the number of distinct keys currently tracked.
func (c *Counter) Len() int {
	return len(c.counts)
}

// Count returns the current count for key, zero if untracked.
func (c *Counter) Count(key string) int64 {
	return c.counts[key]
}

// Prune evicts low-count keys once the tracked set has grown past twice
// the retain size, and reports the evicted keys. Below that threshold it
// is a no-op.
//
// An evicted key that reappears later restarts from zero; its earlier
// count is gone.
func (c *Counter) Prune() []string {
	if c.retain <= 0 || len(c.counts) <= 2*c.retain {
		return nil
	}

	floor := c.nthLargestCount(c.retain)

	var evicted []string
	for key, count := range c.counts {
		if count < floor {
			delete(c.counts, key)
			evicted = append(evicted, key)
		}
	}
	return evicted
}

// nthLargestCount selects the n-th largest count in O(keys) expected time
// via quickselect.
func (c *Counter) nthLargestCount(n int) int64 {
	counts := make([]int64, 0, len(c.counts))
	for _, count := range c.counts {
		counts = append(counts, count)
	}

	left, right := 0, len(counts)-1
	target := n - 1 // index of the n-th largest in descending order
	for left < right {
		pivot := counts[(left+right)/2]
		i, j := left, right
		for i <= j {
			for counts[i] > pivot {
				i++
			}
			for counts[j] < pivot {
				j--
			}
			if i <= j {
				counts[i], counts[j] = counts[j], counts[i]
				i++
				j--
			}
		}
		if target <= j {
			right = j
		} else if target >= i {
			left = i
		} else {
			break
		}
	}
	return counts[target]
}

// TopN returns up to n entries ordered by count descending, ties broken
// by key ascending. It never mutates the counter, so repeated calls give
// identical results.
func (c *Counter) TopN(n int) []Entry {
	entries := make([]Entry, 0, len(c.counts))
	for key, count := range c.counts {
		entries = append(entries, Entry{Key: key, Count: count})
	}
	sortEntries(entries)

	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Merge adds other's counts into c, creating entries as needed. Merge is
// commutative and associative over the counts, so folding a set of
// counters produces the same totals in any order.
func (c *Counter) Merge(other *Counter) {
	for key, count := range other.counts {
		c.counts[key] += count
	}
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
}
