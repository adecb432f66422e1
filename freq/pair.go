package freq

// PairCounter keeps full (primary, secondary) counts. The batch strategy
// reduces each chunk into one of these rather than a GroupedCounter:
// collapsing to "best secondary per primary" inside a chunk would lose
// the runner-ups, and a runner-up in every chunk can still be the global
// winner. The collapse happens once, after all chunks are merged.
type PairCounter struct {
	totals    map[string]int64
	secondary map[string]map[string]int64
}

func NewPairCounter() *PairCounter {
	return &PairCounter{
		totals:    make(map[string]int64),
		secondary: make(map[string]map[string]int64),
	}
}

func (p *PairCounter) Incr(primaryKey, secondaryKey string) {
	p.totals[primaryKey]++

	inner, ok := p.secondary[primaryKey]
	if !ok {
		inner = make(map[string]int64)
		p.secondary[primaryKey] = inner
	}
	inner[secondaryKey]++
}

// Len returns the number of distinct primary keys.
func (p *PairCounter) Len() int {
	return len(p.totals)
}

// Merge adds other's counts into p. Like Counter.Merge it is commutative
// and associative, which is what lets chunk results fold in completion
// order.
func (p *PairCounter) Merge(other *PairCounter) {
	for key, count := range other.totals {
		p.totals[key] += count
	}
	for key, counts := range other.secondary {
		inner, ok := p.secondary[key]
		if !ok {
			inner = make(map[string]int64, len(counts))
			p.secondary[key] = inner
		}
		for sec, count := range counts {
			inner[sec] += count
		}
	}
}

// TopGroups collapses to the top n primary keys with their best secondary
// key, using the same ordering rule as Counter.TopN at both levels.
func (p *PairCounter) TopGroups(n int) []GroupEntry {
	entries := make([]Entry, 0, len(p.totals))
	for key, count := range p.totals {
		entries = append(entries, Entry{Key: key, Count: count})
	}
	sortEntries(entries)
	if n < len(entries) {
		entries = entries[:n]
	}

	groups := make([]GroupEntry, 0, len(entries))
	for _, e := range entries {
		best := Entry{}
		hasBest := false
		for sec, count := range p.secondary[e.Key] {
			if !hasBest || count > best.Count || (count == best.Count && sec < best.Key) {
				best = Entry{Key: sec, Count: count}
				hasBest = true
			}
		}
		groups = append(groups, GroupEntry{
			Key:     e.Key,
			Count:   e.Count,
			Best:    best.Key,
			HasBest: hasBest,
		})
	}
	return groups
}
