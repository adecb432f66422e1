package freq

// GroupEntry is one result row of a grouped query: a primary key, its
// total count, and the best secondary key observed within it. HasBest is
// false when the winner was lost to pruning before the group closed;
// callers surface that case instead of dropping the row.
type GroupEntry struct {
	Key     string
	Count   int64
	Best    string
	HasBest bool
}

// GroupedCounter answers "top primary keys, and the best secondary key
// within each" over input that arrives already grouped by primary key
// (for the date queries, chronological order). Only one group is open at
// a time, so secondary counting needs memory proportional to the largest
// group rather than to the whole stream.
type GroupedCounter struct {
	primary *Counter
	winners map[string]string

	openKey string
	open    *Counter
	hasOpen bool
}

// NewGroupedCounter builds a GroupedCounter retaining at least `retain`
// primary keys across prunes. retain <= 0 disables pruning.
func NewGroupedCounter(retain int) *GroupedCounter {
	return &GroupedCounter{
		primary: NewCounter(retain),
		winners: make(map[string]string),
		open:    NewCounter(0),
	}
}

// Observe records one (primary, secondary) observation. Seeing a new
// primary key closes the previous group first; the input ordering
// precondition guarantees a closed group never reopens.
func (g *GroupedCounter) Observe(primaryKey, secondaryKey string) {
	if !g.hasOpen || primaryKey != g.openKey {
		g.closeOpenGroup()
		g.openKey = primaryKey
		g.hasOpen = true
	}

	g.primary.Incr(primaryKey)
	g.open.Incr(secondaryKey)
}

func (g *GroupedCounter) closeOpenGroup() {
	if !g.hasOpen {
		return
	}

	if best := g.open.TopN(1); len(best) > 0 {
		g.winners[g.openKey] = best[0].Key
	}
	g.open = NewCounter(0)
	g.hasOpen = false
}

// Finish closes the still-open last group. Call exactly once, after the
// final Observe.
func (g *GroupedCounter) Finish() {
	g.closeOpenGroup()
}

// Len returns the number of distinct primary keys currently tracked.
func (g *GroupedCounter) Len() int {
	return g.primary.Len()
}

// Prune bounds both the primary counts and the winners map. Winners of
// evicted primaries are dropped too; an evicted primary cannot reappear
// in grouped input, so its winner can never be read again.
func (g *GroupedCounter) Prune() []string {
	evicted := g.primary.Prune()
	for _, key := range evicted {
		delete(g.winners, key)
	}
	return evicted
}

// TopGroups returns up to n primary keys by count (descending, key
// ascending on ties), each with its finalized winner.
func (g *GroupedCounter) TopGroups(n int) []GroupEntry {
	entries := g.primary.TopN(n)

	groups := make([]GroupEntry, 0, len(entries))
	for _, e := range entries {
		best, ok := g.winners[e.Key]
		groups = append(groups, GroupEntry{
			Key:     e.Key,
			Count:   e.Count,
			Best:    best,
			HasBest: ok,
		})
	}
	return groups
}
