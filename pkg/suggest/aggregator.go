package suggest

import (
	"sort"

	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/charmbracelet/log"
)

// Aggregator keeps the newest result per bucket for the current query token.
// It does no locking; callers serialise Begin, Expect and Receive.
type Aggregator struct {
	strategy OrderingStrategy
	current  query.QueryToken
	active   bool
	expected map[string]bool
	results  map[string]Result
	ordered  []Suggestible
}

// NewAggregator creates an aggregator. A nil strategy orders buckets
// alphabetically.
func NewAggregator(strategy OrderingStrategy) *Aggregator {
	if strategy == nil {
		strategy = BucketOrder()
	}
	return &Aggregator{
		strategy: strategy,
		expected: make(map[string]bool),
		results:  make(map[string]Result),
	}
}

// Begin makes token current and clears every bucket slot.
func (a *Aggregator) Begin(token query.QueryToken, buckets ...string) {
	a.current = token
	a.active = true
	a.expected = make(map[string]bool, len(buckets))
	a.results = make(map[string]Result)
	a.ordered = nil
	a.Expect(buckets...)
}

// Expect records buckets the receiver said it will answer.
func (a *Aggregator) Expect(buckets ...string) {
	for _, b := range buckets {
		a.expected[b] = true
	}
}

// Receive stores result as the newest for bucket and returns the reordered
// list. Results for any token other than the current one are dropped and ok
// is false.
func (a *Aggregator) Receive(bucket string, result Result) (list []Suggestible, ok bool) {
	if !a.active || !result.Token().Equal(a.current) {
		log.Debugf("Dropping stale result for %q in bucket %s", result.Token().TokenString(), bucket)
		return a.Suggestions(), false
	}
	a.results[bucket] = result
	a.ordered = a.strategy.Order(a.Results(), a.current.Keywords())
	return a.Suggestions(), true
}

// Current returns the current token.
func (a *Aggregator) Current() (query.QueryToken, bool) {
	return a.current, a.active
}

// Pending lists expected buckets that have not answered yet, sorted.
func (a *Aggregator) Pending() []string {
	var pending []string
	for b := range a.expected {
		if _, done := a.results[b]; !done {
			pending = append(pending, b)
		}
	}
	sort.Strings(pending)
	return pending
}

// Results returns a copy of the bucket slots.
func (a *Aggregator) Results() map[string]Result {
	out := make(map[string]Result, len(a.results))
	for b, r := range a.results {
		out[b] = r
	}
	return out
}

// Suggestions returns a copy of the last ordered list.
func (a *Aggregator) Suggestions() []Suggestible {
	out := make([]Suggestible, len(a.ordered))
	copy(out, a.ordered)
	return out
}

// Reset forgets the current token.
func (a *Aggregator) Reset() {
	a.current = query.QueryToken{}
	a.active = false
	a.expected = make(map[string]bool)
	a.results = make(map[string]Result)
	a.ordered = nil
}
