package suggest

import (
	"testing"

	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(es ...Entry) []Suggestible {
	out := make([]Suggestible, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

func ids(list []Suggestible) []int {
	out := make([]int, len(list))
	for i, s := range list {
		out[i] = s.SuggestibleID()
	}
	return out
}

func TestAggregatorDropsStaleResults(t *testing.T) {
	current := query.NewExplicitQueryToken("@jo", '@')
	stale := query.NewExplicitQueryToken("@j", '@')

	r1 := NewResult(current, entries(Entry{ID: 1, Text: "John"}, Entry{ID: 2, Text: "Joan"}))
	r2 := NewResult(current, entries(Entry{ID: 10, Text: "Jolt Inc"}))
	r0 := NewResult(stale, entries(Entry{ID: 99, Text: "Jim"}))

	agg := NewAggregator(BucketOrder("people", "company"))
	agg.Begin(current, "people", "company")

	_, ok := agg.Receive("people", r1)
	require.True(t, ok)
	_, ok = agg.Receive("company", r2)
	require.True(t, ok)
	list, ok := agg.Receive("people", r0)
	require.False(t, ok)

	assert.Equal(t, []int{1, 2, 10}, ids(list))
	assert.Equal(t, []int{1, 2, 10}, ids(agg.Suggestions()))
	assert.Len(t, agg.Results(), 2)
	assert.Empty(t, agg.Pending())
}

func TestAggregatorKeepsNewestPerBucket(t *testing.T) {
	token := query.NewQueryToken("john")
	agg := NewAggregator(nil)
	agg.Begin(token)

	agg.Receive("people", NewResult(token, entries(Entry{ID: 1, Text: "John"})))
	list, ok := agg.Receive("people", NewResult(token, entries(Entry{ID: 2, Text: "Johnny"})))
	require.True(t, ok)
	assert.Equal(t, []int{2}, ids(list))
}

func TestAggregatorEqualityIgnoresTrigger(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Begin(query.NewExplicitQueryToken("@ann", '@'))

	_, ok := agg.Receive("people", NewResult(query.NewQueryToken("@ann"), entries(Entry{ID: 3, Text: "Ann"})))
	assert.True(t, ok)
}

func TestAggregatorPendingAndReset(t *testing.T) {
	token := query.NewQueryToken("abcd")
	agg := NewAggregator(nil)
	agg.Begin(token, "b", "a")
	agg.Expect("c")
	assert.Equal(t, []string{"a", "b", "c"}, agg.Pending())

	agg.Receive("b", NewResult(token, nil))
	assert.Equal(t, []string{"a", "c"}, agg.Pending())

	agg.Reset()
	_, active := agg.Current()
	assert.False(t, active)
	assert.Empty(t, agg.Pending())

	_, ok := agg.Receive("a", NewResult(token, nil))
	assert.False(t, ok, "no token is current after Reset")
}

func TestAggregatorUnexpectedBucketAccepted(t *testing.T) {
	token := query.NewQueryToken("abcd")
	agg := NewAggregator(nil)
	agg.Begin(token)

	list, ok := agg.Receive("late", NewResult(token, entries(Entry{ID: 7, Text: "abcdef"})))
	require.True(t, ok)
	assert.Equal(t, []int{7}, ids(list))
}

func TestBucketOrder(t *testing.T) {
	token := query.NewQueryToken("x")
	results := map[string]Result{
		"zeta":    NewResult(token, entries(Entry{ID: 5})),
		"alpha":   NewResult(token, entries(Entry{ID: 4})),
		"company": NewResult(token, entries(Entry{ID: 2})),
		"people":  NewResult(token, entries(Entry{ID: 1})),
	}

	got := BucketOrder("people", "company").Order(results, "")
	assert.Equal(t, []int{1, 2, 4, 5}, ids(got))
}

func TestKeywordRank(t *testing.T) {
	token := query.NewQueryToken("do")
	results := map[string]Result{
		"people": NewResult(token, entries(
			Entry{ID: 1, Text: "Adam"},
			Entry{ID: 2, Text: "John Doe"},
			Entry{ID: 3, Text: "dora"},
			Entry{ID: 4, Text: "Eddo"},
		)),
	}

	got := KeywordRank(nil).Order(results, "do")
	assert.Equal(t, []int{2, 3, 1, 4}, ids(got))

	unranked := KeywordRank(nil).Order(results, "")
	assert.Equal(t, []int{1, 2, 3, 4}, ids(unranked))
}

func TestDedupe(t *testing.T) {
	list := entries(Entry{ID: 1}, Entry{ID: 2}, Entry{ID: 1}, Entry{ID: 3}, Entry{ID: 2})
	assert.Equal(t, []int{1, 2, 3}, ids(Dedupe(list)))

	token := query.NewQueryToken("x")
	results := map[string]Result{
		"a": NewResult(token, entries(Entry{ID: 1})),
		"b": NewResult(token, entries(Entry{ID: 1}, Entry{ID: 2})),
	}
	assert.Equal(t, []int{1, 2}, ids(Deduped(BucketOrder()).Order(results, "")))
}

func TestResultIsImmutable(t *testing.T) {
	src := entries(Entry{ID: 1, Text: "a"})
	r := NewResult(query.NewQueryToken("a"), src)
	src[0] = Entry{ID: 2}

	got := r.Suggestions()
	got[0] = Entry{ID: 3}
	assert.Equal(t, []int{1}, ids(r.Suggestions()))
}
