/*
Package suggest collects and orders mention suggestions.

A Receiver answers a query token for one or more named buckets ("people",
"companies") and delivers one Result per bucket later, in any order and on any
goroutine. The Aggregator keeps the newest Result per bucket for the current
token, drops results for superseded tokens, and runs an OrderingStrategy over
the buckets to produce the final list:

	agg := suggest.NewAggregator(suggest.KeywordRank(suggest.BucketOrder("people", "companies")))
	agg.Begin(token)
	agg.Expect(receiver.OnQueryReceived(token, listener)...)

	// later, serialised by the host
	list, ok := agg.Receive(bucket, result)

IndexReceiver is the bundled Receiver: one patricia trie Index per bucket with
an LRU ResultCache in front of it.
*/
package suggest

import "github.com/bastiangx/mentionserve/pkg/query"

// Suggestible is anything that can be offered as a mention.
type Suggestible interface {
	// SuggestibleID identifies the suggestion for de-duplication.
	SuggestibleID() int
	// PrimaryText is the display string, also inserted as the mention text.
	PrimaryText() string
}

// Receiver answers query tokens.
type Receiver interface {
	// OnQueryReceived returns the buckets the receiver will answer for token
	// and later calls listener once per bucket.
	OnQueryReceived(token query.QueryToken, listener ResultListener) []string
}

// ResultListener is notified of results as they arrive.
type ResultListener interface {
	OnReceiveSuggestionsResult(bucket string, result Result)
}

// ResultListenerFunc adapts a function to ResultListener.
type ResultListenerFunc func(bucket string, result Result)

// OnReceiveSuggestionsResult implements ResultListener.
func (f ResultListenerFunc) OnReceiveSuggestionsResult(bucket string, result Result) {
	f(bucket, result)
}
