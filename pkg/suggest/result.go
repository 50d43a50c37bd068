package suggest

import "github.com/bastiangx/mentionserve/pkg/query"

// Result is the set of suggestions one bucket produced for a query token.
type Result struct {
	token       query.QueryToken
	suggestions []Suggestible
}

// NewResult copies suggestions so the result cannot change afterwards.
func NewResult(token query.QueryToken, suggestions []Suggestible) Result {
	s := make([]Suggestible, len(suggestions))
	copy(s, suggestions)
	return Result{token: token, suggestions: s}
}

// Token returns the query token that produced the result.
func (r Result) Token() query.QueryToken {
	return r.token
}

// Suggestions returns a copy of the ordered suggestions.
func (r Result) Suggestions() []Suggestible {
	s := make([]Suggestible, len(r.suggestions))
	copy(s, r.suggestions)
	return s
}

// Len returns the number of suggestions.
func (r Result) Len() int {
	return len(r.suggestions)
}
