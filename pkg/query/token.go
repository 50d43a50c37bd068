// Package query turns the tokenizer's window into the query tokens that are
// dispatched for suggestions.
package query

// QueryToken is the text a user typed for a mention query, plus the trigger
// character when the query is explicit. It is immutable.
//
// Two tokens are equal when their token strings are equal, whatever their
// trigger bookkeeping says. Aggregation relies on this to tell stale results
// from current ones.
type QueryToken struct {
	tokenString  string
	explicitChar byte
	explicit     bool
}

// NewQueryToken returns an implicit token.
func NewQueryToken(tokenString string) QueryToken {
	return QueryToken{tokenString: tokenString}
}

// NewExplicitQueryToken returns a token introduced by the trigger ch.
func NewExplicitQueryToken(tokenString string, ch byte) QueryToken {
	return QueryToken{
		tokenString:  tokenString,
		explicitChar: ch,
		explicit:     true,
	}
}

// TokenString returns the token exactly as typed, trigger included.
func (q QueryToken) TokenString() string {
	return q.tokenString
}

// ExplicitChar returns the trigger character, if any.
func (q QueryToken) ExplicitChar() (byte, bool) {
	return q.explicitChar, q.explicit
}

// IsExplicit reports whether the token was introduced by a trigger.
func (q QueryToken) IsExplicit() bool {
	return q.explicit
}

// Keywords returns the token string without its leading trigger.
func (q QueryToken) Keywords() string {
	if q.explicit && len(q.tokenString) > 0 && q.tokenString[0] == q.explicitChar {
		return q.tokenString[1:]
	}
	return q.tokenString
}

// Equal compares token strings only.
func (q QueryToken) Equal(other QueryToken) bool {
	return q.tokenString == other.tokenString
}

// Key is the hash key for the token, consistent with Equal.
func (q QueryToken) Key() string {
	return q.tokenString
}

func (q QueryToken) String() string {
	return q.tokenString
}
