package query

import (
	"github.com/bastiangx/mentionserve/pkg/tokenize"
	"github.com/charmbracelet/log"
)

// TokenSource asks a Tokenizer for the token under the caret on every text or
// caret change.
type TokenSource struct {
	tokenizer tokenize.Tokenizer
}

// NewTokenSource returns a source backed by tokenizer.
func NewTokenSource(tokenizer tokenize.Tokenizer) *TokenSource {
	return &TokenSource{tokenizer: tokenizer}
}

// Tokenizer returns the underlying tokenizer.
func (s *TokenSource) Tokenizer() tokenize.Tokenizer {
	return s.tokenizer
}

// CurrentBounds returns the window of the valid token under the caret. ok is
// false when there is no active token.
func (s *TokenSource) CurrentBounds(text string, spans tokenize.SpanIndex, cursor int) (start, end int, ok bool) {
	start = s.tokenizer.FindTokenStart(text, spans, cursor)
	end = s.tokenizer.FindTokenEnd(text, spans, cursor)
	if start == tokenize.NoToken || start > end {
		return 0, 0, false
	}
	if !s.tokenizer.IsValidMention(text, start, end) {
		return 0, 0, false
	}
	return start, end, true
}

// CurrentToken returns the query token under the caret. ok is false when there
// is no active token.
func (s *TokenSource) CurrentToken(text string, spans tokenize.SpanIndex, cursor int) (QueryToken, bool) {
	start, end, ok := s.CurrentBounds(text, spans, cursor)
	if !ok {
		return QueryToken{}, false
	}
	tokenString := text[start:end]
	if ch, explicit := s.tokenizer.ExplicitChar(text, spans, end); explicit {
		log.Debugf("explicit token %q (trigger %q)", tokenString, ch)
		return NewExplicitQueryToken(tokenString, ch), true
	}
	log.Debugf("implicit token %q", tokenString)
	return NewQueryToken(tokenString), true
}
