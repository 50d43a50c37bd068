/*
Package tokenize finds the mention token under a caret.

Given a text, a caret offset and the mentions already committed in that text, a
Tokenizer computes the window [start, end) of the word-like unit the caret sits
in and decides whether it is a valid mention query. A query is either explicit,
introduced by a trigger such as '@' that follows a word break:

	Hello @John Doe
	      ^----^        start=6 end=11 (caret after "John", MaxKeywords=1)

or implicit, a bare word with at least MinimumImplicitLength letters or digits.

The search window never crosses a line separator or reaches into a committed
mention, so a resolved mention is never tokenized again:

	[@John] hi
	        ^^          start is fenced at the end of the committed region

All offsets are byte offsets. Characters are classified as ASCII only.
*/
package tokenize

import (
	"strings"

	"github.com/charmbracelet/log"
)

// NoToken is returned by FindTokenStart when an explicit token was expected
// but its trigger could not be located. Callers treat it as "no token".
const NoToken = -1

// Tokenizer locates and validates mention tokens.
type Tokenizer interface {
	// FindTokenStart returns the start of the token the cursor is in, or NoToken.
	FindTokenStart(text string, spans SpanIndex, cursor int) int
	// FindTokenEnd returns the end of the token the cursor is in.
	FindTokenEnd(text string, spans SpanIndex, cursor int) int
	// IsValidMention reports whether text[start:end] is a mention query.
	IsValidMention(text string, start, end int) bool
	// IsExplicit reports whether the cursor is inside an explicit mention.
	IsExplicit(text string, spans SpanIndex, cursor int) bool
	// ExplicitChar returns the trigger of the explicit mention the cursor is in.
	ExplicitChar(text string, spans SpanIndex, cursor int) (byte, bool)
	// TerminateToken returns text with whatever terminator the tokenizer
	// needs appended.
	TerminateToken(text string) string
}

// WordTokenizer is the default Tokenizer. It is safe for concurrent use.
type WordTokenizer struct {
	cfg Config
}

// NewWordTokenizer validates cfg and returns a tokenizer bound to a copy of it.
func NewWordTokenizer(cfg Config) (*WordTokenizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &WordTokenizer{cfg: cfg}, nil
}

// Config returns the tokenizer's configuration.
func (t *WordTokenizer) Config() Config {
	return t.cfg
}

// FindTokenStart implements Tokenizer.
func (t *WordTokenizer) FindTokenStart(text string, spans SpanIndex, cursor int) int {
	cursor = clampCursor(text, cursor)
	start := t.searchStart(text, spans, cursor)
	i := cursor

	if t.IsExplicit(text, spans, cursor) {
		for i--; i >= start; i-- {
			if t.cfg.IsExplicitChar(text[i]) && t.followsWordBreak(text, i) {
				return i
			}
		}
		log.Warnf("explicit trigger not found before cursor %d", cursor)
		return NoToken
	}

	// back to the start of the current word
	for i > start && !t.cfg.IsWordBreakChar(text[i-1]) {
		i--
	}
	for j := 0; j < t.cfg.MaxKeywords-1; j++ {
		if i > start && t.cfg.IsWordBreakChar(text[i-1]) {
			i--
		}
		// words separated by more than one break are never one query
		if i > start && t.cfg.IsWordBreakChar(text[i-1]) {
			break
		}
		for i > start && !t.cfg.IsWordBreakChar(text[i-1]) {
			i--
		}
	}
	for i < cursor && (t.cfg.IsWordBreakChar(text[i]) || t.cfg.IsExplicitChar(text[i])) {
		i++
	}
	return i
}

// FindTokenEnd implements Tokenizer.
func (t *WordTokenizer) FindTokenEnd(text string, spans SpanIndex, cursor int) int {
	cursor = clampCursor(text, cursor)
	end := t.searchEnd(text, spans, cursor)
	i := cursor
	for i < end && !t.cfg.IsWordBreakChar(text[i]) {
		i++
	}
	return i
}

// IsValidMention implements Tokenizer.
func (t *WordTokenizer) IsValidMention(text string, start, end int) bool {
	if start < 0 || end > len(text) || start >= end {
		return false
	}
	token := text[start:end]
	threshold := t.cfg.MinimumImplicitLength
	multipleWords := t.cfg.containsWordBreakChar(token)
	hasExplicit := t.cfg.containsExplicitChar(token)

	switch {
	case !multipleWords && hasExplicit:
		if !t.cfg.IsExplicitChar(token[0]) {
			return false
		}
		if !t.wordBreakBeforeExplicitChar(text, end) {
			return false
		}
		if len(token) == 1 {
			return true
		}
		return IsLetterOrDigit(token[1])
	case !multipleWords:
		return len(token) >= threshold && onlyLettersOrDigits(token, threshold, 0)
	case hasExplicit:
		return len(token) > 1 &&
			t.wordBreakBeforeExplicitChar(text, end) &&
			t.cfg.IsExplicitChar(token[0]) &&
			IsLetterOrDigit(token[1])
	default:
		if len(token) < threshold {
			return false
		}
		return onlyLettersOrDigits(token, threshold, 0) ||
			onlyLettersOrDigits(token, threshold, len(token)-threshold)
	}
}

// IsExplicit implements Tokenizer.
func (t *WordTokenizer) IsExplicit(text string, spans SpanIndex, cursor int) bool {
	_, ok := t.ExplicitChar(text, spans, cursor)
	return ok
}

// ExplicitChar implements Tokenizer. It walks back from the cursor and gives up
// at the first misplaced trigger or after MaxKeywords word breaks.
func (t *WordTokenizer) ExplicitChar(text string, spans SpanIndex, cursor int) (byte, bool) {
	if cursor < 0 || cursor > len(text) {
		return 0, false
	}
	start := t.searchStart(text, spans, cursor)
	breaks := 0
	for i := cursor - 1; i >= start; i-- {
		c := text[i]
		if t.cfg.IsExplicitChar(c) {
			if t.followsWordBreak(text, i) {
				return c, true
			}
			return 0, false
		}
		if t.cfg.IsWordBreakChar(c) {
			breaks++
			if breaks == t.cfg.MaxKeywords {
				return 0, false
			}
		}
	}
	return 0, false
}

// TerminateToken implements Tokenizer. WordTokenizer needs no terminator.
func (t *WordTokenizer) TerminateToken(text string) string {
	return text
}

// searchStart is the nearest of the preceding mention end and the line start.
func (t *WordTokenizer) searchStart(text string, spans SpanIndex, cursor int) int {
	start := 0
	if spans != nil {
		if end, ok := spans.PrecedingEnd(cursor); ok {
			start = end
		}
	}
	if idx := strings.LastIndex(text[:cursor], t.cfg.LineSeparator); idx >= 0 {
		start = max(start, idx+len(t.cfg.LineSeparator))
	}
	return min(start, cursor)
}

// searchEnd is the nearest of the following mention start and the line end.
func (t *WordTokenizer) searchEnd(text string, spans SpanIndex, cursor int) int {
	end := len(text)
	if spans != nil {
		if s, ok := spans.FollowingStart(cursor); ok {
			end = min(end, s)
		}
	}
	if idx := strings.Index(text[cursor:], t.cfg.LineSeparator); idx >= 0 {
		end = min(end, cursor+idx)
	}
	return max(end, cursor)
}

// followsWordBreak reports whether the byte at i starts the text or follows a
// word break.
func (t *WordTokenizer) followsWordBreak(text string, i int) bool {
	return i == 0 || t.cfg.IsWordBreakChar(text[i-1])
}

// wordBreakBeforeExplicitChar checks the trigger nearest before end against the
// full text, since the token may itself start mid-phrase.
func (t *WordTokenizer) wordBreakBeforeExplicitChar(text string, end int) bool {
	for i := end - 1; i >= 0; i-- {
		if t.cfg.IsExplicitChar(text[i]) {
			return t.followsWordBreak(text, i)
		}
	}
	return false
}

func clampCursor(text string, cursor int) int {
	if cursor < 0 || cursor > len(text) {
		return 0
	}
	return cursor
}
