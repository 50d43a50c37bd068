// Package editor models the host side of mention autocomplete: a text buffer
// with a caret and committed mentions that feeds the tokenizer on every edit
// and collects suggestions for the current token.
package editor

import (
	"errors"
	"sort"
	"sync"

	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/bastiangx/mentionserve/pkg/tokenize"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ErrNoToken is returned by InsertMention when the caret is not on a token.
var ErrNoToken = errors.New("no active mention token")

// Mention is a committed mention and the suggestion it was made from.
type Mention struct {
	Region     tokenize.Region
	Suggestion suggest.Suggestible
}

// Text returns the mention's text within buf.
func (m Mention) Text(buf string) string {
	return buf[m.Region.Start:m.Region.End]
}

// Session is one editable text with its mentions. All methods are safe for
// concurrent use; results from the receiver may arrive on any goroutine.
type Session struct {
	source     *query.TokenSource
	receiver   suggest.Receiver
	agg        *suggest.Aggregator
	visibility VisibilityManager

	mu          sync.Mutex
	text        string
	cursor      int
	mentions    []Mention
	token       query.QueryToken
	hasToken    bool
	dispatchID  string
	suggestions []suggest.Suggestible

	// visible is the wanted list state. It is pushed to visibility outside
	// mu by syncVisibility so hooks may read the session.
	visible  bool
	applying bool
	dirty    bool
}

// NewSession creates an empty session. A nil strategy orders buckets
// alphabetically; a nil visibility gets a plain Visibility.
func NewSession(source *query.TokenSource, receiver suggest.Receiver, strategy suggest.OrderingStrategy, visibility VisibilityManager) *Session {
	if visibility == nil {
		visibility = NewVisibility(nil)
	}
	return &Session{
		source:     source,
		receiver:   receiver,
		agg:        suggest.NewAggregator(strategy),
		visibility: visibility,
	}
}

// SetText replaces the whole text and drops every mention.
func (s *Session) SetText(text string, cursor int) {
	s.mu.Lock()
	s.text = text
	s.cursor = clamp(cursor, len(text))
	s.mentions = nil
	s.mu.Unlock()
	s.refresh()
}

// MoveCursor moves the caret, clamped to the text.
func (s *Session) MoveCursor(pos int) {
	s.mu.Lock()
	s.cursor = clamp(pos, len(s.text))
	s.mu.Unlock()
	s.refresh()
}

// Insert types str at the caret.
func (s *Session) Insert(str string) {
	if str == "" {
		return
	}
	s.mu.Lock()
	at := s.cursor
	s.text = s.text[:at] + str + s.text[at:]
	s.cursor = at + len(str)
	s.editMentions(at, at, len(str))
	s.mu.Unlock()
	s.refresh()
}

// DeleteBackward deletes the byte before the caret. Deleting into a mention
// removes the whole mention.
func (s *Session) DeleteBackward() {
	s.mu.Lock()
	if s.cursor == 0 {
		s.mu.Unlock()
		return
	}
	from, to := s.cursor-1, s.cursor
	for _, m := range s.mentions {
		if m.Region.Start < s.cursor && s.cursor <= m.Region.End {
			from, to = m.Region.Start, m.Region.End
			break
		}
	}
	s.text = s.text[:from] + s.text[to:]
	s.cursor = from
	s.editMentions(from, to, -(to - from))
	s.mu.Unlock()
	s.refresh()
}

// editMentions drops mentions overlapping [from, to), or containing from for
// an insertion, and shifts the ones after the edit by delta.
func (s *Session) editMentions(from, to, delta int) {
	kept := s.mentions[:0]
	for _, m := range s.mentions {
		r := m.Region
		switch {
		case r.End <= from:
		case r.Start >= to:
			m.Region = tokenize.Region{Start: r.Start + delta, End: r.End + delta}
		default:
			log.Debugf("Dropping mention [%d, %d) touched by edit", r.Start, r.End)
			continue
		}
		kept = append(kept, m)
	}
	s.mentions = kept
}

// refresh recomputes the token under the caret and dispatches it when it
// changed.
func (s *Session) refresh() {
	s.mu.Lock()
	token, ok := s.source.CurrentToken(s.text, s.spans(), s.cursor)
	if !ok {
		if s.hasToken {
			log.Debugf("No active token")
		}
		s.clearTokenLocked()
		s.mu.Unlock()
		s.syncVisibility()
		return
	}
	if s.hasToken && token.Equal(s.token) {
		s.mu.Unlock()
		return
	}
	s.token = token
	s.hasToken = true
	s.dispatchID = uuid.NewString()
	s.suggestions = nil
	s.agg.Begin(token)
	s.visible = false
	id := s.dispatchID
	s.mu.Unlock()
	s.syncVisibility()

	if s.receiver == nil {
		return
	}
	// Listener calls take the lock, so dispatch without holding it.
	buckets := s.receiver.OnQueryReceived(token, s)
	log.Debugf("Dispatch %s: %q to buckets %v", id, token.TokenString(), buckets)

	s.mu.Lock()
	if s.hasToken && s.dispatchID == id {
		s.agg.Expect(buckets...)
	}
	s.mu.Unlock()
}

func (s *Session) clearTokenLocked() {
	s.token = query.QueryToken{}
	s.hasToken = false
	s.dispatchID = ""
	s.suggestions = nil
	s.agg.Reset()
	s.visible = false
}

// syncVisibility pushes the wanted list state to the VisibilityManager. Calls
// made while another goroutine (or the hook itself) is applying are folded
// into that goroutine's loop, which always applies the latest state.
func (s *Session) syncVisibility() {
	for {
		s.mu.Lock()
		if s.applying {
			s.dirty = true
			s.mu.Unlock()
			return
		}
		s.applying = true
		s.dirty = false
		visible := s.visible
		s.mu.Unlock()

		s.visibility.SetSuggestionsVisible(visible)

		s.mu.Lock()
		s.applying = false
		again := s.dirty
		s.mu.Unlock()
		if !again {
			return
		}
	}
}

// OnReceiveSuggestionsResult implements suggest.ResultListener.
func (s *Session) OnReceiveSuggestionsResult(bucket string, result suggest.Result) {
	s.mu.Lock()
	list, ok := s.agg.Receive(bucket, result)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.suggestions = list
	s.visible = len(list) > 0
	s.mu.Unlock()
	s.syncVisibility()
}

// InsertMention replaces the current token with the suggestion's primary text
// and commits it as a mention. A space follows the mention unless one is
// already there.
func (s *Session) InsertMention(sg suggest.Suggestible) error {
	s.mu.Lock()
	start, end, ok := s.source.CurrentBounds(s.text, s.spans(), s.cursor)
	if !ok {
		s.mu.Unlock()
		return ErrNoToken
	}
	text := sg.PrimaryText()
	s.text = s.text[:start] + text + s.text[end:]
	s.editMentions(start, end, len(text)-(end-start))

	region := tokenize.Region{Start: start, End: start + len(text)}
	s.mentions = append(s.mentions, Mention{Region: region, Suggestion: sg})
	sort.Slice(s.mentions, func(i, j int) bool {
		return s.mentions[i].Region.Start < s.mentions[j].Region.Start
	})

	s.cursor = region.End
	if s.cursor == len(s.text) || s.text[s.cursor] != ' ' {
		s.text = s.text[:s.cursor] + " " + s.text[s.cursor:]
		s.editMentions(s.cursor, s.cursor, 1)
	}
	s.cursor++
	s.clearTokenLocked()
	s.mu.Unlock()

	log.Debugf("Committed mention %q at [%d, %d)", text, region.Start, region.End)
	s.refresh()
	return nil
}

// Text returns the current text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Cursor returns the caret offset.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Mentions returns the committed mentions in text order.
func (s *Session) Mentions() []Mention {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Mention, len(s.mentions))
	copy(out, s.mentions)
	return out
}

// Spans returns the committed mention regions.
func (s *Session) Spans() tokenize.Spans {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spans()
}

func (s *Session) spans() tokenize.Spans {
	spans := make(tokenize.Spans, len(s.mentions))
	for i, m := range s.mentions {
		spans[i] = m.Region
	}
	return spans
}

// Token returns the active query token.
func (s *Session) Token() (query.QueryToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.hasToken
}

// Suggestions returns the ordered suggestions for the active token.
func (s *Session) Suggestions() []suggest.Suggestible {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]suggest.Suggestible, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

// Pending lists buckets that have not answered for the active token.
func (s *Session) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Pending()
}

func clamp(pos, n int) int {
	if pos < 0 || pos > n {
		return n
	}
	return pos
}
