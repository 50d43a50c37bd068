package tokenize

import (
	"testing"
)

func FuzzTokenWindow(f *testing.F) {
	f.Add("Hello @John Doe", 11, 1, 0, 0)
	f.Add("", 0, 1, 0, 0)
	f.Add("@", 1, 2, 0, 1)
	f.Add("x @@abc  def\n@g", 9, 3, 2, 7)
	f.Add("café @résumé", 7, 1, 0, 4)
	f.Add("a.b.c @d.e", 10, 2, 6, 8)
	f.Add("@John hello", 11, 1, 0, 5)
	f.Add("@jo@Mary", 3, 2, 3, 8)

	f.Fuzz(func(t *testing.T, text string, cursor, keywords, regionStart, regionEnd int) {
		cfg := DefaultConfig()
		cfg.MaxKeywords = 1 + abs(keywords)%4
		tok, err := NewWordTokenizer(cfg)
		if err != nil {
			t.Fatalf("NewWordTokenizer: %v", err)
		}
		cursor = abs(cursor) % (len(text) + 1)

		// one committed mention anywhere in the text, empty ones included
		rs := abs(regionStart) % (len(text) + 1)
		re := abs(regionEnd) % (len(text) + 1)
		if rs > re {
			rs, re = re, rs
		}
		spans, err := NewSpans(Region{Start: rs, End: re})
		if err != nil {
			t.Fatalf("NewSpans(%d, %d): %v", rs, re, err)
		}

		// Should not panic.
		start := tok.FindTokenStart(text, spans, cursor)
		end := tok.FindTokenEnd(text, spans, cursor)

		if start < 0 {
			t.Fatalf("FindTokenStart(%q, %d) = %d", text, cursor, start)
		}
		if start > cursor || cursor > end || end > len(text) {
			t.Errorf("window [%d, %d) does not contain cursor %d (len %d, mention [%d, %d))", start, end, cursor, len(text), rs, re)
		}
		_ = tok.IsValidMention(text, start, end)
		_, _ = tok.ExplicitChar(text, spans, cursor)
	})
}

func abs(n int) int {
	if n < 0 {
		// -MinInt overflows; any non-negative value works for the fuzzer
		if n == -n {
			return 0
		}
		return -n
	}
	return n
}
