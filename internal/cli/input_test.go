package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/bastiangx/mentionserve/pkg/tokenize"
)

func TestParseLine(t *testing.T) {
	testCases := []struct {
		line       string
		marker     string
		wantText   string
		wantCursor int
	}{
		{"Hello @jo|hn", "|", "Hello @john", 9},
		{"Hello @jo", "|", "Hello @jo", 9},
		{"|start", "|", "start", 0},
		{"a^^b", "^^", "ab", 1},
		{"a|b|c", "|", "ab|c", 1},
	}
	for _, tc := range testCases {
		text, cursor := ParseLine(tc.line, tc.marker)
		if text != tc.wantText || cursor != tc.wantCursor {
			t.Errorf("ParseLine(%q) = (%q, %d), want (%q, %d)", tc.line, text, cursor, tc.wantText, tc.wantCursor)
		}
	}
}

func newHandler(t *testing.T) *InputHandler {
	t.Helper()
	tok, err := tokenize.NewWordTokenizer(tokenize.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ix := suggest.NewIndex("people")
	for _, e := range []suggest.Entry{
		{ID: 1, Text: "John Doe", Weight: 1500},
		{ID: 2, Text: "Johanna Smith", Weight: 9},
	} {
		if err := ix.Add(e); err != nil {
			t.Fatal(err)
		}
	}
	r := suggest.NewIndexReceiver(10, 0)
	r.SetIndex(ix)
	return NewInputHandler(query.NewTokenSource(tok), r, 5, "|")
}

func TestHandleLine(t *testing.T) {
	h := newHandler(t)

	out := h.HandleLine("Hello @jo|")
	for _, want := range []string{"@jo", "explicit", `keywords "jo"`, "1. John Doe", "1,500", "2. Johanna Smith"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	out = h.HandleLine("u41")
	if !strings.Contains(out, "no active token") {
		t.Errorf("expected no token for a short bare word:\n%s", out)
	}
}

func TestPick(t *testing.T) {
	h := newHandler(t)
	h.HandleLine("cc @joh")

	out := h.HandleLine(":pick 2")
	if !strings.Contains(out, "caret: 17") || !strings.Contains(out, "no active token") {
		t.Errorf("pick report:\n%s", out)
	}
	if got := h.session.Text(); got != "cc Johanna Smith " {
		t.Errorf("text after pick = %q", got)
	}

	if out := h.HandleLine(":pick 9"); !strings.Contains(out, "usage") {
		t.Errorf("out of range pick should print usage:\n%s", out)
	}
}

func TestRun(t *testing.T) {
	h := newHandler(t)
	var out bytes.Buffer
	if err := h.Run(strings.NewReader("john\n\n@zz\n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "John Doe") || !strings.Contains(out.String(), "no suggestions") {
		t.Errorf("Run output:\n%s", out.String())
	}
}
