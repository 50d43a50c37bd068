// Package cli handles cmd line input and suggestions for DBG and testing the
// tokenizer against the loaded buckets.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/editor"
	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	tokenStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	mentionStyle = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.AdaptiveColor{Light: "#907aa9", Dark: "#c4a7e7"})
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// InputHandler reads lines of text with an optional cursor marker and shows
// the token at the cursor with its suggestions. ":pick N" commits suggestion
// N as a mention.
type InputHandler struct {
	session      *editor.Session
	receiver     *suggest.IndexReceiver
	marker       string
	limit        int
	requestCount int
}

// NewInputHandler creates a handler showing at most limit suggestions.
func NewInputHandler(source *query.TokenSource, receiver *suggest.IndexReceiver, limit int, marker string) *InputHandler {
	if marker == "" {
		marker = "|"
	}
	return &InputHandler{
		session:  editor.NewSession(source, receiver, suggest.KeywordRank(suggest.BucketOrder()), nil),
		receiver: receiver,
		marker:   marker,
		limit:    limit,
	}
}

// Start begins the interface loop on stdin/stdout.
func (h *InputHandler) Start() error {
	log.Print("MentionServe CLI [BETA]")
	log.Printf("type text, mark the cursor with %q (default: end of line), :pick N to insert (Ctrl+C to exit):", h.marker)
	return h.Run(os.Stdin, os.Stdout)
}

// Run processes lines from r until EOF, writing reports to w.
func (h *InputHandler) Run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprint(w, h.HandleLine(line))
	}
	return scanner.Err()
}

// HandleLine processes one input line and returns the report.
func (h *InputHandler) HandleLine(line string) string {
	h.requestCount++
	if rest, ok := strings.CutPrefix(line, ":pick"); ok {
		return h.pick(strings.TrimSpace(rest))
	}

	text, cursor := ParseLine(line, h.marker)
	start := time.Now()
	h.session.SetText(text, cursor)
	h.receiver.Wait()
	log.Debugf("Took [ %v ] for %q", time.Since(start), text)
	return h.report()
}

func (h *InputHandler) pick(arg string) string {
	n, err := strconv.Atoi(arg)
	list := h.session.Suggestions()
	if err != nil || n < 1 || n > len(list) {
		return fmt.Sprintf("usage: :pick N with N in [1, %d]\n", len(list))
	}
	if err := h.session.InsertMention(list[n-1]); err != nil {
		return fmt.Sprintf("cannot insert: %v\n", err)
	}
	h.receiver.Wait()
	return h.report()
}

// ParseLine removes the first cursor marker from line and returns the text
// and the marker's offset. Without a marker the cursor is at the end.
func ParseLine(line, marker string) (string, int) {
	if i := strings.Index(line, marker); i >= 0 {
		return line[:i] + line[i+len(marker):], i
	}
	return line, len(line)
}

func (h *InputHandler) report() string {
	var b strings.Builder
	text := h.session.Text()
	cursor := h.session.Cursor()
	fmt.Fprintf(&b, "text:  %s\n", h.highlight(text))
	fmt.Fprintf(&b, "caret: %d\n", cursor)

	token, ok := h.session.Token()
	if !ok {
		b.WriteString(dimStyle.Render("no active token") + "\n")
		return b.String()
	}
	kind := "implicit"
	if token.IsExplicit() {
		kind = "explicit"
	}
	fmt.Fprintf(&b, "token: %s (%s, keywords %q)\n", tokenStyle.Render(token.TokenString()), kind, token.Keywords())

	list := h.session.Suggestions()
	if len(list) == 0 {
		b.WriteString(dimStyle.Render("no suggestions") + "\n")
		return b.String()
	}
	if h.limit > 0 && len(list) > h.limit {
		list = list[:h.limit]
	}
	for i, sg := range list {
		weight := ""
		if e, ok := sg.(suggest.Entry); ok {
			weight = utils.FormatWithCommas(e.Weight)
		}
		fmt.Fprintf(&b, "%2d. %s %s\n", i+1, utils.PadRight(sg.PrimaryText(), 32), dimStyle.Render(weight))
	}
	return b.String()
}

// highlight styles the committed mentions in text.
func (h *InputHandler) highlight(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range h.session.Mentions() {
		b.WriteString(text[last:m.Region.Start])
		b.WriteString(mentionStyle.Render(m.Text(text)))
		last = m.Region.End
	}
	b.WriteString(text[last:])
	return b.String()
}
