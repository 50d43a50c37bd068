package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/dictionary"
	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/bastiangx/mentionserve/pkg/tokenize"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for mention suggestions
type Server struct {
	source   *query.TokenSource
	receiver *suggest.IndexReceiver
	strategy suggest.OrderingStrategy
	config   *config.Config
	dataDir  string
	reader   io.Reader
	writer   io.Writer
	logger   *log.Logger
	requests int
}

// NewServer creates a server on stdin/stdout.
func NewServer(source *query.TokenSource, receiver *suggest.IndexReceiver, cfg *config.Config, dataDir string) *Server {
	return &Server{
		source:   source,
		receiver: receiver,
		strategy: suggest.KeywordRank(suggest.BucketOrder()),
		config:   cfg,
		dataDir:  dataDir,
		reader:   os.Stdin,
		writer:   os.Stdout,
		logger:   logger.New("server"),
	}
}

// WithIO replaces stdin/stdout, mainly for tests.
func (s *Server) WithIO(r io.Reader, w io.Writer) *Server {
	s.reader = r
	s.writer = w
	return s
}

// WithStrategy replaces the ordering strategy.
func (s *Server) WithStrategy(strategy suggest.OrderingStrategy) *Server {
	s.strategy = strategy
	return s
}

// Start reads requests until EOF.
func (s *Server) Start() error {
	s.logger.Debug("Starting Server.")
	dec := msgpack.NewDecoder(bufio.NewReader(s.reader))
	enc := msgpack.NewEncoder(s.writer)

	for {
		raw, err := dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logger.Errorf("Reading from stdin: %v", err)
			s.send(enc, ErrorResponse{Error: "malformed msgpack stream", Code: 400})
			return err
		}
		s.send(enc, s.Handle(raw))
	}
}

func (s *Server) send(enc *msgpack.Encoder, response any) {
	if err := enc.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
	}
}

// Handle decodes one message and returns its response.
func (s *Server) Handle(raw []byte) any {
	s.requests++
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		s.logger.Debugf("Unmarshaling request: %v", err)
		return ErrorResponse{Error: "invalid request", Code: 400}
	}

	if env.Action == "" {
		var req MentionRequest
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			return ErrorResponse{ID: env.ID, Error: fmt.Sprintf("invalid mention request: %v", err), Code: 400}
		}
		return s.HandleMention(req)
	}

	var req DictionaryRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		return ErrorResponse{ID: env.ID, Error: fmt.Sprintf("invalid dictionary request: %v", err), Code: 400}
	}
	return s.HandleDictionary(req)
}

// bucketed tags a suggestion with the bucket that produced it.
type bucketed struct {
	suggest.Suggestible
	bucket string
}

// HandleMention tokenizes the request text and gathers suggestions for the
// token at the caret.
func (s *Server) HandleMention(req MentionRequest) any {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	cursor, err := safecast.Conv[int](req.Cursor)
	if err != nil || cursor > len(req.Text) {
		return ErrorResponse{ID: req.ID, Error: fmt.Sprintf("cursor %d is outside the text", req.Cursor), Code: 400}
	}
	spans, err := toSpans(req.Mentions)
	if err != nil {
		return ErrorResponse{ID: req.ID, Error: err.Error(), Code: 400}
	}

	resp := MentionResponse{ID: req.ID, Suggestions: []MentionSuggestion{}}
	tokStart, tokEnd, ok := s.source.CurrentBounds(req.Text, spans, cursor)
	if !ok {
		resp.TimeTaken = time.Since(start).Microseconds()
		return resp
	}
	token, _ := s.source.CurrentToken(req.Text, spans, cursor)

	resp.Active = true
	resp.Token = token.TokenString()
	resp.Keywords = token.Keywords()
	resp.Explicit = token.IsExplicit()
	resp.Start, _ = safecast.Conv[uint32](tokStart)
	resp.End, _ = safecast.Conv[uint32](tokEnd)

	list, pending := s.gather(token)
	if limit := s.limit(req.Limit); len(list) > limit {
		list = list[:limit]
	}
	ranks := utils.CreateRankList(len(list))
	for i, sg := range list {
		item := MentionSuggestion{ID: sg.SuggestibleID(), Text: sg.PrimaryText(), Rank: ranks[i]}
		if b, ok := sg.(bucketed); ok {
			item.Bucket = b.bucket
		}
		resp.Suggestions = append(resp.Suggestions, item)
	}
	resp.Count = len(resp.Suggestions)
	resp.Pending = pending
	resp.TimeTaken = time.Since(start).Microseconds()
	s.logger.Debugf("Request %s: %q -> %d suggestions in %dµs", req.ID, resp.Token, resp.Count, resp.TimeTaken)
	return resp
}

// gather dispatches token to every bucket and waits for the answers until
// the bucket timeout.
func (s *Server) gather(token query.QueryToken) ([]suggest.Suggestible, []string) {
	var mu sync.Mutex
	notify := make(chan struct{}, 1)
	agg := suggest.NewAggregator(s.strategy)
	agg.Begin(token)

	listener := suggest.ResultListenerFunc(func(bucket string, result suggest.Result) {
		tagged := result.Suggestions()
		for i, sg := range tagged {
			tagged[i] = bucketed{Suggestible: sg, bucket: bucket}
		}
		mu.Lock()
		agg.Receive(bucket, suggest.NewResult(result.Token(), tagged))
		mu.Unlock()
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	buckets := s.receiver.OnQueryReceived(token, listener)
	mu.Lock()
	agg.Expect(buckets...)
	mu.Unlock()

	timer := time.NewTimer(time.Duration(s.config.Server.BucketTimeoutMs) * time.Millisecond)
	defer timer.Stop()
wait:
	for {
		mu.Lock()
		remaining := len(agg.Pending())
		mu.Unlock()
		if remaining == 0 {
			break
		}
		select {
		case <-notify:
		case <-timer.C:
			break wait
		}
	}

	mu.Lock()
	defer mu.Unlock()
	pending := agg.Pending()
	if len(pending) > 0 {
		s.logger.Warnf("Buckets %v did not answer %q in time", pending, token.TokenString())
	}
	return agg.Suggestions(), pending
}

func (s *Server) limit(requested int) int {
	if requested < 1 {
		return s.config.Server.DefaultLimit
	}
	return min(requested, s.config.Server.MaxLimit)
}

func toSpans(mentions [][]uint32) (tokenize.Spans, error) {
	regions := make([]tokenize.Region, 0, len(mentions))
	for _, m := range mentions {
		if len(m) != 2 {
			return nil, fmt.Errorf("mention region must have 2 offsets, got %d", len(m))
		}
		start, err := safecast.Conv[int](m[0])
		if err != nil {
			return nil, err
		}
		end, err := safecast.Conv[int](m[1])
		if err != nil {
			return nil, err
		}
		regions = append(regions, tokenize.Region{Start: start, End: end})
	}
	return tokenize.NewSpans(regions...)
}

// HandleDictionary serves bucket management actions.
func (s *Server) HandleDictionary(req DictionaryRequest) any {
	switch req.Action {
	case "get_info":
		return s.dictionaryInfo(req.ID)
	case "reload":
		if err := s.Reload(context.Background()); err != nil {
			return DictionaryResponse{ID: req.ID, Status: "error", Error: err.Error()}
		}
		return s.dictionaryInfo(req.ID)
	default:
		return ErrorResponse{ID: req.ID, Error: fmt.Sprintf("Unknown action: %s", req.Action), Code: 400}
	}
}

func (s *Server) dictionaryInfo(id string) DictionaryResponse {
	resp := DictionaryResponse{ID: id, Status: "ok"}
	for _, name := range s.receiver.Buckets() {
		ix, ok := s.receiver.Index(name)
		if !ok {
			continue
		}
		resp.Buckets = append(resp.Buckets, BucketInfo{Name: name, Entries: ix.Len()})
		resp.Entries += ix.Len()
	}
	return resp
}

// Reload reloads every bucket from the data dir. Buckets whose file is gone
// are dropped.
func (s *Server) Reload(ctx context.Context) error {
	indexes, err := dictionary.LoadDir(ctx, s.dataDir)
	if err != nil {
		return err
	}
	for _, name := range s.receiver.Buckets() {
		if _, ok := indexes[name]; !ok {
			s.receiver.RemoveIndex(name)
		}
	}
	names := make([]string, 0, len(indexes))
	for name := range indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.receiver.SetIndex(indexes[name])
	}
	s.logger.Infof("Reloaded %d buckets from %s", len(indexes), s.dataDir)
	return nil
}

// ApplyBucket installs or removes one bucket. It matches
// dictionary.ReloadFunc so a Watcher can drive it.
func (s *Server) ApplyBucket(bucket string, ix *suggest.Index) {
	if ix == nil {
		s.receiver.RemoveIndex(bucket)
		return
	}
	s.receiver.SetIndex(ix)
}

// Stats returns request and receiver statistics.
func (s *Server) Stats() map[string]int {
	stats := s.receiver.Stats()
	stats["requests"] = s.requests
	return stats
}
