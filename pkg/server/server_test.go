package server

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/bastiangx/mentionserve/pkg/tokenize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.txt"),
		[]byte("1\tJohn Doe\t5\n2\tJohanna Smith\t9\n3\tDora Jones\t1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "company.txt"),
		[]byte("1\tJolt Inc\t3\n"), 0644))

	tok, err := tokenize.NewWordTokenizer(tokenize.DefaultConfig())
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.Server.BucketTimeoutMs = 2000

	srv := NewServer(query.NewTokenSource(tok), suggest.NewIndexReceiver(cfg.Server.MaxLimit, 64), cfg, dir)
	require.NoError(t, srv.Reload(t.Context()))
	return srv, dir
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := msgpack.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestHandleMentionExplicit(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, ok := srv.Handle(encode(t, MentionRequest{ID: "req_1", Text: "Hello @jo", Cursor: 9})).(MentionResponse)
	require.True(t, ok)
	assert.Equal(t, "req_1", resp.ID)
	assert.True(t, resp.Active)
	assert.Equal(t, "@jo", resp.Token)
	assert.Equal(t, "jo", resp.Keywords)
	assert.True(t, resp.Explicit)
	assert.Equal(t, uint32(6), resp.Start)
	assert.Equal(t, uint32(9), resp.End)
	assert.Empty(t, resp.Pending)

	require.Equal(t, 4, resp.Count)
	assert.Equal(t, MentionSuggestion{ID: 1, Text: "Jolt Inc", Bucket: "company", Rank: 1}, resp.Suggestions[0])
	assert.Equal(t, "Johanna Smith", resp.Suggestions[1].Text)
	assert.Equal(t, "people", resp.Suggestions[1].Bucket)
	assert.Equal(t, uint16(4), resp.Suggestions[3].Rank)
}

func TestHandleMentionLimitAndInactive(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := srv.HandleMention(MentionRequest{Text: "@jo", Cursor: 3, Limit: 2}).(MentionResponse)
	assert.NotEmpty(t, resp.ID, "missing IDs are generated")
	assert.Equal(t, 2, resp.Count)

	resp = srv.HandleMention(MentionRequest{ID: "r", Text: "@John hi", Cursor: 8, Mentions: [][]uint32{{0, 5}}}).(MentionResponse)
	assert.False(t, resp.Active)
	assert.Empty(t, resp.Suggestions)

	resp = srv.HandleMention(MentionRequest{ID: "r", Text: "@John dora", Cursor: 10, Mentions: [][]uint32{{0, 5}}}).(MentionResponse)
	require.True(t, resp.Active)
	assert.Equal(t, uint32(6), resp.Start)
	assert.False(t, resp.Explicit)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Dora Jones", resp.Suggestions[0].Text)
}

func TestHandleMentionErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	testCases := []struct {
		name string
		req  MentionRequest
	}{
		{"cursor past end", MentionRequest{ID: "a", Text: "abc", Cursor: 4}},
		{"inverted region", MentionRequest{ID: "b", Text: "abcdef", Cursor: 1, Mentions: [][]uint32{{4, 2}}}},
		{"overlapping regions", MentionRequest{ID: "c", Text: "abcdef", Cursor: 1, Mentions: [][]uint32{{0, 3}, {2, 4}}}},
		{"short region", MentionRequest{ID: "d", Text: "abcdef", Cursor: 1, Mentions: [][]uint32{{1}}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, ok := srv.HandleMention(tc.req).(ErrorResponse)
			require.True(t, ok)
			assert.Equal(t, tc.req.ID, resp.ID)
			assert.Equal(t, 400, resp.Code)
		})
	}

	resp, ok := srv.Handle(encode(t, "not a map")).(ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, 400, resp.Code)

	resp, ok = srv.Handle(encode(t, DictionaryRequest{ID: "x", Action: "explode"})).(ErrorResponse)
	require.True(t, ok)
	assert.Contains(t, resp.Error, "explode")
}

func TestDictionaryActions(t *testing.T) {
	srv, dir := newTestServer(t)

	info := srv.Handle(encode(t, DictionaryRequest{ID: "d1", Action: "get_info"})).(DictionaryResponse)
	assert.Equal(t, "ok", info.Status)
	assert.Equal(t, []BucketInfo{{Name: "company", Entries: 1}, {Name: "people", Entries: 3}}, info.Buckets)
	assert.Equal(t, 4, info.Entries)

	require.NoError(t, os.Remove(filepath.Join(dir, "company.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tags.txt"), []byte("7\tgolang\n"), 0644))
	info = srv.Handle(encode(t, DictionaryRequest{ID: "d2", Action: "reload"})).(DictionaryResponse)
	assert.Equal(t, []BucketInfo{{Name: "people", Entries: 3}, {Name: "tags", Entries: 1}}, info.Buckets)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.txt"), []byte("x\ty\n"), 0644))
	info = srv.HandleDictionary(DictionaryRequest{ID: "d3", Action: "reload"}).(DictionaryResponse)
	assert.Equal(t, "error", info.Status)
	assert.NotEmpty(t, info.Error)
}

func TestApplyBucket(t *testing.T) {
	srv, _ := newTestServer(t)
	ix := suggest.NewIndex("tags")
	require.NoError(t, ix.Add(suggest.Entry{ID: 1, Text: "golang"}))

	srv.ApplyBucket("tags", ix)
	assert.Equal(t, 3, srv.Stats()["buckets"])
	srv.ApplyBucket("tags", nil)
	assert.Equal(t, 2, srv.Stats()["buckets"])
}

func TestStartStream(t *testing.T) {
	srv, _ := newTestServer(t)

	var in bytes.Buffer
	in.Write(encode(t, MentionRequest{ID: "m1", Text: "ping @dor", Cursor: 9}))
	in.Write(encode(t, DictionaryRequest{ID: "d1", Action: "get_info"}))

	var out bytes.Buffer
	require.NoError(t, srv.WithIO(&in, &out).Start())

	dec := msgpack.NewDecoder(&out)
	var mention MentionResponse
	require.NoError(t, dec.Decode(&mention))
	assert.Equal(t, "m1", mention.ID)
	require.Equal(t, 1, mention.Count)
	assert.Equal(t, "Dora Jones", mention.Suggestions[0].Text)

	var info DictionaryResponse
	require.NoError(t, dec.Decode(&info))
	assert.Equal(t, "d1", info.ID)
	assert.Equal(t, 2, srv.Stats()["requests"])
}
