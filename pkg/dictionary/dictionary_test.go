package dictionary

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleTOML = `
[[entry]]
id = 1
text = "John Doe"
weight = 5

[[entry]]
id = 2
text = "Johanna Smith"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDetectFormat(t *testing.T) {
	testCases := []struct {
		name string
		want FileFormat
	}{
		{"people.toml", FormatTOML},
		{"people.MSGPACK", FormatMsgpack},
		{"tags.txt", FormatText},
		{"tags.tsv", FormatText},
	}
	for _, tc := range testCases {
		got, err := DetectFormat(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}

	_, err := DetectFormat("people.json")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.False(t, IsBucketFile(".people.toml"))
	assert.Equal(t, "people", BucketName("/data/people.toml"))
}

func TestLoadFileFormats(t *testing.T) {
	dir := t.TempDir()
	tomlPath := writeFile(t, dir, "people.toml", peopleTOML)
	txtPath := writeFile(t, dir, "tags.txt", "# tags\n10\tgolang\t3\n\n11\tgopher\n")
	mpPath := filepath.Join(dir, "company.msgpack")
	require.NoError(t, SaveMsgpack(mpPath, []suggest.Entry{{ID: 7, Text: "Jolt Inc", Weight: 2}}))

	bucket, entries, err := LoadFile(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "people", bucket)
	assert.Equal(t, []suggest.Entry{{ID: 1, Text: "John Doe", Weight: 5}, {ID: 2, Text: "Johanna Smith"}}, entries)

	bucket, entries, err = LoadFile(txtPath)
	require.NoError(t, err)
	assert.Equal(t, "tags", bucket)
	assert.Equal(t, []suggest.Entry{{ID: 10, Text: "golang", Weight: 3}, {ID: 11, Text: "gopher"}}, entries)

	bucket, entries, err = LoadFile(mpPath)
	require.NoError(t, err)
	assert.Equal(t, "company", bucket)
	assert.Equal(t, []suggest.Entry{{ID: 7, Text: "Jolt Inc", Weight: 2}}, entries)

	_, err = os.Stat(mpPath + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestParseTextErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"missing text", "1\n", "line 1"},
		{"bad id", "x\tJohn\n", "invalid id"},
		{"bad weight", "1\tJohn\theavy\n", "invalid weight"},
		{"empty text", "# c\n1\t \n", "line 2: empty text"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseText(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "people.toml", peopleTOML)
	writeFile(t, dir, "tags.txt", "10\tgolang\n")
	writeFile(t, dir, "notes.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.toml"), 0755))

	indexes, err := LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, indexes, 2)
	assert.Equal(t, 2, indexes["people"].Len())
	assert.Equal(t, 1, indexes["tags"].Len())

	hits := indexes["people"].Search("doe", 0)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].ID)
}

func TestLoadDirRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "people.toml", peopleTOML)
	writeFile(t, dir, "people.txt", "1\tJohn\n")

	_, err := LoadDir(context.Background(), dir)
	assert.ErrorContains(t, err, "more than one file")

	dir = t.TempDir()
	writeFile(t, dir, "people.txt", "1\tJohn\n1\tJane\n")
	_, err = LoadDir(context.Background(), dir)
	assert.ErrorIs(t, err, suggest.ErrDuplicateID)
}

func TestLoadDirEmptyAndMissing(t *testing.T) {
	indexes, err := LoadDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, indexes)

	_, err = LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestWatcherReloadsBucket(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tags.txt", "10\tgolang\n")

	var mu sync.Mutex
	reloaded := make(map[string]*suggest.Index)
	removed := make(map[string]bool)
	w, err := NewWatcher(dir, 20*time.Millisecond, func(bucket string, ix *suggest.Index) {
		mu.Lock()
		defer mu.Unlock()
		if ix == nil {
			removed[bucket] = true
			return
		}
		reloaded[bucket] = ix
	})
	require.NoError(t, err)
	w.Start()
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("10\tgolang\n11\tgopher\n"), 0644))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		ix, ok := reloaded["tags"]
		return ok && ix.Len() == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return removed["tags"]
	}, 2*time.Second, 10*time.Millisecond)
}
