package suggest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
	"golang.org/x/text/cases"
)

// ErrDuplicateID is returned when an entry ID is already in the index.
var ErrDuplicateID = errors.New("duplicate entry id")

// Index is a prefix index over the entries of one bucket. Every word of an
// entry's text is a key, and so is the whole text, so "do" finds "John Doe"
// and "john d" finds it too.
type Index struct {
	bucket    string
	trie      *patricia.Trie
	entries   []Entry
	byID      map[int]int
	maxWeight int
	mu        sync.RWMutex
}

// NewIndex creates an empty index for bucket.
func NewIndex(bucket string) *Index {
	return &Index{
		bucket: bucket,
		trie:   patricia.NewTrie(),
		byID:   make(map[int]int),
	}
}

// Bucket returns the bucket name.
func (ix *Index) Bucket() string {
	return ix.bucket
}

// Add inserts e under each of its keys.
func (ix *Index) Add(e Entry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.byID[e.ID]; exists {
		return fmt.Errorf("%w: %d in bucket %s", ErrDuplicateID, e.ID, ix.bucket)
	}
	pos := len(ix.entries)
	ix.entries = append(ix.entries, e)
	ix.byID[e.ID] = pos
	if e.Weight > ix.maxWeight {
		ix.maxWeight = e.Weight
	}

	for _, key := range indexKeys(e.Text) {
		prefix := patricia.Prefix(key)
		if item := ix.trie.Get(prefix); item != nil {
			ix.trie.Set(prefix, append(item.([]int), pos))
			continue
		}
		ix.trie.Insert(prefix, []int{pos})
	}
	return nil
}

// Get returns the entry with the given ID.
func (ix *Index) Get(id int) (Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	pos, ok := ix.byID[id]
	if !ok {
		return Entry{}, false
	}
	return ix.entries[pos], true
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search returns up to limit entries matching keywords, heaviest first and
// then alphabetically. Empty keywords match every entry. A limit <= 0 means no
// limit.
func (ix *Index) Search(keywords string, limit int) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	key := normalizeKey(keywords)
	var matches []Entry
	if key == "" {
		matches = make([]Entry, len(ix.entries))
		copy(matches, ix.entries)
	} else {
		seen := make(map[int]bool)
		err := ix.trie.VisitSubtree(patricia.Prefix(key), func(_ patricia.Prefix, item patricia.Item) error {
			for _, pos := range item.([]int) {
				if !seen[pos] {
					seen[pos] = true
					matches = append(matches, ix.entries[pos])
				}
			}
			return nil
		})
		if err != nil {
			log.Errorf("Error visiting trie subtree: %v", err)
			return nil
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Weight != matches[j].Weight {
			return matches[i].Weight > matches[j].Weight
		}
		if matches[i].Text != matches[j].Text {
			return matches[i].Text < matches[j].Text
		}
		return matches[i].ID < matches[j].ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Stats returns statistics about the index.
func (ix *Index) Stats() map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return map[string]int{
		"entries":   len(ix.entries),
		"maxWeight": ix.maxWeight,
	}
}

// indexKeys returns the folded full text and each folded word of text.
func indexKeys(text string) []string {
	full := normalizeKey(text)
	if full == "" {
		return nil
	}
	keys := []string{full}
	words := strings.Fields(full)
	if len(words) > 1 {
		keys = append(keys, words...)
	}
	return keys
}

// normalizeKey case-folds s and collapses runs of whitespace. A Caser is not
// safe for concurrent use, so each call gets its own.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}
