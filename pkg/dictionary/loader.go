// Package dictionary loads suggestion buckets from a data directory. Each
// bucket file becomes one suggest.Index named after the file.
package dictionary

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

type tomlBucket struct {
	Entry []suggest.Entry `toml:"entry"`
}

// LoadFile reads one bucket file.
func LoadFile(path string) (string, []suggest.Entry, error) {
	format, err := ValidateFile(path)
	if err != nil {
		return "", nil, err
	}
	bucket := BucketName(path)

	var entries []suggest.Entry
	switch format {
	case FormatTOML:
		entries, err = readTOML(path)
	case FormatMsgpack:
		entries, err = readMsgpack(path)
	case FormatText:
		entries, err = readText(path)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load bucket %s: %w", bucket, err)
	}
	log.Debugf("Loaded %d entries for bucket %s from %s", len(entries), bucket, path)
	return bucket, entries, nil
}

func readTOML(path string) ([]suggest.Entry, error) {
	var b tomlBucket
	meta, err := toml.DecodeFile(path, &b)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Warnf("Ignoring unknown keys in %s: %v", path, undecoded)
	}
	return b.Entry, nil
}

func readMsgpack(path string) ([]suggest.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []suggest.Entry
	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func readText(path string) ([]suggest.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseText(f)
}

// ParseText reads id<TAB>text[<TAB>weight] lines. Blank lines and lines
// starting with # are skipped.
func ParseText(r io.Reader) ([]suggest.Entry, error) {
	var entries []suggest.Entry
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: expected id<TAB>text[<TAB>weight], got %d fields", lineNum, len(fields))
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id: %w", lineNum, err)
		}
		e := suggest.Entry{ID: id, Text: strings.TrimSpace(fields[1])}
		if len(fields) == 3 {
			if e.Weight, err = strconv.Atoi(strings.TrimSpace(fields[2])); err != nil {
				return nil, fmt.Errorf("line %d: invalid weight: %w", lineNum, err)
			}
		}
		if e.Text == "" {
			return nil, fmt.Errorf("line %d: empty text", lineNum)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// BuildIndex indexes entries for bucket. Duplicate IDs are an error.
func BuildIndex(bucket string, entries []suggest.Entry) (*suggest.Index, error) {
	ix := suggest.NewIndex(bucket)
	for _, e := range entries {
		if err := ix.Add(e); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// LoadIndex loads and indexes one bucket file.
func LoadIndex(path string) (*suggest.Index, error) {
	bucket, entries, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return BuildIndex(bucket, entries)
}

// ListBucketFiles returns the bucket files in dir, sorted.
func ListBucketFiles(dir string) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir %s: %w", dir, err)
	}
	var files []string
	for _, de := range des {
		if de.IsDir() || !IsBucketFile(de.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, de.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir loads every bucket file in dir concurrently. Two files naming the
// same bucket is an error.
func LoadDir(ctx context.Context, dir string) (map[string]*suggest.Index, error) {
	files, err := ListBucketFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warnf("No bucket files found in %s", dir)
		return map[string]*suggest.Index{}, nil
	}

	var (
		mu      sync.Mutex
		indexes = make(map[string]*suggest.Index, len(files))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.GOMAXPROCS(0), len(files)))
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ix, err := LoadIndex(path)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if _, dup := indexes[ix.Bucket()]; dup {
				return fmt.Errorf("bucket %s is defined by more than one file", ix.Bucket())
			}
			indexes[ix.Bucket()] = ix
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debugf("Loaded %d buckets from %s", len(indexes), dir)
	return indexes, nil
}

// SaveMsgpack writes entries in the binary bucket format.
func SaveMsgpack(path string, entries []suggest.Entry) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	if err = msgpack.NewEncoder(w).Encode(entries); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	if err = errors.Join(w.Flush(), f.Close()); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
