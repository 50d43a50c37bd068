package dictionary

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called after a bucket file changed. ix is nil when the file
// was removed.
type ReloadFunc func(bucket string, ix *suggest.Index)

// Watcher reloads bucket files when they change on disk.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload ReloadFunc
	mu       sync.Mutex
	pending  map[string]time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	done     sync.WaitGroup
}

// NewWatcher watches dir. Events for a file are coalesced until it has been
// quiet for debounce.
func NewWatcher(dir string, debounce time.Duration, onReload ReloadFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dir:      dir,
		watcher:  fw,
		debounce: debounce,
		onReload: onReload,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins processing events in the background.
func (w *Watcher) Start() {
	w.done.Add(2)
	go w.processEvents()
	go w.processPending()
	log.Debugf("Watching %s for bucket changes", w.dir)
}

// Close stops the watcher and waits for its goroutines.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.done.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.done.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !IsBucketFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending[event.Name] = time.Now()
				w.mu.Unlock()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) processPending() {
	defer w.done.Done()
	tick := w.debounce / 2
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			w.mu.Lock()
			var ready []string
			for path, changed := range w.pending {
				if now.Sub(changed) >= w.debounce {
					ready = append(ready, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range ready {
				w.reload(path)
			}
		}
	}
}

func (w *Watcher) reload(path string) {
	bucket := BucketName(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Infof("Bucket %s removed", bucket)
		w.onReload(bucket, nil)
		return
	}
	ix, err := LoadIndex(path)
	if err != nil {
		// Keep serving the previous index until the file is fixed.
		log.Warnf("Failed to reload bucket %s: %v", bucket, err)
		return
	}
	log.Infof("Reloaded bucket %s (%d entries)", bucket, ix.Len())
	w.onReload(bucket, ix)
}
