// Package watch rewrites class files as they appear in a directory tree.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDefault is the default debounce interval for file events.
const debounceDefault = 200 * time.Millisecond

// maxQueueSize bounds the work queue between the debounce flush and the workers.
const maxQueueSize = 256

// Handler processes one class file.
type Handler func(path string) error

// Options configures a Watcher.
type Options struct {
	Logger   *zap.Logger
	Debounce time.Duration
	Workers  int
}

// Watcher watches a directory tree for new or modified .class files.
type Watcher struct {
	logger   *zap.Logger
	handler  Handler
	root     string
	debounce time.Duration
	workers  int
}

// New creates a watcher for root.
func New(root string, handler Handler, opts Options) *Watcher {
	w := &Watcher{
		logger:   opts.Logger,
		handler:  handler,
		root:     root,
		debounce: opts.Debounce,
		workers:  opts.Workers,
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.debounce <= 0 {
		w.debounce = debounceDefault
	}
	if w.workers < 1 {
		w.workers = 1
	}
	return w
}

// Run watches the tree. Blocks until ctx is cancelled. Files already present are not
// processed; use ScanExisting for those.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := addTree(watcher, w.root); err != nil {
		return err
	}

	// A single timer resets on each event; when it fires, all accumulated paths
	// flush to the work queue.
	var mu sync.Mutex
	ready := make(map[string]bool)

	queue := make(chan string, maxQueueSize)

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range queue {
				w.process(path)
			}
		}()
	}

	flush := func() {
		mu.Lock()
		batch := make([]string, 0, len(ready))
		for p := range ready {
			batch = append(batch, p)
		}
		ready = make(map[string]bool)
		mu.Unlock()

		for _, p := range batch {
			select {
			case queue <- p:
			case <-ctx.Done():
				return
			}
		}
	}

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()

	defer func() {
		debounceTimer.Stop()
		flush()
		close(queue)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounceTimer.C:
			flush()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := addTree(watcher, event.Name); err != nil {
					w.logger.Warn("watch directory", zap.String("path", event.Name), zap.Error(err))
				}
				continue
			}
			if !IsClassFile(event.Name) {
				continue
			}

			mu.Lock()
			ready[event.Name] = true
			mu.Unlock()

			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) process(path string) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("handler panicked", zap.String("path", path), zap.Any("panic", r))
		}
	}()
	if err := w.handler(path); err != nil {
		w.logger.Warn("rewrite failed", zap.String("path", path), zap.Error(err))
	}
}

// ScanExisting runs handler on every .class file under root, in lexical order. It
// returns the first handler error.
func ScanExisting(root string, handler Handler) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsClassFile(path) {
			return nil
		}
		return handler(path)
	})
}

// IsClassFile returns true for .class files, ignoring hidden partial writes.
func IsClassFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".class") && !strings.HasPrefix(name, ".")
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
