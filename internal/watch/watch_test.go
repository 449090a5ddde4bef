package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recorder collects handled paths.
type recorder struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recorder) handle(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return r.err
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// writeAtomic writes through a temporary name that the watcher ignores.
func writeAtomic(t *testing.T, path string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte{0xca, 0xfe, 0xba, 0xbe}, 0o600))
	require.NoError(t, os.Rename(tmp, path))
}

func start(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	// Give watcher time to start.
	time.Sleep(100 * time.Millisecond)
	return func() {
		cancel()
		<-done
	}
}

func TestWatcherDetectsNewClass(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	stop := start(t, New(dir, rec.handle, Options{Debounce: 50 * time.Millisecond, Workers: 2}))

	path := filepath.Join(dir, "FileAccess.class")
	writeAtomic(t, path)
	writeAtomic(t, filepath.Join(dir, "notes.txt"))

	time.Sleep(400 * time.Millisecond)
	stop()

	assert.Equal(t, []string{path}, rec.seen())
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	stop := start(t, New(dir, rec.handle, Options{Debounce: 50 * time.Millisecond}))

	sub := filepath.Join(dir, "com", "example")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(sub, "Nested.class")
	writeAtomic(t, path)

	time.Sleep(400 * time.Millisecond)
	stop()

	assert.Contains(t, rec.seen(), path)
}

func TestWatcherLogsHandlerFailures(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &recorder{err: errors.New("bad class")}
	handler := func(path string) error {
		if filepath.Base(path) == "Panics.class" {
			panic("boom")
		}
		return rec.handle(path)
	}
	stop := start(t, New(dir, handler, Options{Logger: zap.New(core), Debounce: 50 * time.Millisecond}))

	writeAtomic(t, filepath.Join(dir, "Broken.class"))
	writeAtomic(t, filepath.Join(dir, "Panics.class"))

	time.Sleep(400 * time.Millisecond)
	stop()

	assert.Equal(t, 1, logs.FilterMessage("rewrite failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("handler panicked").Len())
}

func TestScanExisting(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	for _, p := range []string{
		filepath.Join(dir, "A.class"),
		filepath.Join(sub, "C.class"),
		filepath.Join(dir, "readme.md"),
		filepath.Join(dir, ".Hidden.class"),
	} {
		require.NoError(t, os.WriteFile(p, nil, 0o600))
	}

	rec := &recorder{}
	require.NoError(t, ScanExisting(dir, rec.handle))
	assert.Equal(t, []string{filepath.Join(dir, "A.class"), filepath.Join(sub, "C.class")}, rec.seen())

	rec.err = errors.New("stop")
	assert.Error(t, ScanExisting(dir, rec.handle))
}

func TestIsClassFile(t *testing.T) {
	tests := map[string]bool{
		"A.class":     true,
		"dir/B.class": true,
		"A.class.tmp": false,
		".A.class":    false,
		"A.java":      false,
		"classes":     false,
	}
	for path, want := range tests {
		assert.Equal(t, want, IsClassFile(path), path)
	}
}
