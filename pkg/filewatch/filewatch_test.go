package filewatch

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testfile")
	content := []byte("hello world")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, sha256.Sum256(content), got)

	_, err = HashFile("/nonexistent/file/path")
	assert.Error(t, err)
}

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) onChange(_ context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, string(data))
	return nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func TestWatcher_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1"), 0o644))

	rec := &recorder{}
	w := New(path, rec.onChange)
	require.NoError(t, w.Load(context.Background()))
	assert.Equal(t, []string{"a: 1"}, rec.snapshot())

	missing := New(filepath.Join(t.TempDir(), "missing.yaml"), rec.onChange)
	assert.Error(t, missing.Load(context.Background()))
}

func TestWatcher_CheckSkipsUnchangedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1"), 0o644))

	rec := &recorder{}
	w := New(path, rec.onChange)
	require.NoError(t, w.Load(context.Background()))

	w.check(context.Background())
	assert.Len(t, rec.snapshot(), 1)

	require.NoError(t, os.WriteFile(path, []byte("a: 2"), 0o644))
	w.check(context.Background())
	assert.Equal(t, []string{"a: 1", "a: 2"}, rec.snapshot())
}

func TestWatcher_RunDetectsRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1"), 0o644))

	rec := &recorder{}
	w := New(path, rec.onChange, WithDebounce(10*time.Millisecond))
	require.NoError(t, w.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	tmp := filepath.Join(dir, "scoring.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("a: 3"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool {
		seen := rec.snapshot()
		return len(seen) == 2 && seen[1] == "a: 3"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
