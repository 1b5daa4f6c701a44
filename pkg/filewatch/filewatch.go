package filewatch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is the delay after an fsnotify event before checking the checksum.
const DebounceInterval = 100 * time.Millisecond

// Watcher calls OnChange whenever the content of a single file changes.
//
// The parent directory is watched rather than the file itself: editors and
// deploy tools usually replace a file by writing a temp file and renaming it,
// which changes the inode.
type Watcher struct {
	path     string
	onChange func(ctx context.Context, data []byte) error
	debounce time.Duration

	mu       sync.Mutex
	lastHash [sha256.Size]byte
}

type Option func(*Watcher)

// WithDebounce overrides DebounceInterval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func New(path string, onChange func(ctx context.Context, data []byte) error, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: DebounceInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load reads the file once, records its checksum and passes the content to
// OnChange. Call it before Run so the initial state is applied synchronously.
func (w *Watcher) Load(ctx context.Context) error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.path, err)
	}
	w.mu.Lock()
	w.lastHash = sha256.Sum256(data)
	w.mu.Unlock()
	return w.onChange(ctx, data)
}

// Run blocks until ctx is cancelled, invoking OnChange for every change whose
// checksum differs from the last applied one.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	watchDir := filepath.Dir(w.path)
	name := filepath.Base(w.path)
	if err := watcher.Add(watchDir); err != nil {
		return fmt.Errorf("watch directory %s: %w", watchDir, err)
	}
	slog.InfoContext(ctx, "watching file for changes", "path", w.path)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				w.check(ctx)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "fsnotify error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.WarnContext(ctx, "failed to read watched file", "path", w.path, "error", err)
		return
	}
	hash := sha256.Sum256(data)

	w.mu.Lock()
	defer w.mu.Unlock()
	if hash == w.lastHash {
		return
	}
	if err := w.onChange(ctx, data); err != nil {
		slog.ErrorContext(ctx, "failed to apply file change", "path", w.path, "error", err)
		return
	}
	w.lastHash = hash
	slog.InfoContext(ctx, "applied file change", "path", w.path, "checksum", fmt.Sprintf("%x", hash[:8]))
}

// HashFile computes the SHA256 hash of the file at the given path.
func HashFile(path string) ([sha256.Size]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("hash %s: %w", path, err)
	}

	var result [sha256.Size]byte
	copy(result[:], h.Sum(nil))
	return result, nil
}
