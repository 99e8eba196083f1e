package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher flags changes to files in a folder.
// Its goroutine only records that something changed; callers decide when to reload,
// so reloads stay on the caller's goroutine.
type Watcher struct {
	dir     string
	match   func(rel string) bool
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	dirty   atomic.Bool
	started atomic.Bool
	done    chan struct{}
}

// NewWatcher creates a watcher for dir. match receives slash-separated paths
// relative to dir; a nil match accepts every file.
func NewWatcher(dir string, match func(rel string) bool, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	if match == nil {
		match = func(string) bool { return true }
	}

	return &Watcher{
		dir:     dir,
		match:   match,
		watcher: fsw,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// NewReferenceWatcher watches a loader's folder for files matching its patterns.
func NewReferenceWatcher(l *Loader) (*Watcher, error) {
	return NewWatcher(l.Dir(), l.Matches, l.logger)
}

// Start begins watching. The folder is created if needed.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	w.started.Store(true)
	go w.processEvents(ctx)

	w.logger.Debug("Watcher started", "path", w.dir)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() error {
	err := w.watcher.Close()
	if w.started.Load() {
		<-w.done
	}
	return err
}

// Changed reports whether a matching file changed since the last call, and clears the flag.
func (w *Watcher) Changed() bool {
	return w.dirty.Swap(false)
}

// MarkDirty sets the change flag.
func (w *Watcher) MarkDirty() {
	w.dirty.Store(true)
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if !w.match(rel) {
		return
	}

	w.dirty.Store(true)
	w.logger.Debug("Change detected", "file", rel, "op", event.Op.String())
}
