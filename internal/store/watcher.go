package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the store when the snapshot file changes on disk, so edits
// made by another process (a second CLI invocation, a text editor) show up
// without restarting.
type Watcher struct {
	store    *Store
	path     string
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
}

// NewWatcher prepares a watcher for the given snapshot file.
func NewWatcher(store *Store, path string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:    store,
		path:     path,
		logger:   logger.With("component", "watcher"),
		watcher:  fsw,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching. Editors and atomic writers replace the file rather
// than write in place, so the watch goes on the directory and events are
// filtered by name.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.run(ctx)
	w.logger.Info("watching provider file for changes", "path", w.path)
	return nil
}

// Stop ends the watch.
func (w *Watcher) Stop() {
	select {
	case <-w.stopChan:
		return
	default:
		close(w.stopChan)
	}
	w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	base := filepath.Base(w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce, the write may still be in flight.
			time.Sleep(100 * time.Millisecond)
			if err := w.store.Reload(ctx); err != nil {
				w.logger.Error("reload after file change", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher", "error", err)

		case <-w.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}
