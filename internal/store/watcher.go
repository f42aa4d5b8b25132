package store

import (
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	ferrors "github.com/ferret-go/ferret/internal/errors"
)

// Watcher observes an index directory and reports when its database
// has been written since the watcher started, which means snapshots
// built before then are stale.
type Watcher struct {
	fsw   *fsnotify.Watcher
	path  string
	stale atomic.Bool
	done  chan struct{}
	log   *slog.Logger
}

// Watch starts a staleness watcher on the store's directory.
func (s *Store) Watch() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.IOError("failed to create filesystem watcher", err)
	}
	if err := fsw.Add(s.dir); err != nil {
		_ = fsw.Close()
		return nil, ferrors.IOError("failed to watch index directory", err)
	}
	w := &Watcher{fsw: fsw, path: s.Path(), done: make(chan struct{}), log: s.log}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// WAL mode appends to sidecar files, so watch the whole
			// database family, not just the main file.
			if filepath.Dir(ev.Name) != filepath.Dir(w.path) {
				continue
			}
			base := filepath.Base(ev.Name)
			if base != filepath.Base(w.path) &&
				base != filepath.Base(w.path)+"-wal" &&
				base != filepath.Base(w.path)+"-journal" {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				if w.stale.CompareAndSwap(false, true) {
					w.log.Debug("index changed on disk", slog.String("path", ev.Name))
				}
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Stale reports whether the index has changed since the watcher
// started.
func (w *Watcher) Stale() bool { return w.stale.Load() }

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
