// Package watch keeps the accessibility of file locations current by
// listening for filesystem events on the directories that hold them.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"jasper-go/internal/fs"
	"jasper-go/internal/jasper"
)

// DefaultRefreshInterval is how often the set of tracked paths is reloaded
// so that files added after the watcher started are picked up.
const DefaultRefreshInterval = time.Minute

// Tracker is the part of the lifecycle manager the watcher drives.
type Tracker interface {
	WatchedPaths(ctx context.Context) ([]string, error)
	SetPathAccessible(ctx context.Context, path string, accessible bool) (int, error)
}

// EventCallback is called after a path's accessibility was recorded.
type EventCallback func(path string, accessible bool)

// Watcher watches the parent directories of every file location. fsnotify
// loses a watch on a file once it is removed, so directories are watched
// instead and events are filtered to tracked paths.
type Watcher struct {
	tracker Tracker
	logger  jasper.Logger
	refresh time.Duration

	mu      sync.Mutex
	tracked map[string]bool
	dirs    map[string]bool
}

// New creates a watcher. logger may be nil.
func New(tracker Tracker, logger jasper.Logger) *Watcher {
	if logger == nil {
		logger = jasper.NewNopLogger()
	}
	return &Watcher{
		tracker: tracker,
		logger:  logger,
		refresh: DefaultRefreshInterval,
		tracked: make(map[string]bool),
		dirs:    make(map[string]bool),
	}
}

// WithRefreshInterval overrides DefaultRefreshInterval.
func (w *Watcher) WithRefreshInterval(d time.Duration) *Watcher {
	if d > 0 {
		w.refresh = d
	}
	return w
}

// Tracked reports whether path is currently tracked.
func (w *Watcher) Tracked(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tracked[path]
}

// Run reconciles every tracked path with the disk, then processes events
// until ctx is cancelled. cb may be nil.
func (w *Watcher) Run(ctx context.Context, cb EventCallback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.sync(ctx, fw, cb, true); err != nil {
		return err
	}
	w.logger.Info("watcher started", "paths", len(w.tracked), "dirs", len(w.dirs))

	ticker := time.NewTicker(w.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case <-ticker.C:
			if err := w.sync(ctx, fw, cb, false); err != nil {
				w.logger.Warn("refreshing watched paths failed", "error", err)
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev, cb)

		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", werr)
		}
	}
}

// sync reloads tracked paths and subscribes to any new directories. New
// paths (all of them on the first pass) are checked against the disk.
func (w *Watcher) sync(ctx context.Context, fw *fsnotify.Watcher, cb EventCallback, initial bool) error {
	paths, err := w.tracker.WatchedPaths(ctx)
	if err != nil {
		return fmt.Errorf("loading watched paths: %w", err)
	}

	w.mu.Lock()
	var fresh []string
	next := make(map[string]bool, len(paths))
	for _, p := range paths {
		next[p] = true
		if initial || !w.tracked[p] {
			fresh = append(fresh, p)
		}
	}
	w.tracked = next
	w.mu.Unlock()

	for _, p := range fresh {
		dir := filepath.Dir(p)
		if !w.dirs[dir] {
			if err := fw.Add(dir); err != nil {
				// The directory may be gone; the file is then unreachable too.
				w.logger.Debug("cannot watch directory", "dir", dir, "error", err)
			} else {
				w.dirs[dir] = true
			}
		}
		_, statErr := os.Stat(p)
		w.record(ctx, p, statErr == nil, cb)
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event, cb EventCallback) {
	if fs.IsScratchFile(filepath.Base(ev.Name)) || !w.Tracked(ev.Name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.record(ctx, ev.Name, true, cb)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// Editors often save by renaming a new file over the old one, so
		// confirm the file is really gone.
		_, err := os.Stat(ev.Name)
		w.record(ctx, ev.Name, !errors.Is(err, os.ErrNotExist), cb)
	}
}

func (w *Watcher) record(ctx context.Context, path string, accessible bool, cb EventCallback) {
	n, err := w.tracker.SetPathAccessible(ctx, path, accessible)
	if err != nil {
		w.logger.Warn("recording path accessibility failed", "path", path, "error", err)
		return
	}
	w.logger.Debug("path accessibility recorded", "path", path, "accessible", accessible, "locations", n)
	if cb != nil {
		cb(path, accessible)
	}
}
