package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher loads matching files under a directory when they are created or
// written. Changes are collected and flushed once per debounce interval.
type Watcher struct {
	loader   *Loader
	dir      string
	patterns []string
	debounce time.Duration
	logger   *slog.Logger

	// pending is only touched by the Run goroutine
	pending map[string]struct{}
}

// NewWatcher creates a watcher for dir. A nil logger uses slog.Default().
func NewWatcher(loader *Loader, dir string, patterns []string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		loader:   loader,
		dir:      dir,
		patterns: patterns,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}
}

// Run loads the files that already match, then watches for changes until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addWatchesRecursive(fsw, w.dir); err != nil {
		return err
	}

	existing, err := Discover(w.dir, w.patterns)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		if _, err := w.loader.LoadFiles(ctx, existing); err != nil {
			w.logger.Error("Initial load failed", "error", err)
		}
	}

	w.logger.Info("Watching for changes",
		"dir", w.dir,
		"patterns", w.patterns,
		"debounce", w.debounce)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// addWatchesRecursive adds watches to all non-hidden directories
func (w *Watcher) addWatchesRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}

		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		w.logger.Debug("Watching directory", "path", path)
		return nil
	})
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if err := w.addWatchesRecursive(fsw, event.Name); err != nil {
			w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
		}
		return
	}

	if !Matches(w.dir, event.Name, w.patterns) {
		return
	}

	w.pending[event.Name] = struct{}{}

	w.logger.Debug("File change detected", "path", event.Name, "op", event.Op.String())
}

// flushPending loads the files changed since the last flush
func (w *Watcher) flushPending(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})

	sort.Strings(paths)
	if _, err := w.loader.LoadFiles(ctx, paths); err != nil {
		w.logger.Error("Reload failed", "files", paths, "error", err)
	}
}
