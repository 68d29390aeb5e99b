// Package watch re-runs a synchronization whenever one of the watched trees
// changes.
//
// Events are debounced: a run starts once no event arrived for a full
// debounce window. Runs never overlap, and events that show up during the
// window after a run are attributed to that run and dropped.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/dirsync/internal/match"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// Config configures a Watcher.
//
// Roots are the directory trees to watch. IgnorePatterns are matched against
// the base name of changed paths, e.g. "*.tmp" or ".git".
type Config struct {
	Roots          []string
	IgnorePatterns []string
	Debounce       time.Duration
}

// RunFunc performs one synchronization.
type RunFunc func(ctx context.Context) error

// Watcher watches Config.Roots recursively.
type Watcher struct {
	cfg       Config
	fsWatcher *fsnotify.Watcher
	logger    *zap.Logger
}

// New creates a Watcher. Close releases it.
func New(cfg Config, logger *zap.Logger) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("watch: no roots")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{cfg: cfg, fsWatcher: fsw, logger: logger}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// Run calls run once, starts watching, then calls run again after every
// quiet period following a change, until ctx is cancelled. A failing run is
// logged and watching goes on. Roots that do not exist yet may be created by
// the first run.
func (w *Watcher) Run(ctx context.Context, run RunFunc) error {
	w.runOnce(ctx, run)
	if err := w.addRoots(); err != nil {
		return err
	}

	quietUntil := time.Now().Add(w.cfg.Debounce)
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if w.isIgnored(ev.Name) || time.Now().Before(quietUntil) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.addTree(ev.Name)
			}
			w.logger.Debug("change detected", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			fire = time.After(w.cfg.Debounce)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			w.runOnce(ctx, run)
			// Directories created by the run get watched too.
			if err := w.addRoots(); err != nil {
				w.logger.Warn("refresh watches", zap.Error(err))
			}
			quietUntil = time.Now().Add(w.cfg.Debounce)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, run RunFunc) {
	if err := run(ctx); err != nil {
		w.logger.Error("synchronization failed", zap.Error(err))
	}
}

func (w *Watcher) addRoots() error {
	for _, root := range w.cfg.Roots {
		if err := w.walk(root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}
	return nil
}

// addTree watches path and everything below it when it is a directory.
func (w *Watcher) addTree(path string) {
	if err := w.walk(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.logger.Warn("cannot watch new directory", zap.String("path", path), zap.Error(err))
	}
}

func (w *Watcher) walk(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.isIgnored(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Warn("cannot watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

func (w *Watcher) isIgnored(path string) bool {
	return match.Any(w.cfg.IgnorePatterns, filepath.Base(path))
}
