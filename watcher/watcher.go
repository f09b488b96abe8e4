package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// IgnoreChecker decides which input entries the watcher reports. Rules
// files in the root are always reported so their edits can reload the rules.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
	IsRulesFile(baseName string) bool
}

// Watcher reports debounced changes below an input root, recursively.
type Watcher struct {
	fsWatcher     *fsnotify.Watcher
	debouncer     *Debouncer
	ignoreChecker IgnoreChecker
	rootDir       string
	logger        *slog.Logger
}

// NewWatcher registers rootDir and every non-ignored subdirectory.
func NewWatcher(rootDir string, ignoreChecker IgnoreChecker, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsWatcher:     fsWatcher,
		debouncer:     NewDebouncer(debounce),
		ignoreChecker: ignoreChecker,
		rootDir:       rootDir,
		logger:        logger,
	}

	if err := w.addTree(rootDir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its non-ignored subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.rootDir && w.ignoreChecker.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if watchErr := w.fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
}

// Events returns the channel of debounced batches.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// Start forwards file system events to the debouncer until ctx is done or
// the watcher is closed. Call it in a goroutine.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.debouncer.Stop()
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) && w.isDir(path) {
		if w.ignoreChecker.ShouldIgnoreDir(path) {
			return
		}
		// Files may land before the watch is registered; the directory
		// event lets the consumer pick them up.
		if err := w.addTree(path); err != nil {
			w.logger.Warn("failed to watch new directory", "path", path, "error", err)
		}
		w.debouncer.Add(path, OpCreate)
		return
	}

	if w.ignoreChecker.ShouldIgnore(path) && !w.isRootRulesFile(path) {
		return
	}
	if op, ok := opFor(event); ok {
		w.debouncer.Add(path, op)
	}
}

func (w *Watcher) isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Watcher) isRootRulesFile(path string) bool {
	return filepath.Dir(path) == w.rootDir && w.ignoreChecker.IsRulesFile(filepath.Base(path))
}

// opFor maps an fsnotify event to the operation reported for it. Chmod
// alone is not a change.
func opFor(event fsnotify.Event) (EventOp, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return OpCreate, true
	case event.Has(fsnotify.Write):
		return OpWrite, true
	case event.Has(fsnotify.Remove):
		return OpRemove, true
	case event.Has(fsnotify.Rename):
		return OpRename, true
	}
	return 0, false
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}
