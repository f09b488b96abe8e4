package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/watcher"
)

// watch keeps the output tree in step with the input tree until ctx is
// done. The initial build must already have run.
func (a *app) watch(ctx context.Context) error {
	fileWatcher, err := watcher.NewWatcher(a.builder.InputDir(), a.matcher, watcher.DefaultDebounce, a.logger)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer fileWatcher.Close()

	go fileWatcher.Start(ctx)
	if a.config.SyncInterval > 0 {
		go a.builder.RunPeriodicSync(ctx, time.Duration(a.config.SyncInterval)*time.Second, a.applySync)
	}

	a.logger.Info("watching for changes", "input", a.builder.InputDir())
	for {
		select {
		case <-ctx.Done():
			return nil
		case events := <-fileWatcher.Events():
			a.applyEvents(ctx, events)
		}
	}
}

// applySync carries the files a reconcile run rebuilt or deleted into the
// manifest.
func (a *app) applySync(result build.SyncResult) {
	for _, outcome := range result.Outcomes {
		a.manifest.Record(outcome)
	}
	for _, relPath := range result.Removed {
		a.manifest.Remove(relPath)
	}
	a.writeManifest()
}

// applyEvents rebuilds created and modified inputs and removes the outputs
// of inputs that disappeared.
func (a *app) applyEvents(ctx context.Context, events []watcher.DebouncedEvent) {
	for _, event := range events {
		if ctx.Err() != nil {
			return
		}
		task, err := a.builder.TaskFor(event.Path)
		if err != nil {
			a.logger.Debug("event outside input root", "path", event.Path, "error", err)
			continue
		}

		if filepath.Dir(task.InputPath) == a.builder.InputDir() && a.matcher.IsRulesFile(filepath.Base(task.InputPath)) {
			a.matcher.Reload()
			a.logger.Info("reloaded ignore rules", "trigger", task.RelPath)
		}

		switch event.Op {
		case watcher.OpRemove, watcher.OpRename:
			a.removeOutput(task.RelPath)

		case watcher.OpCreate, watcher.OpWrite:
			if a.matcher.ShouldIgnore(task.InputPath) {
				continue
			}
			info, err := os.Stat(task.InputPath)
			if err != nil {
				// gone again before the batch was flushed
				continue
			}
			if info.IsDir() {
				result, err := a.builder.RunDir(ctx, task.InputPath)
				if err != nil {
					a.logger.Warn("cannot build new directory", "path", task.RelPath, "error", err)
				}
				for _, outcome := range result.Outcomes {
					a.manifest.Record(outcome)
				}
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			a.manifest.Record(a.builder.ProcessFile(ctx, task))
		}
	}
	a.writeManifest()
}
