package build

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SyncResult holds the outcome of a single reconcile run.
type SyncResult struct {
	MissingFiles  int // inputs without an output
	StaleFiles    int // outputs without an input
	ModifiedFiles int // inputs newer than their output
	FailedFiles   int
	Duration      time.Duration

	Outcomes []Outcome // rebuilt inputs, failures included
	Removed  []string  // deleted stale outputs
}

// Discrepancies is the number of files the run had to fix.
func (r SyncResult) Discrepancies() int {
	return r.MissingFiles + r.StaleFiles + r.ModifiedFiles
}

// RunPeriodicSync reconciles the output tree with the input tree at the
// given interval until ctx is cancelled. onSync, when set, receives every
// run that changed something.
func (b *Builder) RunPeriodicSync(ctx context.Context, interval time.Duration, onSync func(SyncResult)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			result := b.Reconcile(ctx)
			if result.Discrepancies() > 0 || result.FailedFiles > 0 {
				b.logger.Info("sync complete",
					"missing", result.MissingFiles,
					"stale", result.StaleFiles,
					"modified", result.ModifiedFiles,
					"failed", result.FailedFiles,
					"duration", result.Duration,
				)
				if onSync != nil {
					onSync(result)
				}
			} else {
				b.logger.Debug("sync complete, output is in sync", "duration", result.Duration)
			}
		}
	}
}

// Reconcile compares both trees, rebuilds missing and modified outputs and
// deletes outputs whose input is gone.
func (b *Builder) Reconcile(ctx context.Context) SyncResult {
	start := time.Now()
	var result SyncResult

	inputFiles := b.collectInputs()
	outputFiles := collectOutputs(b.options.OutputDir, b.logger)

	for relPath, info := range inputFiles {
		if ctx.Err() != nil {
			break
		}
		outInfo, exists := outputFiles[relPath]
		switch {
		case !exists:
			result.MissingFiles++
		case outInfo.ModTime().Before(info.ModTime()):
			result.ModifiedFiles++
		default:
			continue
		}

		task := b.newTask(filepath.Join(b.options.InputDir, filepath.FromSlash(relPath)), relPath)
		outcome := b.ProcessFile(ctx, task)
		if outcome.Status == StatusFailed {
			result.FailedFiles++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	for relPath := range outputFiles {
		if _, exists := inputFiles[relPath]; exists {
			continue
		}
		// A sibling is kept with its input and removed together with its output.
		if base, ok := strings.CutSuffix(relPath, precompressSuffix); ok {
			_, hasInput := inputFiles[base]
			_, hasOutput := outputFiles[base]
			if hasInput || hasOutput {
				continue
			}
		}
		if err := b.RemoveOutput(relPath); err != nil {
			b.logger.Warn("sync: cannot remove stale output", "path", relPath, "error", err)
			continue
		}
		b.logger.Info("sync: removed stale output", "path", relPath)
		result.StaleFiles++
		result.Removed = append(result.Removed, relPath)
	}

	result.Duration = time.Since(start)
	return result
}

// collectInputs lists every regular input file the build would process.
func (b *Builder) collectInputs() map[string]os.FileInfo {
	files := make(map[string]os.FileInfo)
	filepath.WalkDir(b.options.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != b.options.InputDir && b.ignore.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if b.ignore.ShouldIgnore(path) {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		files[b.relPath(path)] = info
		return nil
	})
	return files
}

// collectOutputs lists regular files of the output tree, leaving out
// in-flight temp files.
func collectOutputs(outputDir string, logger *slog.Logger) map[string]os.FileInfo {
	files := make(map[string]os.FileInfo)
	filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("sync: cannot read output entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || isTempFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		relPath, _ := filepath.Rel(outputDir, path)
		files[filepath.ToSlash(relPath)] = info
		return nil
	})
	return files
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".minipolar-") && strings.HasSuffix(name, ".tmp")
}
