package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/ignore"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/manifest"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/minifier"
)

// app wires one input/output pair to its builder, ignore rules and manifest.
// Commands share it so a build from the CLI, the MCP server or the watcher
// behaves the same way.
type app struct {
	config   Config
	logger   *slog.Logger
	matcher  *ignore.Matcher
	builder  *build.Builder
	manifest *manifest.Manifest

	// serializes manifest file writes from the CLI, watcher and MCP tools
	writeMu sync.Mutex
}

func newApp(cfg Config, logger *slog.Logger) (*app, error) {
	inputDir, err := filepath.Abs(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("resolving input root %s: %w", cfg.Input, err)
	}
	outputDir, err := filepath.Abs(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("resolving output root %s: %w", cfg.Output, err)
	}

	matcher := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:          inputDir,
		OutputDir:        outputDir,
		CustomPatterns:   cfg.Exclude,
		RespectGitignore: cfg.RespectGitignore,
		DefaultIgnores:   cfg.DefaultIgnores,
		MaxFileSizeBytes: cfg.MaxFileSize,
	})

	builder, err := build.NewBuilder(build.Options{
		InputDir:    inputDir,
		OutputDir:   outputDir,
		Workers:     cfg.Workers,
		FileTimeout: cfg.FileTimeout,
		Precompress: cfg.Precompress,
		Incremental: cfg.Incremental,
	}, minifier.NewEngine(logger), matcher, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		config:   cfg,
		logger:   logger,
		matcher:  matcher,
		builder:  builder,
		manifest: manifest.New(),
	}, nil
}

// buildAll runs a full build and records it in the manifest.
func (a *app) buildAll(ctx context.Context) (build.Result, error) {
	a.logger.Info("build started",
		"input", a.builder.InputDir(),
		"output", a.builder.OutputDir(),
	)
	result, err := a.builder.Run(ctx)
	if err != nil {
		return result, err
	}

	buildID := a.manifest.RecordBuild(result)
	a.logger.Info("build complete",
		"buildId", buildID,
		"minified", result.Summary.Minified,
		"copied", result.Summary.Copied,
		"skipped", result.Summary.Skipped,
		"failed", result.Summary.Failed,
		"dirErrors", result.Summary.DirErrors,
		"duration", result.Summary.Duration.Round(time.Millisecond),
	)
	a.writeManifest()
	return result, nil
}

// buildFiles rebuilds individual input files. Paths are relative to the
// input root unless absolute. An empty list means a full build.
func (a *app) buildFiles(ctx context.Context, files []string) (build.Result, error) {
	if len(files) == 0 {
		return a.buildAll(ctx)
	}

	start := time.Now()
	outcomes := make([]build.Outcome, 0, len(files))
	for _, file := range files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.builder.InputDir(), filepath.FromSlash(file))
		}
		task, err := a.builder.TaskFor(path)
		if err != nil {
			return build.Result{}, err
		}
		if a.matcher.ShouldIgnore(task.InputPath) {
			a.logger.Debug("ignored file", "path", task.RelPath)
			continue
		}
		outcome := a.builder.ProcessFile(ctx, task)
		a.manifest.Record(outcome)
		outcomes = append(outcomes, outcome)
	}

	a.writeManifest()
	return build.Result{
		Outcomes: outcomes,
		Summary:  build.Summarize(outcomes, 0, time.Since(start)),
	}, nil
}

// writeManifest saves the manifest when one is configured. A write failure
// is logged and never fails the build.
func (a *app) writeManifest() {
	if a.config.Manifest == "" {
		return
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	doc := a.manifest.Document(a.builder.InputDir(), a.builder.OutputDir())
	if err := manifest.WriteFile(a.config.Manifest, doc); err != nil {
		a.logger.Warn("cannot write manifest", "path", a.config.Manifest, "error", err)
		return
	}
	a.logger.Debug("manifest written", "path", a.config.Manifest, "files", len(doc.Files))
}

// removeOutput deletes the output of a removed input and forgets it.
func (a *app) removeOutput(relPath string) {
	if err := a.builder.RemoveOutput(relPath); err != nil {
		a.logger.Warn("cannot remove output", "path", relPath, "error", err)
		return
	}
	a.manifest.Remove(relPath)
	a.logger.Info("removed", "path", relPath)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
