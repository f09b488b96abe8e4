package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/manifest"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/watcher"
)

func newTestApp(t *testing.T, files map[string]string) *app {
	t.Helper()
	root := t.TempDir()
	cfg := Config{
		Input:    filepath.Join(root, "src"),
		Output:   filepath.Join(root, "dist"),
		Workers:  1,
		Manifest: filepath.Join(root, "manifest.json"),
	}
	writeTree(t, cfg.Input, files)

	a, err := newApp(cfg, testLogger())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	return a
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func Test_app_buildAllWritesManifest(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"index.html": "<p> hi </p>",
		"app.css":    "a { color: blue; }",
	})

	result, err := a.buildAll(context.Background())
	if err != nil {
		t.Fatalf("buildAll: %v", err)
	}
	if result.Summary.Minified != 2 {
		t.Errorf("minified = %d, want 2", result.Summary.Minified)
	}

	doc, err := manifest.ReadFile(a.config.Manifest)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if doc.BuildID == "" || doc.BuildID != a.manifest.BuildID() {
		t.Errorf("manifest build ID = %q, want %q", doc.BuildID, a.manifest.BuildID())
	}
	if len(doc.Files) != 2 {
		t.Errorf("manifest has %d files, want 2", len(doc.Files))
	}
}

func Test_app_buildFilesProcessesOnlyListedFiles(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"app.css":   "a { color: blue; }",
		"other.css": "b { color: red; }",
	})

	result, err := a.buildFiles(context.Background(), []string{"app.css"})
	if err != nil {
		t.Fatalf("buildFiles: %v", err)
	}
	if len(result.Outcomes) != 1 || result.Outcomes[0].Status != build.StatusMinified {
		t.Fatalf("outcomes = %+v", result.Outcomes)
	}
	if !exists(filepath.Join(a.builder.OutputDir(), "app.css")) {
		t.Error("app.css not written")
	}
	if exists(filepath.Join(a.builder.OutputDir(), "other.css")) {
		t.Error("other.css must not be built")
	}
	if a.manifest.Get("app.css") == nil {
		t.Error("app.css not recorded in the manifest")
	}
}

func Test_app_buildFilesRejectsPathsOutsideInput(t *testing.T) {
	a := newTestApp(t, nil)
	if _, err := a.buildFiles(context.Background(), []string{"../escape.css"}); err == nil {
		t.Error("expected error for a path outside the input root")
	}
}

func Test_app_applyEventsRemovesOutputs(t *testing.T) {
	a := newTestApp(t, map[string]string{"app.css": "a { color: blue; }"})
	if _, err := a.buildAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	inputPath := filepath.Join(a.builder.InputDir(), "app.css")
	os.Remove(inputPath)
	a.applyEvents(context.Background(), []watcher.DebouncedEvent{{Path: inputPath, Op: watcher.OpRemove}})

	if exists(filepath.Join(a.builder.OutputDir(), "app.css")) {
		t.Error("output of a removed input must be deleted")
	}
	if a.manifest.Get("app.css") != nil {
		t.Error("removed input must leave the manifest")
	}
}

func Test_app_applySyncUpdatesManifest(t *testing.T) {
	a := newTestApp(t, map[string]string{"app.css": "a { color: blue; }"})
	if _, err := a.buildAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	os.Remove(filepath.Join(a.builder.InputDir(), "app.css"))
	writeTree(t, a.builder.InputDir(), map[string]string{"new.css": "b { color: red; }"})
	a.applySync(a.builder.Reconcile(context.Background()))

	if a.manifest.Get("app.css") != nil {
		t.Error("stale output must leave the manifest")
	}
	if a.manifest.Get("new.css") == nil {
		t.Error("rebuilt input not recorded")
	}
	doc, err := manifest.ReadFile(a.config.Manifest)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if len(doc.Files) != 1 || doc.Files[0].Path != "new.css" {
		t.Errorf("manifest files = %+v, want only new.css", doc.Files)
	}
}

func Test_app_applyEventsBuildsNewDirectory(t *testing.T) {
	a := newTestApp(t, map[string]string{"index.html": "<p>x</p>"})
	if _, err := a.buildAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	writeTree(t, a.builder.InputDir(), map[string]string{
		"blog/post.html":  "<p>post</p>",
		"blog/cover.webp": "WEBP",
	})
	dir := filepath.Join(a.builder.InputDir(), "blog")
	a.applyEvents(context.Background(), []watcher.DebouncedEvent{{Path: dir, Op: watcher.OpCreate}})

	for _, rel := range []string{"blog/post.html", "blog/cover.webp"} {
		if !exists(filepath.Join(a.builder.OutputDir(), filepath.FromSlash(rel))) {
			t.Errorf("%s not built", rel)
		}
		if a.manifest.Get(rel) == nil {
			t.Errorf("%s not recorded", rel)
		}
	}
}

func Test_app_applyEventsReloadsIgnoreRules(t *testing.T) {
	a := newTestApp(t, map[string]string{"index.html": "<p>x</p>"})
	if _, err := a.buildAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	writeTree(t, a.builder.InputDir(), map[string]string{
		".minipolarignore": "*.txt\n",
		"notes.txt":        "draft",
		"kept.css":         "a { color: red; }",
	})
	in := a.builder.InputDir()
	a.applyEvents(context.Background(), []watcher.DebouncedEvent{
		{Path: filepath.Join(in, ".minipolarignore"), Op: watcher.OpCreate},
		{Path: filepath.Join(in, "kept.css"), Op: watcher.OpCreate},
		{Path: filepath.Join(in, "notes.txt"), Op: watcher.OpCreate},
	})

	if exists(filepath.Join(a.builder.OutputDir(), "notes.txt")) {
		t.Error("notes.txt is ignored after the reload and must not be copied")
	}
	if !exists(filepath.Join(a.builder.OutputDir(), "kept.css")) {
		t.Error("kept.css not built")
	}
}
