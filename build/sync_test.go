package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func Test_Reconcile_BuildsMissingOutputs(t *testing.T) {
	builder := newTestBuilder(t, Options{}, &fakeMinifier{})
	writeTree(t, builder.InputDir(), map[string]string{"a.css": "a", "b.txt": "b"})

	result := builder.Reconcile(context.Background())

	if result.MissingFiles != 2 {
		t.Errorf("expected 2 missing files, got %d", result.MissingFiles)
	}
	if result.StaleFiles != 0 || result.ModifiedFiles != 0 {
		t.Errorf("unexpected discrepancies: %+v", result)
	}
	if _, err := os.Stat(filepath.Join(builder.OutputDir(), "a.css")); err != nil {
		t.Errorf("expected a.css to be built: %v", err)
	}
	if len(result.Outcomes) != 2 {
		t.Errorf("expected 2 outcomes, got %+v", result.Outcomes)
	}
}

func Test_Reconcile_RemovesStaleOutputs(t *testing.T) {
	builder := newTestBuilder(t, Options{}, &fakeMinifier{})
	writeTree(t, builder.InputDir(), map[string]string{"kept.css": "k"})
	runBuild(t, builder)
	writeTree(t, builder.OutputDir(), map[string]string{"deleted.css": "d", "deleted.css.br": "x"})

	result := builder.Reconcile(context.Background())

	if result.StaleFiles != 1 {
		t.Errorf("expected 1 stale file, got %d", result.StaleFiles)
	}
	if len(result.Removed) != 1 || result.Removed[0] != "deleted.css" {
		t.Errorf("removed = %v, want [deleted.css]", result.Removed)
	}
	if _, err := os.Stat(filepath.Join(builder.OutputDir(), "deleted.css")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected stale output to be removed")
	}
	if _, err := os.Stat(filepath.Join(builder.OutputDir(), "kept.css")); err != nil {
		t.Errorf("expected kept.css to survive: %v", err)
	}
}

func Test_Reconcile_KeepsPrecompressedSiblings(t *testing.T) {
	builder := newTestBuilder(t, Options{Precompress: true}, &fakeMinifier{})
	writeTree(t, builder.InputDir(), map[string]string{"a.css": "a"})
	runBuild(t, builder)

	result := builder.Reconcile(context.Background())

	if result.Discrepancies() != 0 {
		t.Errorf("expected no discrepancies, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(builder.OutputDir(), "a.css.br")); err != nil {
		t.Errorf("expected brotli sibling to survive: %v", err)
	}
}

func Test_Reconcile_RebuildsModifiedInputs(t *testing.T) {
	builder := newTestBuilder(t, Options{}, &fakeMinifier{})
	writeTree(t, builder.InputDir(), map[string]string{"a.css": "old"})
	runBuild(t, builder)

	inputPath := filepath.Join(builder.InputDir(), "a.css")
	os.WriteFile(inputPath, []byte("new"), 0644)
	future := time.Now().Add(time.Hour)
	os.Chtimes(inputPath, future, future)

	result := builder.Reconcile(context.Background())

	if result.ModifiedFiles != 1 {
		t.Errorf("expected 1 modified file, got %d", result.ModifiedFiles)
	}
	if got := readFile(t, filepath.Join(builder.OutputDir(), "a.css")); !strings.HasSuffix(got, "new") {
		t.Errorf("expected rebuilt output, got %q", got)
	}
}

func Test_Reconcile_InSync(t *testing.T) {
	builder := newTestBuilder(t, Options{}, &fakeMinifier{})
	writeTree(t, builder.InputDir(), map[string]string{"a.css": "a", "nested/b.js": "b"})
	runBuild(t, builder)

	result := builder.Reconcile(context.Background())

	if result.Discrepancies() != 0 || result.FailedFiles != 0 {
		t.Errorf("expected output in sync, got %+v", result)
	}
}

func Test_RunPeriodicSync_StopsOnCancel(t *testing.T) {
	builder := newTestBuilder(t, Options{}, &fakeMinifier{})
	os.MkdirAll(builder.InputDir(), 0755)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		builder.RunPeriodicSync(ctx, 10*time.Millisecond, nil)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("periodic sync did not stop after cancel")
	}
}

func Test_RunPeriodicSync_ReportsChanges(t *testing.T) {
	builder := newTestBuilder(t, Options{}, &fakeMinifier{})
	writeTree(t, builder.InputDir(), map[string]string{"a.css": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan SyncResult, 1)
	go builder.RunPeriodicSync(ctx, 10*time.Millisecond, func(result SyncResult) {
		select {
		case results <- result:
		default:
		}
	})

	select {
	case result := <-results:
		if len(result.Outcomes) != 1 || result.Outcomes[0].Task.RelPath != "a.css" {
			t.Errorf("outcomes = %+v, want a.css", result.Outcomes)
		}
	case <-time.After(time.Second):
		t.Fatal("sync callback not called")
	}
}
