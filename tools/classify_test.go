package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestClassifyHandler(t *testing.T) *ClassifyHandler {
	t.Helper()
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "widget.js"), []byte("class Widget extends React.Component {}"), 0644)
	return &ClassifyHandler{InputDir: dir, Logger: testLogger()}
}

func Test_ClassifyHandler_Source(t *testing.T) {
	h := newTestClassifyHandler(t)

	result, _, err := h.Handle(context.Background(), nil, ClassifyArgs{Source: "const s = `x`;"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	for _, check := range []string{"code examples:        true", "framework content:    false", "readable output:      true"} {
		if !strings.Contains(text, check) {
			t.Errorf("expected output to contain %q, got:\n%s", check, text)
		}
	}
}

func Test_ClassifyHandler_Path(t *testing.T) {
	h := newTestClassifyHandler(t)

	result, _, err := h.Handle(context.Background(), nil, ClassifyArgs{Path: "widget.js"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	if !strings.HasPrefix(text, "widget.js\n") {
		t.Errorf("expected label line, got:\n%s", text)
	}
	if !strings.Contains(text, "keep class names:     true") {
		t.Errorf("expected framework request, got:\n%s", text)
	}
}

func Test_ClassifyHandler_RejectsEscapingPath(t *testing.T) {
	h := newTestClassifyHandler(t)

	result, _, err := h.Handle(context.Background(), nil, ClassifyArgs{Path: "../secret.js"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "outside the input root") {
		t.Errorf("expected path escape to be refused, got %+v", result)
	}
}

func Test_ClassifyHandler_RequiresExactlyOneInput(t *testing.T) {
	h := newTestClassifyHandler(t)

	for _, args := range []ClassifyArgs{{}, {Path: "widget.js", Source: "x"}} {
		result, _, err := h.Handle(context.Background(), nil, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Errorf("expected IsError=true for %+v", args)
		}
	}
}
