package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/manifest"
)

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_59", 59 * time.Second, "59s"},
		{"Minutes_5m30s", 5*time.Minute + 30*time.Second, "5m30s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

func Test_StatusHandler_Handle(t *testing.T) {
	h := &StatusHandler{
		Manifest:  testManifest(),
		StartTime: time.Now(),
		InputDir:  "/site/src",
		OutputDir: "/site/dist",
		Logger:    testLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	checks := []string{
		"minipolar Status",
		"/site/src",
		"/site/dist",
		"Tracked files: 4",
		"Size: 6.1 KB -> 2.0 KB",
		"failed     1 files",
		"js         2 files",
	}
	for _, check := range checks {
		if !strings.Contains(text, check) {
			t.Errorf("expected output to contain %q, got:\n%s", check, text)
		}
	}
	if strings.Contains(text, "Last build: none") {
		t.Error("expected the recorded build to be reported")
	}
}

func Test_StatusHandler_BeforeFirstBuild(t *testing.T) {
	h := &StatusHandler{
		Manifest:  manifest.New(),
		StartTime: time.Now(),
		Logger:    testLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Last build: none") || !strings.Contains(text, "Tracked files: 0") {
		t.Errorf("unexpected status before first build:\n%s", text)
	}
}
