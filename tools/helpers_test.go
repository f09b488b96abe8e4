package tools

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/language"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/manifest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in tool result")
	}
	return result.Content[0].(*mcp.TextContent).Text
}

func testOutcome(relPath string, status build.Status, in, out int64) build.Outcome {
	return build.Outcome{
		Task: build.FileTask{
			InputPath:  "/site/src/" + relPath,
			OutputPath: "/site/dist/" + relPath,
			RelPath:    relPath,
			Kind:       language.DetectKind(relPath),
		},
		Status:      status,
		InputBytes:  in,
		OutputBytes: out,
	}
}

func testResult() build.Result {
	outcomes := []build.Outcome{
		testOutcome("index.html", build.StatusMinified, 2048, 1024),
		testOutcome("js/app.js", build.StatusMinified, 4096, 1024),
		testOutcome("js/broken.js", build.StatusFailed, 100, 0),
		testOutcome("readme.txt", build.StatusCopied, 10, 10),
	}
	outcomes[2].Err = errors.New("unexpected EOF")
	return build.Result{Outcomes: outcomes, Summary: build.Summarize(outcomes, 0, 1500*time.Millisecond)}
}

func testManifest() *manifest.Manifest {
	m := manifest.New()
	m.RecordBuild(testResult())
	return m
}
