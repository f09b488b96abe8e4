package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
)

// BuildArgs defines the input parameters for the minipolar_build tool.
type BuildArgs struct {
	Files []string `json:"files,omitempty" jsonschema:"Input-relative paths to rebuild; empty rebuilds the whole tree"`
}

// BuildFunc runs a build. It is provided by main to keep this package free
// of builder wiring. An empty files list means a full build.
type BuildFunc func(ctx context.Context, files []string) (build.Result, error)

// BuildHandler holds the dependencies for the build tool.
type BuildHandler struct {
	DoBuild BuildFunc
	Logger  *slog.Logger
}

// Handle processes a minipolar_build request.
func (h *BuildHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args BuildArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("minipolar_build started", "files", len(args.Files))

	result, err := h.DoBuild(ctx, args.Files)
	if err != nil {
		h.Logger.Error("minipolar_build failed", "error", err)
		return errorResult(fmt.Sprintf("Build error: %v", err)), nil, nil
	}

	h.Logger.Info("minipolar_build complete",
		"minified", result.Summary.Minified,
		"copied", result.Summary.Copied,
		"failed", result.Summary.Failed,
		"duration", result.Summary.Duration,
	)

	return textResult(FormatSummary(result.Summary, result.Outcomes)), nil, nil
}
