package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/manifest"
)

// FilesArgs defines the input parameters for the minipolar_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Glob pattern over input-relative paths (e.g. **/*.js or views/**)"`
	Status     string `json:"status,omitempty" jsonschema:"Only return files with this status: minified, copied, failed or skipped"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without build details"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	Manifest *manifest.Manifest
	Logger   *slog.Logger
}

// Handle processes a minipolar_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Pattern == "" {
		h.Logger.Warn("minipolar_files called with empty pattern")
		return errorResult("Error: pattern parameter is required"), nil, nil
	}

	status := build.Status(args.Status)
	switch status {
	case "", build.StatusMinified, build.StatusCopied, build.StatusFailed, build.StatusSkipped:
	default:
		return errorResult(fmt.Sprintf("Error: unknown status %q", args.Status)), nil, nil
	}

	records, err := h.Manifest.Search(args.Pattern, status, args.MaxResults)
	if err != nil {
		h.Logger.Error("minipolar_files failed", "pattern", args.Pattern, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("minipolar_files",
		"pattern", args.Pattern,
		"status", args.Status,
		"results", len(records),
		"elapsed", time.Since(start),
	)

	return textResult(FormatRecords(records, args.NameOnly)), nil, nil
}
