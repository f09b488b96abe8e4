package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/manifest"
)

// StatusArgs defines the input parameters for the minipolar_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Manifest  *manifest.Manifest
	StartTime time.Time
	InputDir  string
	OutputDir string
	Logger    *slog.Logger
}

// Handle processes a minipolar_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	fileCount := h.Manifest.Count()
	inputBytes, outputBytes := h.Manifest.TotalBytes()
	statusCounts := h.Manifest.StatusCounts()
	kindCounts := h.Manifest.KindCounts()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("minipolar_status",
		"files", fileCount,
		"inputBytes", inputBytes,
		"outputBytes", outputBytes,
		"uptime", uptime,
	)

	builder.WriteString("=== minipolar Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Input directory: %s\n", h.InputDir))
	builder.WriteString(fmt.Sprintf("Output directory: %s\n", h.OutputDir))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))

	if buildID := h.Manifest.BuildID(); buildID != "" {
		builder.WriteString(fmt.Sprintf("Last build: %s at %s\n", buildID, h.Manifest.BuiltAt().Format(time.RFC3339)))
	} else {
		builder.WriteString("Last build: none\n")
	}

	builder.WriteString(fmt.Sprintf("Tracked files: %d\n", fileCount))
	builder.WriteString(fmt.Sprintf("Size: %s -> %s (%.1f%% saved)\n",
		formatFileSize(inputBytes),
		formatFileSize(outputBytes),
		savedPercent(inputBytes, outputBytes),
	))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	if fileCount > 0 {
		builder.WriteString("\nStatus:\n")
		for _, status := range []build.Status{build.StatusMinified, build.StatusCopied, build.StatusSkipped, build.StatusFailed} {
			builder.WriteString(fmt.Sprintf("  %-10s %d files\n", status, statusCounts[status]))
		}

		builder.WriteString("\nKinds:\n")
		kinds := make([]string, 0, len(kindCounts))
		for kind := range kindCounts {
			kinds = append(kinds, kind)
		}
		// most common first
		sort.Slice(kinds, func(i, j int) bool {
			if kindCounts[kinds[i]] != kindCounts[kinds[j]] {
				return kindCounts[kinds[i]] > kindCounts[kinds[j]]
			}
			return kinds[i] < kinds[j]
		})
		for _, kind := range kinds {
			builder.WriteString(fmt.Sprintf("  %-10s %d files\n", kind, kindCounts[kind]))
		}
	}

	return textResult(builder.String()), nil, nil
}
