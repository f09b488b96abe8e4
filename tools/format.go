package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/manifest"
)

// FormatRecords formats manifest records as human-readable text.
func FormatRecords(records []*manifest.Record, nameOnly bool) string {
	if len(records) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(records)))

	for _, record := range records {
		if nameOnly {
			builder.WriteString(record.Path)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %s -> %s)\n",
			record.Path,
			record.Kind,
			record.Status,
			formatFileSize(record.InputBytes),
			formatFileSize(record.OutputBytes),
		))
		if record.Error != "" {
			builder.WriteString(fmt.Sprintf("      error: %s\n", record.Error))
		}
	}

	return builder.String()
}

// FormatSummary formats a build summary on one line, followed by the
// failed files if any.
func FormatSummary(summary build.Summary, outcomes []build.Outcome) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("built: %d minified, %d copied, %d skipped, %d failed",
		summary.Minified, summary.Copied, summary.Skipped, summary.Failed))
	if summary.DirErrors > 0 {
		builder.WriteString(fmt.Sprintf(", %d directory errors", summary.DirErrors))
	}
	builder.WriteString(fmt.Sprintf(" (%s -> %s) in %s\n",
		formatFileSize(summary.InputBytes),
		formatFileSize(summary.OutputBytes),
		summary.Duration.Round(time.Millisecond),
	))

	for _, outcome := range outcomes {
		if outcome.Status == build.StatusFailed {
			builder.WriteString(fmt.Sprintf("  failed %s: %v\n", outcome.Task.RelPath, outcome.Err))
		}
	}
	return builder.String()
}

// savedPercent is the share of input bytes removed by minification.
func savedPercent(in, out int64) float64 {
	if in <= 0 {
		return 0
	}
	return float64(in-out) / float64(in) * 100
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
