package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/classify"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/minifier"
)

// ClassifyArgs defines the input parameters for the minipolar_classify tool.
type ClassifyArgs struct {
	Path   string `json:"path,omitempty" jsonschema:"Input-relative path of a JavaScript file to classify"`
	Source string `json:"source,omitempty" jsonschema:"JavaScript source text to classify instead of a file"`
}

// ClassifyHandler holds the dependencies for the classify tool.
type ClassifyHandler struct {
	InputDir string
	Logger   *slog.Logger
}

// Handle processes a minipolar_classify request.
func (h *ClassifyHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ClassifyArgs) (*mcp.CallToolResult, any, error) {
	if (args.Path == "") == (args.Source == "") {
		return errorResult("Error: exactly one of path or source is required"), nil, nil
	}

	source := args.Source
	label := "<source>"
	if args.Path != "" {
		content, err := h.readInput(args.Path)
		if err != nil {
			h.Logger.Warn("minipolar_classify cannot read file", "path", args.Path, "error", err)
			return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
		}
		source = content
		label = args.Path
	}

	flags := classify.Classify(source)
	h.Logger.Info("minipolar_classify",
		"path", label,
		"codeExamples", flags.HasCodeExamples,
		"framework", flags.HasFrameworkContent,
	)

	return textResult(FormatClassification(label, flags, minifier.NewJSOptions(flags))), nil, nil
}

// readInput reads a file that must lie inside the input root.
func (h *ClassifyHandler) readInput(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the input root", relPath)
	}
	data, err := os.ReadFile(filepath.Join(h.InputDir, cleaned))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", relPath, err)
	}
	return string(data), nil
}

// FormatClassification describes flags and the JavaScript request they produce.
func FormatClassification(label string, flags classify.Flags, opts minifier.JSOptions) string {
	rows := []struct {
		name  string
		value bool
	}{
		{"code examples", flags.HasCodeExamples},
		{"framework content", flags.HasFrameworkContent},
		{"readable output", opts.Beautify},
		{"mangle top level", opts.MangleTopLevel},
		{"keep class names", opts.KeepClassNames},
		{"keep function names", opts.KeepFuncNames},
		{"name cache", opts.NameCache != nil},
	}

	var builder strings.Builder
	builder.WriteString(label)
	builder.WriteString("\n")
	for _, row := range rows {
		builder.WriteString(fmt.Sprintf("  %-21s %t\n", row.name+":", row.value))
	}
	return builder.String()
}
