package server

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/manifest"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/tools"
)

func Test_Setup_RegistersTools(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := manifest.New()

	mcpServer := Setup(
		&tools.BuildHandler{
			DoBuild: func(ctx context.Context, files []string) (build.Result, error) { return build.Result{}, nil },
			Logger:  logger,
		},
		&tools.ClassifyHandler{InputDir: t.TempDir(), Logger: logger},
		&tools.FilesHandler{Manifest: m, Logger: logger},
		&tools.StatusHandler{Manifest: m, StartTime: time.Now(), Logger: logger},
	)

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer clientSession.Close()

	list, err := clientSession.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	slices.Sort(names)

	want := []string{"minipolar_build", "minipolar_classify", "minipolar_files", "minipolar_status"}
	if !slices.Equal(names, want) {
		t.Errorf("tools = %v, want %v", names, want)
	}

	result, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
		Name:      "minipolar_classify",
		Arguments: map[string]any{"source": "React.createElement('a')"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError {
		t.Errorf("expected classify to succeed, got %+v", result.Content)
	}
}
