package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/tools"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Setup creates and configures the MCP server with all tool registrations.
func Setup(
	buildHandler *tools.BuildHandler,
	classifyHandler *tools.ClassifyHandler,
	filesHandler *tools.FilesHandler,
	statusHandler *tools.StatusHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "minipolar",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server minifies a web asset tree (JavaScript, CSS, HTML and EJS) into a mirrored output tree.

- Use minipolar_build after editing sources to refresh the output tree
- Use minipolar_files to find out what happened to a file, e.g. status "failed"
- Use minipolar_classify to see how a script will be treated before building
- Use minipolar_status for totals and the last build ID`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "minipolar_build",
		Description: `Minify the input tree into the output tree. Every minified file starts with the MiniPolar banner; unknown files are copied unchanged.

Arguments:
  - files: optional input-relative paths (e.g. ["js/app.js"]) to rebuild only those files.`,
	}, buildHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "minipolar_files",
		Description: `Find files of the last build by glob pattern and optional status.

Pattern examples:
  - "**/*.js" - all scripts
  - "views/**" - everything under views/
  - "*.html" - HTML files in the root only`,
	}, filesHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "minipolar_classify",
		Description: "Classify JavaScript (a file path or inline source) and show the minification strategy it selects: readable output for code examples, kept names for framework components.",
	}, classifyHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "minipolar_status",
		Description: "Show build status: directories, last build ID, file counts by status and kind, size savings, memory usage and uptime.",
	}, statusHandler.Handle)

	return mcpServer
}
