package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/classify"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/minifier"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/preview"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/register"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/server"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/tools"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minipolar [input] [output]",
		Short: "Minify JavaScript, CSS and HTML/EJS files into a mirrored output tree",
		Long: `minipolar walks an input tree, minifies .js, .css, .html and .ejs files,
copies everything else verbatim and writes the result to a mirrored output
tree. The input defaults to ./src and the output to ./dist.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBuild,
	}
	registerGlobalFlags(cmd.PersistentFlags())
	registerBuildFlags(cmd.Flags())
	registerWatchFlag(cmd.Flags())

	cmd.AddCommand(newClassifyCmd(), newServeCmd(), newPreviewCmd(), newRegisterCmd())
	return cmd
}

func registerWatchFlag(flags *pflag.FlagSet) {
	flags.Bool("watch", false, "Keep running and rebuild inputs as they change")
}

// commandApp resolves configuration and logging for a building command.
func commandApp(cmd *cobra.Command, args []string) (*app, error) {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	cfg = cfg.withRoots(args)
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)
	return newApp(cfg, logger)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := commandApp(cmd, args)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	result, err := a.buildAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), tools.FormatSummary(result.Summary, result.Outcomes))

	if a.config.Watch {
		return a.watch(ctx)
	}
	if result.Summary.HasFailures() {
		return errBuildFailed
	}
	return nil
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>...",
		Short: "Print the content flags and JavaScript options chosen for each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				flags := classify.Classify(string(data))
				fmt.Fprint(cmd.OutOrStdout(), tools.FormatClassification(path, flags, minifier.NewJSOptions(flags)))
			}
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := commandApp(cmd, args)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			startTime := time.Now()
			if _, err := a.buildAll(ctx); err != nil {
				a.logger.Warn("initial build failed, serving anyway", "error", err)
			}
			if a.config.Watch {
				go runWatch(ctx, a)
			}

			mcpServer := server.Setup(
				&tools.BuildHandler{DoBuild: a.buildFiles, Logger: a.logger},
				&tools.ClassifyHandler{InputDir: a.builder.InputDir(), Logger: a.logger},
				&tools.FilesHandler{Manifest: a.manifest, Logger: a.logger},
				&tools.StatusHandler{
					Manifest:  a.manifest,
					StartTime: startTime,
					InputDir:  a.builder.InputDir(),
					OutputDir: a.builder.OutputDir(),
					Logger:    a.logger,
				},
			)

			a.logger.Info("MCP server starting on stdio")
			if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("running MCP server: %w", err)
			}
			return nil
		},
	}
	registerBuildFlags(cmd.Flags())
	registerWatchFlag(cmd.Flags())
	return cmd
}

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Build once, then serve the output tree over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := commandApp(cmd, args)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if _, err := a.buildAll(ctx); err != nil {
				return err
			}
			if !dirExists(a.builder.OutputDir()) {
				return fmt.Errorf("output root %s does not exist", a.builder.OutputDir())
			}
			if a.config.Watch {
				go runWatch(ctx, a)
			}

			gin.SetMode(gin.ReleaseMode)
			router := preview.NewRouter(preview.Options{
				OutputDir: a.builder.OutputDir(),
				CacheAge:  a.config.CacheAge,
				Status:    a.manifest,
				Logger:    a.logger,
			})
			return preview.Serve(ctx, a.config.Addr, router, a.logger)
		},
	}
	registerBuildFlags(cmd.Flags())
	registerWatchFlag(cmd.Flags())
	cmd.Flags().String("addr", defaultPreviewAddr, "Listen address")
	cmd.Flags().Duration("cache-age", preview.DefaultCacheAge, "Cache-Control max-age for assets (0 disables caching)")
	return cmd
}

func runWatch(ctx context.Context, a *app) {
	if err := a.watch(ctx); err != nil {
		a.logger.Warn("watch mode stopped", "error", err)
	}
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register project|user [directory] [-- serve flags...]",
		Short: "Add minipolar to an MCP client configuration",
		Long: `register writes a "minipolar serve" entry into .mcp.json (project scope)
or ~/.claude.json (user scope). Arguments after -- are passed to serve, for
example: minipolar register project -- --input web --output public`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, serverArgs := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				positional, serverArgs = args[:dash], args[dash:]
			}
			if len(positional) == 0 || len(positional) > 2 {
				return fmt.Errorf("expected: register project|user [directory]")
			}

			options := register.Options{Scope: positional[0], ServerArgs: serverArgs}
			if len(positional) == 2 {
				if options.Scope != register.ScopeProject {
					return fmt.Errorf("a directory is only accepted for the %s scope", register.ScopeProject)
				}
				options.Directory = positional[1]
			}
			options.ServerName, _ = cmd.Flags().GetString("name")
			if options.ServerName == "" {
				options.ServerName = register.DeriveServerName(os.Args[0])
			}

			configPath, err := register.Run(options)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s scope) in %s\n", options.ServerName, options.Scope, configPath)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Server name in the MCP config (default: derived from the binary name)")
	return cmd
}
