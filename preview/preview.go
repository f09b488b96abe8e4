// Package preview serves the output tree over HTTP so minified assets can be
// checked in a browser.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
)

// DefaultCacheAge is the max-age sent for assets when none is configured.
const DefaultCacheAge = 5 * time.Minute

const shutdownTimeout = 10 * time.Second

// precompressedExtensions are never gzipped again.
var precompressedExtensions = []string{".br", ".gz", ".png", ".jpg", ".jpeg", ".gif", ".ico", ".webp", ".woff", ".woff2"}

// BuildStatus is the view of the last build reported by /healthz.
type BuildStatus interface {
	BuildID() string
	BuiltAt() time.Time
	Count() int
	LastSummary() build.Summary
}

// Options configures the preview router.
type Options struct {
	OutputDir string
	// CacheAge of 0 disables caching; assets are then always revalidated.
	CacheAge time.Duration
	Status   BuildStatus
	Logger   *slog.Logger
}

// NewRouter builds the gin engine serving OutputDir at / and a JSON health
// endpoint at /healthz.
func NewRouter(options Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(options.Logger))
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions(precompressedExtensions)))
	router.Use(cacheHeaders(options.CacheAge))

	startTime := time.Now()
	router.GET("/healthz", func(c *gin.Context) {
		body := gin.H{
			"status":    "ok",
			"outputDir": options.OutputDir,
			"uptime":    time.Since(startTime).Round(time.Second).String(),
		}
		if options.Status != nil && options.Status.BuildID() != "" {
			body["buildId"] = options.Status.BuildID()
			body["builtAt"] = options.Status.BuiltAt().UTC().Format(time.RFC3339)
			body["files"] = options.Status.Count()
			body["summary"] = options.Status.LastSummary()
		}
		c.JSON(http.StatusOK, body)
	})

	router.NoRoute(staticHandler(options.OutputDir))
	return router
}

// staticHandler serves files below outputDir. A directory path is answered
// with its index.html.
func staticHandler(outputDir string) gin.HandlerFunc {
	fileServer := http.FileServer(http.Dir(outputDir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.AbortWithStatus(http.StatusMethodNotAllowed)
			return
		}
		name := filepath.Join(outputDir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if _, err := os.Stat(name); err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found", "path": c.Request.URL.Path})
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}

// cacheHeaders lets browsers cache assets for maxAge but always revalidate
// HTML so a rebuild shows up on reload.
func cacheHeaders(maxAge time.Duration) gin.HandlerFunc {
	noStore := cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})
	cached := cachecontrol.New(cachecontrol.Config{
		Public: true,
		MaxAge: cachecontrol.Duration(maxAge),
	})
	return func(c *gin.Context) {
		urlPath := c.Request.URL.Path
		if maxAge <= 0 || urlPath == "/healthz" || strings.HasSuffix(urlPath, "/") || strings.HasSuffix(urlPath, ".html") {
			noStore(c)
			return
		}
		cached(c)
		c.Header("Vary", "Accept-Encoding")
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("preview request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Serve runs the HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("preview server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving preview: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down preview: %w", err)
	}
	return nil
}
