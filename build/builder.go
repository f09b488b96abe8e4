package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/classify"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/ignore"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/language"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/minifier"
)

// ErrTimeout is reported for files whose minification exceeded the
// per-file timeout.
var ErrTimeout = errors.New("minification timed out")

// Minifier is the external minification service. Each call is independent
// and may fail; failures never abort a build.
type Minifier interface {
	MinifyJS(src string, opts minifier.JSOptions) (string, error)
	MinifyCSS(src string, opts minifier.CSSOptions) (string, error)
	MinifyHTML(src string, opts minifier.HTMLOptions) (string, error)
}

// Options configures a Builder.
type Options struct {
	InputDir  string
	OutputDir string
	// Workers of 0 means runtime.NumCPU(); 1 processes files strictly in walk order.
	Workers int
	// FileTimeout of 0 disables the per-file limit.
	FileTimeout time.Duration
	Precompress bool
	Incremental bool
}

// handler turns source text of one kind into minified text.
type handler func(src string) (string, classify.Flags, error)

// Builder mirrors an input tree into an output tree, minifying JavaScript,
// CSS and HTML/EJS files and copying everything else.
type Builder struct {
	options  Options
	minifier Minifier
	ignore   *ignore.Matcher
	logger   *slog.Logger
	handlers map[language.Kind]handler
}

// Result is everything one full build produced.
type Result struct {
	Outcomes []Outcome
	Summary  Summary
}

// NewBuilder validates options and creates a builder. A nil matcher only
// guards the output root.
func NewBuilder(options Options, service Minifier, matcher *ignore.Matcher, logger *slog.Logger) (*Builder, error) {
	inputDir, err := filepath.Abs(options.InputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving input root %s: %w", options.InputDir, err)
	}
	outputDir, err := filepath.Abs(options.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output root %s: %w", options.OutputDir, err)
	}
	if inputDir == outputDir {
		return nil, fmt.Errorf("output root %s must differ from input root", outputDir)
	}
	if rel, err := filepath.Rel(outputDir, inputDir); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("input root %s must not lie inside output root %s", inputDir, outputDir)
	}
	options.InputDir = inputDir
	options.OutputDir = outputDir

	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	if matcher == nil {
		matcher = ignore.NewMatcher(ignore.MatcherOptions{RootDir: inputDir, OutputDir: outputDir})
	}

	b := &Builder{
		options:  options,
		minifier: service,
		ignore:   matcher,
		logger:   logger,
	}
	b.handlers = map[language.Kind]handler{
		language.KindJS:   b.minifyJS,
		language.KindCSS:  b.minifyCSS,
		language.KindHTML: b.minifyHTML,
	}
	return b, nil
}

// InputDir returns the absolute input root.
func (b *Builder) InputDir() string { return b.options.InputDir }

// OutputDir returns the absolute output root.
func (b *Builder) OutputDir() string { return b.options.OutputDir }

// Matcher returns the ignore rules the builder applies.
func (b *Builder) Matcher() *ignore.Matcher { return b.ignore }

func (b *Builder) minifyJS(src string) (string, classify.Flags, error) {
	flags := classify.Classify(src)
	out, err := b.minifier.MinifyJS(src, minifier.NewJSOptions(flags))
	return out, flags, err
}

func (b *Builder) minifyCSS(src string) (string, classify.Flags, error) {
	out, err := b.minifier.MinifyCSS(src, minifier.NewCSSOptions())
	return out, classify.Flags{}, err
}

func (b *Builder) minifyHTML(src string) (string, classify.Flags, error) {
	out, err := b.minifier.MinifyHTML(src, minifier.NewHTMLOptions())
	return out, classify.Flags{}, err
}

// Run walks the whole input tree. Per-file and per-directory failures are
// recorded in the result; the returned error is reserved for an unusable
// input root or cancellation.
func (b *Builder) Run(ctx context.Context) (Result, error) {
	info, err := os.Stat(b.options.InputDir)
	if err != nil {
		return Result{}, fmt.Errorf("reading input root: %w", err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("input root %s is not a directory", b.options.InputDir)
	}
	return b.RunDir(ctx, b.options.InputDir)
}

// RunDir builds the subtree rooted at dir, which must lie inside the input
// root. Watch mode uses it for directories that appear after the first build.
func (b *Builder) RunDir(ctx context.Context, dir string) (Result, error) {
	start := time.Now()
	walkRoot, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, fmt.Errorf("resolving %s: %w", dir, err)
	}
	if rel := b.relPath(walkRoot); rel == ".." || strings.HasPrefix(rel, "../") {
		return Result{}, fmt.Errorf("%s is outside input root %s", dir, b.options.InputDir)
	}

	var outcomes []Outcome
	var dirErrors int
	var mu sync.Mutex

	record := func(outcome Outcome) {
		mu.Lock()
		outcomes = append(outcomes, outcome)
		mu.Unlock()
	}

	jobs := make(chan FileTask, 100)
	var wg sync.WaitGroup
	for i := 0; i < b.options.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				record(b.ProcessFile(ctx, task))
			}
		}()
	}

	walkErr := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		relPath := b.relPath(path)

		if err != nil {
			// A directory that could not be listed: its subtree is skipped.
			b.logger.Error("cannot read directory", "path", relPath, "error", err)
			mu.Lock()
			dirErrors++
			mu.Unlock()
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != walkRoot && b.ignore.ShouldIgnoreDir(path) {
				b.logger.Debug("skipped directory", "path", relPath)
				return filepath.SkipDir
			}
			outDir := filepath.Join(b.options.OutputDir, filepath.FromSlash(relPath))
			if err := os.MkdirAll(outDir, 0755); err != nil {
				b.logger.Error("cannot create directory", "path", outDir, "error", err)
				mu.Lock()
				dirErrors++
				mu.Unlock()
				return filepath.SkipDir
			}
			return nil
		}

		if b.ignore.ShouldIgnore(path) {
			b.logger.Debug("ignored file", "path", relPath)
			return nil
		}

		entryInfo, err := os.Stat(path)
		if err != nil {
			task := b.newTask(path, relPath)
			record(b.finish(Outcome{Task: task, Status: StatusFailed, Err: fmt.Errorf("stating file: %w", err)}))
			return nil
		}
		if !entryInfo.Mode().IsRegular() {
			b.logger.Debug("skipped non-regular entry", "path", relPath, "mode", entryInfo.Mode().String())
			return nil
		}

		select {
		case jobs <- b.newTask(path, relPath):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	close(jobs)
	wg.Wait()

	slices.SortFunc(outcomes, func(x, y Outcome) int {
		return strings.Compare(x.Task.RelPath, y.Task.RelPath)
	})
	result := Result{
		Outcomes: outcomes,
		Summary:  Summarize(outcomes, dirErrors, time.Since(start)),
	}
	if walkErr != nil {
		return result, fmt.Errorf("walking %s: %w", walkRoot, walkErr)
	}
	return result, nil
}

// TaskFor maps a path inside the input root to its task.
func (b *Builder) TaskFor(inputPath string) (FileTask, error) {
	absPath, err := filepath.Abs(inputPath)
	if err != nil {
		return FileTask{}, fmt.Errorf("resolving %s: %w", inputPath, err)
	}
	relPath := b.relPath(absPath)
	if relPath == "." || relPath == ".." || strings.HasPrefix(relPath, "../") {
		return FileTask{}, fmt.Errorf("%s is outside input root %s", inputPath, b.options.InputDir)
	}
	return b.newTask(absPath, relPath), nil
}

// OutputPathFor returns the mirrored output path of a relative input path.
func (b *Builder) OutputPathFor(relPath string) string {
	return filepath.Join(b.options.OutputDir, filepath.FromSlash(relPath))
}

func (b *Builder) newTask(inputPath, relPath string) FileTask {
	return FileTask{
		InputPath:  inputPath,
		OutputPath: b.OutputPathFor(relPath),
		RelPath:    relPath,
		Kind:       language.DetectKind(inputPath),
	}
}

func (b *Builder) relPath(path string) string {
	relPath, err := filepath.Rel(b.options.InputDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(relPath)
}

// ProcessFile dispatches one task to its handler and writes the result.
// It never returns an error: failures are carried in the outcome.
func (b *Builder) ProcessFile(ctx context.Context, task FileTask) Outcome {
	start := time.Now()
	outcome := b.processFile(ctx, task)
	outcome.Task = task
	outcome.Duration = time.Since(start)
	return b.finish(outcome)
}

func (b *Builder) processFile(ctx context.Context, task FileTask) Outcome {
	info, err := os.Stat(task.InputPath)
	if err != nil {
		return failed(fmt.Errorf("stating file: %w", err))
	}
	outcome := Outcome{InputBytes: info.Size()}

	if b.options.Incremental && isUpToDate(info, task.OutputPath) {
		outcome.Status = StatusSkipped
		return outcome
	}
	if err := os.MkdirAll(filepath.Dir(task.OutputPath), 0755); err != nil {
		return failed(fmt.Errorf("creating output directory: %w", err))
	}

	h, ok := b.handlers[task.Kind]
	if ok && b.ignore.IsFileTooLarge(info.Size()) {
		b.logger.Warn("file exceeds size limit, copying verbatim",
			"path", task.RelPath,
			"size", info.Size(),
			"limit", b.ignore.MaxFileSizeBytes(),
		)
		ok = false
	}
	if !ok {
		n, err := copyFileAtomic(task.InputPath, task.OutputPath)
		if err != nil {
			return failed(fmt.Errorf("copying file: %w", err))
		}
		outcome.Status = StatusCopied
		outcome.OutputBytes = n
		return outcome
	}

	data, err := readFileWithRetry(task.InputPath)
	if err != nil {
		return failed(fmt.Errorf("reading file: %w", err))
	}
	if language.IsBinaryContent(data) {
		return failed(minifier.ErrBinaryContent)
	}

	src := minifier.StripBanner(task.Kind, string(data))
	minified, flags, err := b.runHandler(ctx, h, src)
	outcome.Flags = flags
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	out := []byte(minifier.WithBanner(task.Kind, minified))
	if err := writeFileAtomic(task.OutputPath, out); err != nil {
		return failed(fmt.Errorf("writing output: %w", err))
	}
	outcome.Status = StatusMinified
	outcome.OutputBytes = int64(len(out))

	if b.options.Precompress {
		brPath := task.OutputPath + precompressSuffix
		if n, err := writeBrotli(brPath, out); err != nil {
			b.logger.Warn("precompression failed", "path", task.RelPath, "error", err)
		} else {
			b.logger.Debug("precompressed", "path", brPath, "bytes", n)
		}
	}
	return outcome
}

// runHandler applies the per-file timeout. The engine cannot be interrupted,
// so a timed-out call finishes in the background and its result is dropped.
func (b *Builder) runHandler(ctx context.Context, h handler, src string) (string, classify.Flags, error) {
	if b.options.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.options.FileTimeout)
		defer cancel()
	}

	type handlerResult struct {
		out   string
		flags classify.Flags
		err   error
	}
	done := make(chan handlerResult, 1)
	go func() {
		out, flags, err := h(src)
		done <- handlerResult{out: out, flags: flags, err: err}
	}()

	select {
	case r := <-done:
		return r.out, r.flags, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", classify.Flags{}, fmt.Errorf("%w after %s", ErrTimeout, b.options.FileTimeout)
		}
		return "", classify.Flags{}, ctx.Err()
	}
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// finish logs one line per file.
func (b *Builder) finish(outcome Outcome) Outcome {
	task := outcome.Task
	switch outcome.Status {
	case StatusMinified:
		b.logger.Info("minified",
			"path", task.RelPath,
			"output", task.OutputPath,
			"kind", task.Kind.String(),
			"inputBytes", outcome.InputBytes,
			"outputBytes", outcome.OutputBytes,
		)
		if task.Kind == language.KindJS {
			b.logger.Debug("classified",
				"path", task.RelPath,
				"codeExamples", outcome.Flags.HasCodeExamples,
				"framework", outcome.Flags.HasFrameworkContent,
			)
		}
	case StatusCopied:
		b.logger.Info("copied", "path", task.RelPath, "output", task.OutputPath)
	case StatusSkipped:
		b.logger.Debug("up to date", "path", task.RelPath)
	case StatusFailed:
		b.logger.Error("failed", "path", task.RelPath, "kind", task.Kind.String(), "error", outcome.Err)
	}
	return outcome
}

// RemoveOutput deletes the output mirrored from relPath, including its
// precompressed sibling. Missing outputs are not an error.
func (b *Builder) RemoveOutput(relPath string) error {
	if relPath == "" || relPath == "." || relPath == ".." || strings.HasPrefix(relPath, "../") {
		return fmt.Errorf("refusing to remove %q outside the output root", relPath)
	}
	outPath := b.OutputPathFor(relPath)

	info, err := os.Lstat(outPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stating output %s: %w", outPath, err)
	}
	if info.IsDir() {
		if err := os.RemoveAll(outPath); err != nil {
			return fmt.Errorf("removing output directory %s: %w", outPath, err)
		}
		return nil
	}
	if err := os.Remove(outPath); err != nil {
		return fmt.Errorf("removing output %s: %w", outPath, err)
	}
	if err := os.Remove(outPath + precompressSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing output %s: %w", outPath+precompressSuffix, err)
	}
	return nil
}
