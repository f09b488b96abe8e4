package build

import (
	"time"

	"github.com/samber/lo"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/classify"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/language"
)

// FileTask is one regular file of the input tree and its mirrored output.
type FileTask struct {
	InputPath  string
	OutputPath string
	// RelPath is relative to the input root, with forward slashes.
	RelPath string
	Kind    language.Kind
}

// Status is the terminal state of a task.
type Status string

const (
	StatusMinified Status = "minified"
	StatusCopied   Status = "copied"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// Outcome records what happened to one task.
type Outcome struct {
	Task        FileTask
	Status      Status
	Err         error
	InputBytes  int64
	OutputBytes int64
	// Flags is only set for JavaScript.
	Flags    classify.Flags
	Duration time.Duration
}

// Summary aggregates the outcomes of one build.
type Summary struct {
	Minified    int           `json:"minified" yaml:"minified"`
	Copied      int           `json:"copied" yaml:"copied"`
	Failed      int           `json:"failed" yaml:"failed"`
	Skipped     int           `json:"skipped" yaml:"skipped"`
	DirErrors   int           `json:"dirErrors" yaml:"dirErrors"`
	InputBytes  int64         `json:"inputBytes" yaml:"inputBytes"`
	OutputBytes int64         `json:"outputBytes" yaml:"outputBytes"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// HasFailures reports whether any file or directory failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.DirErrors > 0
}

// Summarize counts outcomes by status and totals their sizes.
func Summarize(outcomes []Outcome, dirErrors int, duration time.Duration) Summary {
	byStatus := lo.CountValuesBy(outcomes, func(o Outcome) Status { return o.Status })
	return Summary{
		Minified:    byStatus[StatusMinified],
		Copied:      byStatus[StatusCopied],
		Failed:      byStatus[StatusFailed],
		Skipped:     byStatus[StatusSkipped],
		DirErrors:   dirErrors,
		InputBytes:  lo.SumBy(outcomes, func(o Outcome) int64 { return o.InputBytes }),
		OutputBytes: lo.SumBy(outcomes, func(o Outcome) int64 { return o.OutputBytes }),
		Duration:    duration,
	}
}
