package manifest

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/classify"
)

// Record is the latest outcome for one input file.
type Record struct {
	Path        string          `json:"path" yaml:"path"` // relative to the input root, forward slashes
	Output      string          `json:"output" yaml:"output"`
	Kind        string          `json:"kind" yaml:"kind"`
	Status      build.Status    `json:"status" yaml:"status"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
	InputBytes  int64           `json:"inputBytes" yaml:"inputBytes"`
	OutputBytes int64           `json:"outputBytes" yaml:"outputBytes"`
	Flags       *classify.Flags `json:"flags,omitempty" yaml:"flags,omitempty"`
	DurationMs  int64           `json:"durationMs" yaml:"durationMs"`
	UpdatedAt   time.Time       `json:"updatedAt" yaml:"updatedAt"`
}

// NewRecord converts a build outcome into a record.
func NewRecord(outcome build.Outcome) *Record {
	record := &Record{
		Path:        outcome.Task.RelPath,
		Output:      outcome.Task.OutputPath,
		Kind:        outcome.Task.Kind.String(),
		Status:      outcome.Status,
		InputBytes:  outcome.InputBytes,
		OutputBytes: outcome.OutputBytes,
		DurationMs:  outcome.Duration.Milliseconds(),
		UpdatedAt:   time.Now(),
	}
	if outcome.Err != nil {
		record.Error = outcome.Err.Error()
	}
	if record.Kind == "js" && outcome.Status != build.StatusSkipped {
		flags := outcome.Flags
		record.Flags = &flags
	}
	return record
}

// Manifest keeps the latest record per input file. It uses a map for
// lookups and a sorted slice for glob iteration.
type Manifest struct {
	mu          sync.RWMutex
	records     map[string]*Record
	sortedPaths []string
	buildID     string
	builtAt     time.Time
	summary     build.Summary
}

// New creates an empty manifest.
func New() *Manifest {
	return &Manifest{
		records:     make(map[string]*Record),
		sortedPaths: make([]string, 0),
	}
}

// RecordBuild replaces the manifest contents with a full build result and
// assigns a new build ID.
func (m *Manifest) RecordBuild(result build.Result) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]*Record, len(result.Outcomes))
	m.sortedPaths = make([]string, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		m.put(NewRecord(outcome))
	}
	m.buildID = uuid.NewString()
	m.builtAt = time.Now()
	m.summary = result.Summary
	return m.buildID
}

// Record adds or updates the record of a single outcome.
func (m *Manifest) Record(outcome build.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(NewRecord(outcome))
}

func (m *Manifest) put(record *Record) {
	_, exists := m.records[record.Path]
	m.records[record.Path] = record
	if !exists {
		m.sortedPaths = append(m.sortedPaths, record.Path)
		sort.Strings(m.sortedPaths)
	}
}

// Remove drops the record of relPath and of every path below it.
func (m *Manifest) Remove(relPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := relPath + "/"
	m.sortedPaths = lo.Filter(m.sortedPaths, func(path string, _ int) bool {
		if path == relPath || strings.HasPrefix(path, prefix) {
			delete(m.records, path)
			return false
		}
		return true
	})
}

// Get returns the record for a relative path, or nil.
func (m *Manifest) Get(relPath string) *Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[relPath]
}

// Count returns the number of records.
func (m *Manifest) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// BuildID identifies the last full build, empty before the first one.
func (m *Manifest) BuildID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.buildID
}

// BuiltAt is when the last full build was recorded.
func (m *Manifest) BuiltAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.builtAt
}

// LastSummary returns the summary of the last full build.
func (m *Manifest) LastSummary() build.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary
}

// StatusCounts returns the number of records per status.
func (m *Manifest) StatusCounts() map[build.Status]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.CountValuesBy(lo.Values(m.records), func(r *Record) build.Status { return r.Status })
}

// KindCounts returns the number of records per file kind.
func (m *Manifest) KindCounts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.CountValuesBy(lo.Values(m.records), func(r *Record) string { return r.Kind })
}

// TotalBytes returns the summed input and output sizes of all records.
func (m *Manifest) TotalBytes() (int64, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := lo.Values(m.records)
	return lo.SumBy(records, func(r *Record) int64 { return r.InputBytes }),
		lo.SumBy(records, func(r *Record) int64 { return r.OutputBytes })
}

// Search returns records whose path matches a doublestar glob, optionally
// restricted to one status. The pattern is matched against relative paths.
func (m *Manifest) Search(pattern string, status build.Status, maxResults int) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []*Record
	for _, path := range m.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		matched, err := doublestar.Match(pattern, path)
		if err != nil || !matched {
			continue
		}
		record := m.records[path]
		if status != "" && record.Status != status {
			continue
		}
		results = append(results, record)
	}
	return results, nil
}

// All returns every record in path order.
func (m *Manifest) All() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.sortedPaths, func(path string, _ int) *Record { return m.records[path] })
}
