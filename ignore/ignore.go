package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// RulesFileName is the per-project ignore file read from the input root.
const RulesFileName = ".minipolarignore"

const gitignoreFileName = ".gitignore"

// Matcher decides which entries of the input tree the build skips.
// It combines .minipolarignore rules, optional .gitignore rules, custom
// exclude globs, optional default junk patterns and the output root guard.
// Thread-safe: Reload() takes the write lock, the match methods the read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	outputDir        string
	rulesIgnore      gitignore.GitIgnore
	gitIgnore        gitignore.GitIgnore
	respectGitignore bool
	defaultIgnores   bool
	customPatterns   []string
	maxFileSizeBytes int64
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir string
	// OutputDir is never walked when it lies inside RootDir.
	OutputDir        string
	CustomPatterns   []string
	RespectGitignore bool
	DefaultIgnores   bool
	// MaxFileSizeBytes of 0 disables the size limit.
	MaxFileSizeBytes int64
}

// NewMatcher creates an ignore matcher rooted at options.RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:          filepath.Clean(options.RootDir),
		respectGitignore: options.RespectGitignore,
		defaultIgnores:   options.DefaultIgnores,
		customPatterns:   options.CustomPatterns,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}
	if options.OutputDir != "" {
		matcher.outputDir = filepath.Clean(options.OutputDir)
	}
	matcher.rulesIgnore, matcher.gitIgnore = matcher.loadRules()
	return matcher
}

// ShouldIgnore reports whether the entry at absolutePath is excluded from
// the build.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.isOutputPath(absolutePath) {
		return true
	}

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if m.defaultIgnores && matchesDefaultPatterns(relativePath) {
		return true
	}

	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	// Relative() does not require the path to exist on disk
	for _, rules := range []gitignore.GitIgnore{m.rulesIgnore, m.gitIgnore} {
		if rules == nil {
			continue
		}
		if match := rules.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir reports whether a directory should be skipped entirely.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	if m.defaultIgnores {
		switch filepath.Base(absolutePath) {
		case ".git", ".svn", ".hg":
			return true
		}
	}
	return m.ShouldIgnore(absolutePath)
}

// IsOutputPath reports whether absolutePath is the output root or lies below it.
func (m *Matcher) IsOutputPath(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isOutputPath(absolutePath)
}

func (m *Matcher) isOutputPath(absolutePath string) bool {
	if m.outputDir == "" {
		return false
	}
	rel, err := filepath.Rel(m.outputDir, filepath.Clean(absolutePath))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// IsFileTooLarge reports whether a file should be copied instead of minified.
func (m *Matcher) IsFileTooLarge(fileSize int64) bool {
	return m.maxFileSizeBytes > 0 && fileSize > m.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured limit, 0 when unlimited.
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// IsRulesFile reports whether a base name is one of the ignore files this
// matcher loads, so watchers know when to call Reload.
func (m *Matcher) IsRulesFile(baseName string) bool {
	if baseName == RulesFileName {
		return true
	}
	return m.respectGitignore && baseName == gitignoreFileName
}

// matchesDefaultPatterns checks every path component against the junk list.
func matchesDefaultPatterns(relativePath string) bool {
	for _, part := range strings.Split(relativePath, "/") {
		partLower := strings.ToLower(part)
		for _, pattern := range DefaultIgnorePatterns {
			if matched, err := doublestar.Match(strings.ToLower(pattern), partLower); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// matchesCustomPatterns matches --exclude globs against the relative path
// and its base name. Patterns may use ** to span directories.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range m.customPatterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// Reload re-reads the ignore files from disk.
func (m *Matcher) Reload() {
	rulesIgnore, gitIgnore := m.loadRules()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rulesIgnore = rulesIgnore
	m.gitIgnore = gitIgnore
}

func (m *Matcher) loadRules() (gitignore.GitIgnore, gitignore.GitIgnore) {
	rules := loadIgnoreFile(filepath.Join(m.rootDir, RulesFileName), m.rootDir)
	if !m.respectGitignore {
		return rules, nil
	}
	return rules, loadIgnoreFile(filepath.Join(m.rootDir, gitignoreFileName), m.rootDir)
}

// loadIgnoreFile reads an ignore file through an io.Reader so the handle is
// closed before the matcher is used (Windows keeps open files locked).
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
