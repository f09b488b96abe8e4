package minifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"
)

// fragmentMatchTimeout bounds a single fragment scan. The lazy [\s\S]*?
// patterns can backtrack heavily on large unterminated templates.
const fragmentMatchTimeout = 2 * time.Second

// ignoreFragmentPatterns are template-engine and embedded-code spans that the
// HTML minifier must not touch. Order matters: earlier patterns claim their
// spans first. Matching is case sensitive.
var ignoreFragmentPatterns = []string{
	// EJS
	`<%[\s\S]*?%>`,
	// PHP-style
	`<\?[\s\S]*?\?>`,
	// Handlebars/Mustache/Vue
	`\{\{[\s\S]*?\}\}`,
	// Liquid/Django/Nunjucks
	`\{%[\s\S]*?%\}`,
	// template literals
	`\$\{[\s\S]*?\}`,
	// custom JSX blocks
	`<jsx>[\s\S]*?</jsx>`,
	// CSS class, id and at-rule blocks embedded in script text
	`(?<=^|\s)\.[\w-]+\s*\{[\s\S]*?\}`,
	`(?<=^|\s)#[\w-]+\s*\{[\s\S]*?\}`,
	`(?<=^|\s)@\w+[\s\S]*?\{[\s\S]*?\}`,
	// React factory calls
	`React\.createElement\([\s\S]*?\)`,
	// styled-components definitions
	"const\\s+\\w+\\s*=\\s*styled\\.[\\s\\S]*?`[\\s\\S]*?`",
	// import and export statements
	`import\s+.*\s+from\s+['"].*['"]`,
	`export\s+.*\{[\s\S]*?\}`,
}

var compiledFragments = compileFragments(ignoreFragmentPatterns)

func compileFragments(patterns []string) []*regexp2.Regexp {
	compiled := make([]*regexp2.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re := regexp2.MustCompile(pattern, regexp2.None)
		re.MatchTimeout = fragmentMatchTimeout
		compiled = append(compiled, re)
	}
	return compiled
}

// IgnoreFragments returns the ordered ignore patterns used for HTML.
func IgnoreFragments() []*regexp2.Regexp {
	out := make([]*regexp2.Regexp, len(compiledFragments))
	copy(out, compiledFragments)
	return out
}

// placeholderPrefix starts every fragment placeholder. The token after it is
// drawn per call and never occurs in the source, so literal text that looks
// like a placeholder is left alone.
const placeholderPrefix = "__minipolar_"

// newPlaceholderToken returns a hex token absent from src. Hex keeps the
// placeholder a single identifier for the embedded JS minifier.
func newPlaceholderToken(src string) string {
	for {
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		if !strings.Contains(src, placeholderPrefix+token) {
			return token
		}
	}
}

// protectedText holds source text with ignored spans swapped for placeholders.
type protectedText struct {
	Text      string
	token     string
	fragments []string
}

// placeholder is an inert token that survives HTML, CSS and JS minification
// unchanged.
func (p protectedText) placeholder(i int) string {
	return fmt.Sprintf("%s%s_%d__", placeholderPrefix, p.token, i)
}

// protectFragments replaces every span matched by patterns with a placeholder.
// Patterns run in order over the progressively rewritten text, so a later
// span may enclose placeholders of earlier ones.
func protectFragments(src string, patterns []*regexp2.Regexp) (protectedText, error) {
	result := protectedText{Text: src, token: newPlaceholderToken(src)}
	for _, re := range patterns {
		rewritten, err := re.ReplaceFunc(result.Text, func(m regexp2.Match) string {
			placeholder := result.placeholder(len(result.fragments))
			result.fragments = append(result.fragments, m.String())
			return placeholder
		}, -1, -1)
		if err != nil {
			return protectedText{}, fmt.Errorf("matching ignore fragment %s: %w", re.String(), err)
		}
		result.Text = rewritten
	}
	return result, nil
}

// restore puts the original spans back. Later fragments are restored first
// because they may contain placeholders of earlier ones.
func (p protectedText) restore(text string) string {
	for i := len(p.fragments) - 1; i >= 0; i-- {
		text = strings.ReplaceAll(text, p.placeholder(i), p.fragments[i])
	}
	return text
}

// FragmentCount is the number of protected spans.
func (p protectedText) FragmentCount() int {
	return len(p.fragments)
}
