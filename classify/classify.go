package classify

import (
	"regexp"
	"strings"
)

// Flags describes what a JavaScript source appears to contain.
// Detection is substring based, so prose such as "UI component" inside a
// comment still sets HasFrameworkContent.
type Flags struct {
	HasCodeExamples     bool `json:"hasCodeExamples" yaml:"hasCodeExamples"`
	HasFrameworkContent bool `json:"hasFrameworkContent" yaml:"hasFrameworkContent"`
}

// codeExampleMarkers are substrings that indicate embedded documentation or
// code samples which must stay human readable.
var codeExampleMarkers = []string{
	"code:",
	"`",
	"language-",
}

// frameworkMarkers are substrings that indicate UI-component framework code
// whose class and function names must survive minification.
var frameworkMarkers = []string{
	"React",
	"jsx",
	"styled",
	"component",
}

// reactClassPattern matches a component class declaration on a single line.
var reactClassPattern = regexp.MustCompile(`class.*extends React`)

// Classify inspects raw JavaScript text and returns its flags.
func Classify(text string) Flags {
	return Flags{
		HasCodeExamples:     HasCodeExamples(text),
		HasFrameworkContent: HasFrameworkContent(text),
	}
}

// HasCodeExamples reports whether text contains any code example marker.
func HasCodeExamples(text string) bool {
	return containsAny(text, codeExampleMarkers)
}

// HasFrameworkContent reports whether text contains a framework marker or a
// component class declaration.
func HasFrameworkContent(text string) bool {
	if containsAny(text, frameworkMarkers) {
		return true
	}
	return reactClassPattern.MatchString(text)
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
