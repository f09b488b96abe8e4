package minifier

import (
	"github.com/dlclark/regexp2"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/classify"
)

// QuoteStyle selects how the JavaScript printer quotes strings.
type QuoteStyle int

const (
	QuoteAuto QuoteStyle = iota
	QuotePreferSingle
	QuotePreferDouble
	QuoteKeepOriginal
)

// ECMAVersion is the language edition scripts are emitted for.
const ECMAVersion = 2022

// JSOptions is the request sent to the JavaScript minifier.
// A value is built once per file and never modified afterwards.
type JSOptions struct {
	DeadCode     bool
	DropConsole  bool
	DropDebugger bool
	Passes       int

	KeepClassNames bool
	KeepFuncNames  bool
	KeepInfinity   bool
	KeepFuncArgs   bool

	MangleTopLevel   bool
	MangleProperties bool

	StripComments       bool
	QuoteStyle          QuoteStyle
	PreserveAnnotations bool
	Beautify            bool
	KeepQuotedProps     bool

	// NameCache is nil when symbol-rename caching is disabled.
	NameCache map[string]string

	ECMAVersion int
	Safari10    bool
}

// NewJSOptions derives the JavaScript request from classification flags.
// Files with framework content keep their class and function names; files
// with code examples stay readable and keep top-level names.
func NewJSOptions(flags classify.Flags) JSOptions {
	opts := JSOptions{
		DeadCode:     true,
		DropConsole:  false,
		DropDebugger: true,
		Passes:       2,

		KeepClassNames: flags.HasFrameworkContent,
		KeepFuncNames:  flags.HasFrameworkContent,
		KeepInfinity:   true,
		KeepFuncArgs:   true,

		MangleTopLevel:   !flags.HasFrameworkContent && !flags.HasCodeExamples,
		MangleProperties: false,

		StripComments:       true,
		QuoteStyle:          QuotePreferSingle,
		PreserveAnnotations: true,
		Beautify:            flags.HasCodeExamples,
		KeepQuotedProps:     true,

		ECMAVersion: ECMAVersion,
		Safari10:    true,
	}
	if flags.HasFrameworkContent {
		opts.NameCache = make(map[string]string)
	}
	return opts
}

// KeepsNames reports whether the request forbids renaming any binding.
func (o JSOptions) KeepsNames() bool {
	return !o.MangleTopLevel || o.KeepClassNames || o.KeepFuncNames
}

// CSSOptions is the request sent to the CSS minifier.
type CSSOptions struct {
	Level1              bool
	Level2              bool
	RestructureRules    bool
	RemoveUnusedAtRules bool
}

// NewCSSOptions returns the fixed, most aggressive CSS request.
func NewCSSOptions() CSSOptions {
	return CSSOptions{
		Level1:              true,
		Level2:              true,
		RestructureRules:    true,
		RemoveUnusedAtRules: true,
	}
}

// HTMLOptions is the request sent to the HTML minifier.
type HTMLOptions struct {
	CollapseWhitespace            bool
	ConservativeCollapse          bool
	RemoveComments                bool
	RemoveEmptyAttributes         bool
	RemoveRedundantAttributes     bool
	RemoveScriptTypeAttributes    bool
	RemoveStyleLinkTypeAttributes bool
	MinifyCSS                     bool
	MinifyJS                      bool
	UseShortDoctype               bool
	MinifyURLs                    bool
	CaseSensitive                 bool
	PreserveAttributeQuotes       bool

	// ProcessScripts lists script types whose bodies are minified even
	// though they are not JavaScript.
	ProcessScripts []string

	// IgnoreFragments are passed through unmodified, matched in order.
	IgnoreFragments []*regexp2.Regexp
}

// NewHTMLOptions returns the fixed HTML request with the template-aware
// ignore fragments.
func NewHTMLOptions() HTMLOptions {
	return HTMLOptions{
		CollapseWhitespace:            true,
		ConservativeCollapse:          true,
		RemoveComments:                true,
		RemoveEmptyAttributes:         true,
		RemoveRedundantAttributes:     false,
		RemoveScriptTypeAttributes:    true,
		RemoveStyleLinkTypeAttributes: true,
		MinifyCSS:                     true,
		MinifyJS:                      true,
		UseShortDoctype:               true,
		MinifyURLs:                    false,
		CaseSensitive:                 true,
		PreserveAttributeQuotes:       true,
		ProcessScripts:                []string{"application/ld+json"},
		IgnoreFragments:               IgnoreFragments(),
	}
}
