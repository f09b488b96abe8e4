package minifier

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/parse/v2"
	jsparse "github.com/tdewolff/parse/v2/js"
)

const (
	jsMediaType   = "application/javascript"
	cssMediaType  = "text/css"
	htmlMediaType = "text/html"
)

// ErrBinaryContent is returned for known text assets that contain binary data.
var ErrBinaryContent = errors.New("binary content")

var jsMediaTypePattern = regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$")

var (
	scriptTypeAttr = mustCompileAttr(`(<script\b[^>]*?)\s+type\s*=\s*(["']?)(?:text/javascript|application/javascript)\2(?=[\s/>])`)
	styleTypeAttr  = mustCompileAttr(`(<(?:style|link)\b[^>]*?)\s+type\s*=\s*(["']?)text/css\2(?=[\s/>])`)
	emptyAttr      = mustCompileAttr(`(<[A-Za-z][^<>]*?)\s+(?:class|id|style|title|lang|dir|on[a-z]+)\s*=\s*(?:""|'')(?=[\s/>])`)
)

// maxEmptyAttrPasses caps the rewrite loop; each pass removes one empty
// attribute per tag.
const maxEmptyAttrPasses = 16

func mustCompileAttr(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.None)
	re.MatchTimeout = fragmentMatchTimeout
	return re
}

// Engine minifies asset text with tdewolff/minify. It holds no per-call
// state, so one Engine is shared by all workers.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a minification engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// MinifyJS transforms a script according to opts. Readable output is
// produced by reprinting the parsed syntax tree, which keeps every name and
// drops comments. String literals come out double quoted whatever
// opts.QuoteStyle asks for; the printer has no quote setting.
func (e *Engine) MinifyJS(src string, opts JSOptions) (string, error) {
	e.logger.Debug("javascript request",
		"beautify", opts.Beautify,
		"keepNames", opts.KeepsNames(),
		"passes", opts.Passes,
		"ecma", opts.ECMAVersion,
		"nameCache", opts.NameCache != nil,
	)

	if opts.Beautify {
		ast, err := jsparse.Parse(parse.NewInputString(src), jsparse.Options{})
		if err != nil {
			return "", fmt.Errorf("parsing javascript: %w", err)
		}
		out := ast.JSString()
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		return out, nil
	}

	m := minify.New()
	m.Add(jsMediaType, &js.Minifier{
		KeepVarNames: opts.KeepsNames(),
		Version:      opts.ECMAVersion,
	})
	out, err := m.String(jsMediaType, src)
	if err != nil {
		return "", fmt.Errorf("minifying javascript: %w", err)
	}
	return out, nil
}

// MinifyCSS transforms a stylesheet according to opts.
func (e *Engine) MinifyCSS(src string, opts CSSOptions) (string, error) {
	e.logger.Debug("css request",
		"level1", opts.Level1,
		"level2", opts.Level2,
		"restructureRules", opts.RestructureRules,
		"removeUnusedAtRules", opts.RemoveUnusedAtRules,
	)

	m := minify.New()
	m.Add(cssMediaType, &css.Minifier{})
	out, err := m.String(cssMediaType, src)
	if err != nil {
		return "", fmt.Errorf("minifying css: %w", err)
	}
	return out, nil
}

// MinifyHTML transforms a document or template according to opts. Spans
// matched by opts.IgnoreFragments come back byte for byte.
func (e *Engine) MinifyHTML(src string, opts HTMLOptions) (string, error) {
	protected, err := protectFragments(src, opts.IgnoreFragments)
	if err != nil {
		return "", err
	}
	text := protected.Text

	if opts.RemoveScriptTypeAttributes {
		if text, err = scriptTypeAttr.Replace(text, "$1", -1, -1); err != nil {
			return "", fmt.Errorf("removing script type attributes: %w", err)
		}
	}
	if opts.RemoveStyleLinkTypeAttributes {
		if text, err = styleTypeAttr.Replace(text, "$1", -1, -1); err != nil {
			return "", fmt.Errorf("removing style type attributes: %w", err)
		}
	}
	if opts.RemoveEmptyAttributes {
		if text, err = removeEmptyAttributes(text); err != nil {
			return "", err
		}
	}

	out, err := newHTMLMinifier(opts).String(htmlMediaType, text)
	if err != nil {
		return "", fmt.Errorf("minifying html: %w", err)
	}

	e.logger.Debug("html request", "fragments", protected.FragmentCount())
	return protected.restore(out), nil
}

func removeEmptyAttributes(text string) (string, error) {
	for i := 0; i < maxEmptyAttrPasses; i++ {
		next, err := emptyAttr.Replace(text, "$1", -1, -1)
		if err != nil {
			return "", fmt.Errorf("removing empty attributes: %w", err)
		}
		if next == text {
			break
		}
		text = next
	}
	return text, nil
}

// newHTMLMinifier registers the HTML minifier together with the minifiers
// used for embedded styles, scripts and processed script types.
func newHTMLMinifier(opts HTMLOptions) *minify.M {
	m := minify.New()
	m.Add(htmlMediaType, &html.Minifier{
		KeepComments:        !opts.RemoveComments,
		KeepDefaultAttrVals: !opts.RemoveRedundantAttributes,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          opts.PreserveAttributeQuotes,
		KeepWhitespace:      !opts.CollapseWhitespace,
	})
	if opts.MinifyCSS {
		m.Add(cssMediaType, &css.Minifier{})
	}
	if opts.MinifyJS {
		m.AddRegexp(jsMediaTypePattern, &js.Minifier{Version: ECMAVersion})
	}
	for _, scriptType := range opts.ProcessScripts {
		if strings.HasSuffix(scriptType, "json") {
			m.AddFunc(scriptType, json.Minify)
		}
	}
	return m
}
