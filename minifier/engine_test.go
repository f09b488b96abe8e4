package minifier

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/classify"
)

func testEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func Test_Engine_MinifyCSS(t *testing.T) {
	out, err := testEngine().MinifyCSS("body { color: red; ; }", NewCSSOptions())
	if err != nil {
		t.Fatalf("MinifyCSS: %v", err)
	}
	if out != "body{color:red}" {
		t.Errorf("MinifyCSS = %q, want %q", out, "body{color:red}")
	}
}

func Test_Engine_MinifyCSS_Idempotent(t *testing.T) {
	e := testEngine()
	first, err := e.MinifyCSS("a { margin: 0px 0px; }\n", NewCSSOptions())
	if err != nil {
		t.Fatalf("MinifyCSS: %v", err)
	}
	second, err := e.MinifyCSS(first, NewCSSOptions())
	if err != nil {
		t.Fatalf("MinifyCSS: %v", err)
	}
	if first != second {
		t.Errorf("second pass changed output: %q -> %q", first, second)
	}
}

func Test_Engine_MinifyJS_SyntaxError(t *testing.T) {
	e := testEngine()
	src := "function ("

	if _, err := e.MinifyJS(src, NewJSOptions(classify.Classify(src))); err == nil {
		t.Error("expected syntax error from minifier")
	}
	if _, err := e.MinifyJS(src, NewJSOptions(classify.Flags{HasCodeExamples: true})); err == nil {
		t.Error("expected syntax error from readable printer")
	}
}

func Test_Engine_MinifyJS_Shrinks(t *testing.T) {
	src := "function add(first, second) {\n    // sum\n    return first + second;\n}\n"

	out, err := testEngine().MinifyJS(src, NewJSOptions(classify.Classify(src)))
	if err != nil {
		t.Fatalf("MinifyJS: %v", err)
	}
	if len(out) >= len(src) {
		t.Errorf("expected shorter output, got %q", out)
	}
	if strings.Contains(out, "// sum") {
		t.Error("expected comments to be removed")
	}
}

func Test_Engine_MinifyJS_ReadableKeepsNames(t *testing.T) {
	src := "function greet(person) { return `hi ${person}`; }"
	opts := NewJSOptions(classify.Classify(src))
	if !opts.Beautify {
		t.Fatal("expected backtick source to request readable output")
	}

	out, err := testEngine().MinifyJS(src, opts)
	if err != nil {
		t.Fatalf("MinifyJS: %v", err)
	}
	for _, name := range []string{"greet", "person"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %q to survive, got %q", name, out)
		}
	}
}

func Test_Engine_MinifyHTML_PreservesTemplateTags(t *testing.T) {
	src := "<div>\n    <p><%= user.name %></p>\n    <span>{{ title }}</span>\n</div>\n"

	out, err := testEngine().MinifyHTML(src, NewHTMLOptions())
	if err != nil {
		t.Fatalf("MinifyHTML: %v", err)
	}
	for _, fragment := range []string{"<%= user.name %>", "{{ title }}"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("expected %q preserved, got %q", fragment, out)
		}
	}
	if strings.Contains(out, "__minipolar_") {
		t.Errorf("placeholder leaked into output: %q", out)
	}
	if len(out) >= len(src) {
		t.Errorf("expected shorter output, got %q", out)
	}
}

func Test_Engine_MinifyHTML_RemovesComments(t *testing.T) {
	out, err := testEngine().MinifyHTML("<p>a</p><!-- note --><p>b</p>", NewHTMLOptions())
	if err != nil {
		t.Fatalf("MinifyHTML: %v", err)
	}
	if strings.Contains(out, "note") {
		t.Errorf("expected comment removed, got %q", out)
	}
}

func Test_RemoveEmptyAttributes(t *testing.T) {
	got, err := removeEmptyAttributes(`<div class="" id="a" title=''><b onclick="">x</b></div>`)
	if err != nil {
		t.Fatalf("removeEmptyAttributes: %v", err)
	}
	want := `<div id="a"><b>x</b></div>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func Test_TypeAttributePatterns(t *testing.T) {
	script, err := scriptTypeAttr.Replace(`<script type="text/javascript">x()</script>`, "$1", -1, -1)
	if err != nil {
		t.Fatal(err)
	}
	if script != `<script>x()</script>` {
		t.Errorf("script = %q", script)
	}

	ldJSON, err := scriptTypeAttr.Replace(`<script type="application/ld+json">{}</script>`, "$1", -1, -1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ldJSON, "ld+json") {
		t.Error("non-JavaScript script types must be kept")
	}

	link, err := styleTypeAttr.Replace(`<link rel="stylesheet" type="text/css" href="a.css">`, "$1", -1, -1)
	if err != nil {
		t.Fatal(err)
	}
	if link != `<link rel="stylesheet" href="a.css">` {
		t.Errorf("link = %q", link)
	}
}

func Test_Engine_MinifyHTML_KeepsLiteralPlaceholderText(t *testing.T) {
	e := testEngine()
	src := "<p>__minipolar_fragment_0__</p><p>{{ x }}</p>"
	out, err := e.MinifyHTML(src, NewHTMLOptions())
	if err != nil {
		t.Fatalf("MinifyHTML: %v", err)
	}
	if !strings.Contains(out, "<p>__minipolar_fragment_0__</p>") {
		t.Errorf("literal text rewritten, got %q", out)
	}
	if strings.Count(out, "{{ x }}") != 1 {
		t.Errorf("expected template tag exactly once, got %q", out)
	}
}

func Test_Engine_MinifyHTML_MinifiesLDJSON(t *testing.T) {
	e := testEngine()
	src := `<script type="application/ld+json">{ "a" : 1 }</script>`
	out, err := e.MinifyHTML(src, NewHTMLOptions())
	if err != nil {
		t.Fatalf("MinifyHTML: %v", err)
	}
	if !strings.Contains(out, `{"a":1}`) {
		t.Errorf("expected minified json body, got %q", out)
	}
	if strings.Contains(out, `{ "a" : 1 }`) {
		t.Errorf("json body left untouched, got %q", out)
	}
}
