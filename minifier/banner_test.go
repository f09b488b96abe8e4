package minifier

import (
	"strings"
	"testing"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/language"
)

func Test_Banner_CommentStyle(t *testing.T) {
	tests := []struct {
		kind       language.Kind
		open, done string
	}{
		{language.KindJS, "/*\n", "*/\n"},
		{language.KindCSS, "/*\n", "*/\n"},
		{language.KindHTML, "<!--\n", "-->\n"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			banner := Banner(tt.kind)
			if !strings.HasPrefix(banner, tt.open) {
				t.Errorf("banner should start with %q", tt.open)
			}
			if !strings.HasSuffix(banner, tt.done) {
				t.Errorf("banner should end with %q", tt.done)
			}
			if !strings.Contains(banner, BannerArt) {
				t.Error("banner should contain the art verbatim")
			}
		})
	}
}

func Test_BannerArt_KeepsTrailingSpaces(t *testing.T) {
	lines := strings.Split(BannerArt, "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6", len(lines))
	}
	if !strings.HasSuffix(lines[0], "        ") {
		t.Error("first line lost its trailing spaces")
	}
	if !strings.HasSuffix(lines[5], `\/ `) {
		t.Error("last line lost its trailing space")
	}
}

func Test_WithBanner_StripBanner(t *testing.T) {
	content := "body{color:red}"
	wrapped := WithBanner(language.KindCSS, content)

	if got := StripBanner(language.KindCSS, wrapped); got != content {
		t.Errorf("StripBanner = %q, want %q", got, content)
	}
	twice := WithBanner(language.KindCSS, wrapped)
	if got := StripBanner(language.KindCSS, twice); got != content {
		t.Errorf("StripBanner on stacked banners = %q, want %q", got, content)
	}
	if got := StripBanner(language.KindHTML, wrapped); got != wrapped {
		t.Error("an HTML strip should not remove a CSS banner")
	}
}
