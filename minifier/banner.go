package minifier

import (
	"strings"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/language"
)

// BannerArt is the identifying text placed at the top of every minified file.
const BannerArt = `__________      .__               .__        
\______   \____ |  | _____ _______|__| ______
 |     ___/  _ \|  | \__  \\_  __ \  |/  ___/
 |    |  (  <_> )  |__/ __ \|  | \/  |\___ \ 
 |____|   \____/|____(____  /__|  |__/____  >
                          \/              \/ `

// commentDelims returns the comment open and close markers for a kind.
func commentDelims(kind language.Kind) (string, string) {
	if kind == language.KindHTML {
		return "<!--", "-->"
	}
	return "/*", "*/"
}

// Banner renders the banner comment for a kind, including its trailing newline.
func Banner(kind language.Kind) string {
	open, end := commentDelims(kind)
	return open + "\n" + BannerArt + "\n" + end + "\n"
}

// WithBanner prefixes minified content with the banner for its kind.
func WithBanner(kind language.Kind, content string) string {
	return Banner(kind) + content
}

// StripBanner removes any leading banners from content, so output fed back
// through the pipeline never accumulates stacked banners.
func StripBanner(kind language.Kind, content string) string {
	banner := Banner(kind)
	for strings.HasPrefix(content, banner) {
		content = content[len(banner):]
	}
	return content
}
