package language

import (
	"path/filepath"
	"strings"
)

// Kind is the asset format a file is dispatched as.
type Kind int

const (
	KindOther Kind = iota
	KindJS
	KindCSS
	KindHTML
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindJS:
		return "js"
	case KindCSS:
		return "css"
	case KindHTML:
		return "html"
	default:
		return "other"
	}
}

// ExtensionToKind maps lowercased file extensions (without dot) to kinds.
// Anything not listed is copied verbatim.
var ExtensionToKind = map[string]Kind{
	"js":   KindJS,
	"css":  KindCSS,
	"html": KindHTML,
	// EJS templates are HTML with embedded tags; the tags are protected by
	// the HTML ignore fragments.
	"ejs": KindHTML,
}

// DetectKind returns the dispatch kind for a file path based on its
// extension, compared case-insensitively.
func DetectKind(filePath string) Kind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext == "" {
		return KindOther
	}
	if kind, ok := ExtensionToKind[ext]; ok {
		return kind
	}
	return KindOther
}

// ParseKind is the inverse of Kind.String. Unknown names yield KindOther.
func ParseKind(name string) Kind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "js", "javascript":
		return KindJS
	case "css":
		return KindCSS
	case "html", "ejs":
		return KindHTML
	default:
		return KindOther
	}
}
