package ignore

// DefaultIgnorePatterns are version-control and operating-system leftovers
// that never belong in a deployed asset tree. They only apply when default
// ignores are enabled; otherwise every input entry is mirrored.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Editor swap and backup files
	"*.swp",
	"*.swo",
	"*~",

	// OS files
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
}
