package language

import "bytes"

// sniffSize is how many leading bytes are inspected for binary markers.
const sniffSize = 512

// IsBinaryContent reports whether data looks binary: a NUL byte within the
// first sniffSize bytes. Text assets never contain NUL, so a .js or .css file
// that does is not something a minifier should be given.
func IsBinaryContent(data []byte) bool {
	if len(data) > sniffSize {
		data = data[:sniffSize]
	}
	return bytes.IndexByte(data, 0) >= 0
}
