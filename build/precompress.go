package build

import (
	"io"

	"github.com/andybalholm/brotli"
)

// precompressSuffix is appended to an output path for its brotli sibling.
const precompressSuffix = ".br"

// writeBrotli stores a brotli-compressed copy of data at path.
func writeBrotli(path string, data []byte) (int64, error) {
	var written int64
	err := writeAtomic(path, func(w io.Writer) error {
		counter := &countingWriter{w: w}
		bw := brotli.NewWriterLevel(counter, brotli.BestCompression)
		if _, err := bw.Write(data); err != nil {
			bw.Close()
			return err
		}
		if err := bw.Close(); err != nil {
			return err
		}
		written = counter.n
		return nil
	})
	return written, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
