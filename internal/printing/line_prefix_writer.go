package printing

import (
	"bytes"
	"io"
	"sync"
)

// NewLinePrefixWriter returns a writer that starts every line written to
// to with prefix.
func NewLinePrefixWriter(to io.Writer, prefix string) *LinePrefixWriter {
	return &LinePrefixWriter{
		to:          to,
		prefix:      []byte(prefix),
		atLineStart: true,
	}
}

// LinePrefixWriter marks the lines of a child process stream, e.g. the
// stderr of "go test", before they are mixed into the log. Each call to
// Write reaches the underlying writer as a single Write so that streams
// sharing a log do not interleave within a chunk.
type LinePrefixWriter struct {
	mu          sync.Mutex
	to          io.Writer
	prefix      []byte
	atLineStart bool
	buf         []byte
	spans       [][2]int
}

var _ io.Writer = (*LinePrefixWriter)(nil)

// Write returns the number of bytes of p that made it to the underlying
// writer. Prefix bytes are never counted, so on success the count is
// len(p).
func (w *LinePrefixWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	// spans holds the [start, end) offsets in buf of the bytes taken from p.
	w.buf, w.spans = w.buf[:0], w.spans[:0]
	for rest := p; len(rest) > 0; {
		line := rest
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i+1]
		}
		rest = rest[len(line):]

		if w.atLineStart {
			w.buf = append(w.buf, w.prefix...)
		}
		start := len(w.buf)
		w.buf = append(w.buf, line...)
		w.spans = append(w.spans, [2]int{start, len(w.buf)})
		w.atLineStart = line[len(line)-1] == '\n'
	}

	written, err := w.to.Write(w.buf)
	if err == nil {
		return len(p), nil
	}
	n := 0
	for _, s := range w.spans {
		if written <= s[0] {
			break
		}
		n += min(written, s[1]) - s[0]
	}
	return n, err
}
