package printing

import (
	"bytes"
	"io"
	"sync"

	"github.com/acarl005/stripansi"
)

// PrivilegedPrefix marks a write destined for the terminal.
const PrivilegedPrefix = "^priv^"

var privilegedPrefix = []byte(PrivilegedPrefix)

// PrivilegedWriter sends writes starting with PrivilegedPrefix to the
// terminal, without the prefix, and everything else to a log with ANSI
// escape sequences removed. Each Write is routed as a whole.
type PrivilegedWriter struct {
	mu       sync.Mutex
	terminal io.Writer
	log      io.Writer
}

var _ io.Writer = (*PrivilegedWriter)(nil)

// NewPrivilegedWriter returns a PrivilegedWriter. A nil log discards
// unprivileged writes.
func NewPrivilegedWriter(terminal, log io.Writer) *PrivilegedWriter {
	if log == nil {
		log = io.Discard
	}
	return &PrivilegedWriter{terminal: terminal, log: log}
}

// Write routes p. It always reports len(p) bytes written unless the
// destination returns an error.
func (w *PrivilegedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if bytes.HasPrefix(p, privilegedPrefix) {
		if _, err := w.terminal.Write(p[len(privilegedPrefix):]); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	if _, err := io.WriteString(w.log, stripansi.Strip(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
