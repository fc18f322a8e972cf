package printing

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const logTimeFormat = "15:04:05.000"

// logIndent lines up continuation lines with the text after the stamp.
var logIndent = strings.Repeat(" ", len(logTimeFormat)+1)

func NewLogWriter(to io.Writer) *LogWriter {
	return &LogWriter{out: to, now: time.Now}
}

// LogWriter is the log side of a run: command lines, their outcome and raw
// process output. Write errors are dropped so that a broken log never fails
// a run.
type LogWriter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

var _ io.Writer = (*LogWriter)(nil)

// Write always returns len(p) and a nil error.
func (lw *LogWriter) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, _ = lw.out.Write(p)
	return len(p), nil
}

// Logf writes a message stamped with the time of day. A message spanning
// several lines is indented under the stamp, and a newline is appended.
func (lw *LogWriter) Logf(format string, a ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(format, a...), "\n")
	msg = strings.ReplaceAll(msg, "\n", "\n"+logIndent)
	_, _ = io.WriteString(lw, lw.now().Format(logTimeFormat)+" "+msg+"\n")
}
