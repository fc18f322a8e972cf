package testrun

import "fmt"

// Printer is the markup output the listener and invoker write to. See the
// printing package for the tag syntax.
type Printer interface {
	// Print writes a line subject to log levels and decoration.
	Print(format string, args ...interface{})
	// Privileged writes a line no matter how output is configured.
	Privileged(format string, args ...interface{})
	// IsWarn reports whether warn level output is enabled.
	IsWarn() bool
	// IsInfo reports whether info level output is enabled.
	IsInfo() bool
}

const (
	progressFormat = "^no_line^\t^b^%s^r^ \t"
	successLine    = "^no_prefix^^green^^i^ ✓ SUCCESS ✓ ^r^"
	failureFormat  = "^no_prefix^^red^^i^ ☠ FAILURE ☠ ^r^ %s"
	ignoredLine    = "^no_prefix^^yellow^^i^ ⚠ IGNORED ⚠ ^r^"
)

// Listener prints the progress of a run as its events stream in and keeps
// the failures for a later reprint. Synthetic descriptions are never
// printed. Create a new Listener for every run.
type Listener struct {
	out Printer

	failures     map[DescriptionKey]Failure
	failureOrder []DescriptionKey
	seen         map[string]struct{}
	classes      []string
}

var _ EventAccepter = (*Listener)(nil)

// NewListener returns a Listener writing to out.
func NewListener(out Printer) *Listener {
	return &Listener{
		out:      out,
		failures: make(map[DescriptionKey]Failure),
		seen:     make(map[string]struct{}),
	}
}

// Accept applies a single event.
func (l *Listener) Accept(e Event) error {
	d := e.Description
	if IsSynthetic(d) {
		return nil
	}
	switch e.Kind {
	case RunStarted:
		l.out.Print("\nRunning tests from ^b^%d^r^ packages\n", len(d.Children))
	case TestStarted:
		l.classHeader(d)
		l.out.Privileged(progressFormat, d.MethodName)
	case TestFailed:
		if e.Failure == nil {
			return fmt.Errorf("%s event for %s has no failure", e.Kind, d.QualifiedName())
		}
		f := *e.Failure
		f.Description = d
		l.record(f)
	case TestFinished:
		if f, ok := l.failures[d.Key()]; ok {
			l.out.Privileged(failureFormat, DiffMessage(f))
		} else {
			l.out.Privileged(successLine)
		}
	case TestIgnored:
		l.classHeader(d)
		l.out.Privileged(progressFormat, d.MethodName)
		l.out.Privileged(ignoredLine)
	default:
		return fmt.Errorf("unknown event kind %s", e.Kind)
	}
	return nil
}

// PrintFailures prints every failure seen so far, in the order they were
// reported.
func (l *Listener) PrintFailures() {
	for _, key := range l.failureOrder {
		f := l.failures[key]
		l.out.Privileged("^red^^i^ ☠ FAILURE ☠ ^r^ ^b^%s^r^ %s", f.Description.QualifiedName(), DiffMessage(f))
	}
}

// Failures returns the recorded failures in the order they were reported.
func (l *Listener) Failures() []Failure {
	failures := make([]Failure, 0, len(l.failureOrder))
	for _, key := range l.failureOrder {
		failures = append(failures, l.failures[key])
	}
	return failures
}

// SeenClasses returns the classes a header was printed for, in order.
func (l *Listener) SeenClasses() []string {
	return append([]string(nil), l.classes...)
}

func (l *Listener) classHeader(d Description) {
	if _, ok := l.seen[d.ClassName]; ok {
		return
	}
	l.seen[d.ClassName] = struct{}{}
	l.classes = append(l.classes, d.ClassName)
	l.out.Print("^b^%s^r^", d.ClassName)
}

func (l *Listener) record(f Failure) {
	key := f.Description.Key()
	if _, ok := l.failures[key]; !ok {
		l.failureOrder = append(l.failureOrder, key)
	}
	l.failures[key] = f
}

// DiffMessage renders a failure message for display. The line number of the
// first frame declared in the failing test's own package is put in front of
// the message, since that is usually the assertion that failed even when the
// error itself came from library code.
func DiffMessage(f Failure) string {
	if f.Message == "" {
		return ""
	}
	for _, frame := range f.Frames {
		if frame.ClassName == f.Description.ClassName {
			return fmt.Sprintf("@ ^b^line %d^r^ [ %s ]", frame.Line, f.Message)
		}
	}
	return fmt.Sprintf("[ %s ]", f.Message)
}
