// Package junit writes JUnit XML reports, one file per package.
package junit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/jstemmer/go-junit-report/v2/junit"

	"oss.indeed.com/go/go-verdict/internal/testrun"
)

// ReportName returns the file name of the report for class.
func ReportName(class string) string {
	return "TEST-" + strings.ReplaceAll(class, "/", ".") + ".xml"
}

// Reporter is a testrun.EventAccepter collecting a testsuite per class.
// Flush writes them to the report directory. Synthetic descriptions are not
// reported.
type Reporter struct {
	dir      string
	now      func() time.Time
	suites   map[string]*suite
	order    []string
	failures map[testrun.DescriptionKey]testrun.Failure
}

type suite struct {
	junit.Testsuite
	elapsed time.Duration
}

var (
	_ testrun.EventAccepter = (*Reporter)(nil)
	_ testrun.Flusher       = (*Reporter)(nil)
)

// NewReporter returns a Reporter writing to dir.
func NewReporter(dir string) *Reporter {
	return &Reporter{
		dir:      dir,
		now:      time.Now,
		suites:   make(map[string]*suite),
		failures: make(map[testrun.DescriptionKey]testrun.Failure),
	}
}

// Accept applies a single event.
func (r *Reporter) Accept(e testrun.Event) error {
	d := e.Description
	if testrun.IsSynthetic(d) {
		return nil
	}
	switch e.Kind {
	case testrun.TestStarted:
		r.suite(d.ClassName)
	case testrun.TestFailed:
		if e.Failure != nil {
			r.failures[d.Key()] = *e.Failure
		}
	case testrun.TestFinished:
		tc := testcase(d, e.Elapsed)
		if f, ok := r.failures[d.Key()]; ok {
			delete(r.failures, d.Key())
			res := &junit.Result{Message: clean(firstLine(f.Message)), Data: clean(f.Trace)}
			if d.MethodName == testrun.PackageMethod {
				res.Type = "error"
				tc.Error = res
			} else {
				res.Type = "failure"
				tc.Failure = res
			}
		}
		r.add(d.ClassName, tc, e.Elapsed)
	case testrun.TestIgnored:
		tc := testcase(d, e.Elapsed)
		tc.Skipped = &junit.Result{Message: "skipped"}
		r.add(d.ClassName, tc, e.Elapsed)
	}
	return nil
}

// Flush writes a report file for every class seen, creating the report
// directory if needed.
func (r *Reporter) Flush() error {
	if len(r.order) == 0 {
		return nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	var errs []error
	for _, class := range r.order {
		if err := r.write(class); err != nil {
			errs = append(errs, err)
		}
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("%d reports failed: %s", len(errs), strings.Join(msgs, "; "))
}

func (r *Reporter) write(class string) error {
	s := r.suites[class]
	s.Time = formatDuration(s.elapsed)
	var suites junit.Testsuites
	suites.AddSuite(s.Testsuite)

	path := filepath.Join(r.dir, ReportName(class))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := suites.WriteXML(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func (r *Reporter) suite(class string) *suite {
	s, ok := r.suites[class]
	if !ok {
		s = &suite{Testsuite: junit.Testsuite{Name: class, Package: class, ID: len(r.order)}}
		s.SetTimestamp(r.now())
		r.suites[class] = s
		r.order = append(r.order, class)
	}
	return s
}

func (r *Reporter) add(class string, tc junit.Testcase, elapsed time.Duration) {
	s := r.suite(class)
	s.AddTestcase(tc)
	s.elapsed += elapsed
}

func testcase(d testrun.Description, elapsed time.Duration) junit.Testcase {
	return junit.Testcase{
		Name:      d.MethodName,
		Classname: d.ClassName,
		Time:      formatDuration(elapsed),
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// clean strips ANSI escapes and the control characters XML cannot carry.
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, stripansi.Strip(s))
}
