package testrun

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultReprintThreshold is the number of tests above which failures are
// printed a second time, right before the summary.
const DefaultReprintThreshold = 50

// Runtime executes tests. It must evaluate filter against every description
// it considers, deliver events to to one at a time and in execution order,
// and return only once the run is complete.
type Runtime interface {
	Run(ctx context.Context, classes []Candidate, filter *Filter, to EventAccepter) (AggregateResult, error)
}

// ReportNamer maps a class name to the file name of its report.
type ReportNamer func(className string) string

// Option configures an Invoker.
type Option func(inv *Invoker)

// WithPrinter sets where progress and the summary are written. By default
// nothing is written.
func WithPrinter(out Printer) Option {
	return func(inv *Invoker) {
		inv.out = out
	}
}

// WithReporter attaches an additional event accepter to every run, next to
// the Listener. Reporters implementing Flusher are flushed once the runtime
// returns.
func WithReporter(reporter EventAccepter) Option {
	return func(inv *Invoker) {
		inv.reporters = append(inv.reporters, reporter)
	}
}

// WithReportDir makes the summary point at the report file of every failed
// class. Nothing is printed when dir is empty.
func WithReportDir(dir string, name ReportNamer) Option {
	return func(inv *Invoker) {
		inv.reportDir = dir
		inv.reportName = name
	}
}

// WithReprintThreshold overrides DefaultReprintThreshold.
func WithReprintThreshold(n int) Option {
	return func(inv *Invoker) {
		inv.reprintThreshold = n
	}
}

// Invoker coordinates a single test run: pruning, filtering, ordering,
// running, and summarising.
type Invoker struct {
	runtime          Runtime
	out              Printer
	reporters        []EventAccepter
	reportDir        string
	reportName       ReportNamer
	reprintThreshold int
}

// NewInvoker returns an Invoker running tests with runtime.
func NewInvoker(runtime Runtime, opts ...Option) *Invoker {
	inv := &Invoker{
		runtime:          runtime,
		out:              nopPrinter{},
		reprintThreshold: DefaultReprintThreshold,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Summary is the outcome of a run with synthetic descriptions netted out.
type Summary struct {
	Run       int
	Failed    int
	Ignored   int
	Synthetic int
	Elapsed   time.Duration

	// NoTests is set when there was nothing to run at all.
	NoTests bool
	// NoMatch is set when tests existed but the selection matched none.
	NoMatch bool
}

// ExitCode is 1 if any real test failed and 0 otherwise. A run with no
// tests in it always exits 0.
func (s *Summary) ExitCode() int {
	if s.NoTests || s.NoMatch {
		return 0
	}
	if s.Failed != 0 {
		return 1
	}
	return 0
}

// Run prunes candidates, runs what is left through the runtime filtered by
// sel, and prints the summary.
//
// An error from the runtime aborts the run and is returned with a nil
// Summary. An error flushing a reporter is returned together with the
// Summary, since the tests themselves did run.
func (inv *Invoker) Run(ctx context.Context, candidates []Candidate, sel Selection) (*Summary, error) {
	classes := Prune(candidates)
	if len(classes) == 0 {
		inv.out.Privileged("No tests found, nothing to test.")
		return &Summary{NoTests: true}, nil
	}

	filter, _ := BuildFilter(sel.Patterns)

	sorted := append([]Candidate(nil), classes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	listener := NewListener(inv.out)
	sink := NewMultiEventAccepter(append([]EventAccepter{listener}, inv.reporters...)...)
	result, err := inv.runtime.Run(ctx, sorted, filter, sink)
	if err != nil {
		return nil, fmt.Errorf("test runtime failed: %w", err)
	}
	flushErr := inv.flush()

	synthetic := CountSynthetic(result.Failures)
	summary := &Summary{
		Run:       result.RunCount - synthetic,
		Failed:    result.FailureCount - synthetic,
		Ignored:   result.IgnoreCount,
		Synthetic: synthetic,
		Elapsed:   result.Elapsed,
	}

	if summary.Run == 0 {
		if sel.Given {
			summary.NoMatch = true
			if inv.out.IsWarn() {
				inv.out.Privileged("^warn^ No tests matched ^b^%s^r^", sel.Raw)
			}
		} else {
			summary.NoTests = true
			inv.out.Privileged("No tests found, nothing to test.")
		}
		return summary, flushErr
	}

	if summary.Run > inv.reprintThreshold && summary.Failed > 0 {
		inv.out.Privileged("\nMore than %d tests, ^b^reprinting^r^ test failures for ease of review.\n", inv.reprintThreshold)
		listener.PrintFailures()
	}

	inv.printSummary(summary)
	inv.printReportPaths(summary, result.Failures)

	return summary, flushErr
}

func (inv *Invoker) flush() error {
	var errs []string
	for _, r := range inv.reporters {
		f, ok := r.(Flusher)
		if !ok {
			continue
		}
		if err := f.Flush(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("failed to write reports: %s", strings.Join(errs, "; "))
}

func (inv *Invoker) printSummary(s *Summary) {
	failColor, failPad := "^green^", ""
	if s.Failed > 0 {
		failColor, failPad = "^red^^i^ ", " "
	}
	ignoreColor := "^b^"
	if s.Ignored > 0 {
		ignoreColor = "^yellow^^i^"
	}
	inv.out.Privileged(
		"\nRan ^b^%d^r^ test%s in ^b^%.3f seconds^r^ with %s%d%s^r^ failure%s and %s%d^r^ ignored.\n",
		s.Run, plural(s.Run),
		float64(s.Elapsed.Milliseconds())/1000,
		failColor, s.Failed, failPad, plural(s.Failed),
		ignoreColor, s.Ignored,
	)
}

func (inv *Invoker) printReportPaths(s *Summary, failures []Failure) {
	if s.Failed == 0 || !inv.out.IsInfo() || inv.reportDir == "" || inv.reportName == nil {
		return
	}
	article := ""
	if s.Failed == 1 {
		article = "a "
	}
	inv.out.Privileged("^info^ For %sdetailed test report%s: ", article, plural(s.Failed))
	encountered := make(map[string]struct{}, len(failures))
	for _, f := range failures {
		if IsSynthetic(f.Description) {
			continue
		}
		path := filepath.Join(inv.reportDir, inv.reportName(f.Description.ClassName))
		if _, ok := encountered[path]; ok {
			continue
		}
		encountered[path] = struct{}{}
		inv.out.Privileged("^info^     ^b^less %s^r^", path)
	}
	inv.out.Privileged("")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

type nopPrinter struct{}

func (nopPrinter) Print(string, ...interface{})      {}
func (nopPrinter) Privileged(string, ...interface{}) {}
func (nopPrinter) IsWarn() bool                      { return false }
func (nopPrinter) IsInfo() bool                      { return false }
