package gotest

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// unfinishedTestLine is appended to the output of a test that never
// reported a result, e.g. because it hit -timeout or called os.Exit.
const unfinishedTestLine = "test did not finish"

var (
	panicLineRegexp  = regexp.MustCompile(`(?m)^panic: .*$`)
	exitStatusRegexp = regexp.MustCompile(`(?m)^exit status \d+$`)
)

const (
	outcomePass = "pass"
	outcomeFail = "fail"
	outcomeSkip = "skip"
)

// resultKey identifies a result.
type resultKey struct {
	Package string
	Test    string
}

// result is a test result. The result is for either a single test or for
// a package, in which case Key.Test is empty.
type result struct {
	Key     resultKey
	Outcome string
	Output  string
	Elapsed time.Duration
}

// resultAccepter accepts results.
type resultAccepter interface {
	Accept(res result) error
}

// multiResultAccepter accepts results and forwards them on to zero or
// more downstream result accepters.
type multiResultAccepter struct {
	accepters []resultAccepter
}

var _ resultAccepter = (*multiResultAccepter)(nil)

func newMultiResultAccepter(accepter ...resultAccepter) *multiResultAccepter {
	return &multiResultAccepter{accepters: accepter}
}

// Accept forwards the result to the downstream resultAccepters. If any
// resultAccepter returns an error processing stops immediately and that
// error is returned to the caller.
func (m multiResultAccepter) Accept(res result) error {
	for _, accepter := range m.accepters {
		if err := accepter.Accept(res); err != nil {
			return err
		}
	}
	return nil
}

// resultAggregator is an eventAccepter that aggregates events for the same
// test or package into results. Completed results are passed to the
// resultAccepter.
//
// Build output is kept per build and prepended to the output of every
// package result naming that build in FailedBuild.
//
// A test still open when its package completes is failed with the output
// it produced so far. A package still open when the stream ends is failed
// the same way, together with its open tests.
type resultAggregator struct {
	to          resultAccepter
	events      map[resultKey][]event
	open        map[string][]string
	buildOutput map[string]*strings.Builder
	err         error
}

var _ eventAccepter = (*resultAggregator)(nil)

func newResultAggregator(to resultAccepter) *resultAggregator {
	return &resultAggregator{
		to:          to,
		events:      make(map[resultKey][]event),
		open:        make(map[string][]string),
		buildOutput: make(map[string]*strings.Builder),
	}
}

// Accept adds an event to the internal state and provides any result
// completed by the event to the resultAccepter.
//
// If the resultAccepter returns an error the resultAggregator will enter
// an error state causing the current accept and all subsequent accepts to
// fail. This error will also be returned by CheckAllEventsConsumed.
func (a *resultAggregator) Accept(e event) error {
	if a.err != nil {
		return fmt.Errorf("permanent error state: %w", a.err)
	}

	switch e.Action {
	case "build-output":
		b, ok := a.buildOutput[e.ImportPath]
		if !ok {
			b = &strings.Builder{}
			a.buildOutput[e.ImportPath] = b
		}
		b.WriteString(e.Output)
		return nil
	case "build-fail":
		return nil
	}

	rk := resultKey{
		Package: e.Package,
		Test:    e.Test,
	}

	if !isTestOrPackageComplete(e.Action) {
		if _, ok := a.events[rk]; !ok && rk.Test != "" {
			a.open[rk.Package] = append(a.open[rk.Package], rk.Test)
		}
		a.events[rk] = append(a.events[rk], e)
		return nil
	}

	if rk.Test == "" {
		if err := a.failUnfinished(rk.Package); err != nil {
			return err
		}
	}

	var output strings.Builder
	if b, ok := a.buildOutput[e.FailedBuild]; ok && e.FailedBuild != "" {
		output.WriteString(b.String())
	}
	output.WriteString(a.take(rk))
	output.WriteString(e.Output)

	return a.forward(result{
		Key:     rk,
		Outcome: e.Action,
		Output:  output.String(),
		Elapsed: time.Duration(e.Elapsed * float64(time.Second)),
	})
}

// failUnfinished fails every test of pkg that has events but no result.
// Subtests go first so they can be folded into their parents.
func (a *resultAggregator) failUnfinished(pkg string) error {
	tests := a.open[pkg]
	delete(a.open, pkg)
	sort.SliceStable(tests, func(i, j int) bool {
		return strings.Count(tests[i], "/") > strings.Count(tests[j], "/")
	})

	var pkgOutput strings.Builder
	for _, e := range a.events[resultKey{Package: pkg}] {
		pkgOutput.WriteString(e.Output)
	}

	for _, test := range tests {
		rk := resultKey{Package: pkg, Test: test}
		if _, ok := a.events[rk]; !ok {
			continue
		}
		output := a.take(rk)
		if err := a.forward(result{
			Key:     rk,
			Outcome: outcomeFail,
			Output:  output + unfinishedReason(output+pkgOutput.String()) + "\n",
		}); err != nil {
			return err
		}
	}
	return nil
}

// unfinishedReason names why a test stopped, from its own output and the
// output its package printed without a test attached.
func unfinishedReason(output string) string {
	if panicLine := panicLineRegexp.FindString(output); panicLine != "" {
		return panicLine
	}
	if status := exitStatusRegexp.FindString(output); status != "" {
		return unfinishedTestLine + ": " + status
	}
	return unfinishedTestLine
}

// take removes the events of rk and returns their joined output.
func (a *resultAggregator) take(rk resultKey) string {
	var output strings.Builder
	for _, e := range a.events[rk] {
		output.WriteString(e.Output)
	}
	delete(a.events, rk)
	return output.String()
}

func (a *resultAggregator) forward(res result) error {
	if err := a.to.Accept(res); err != nil {
		a.setErr(err)
		return a.err
	}
	return nil
}

// CheckAllEventsConsumed fails every package the stream left open, with
// its open tests, and returns the error of any Accept.
func (a *resultAggregator) CheckAllEventsConsumed() error {
	if a.err != nil {
		return a.err
	}
	var pkgs []string
	seen := make(map[string]bool)
	for rk := range a.events {
		if !seen[rk.Package] {
			seen[rk.Package] = true
			pkgs = append(pkgs, rk.Package)
		}
	}
	sort.Strings(pkgs)
	for _, pkg := range pkgs {
		if err := a.failUnfinished(pkg); err != nil {
			return err
		}
		rk := resultKey{Package: pkg}
		if err := a.forward(result{
			Key:     rk,
			Outcome: outcomeFail,
			Output:  a.take(rk),
		}); err != nil {
			return err
		}
	}
	if len(a.events) > 0 {
		a.setErr(errors.New("not all events were consumed"))
	}
	return a.err
}

// setErr puts the resultAggregator into a permanent error state.
func (a *resultAggregator) setErr(err error) {
	a.err = err
	a.events = nil
	a.open = nil
	a.buildOutput = nil
}

// orderedPackageGrouper accepts results, groups them by package, and
// forwards all results for a package once it completes and every package
// before it in order has been forwarded.
//
// "go test" runs the tests of different packages at the same time and
// interleaves their events. Grouping keeps the tests of a package together,
// and ordering makes the printed run identical from one execution to the
// next no matter which package finishes first. A single grouper may be fed
// by several "go test" invocations in turn.
//
// Packages that are not in order, and packages completing again after
// they were forwarded, are forwarded as soon as they complete.
//
// !!WARNING!! This struct relies on the final result of a package being the
// "package result" (i.e. the result that has only a package and no test).
// If you filter results before providing them to an orderedPackageGrouper
// make sure you do not filter out the package result for any test result
// you previously provided. Otherwise Finish will return an error about
// results remaining.
type orderedPackageGrouper struct {
	to       resultAccepter
	order    []string
	ordered  map[string]bool
	pending  map[string][]result
	complete map[string][]result
	released map[string]bool
	err      error
}

var _ resultAccepter = (*orderedPackageGrouper)(nil)

func newOrderedPackageGrouper(to resultAccepter, order []string) *orderedPackageGrouper {
	ordered := make(map[string]bool, len(order))
	for _, pkg := range order {
		ordered[pkg] = true
	}
	return &orderedPackageGrouper{
		to:       to,
		order:    append([]string(nil), order...),
		ordered:  ordered,
		pending:  make(map[string][]result),
		complete: make(map[string][]result),
		released: make(map[string]bool),
	}
}

// Accept adds the result to the internal state and, if the result is a
// "package result", forwards every package that is now due.
//
// If the resultAccepter returns an error the orderedPackageGrouper will
// enter an error state causing the current accept and all subsequent
// accepts to fail. This error will also be returned by Finish.
func (g *orderedPackageGrouper) Accept(res result) error {
	if g.err != nil {
		return fmt.Errorf("permanent error state: %w", g.err)
	}

	pkg := res.Key.Package
	g.pending[pkg] = append(g.pending[pkg], res)
	if !isPackageComplete(res) {
		return nil
	}
	results := g.pending[pkg]
	delete(g.pending, pkg)

	if !g.ordered[pkg] || g.released[pkg] {
		return g.forward(results...)
	}
	g.complete[pkg] = append(g.complete[pkg], results...)
	return g.release()
}

// release forwards the completed packages at the head of the order.
func (g *orderedPackageGrouper) release() error {
	for len(g.order) > 0 {
		results, ok := g.complete[g.order[0]]
		if !ok {
			return nil
		}
		delete(g.complete, g.order[0])
		g.released[g.order[0]] = true
		g.order = g.order[1:]
		if err := g.forward(results...); err != nil {
			return err
		}
	}
	return nil
}

// Finish forwards every completed package still held back by a package
// that never completed, in order, and checks that all results were
// consumed.
func (g *orderedPackageGrouper) Finish() error {
	if g.err != nil {
		return g.err
	}
	for _, pkg := range g.order {
		g.released[pkg] = true
		if results, ok := g.complete[pkg]; ok {
			delete(g.complete, pkg)
			if err := g.forward(results...); err != nil {
				return err
			}
		}
	}
	g.order = nil
	if len(g.pending) > 0 {
		g.setErr(errors.New("not all results were consumed"))
	}
	return g.err
}

// forward passes zero or more results on to the resultAccepter. If the
// resultAccepter returns an error for any result processing stops, setErr
// is called to put the orderedPackageGrouper in a permanent error state,
// and the error is returned.
func (g *orderedPackageGrouper) forward(results ...result) error {
	for _, res := range results {
		if err := g.to.Accept(res); err != nil {
			g.setErr(err)
			return g.err
		}
	}
	return nil
}

// setErr puts the orderedPackageGrouper into a permanent error state.
func (g *orderedPackageGrouper) setErr(err error) {
	g.err = err
	g.pending = nil
	g.complete = nil
}

// isTestOrPackageComplete returns true iff the provided event.Action
// represents the completion of test or package.
func isTestOrPackageComplete(action string) bool {
	return action == outcomePass || action == outcomeFail || action == outcomeSkip
}

// isPackageComplete returns true iff the provided result represents
// the completion of a package.
func isPackageComplete(res result) bool {
	return res.Key.Test == ""
}
