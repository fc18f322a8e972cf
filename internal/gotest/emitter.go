package gotest

import (
	"strings"
	"time"

	"oss.indeed.com/go/go-verdict/internal/testrun"
)

// emitter is a resultAccepter that turns results into testrun events and
// keeps the aggregate counts of the run.
//
// Subtest results are not reported on their own. Their output is folded
// into the output of the top-level test they belong to, which is reported
// after them. A failed package with no failed test is reported as a
// failure of its testrun.PackageMethod description.
type emitter struct {
	to       testrun.EventAccepter
	result   testrun.AggregateResult
	subtests map[resultKey][]string
	failed   map[string]bool
}

var _ resultAccepter = (*emitter)(nil)

func newEmitter(to testrun.EventAccepter) *emitter {
	return &emitter{
		to:       to,
		subtests: make(map[resultKey][]string),
		failed:   make(map[string]bool),
	}
}

func (em *emitter) Accept(res result) error {
	pkg := res.Key.Package
	if isPackageComplete(res) {
		if res.Outcome != outcomeFail || em.failed[pkg] {
			return nil
		}
		d := testrun.Description{ClassName: pkg, MethodName: testrun.PackageMethod}
		return em.fail(d, parseFailure(d, res.Output), res.Elapsed)
	}

	if parent, _, ok := strings.Cut(res.Key.Test, "/"); ok {
		key := resultKey{Package: pkg, Test: parent}
		em.subtests[key] = append(em.subtests[key], res.Output)
		return nil
	}

	d := testrun.Description{ClassName: pkg, MethodName: res.Key.Test}
	output := em.foldSubtests(res)
	switch res.Outcome {
	case outcomePass:
		em.result.RunCount++
		return em.emit(
			testrun.Event{Kind: testrun.TestStarted, Description: d},
			testrun.Event{Kind: testrun.TestFinished, Description: d, Elapsed: res.Elapsed},
		)
	case outcomeFail:
		return em.fail(d, parseFailure(d, output), res.Elapsed)
	default:
		em.result.IgnoreCount++
		return em.emit(testrun.Event{Kind: testrun.TestIgnored, Description: d, Elapsed: res.Elapsed})
	}
}

// noTestsMatched reports the placeholder run of a filter that left nothing
// to run.
func (em *emitter) noTestsMatched(filter *testrun.Filter) error {
	d := testrun.NoTestsMatched
	return em.fail(d, testrun.Failure{
		Description: d,
		Message:     "No tests found matching " + filter.String(),
	}, 0)
}

// Result returns the aggregate counts so far.
func (em *emitter) Result() testrun.AggregateResult {
	res := em.result
	res.Failures = append([]testrun.Failure(nil), em.result.Failures...)
	return res
}

func (em *emitter) fail(d testrun.Description, f testrun.Failure, elapsed time.Duration) error {
	em.result.RunCount++
	em.result.FailureCount++
	em.result.Failures = append(em.result.Failures, f)
	em.failed[d.ClassName] = true
	return em.emit(
		testrun.Event{Kind: testrun.TestStarted, Description: d},
		testrun.Event{Kind: testrun.TestFailed, Description: d, Failure: &f},
		testrun.Event{Kind: testrun.TestFinished, Description: d, Elapsed: elapsed},
	)
}

func (em *emitter) emit(events ...testrun.Event) error {
	for _, e := range events {
		if err := em.to.Accept(e); err != nil {
			return err
		}
	}
	return nil
}

// foldSubtests returns the output of res with the output of its subtests
// placed after its "=== RUN" line.
func (em *emitter) foldSubtests(res result) string {
	subtests := em.subtests[res.Key]
	if len(subtests) == 0 {
		return res.Output
	}
	delete(em.subtests, res.Key)

	head, rest := "", res.Output
	if strings.HasPrefix(rest, "=== RUN") {
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			head, rest = rest[:i+1], rest[i+1:]
		}
	}
	return head + strings.Join(subtests, "") + rest
}
