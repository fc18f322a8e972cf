package gotest

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"oss.indeed.com/go/go-verdict/internal/run"
	"oss.indeed.com/go/go-verdict/internal/testrun"
)

// Option can be passed to NewRuntime to change how "go test" is run (e.g.
// test with -race, or write the raw test output somewhere).
type Option func(o *options) error

type options struct {
	race       bool
	p          int
	tags       string
	short      bool
	timeout    time.Duration
	dir        string
	env        []string
	log        io.Writer
	testOutput io.Writer
}

// Race runs tests with -race.
func Race() Option {
	return func(o *options) error {
		o.race = true
		return nil
	}
}

// P runs tests with -p=<p>. This controls the number of test binaries
// that can be run in parallel.
//
// See the -p option of "go help build" for more information.
func P(p int) Option {
	return func(o *options) error {
		if p <= 0 {
			return fmt.Errorf("gotest: invalid option -p: %d", p)
		}
		o.p = p
		return nil
	}
}

// Tags builds tests and loads packages with -tags=<tags>.
func Tags(tags string) Option {
	return func(o *options) error {
		o.tags = tags
		return nil
	}
}

// Short runs tests with -short.
func Short() Option {
	return func(o *options) error {
		o.short = true
		return nil
	}
}

// Timeout runs tests with -timeout=<d>.
func Timeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return fmt.Errorf("gotest: invalid option -timeout: %s", d)
		}
		o.timeout = d
		return nil
	}
}

// Dir runs "go test" and loads packages from dir instead of the current
// directory.
func Dir(dir string) Option {
	return func(o *options) error {
		o.dir = dir
		return nil
	}
}

// Env sets additional environment variables for "go test".
func Env(env ...string) Option {
	return func(o *options) error {
		o.env = append(o.env, env...)
		return nil
	}
}

// Log writes the "go test" command lines and its stderr to the provided
// writer. Nothing is logged by default.
func Log(to io.Writer) Option {
	return func(o *options) error {
		o.log = to
		return nil
	}
}

// TestOutput writes output similar to "go test -v" to the provided writer,
// grouped by package.
func TestOutput(to io.Writer) Option {
	return func(o *options) error {
		o.testOutput = to
		return nil
	}
}

// Runtime is a testrun.Runtime executing tests with "go test -json".
type Runtime struct {
	opts options
	now  func() time.Time
}

var _ testrun.Runtime = (*Runtime)(nil)

// NewRuntime returns a Runtime configured with opts.
func NewRuntime(opts ...Option) (*Runtime, error) {
	o := options{log: io.Discard}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	return &Runtime{opts: o, now: time.Now}, nil
}

// invocation is a single "go test" command.
type invocation struct {
	packages []string
	run      string
}

// Run evaluates filter against the runnable methods of classes, runs the
// selected tests and delivers their events to to.
//
// Packages with every test selected are run together by one "go test"
// command. Every other package gets a command of its own restricted with
// -run. When nothing is selected no command runs and the run consists of
// the failed testrun.NoTestsMatched placeholder.
//
// A "go test" command exiting non-zero is only an error when it reported no
// failure to explain it. Test failures are never an error.
func (r *Runtime) Run(ctx context.Context, classes []testrun.Candidate, filter *testrun.Filter, to testrun.EventAccepter) (testrun.AggregateResult, error) {
	start := r.now()
	em := newEmitter(to)

	root := testrun.Select(classes, filter)
	if len(root.Children) == 0 {
		err := em.noTestsMatched(filter)
		res := em.Result()
		res.Elapsed = r.now().Sub(start)
		return res, err
	}

	if err := to.Accept(testrun.Event{Kind: testrun.RunStarted, Description: root}); err != nil {
		return em.Result(), err
	}

	order := make([]string, len(root.Children))
	for i, class := range root.Children {
		order[i] = class.ClassName
	}
	accepters := []resultAccepter{em}
	if r.opts.testOutput != nil {
		accepters = append(accepters, &testOutput{to: r.opts.testOutput})
	}
	grouper := newOrderedPackageGrouper(newMultiResultAccepter(accepters...), order)

	for _, inv := range plan(classes, root) {
		if err := r.invoke(ctx, inv, grouper); err != nil {
			return em.Result(), err
		}
	}
	err := grouper.Finish()

	res := em.Result()
	res.Elapsed = r.now().Sub(start)
	if err != nil {
		return res, fmt.Errorf("failed to process go test output: %w", err)
	}
	return res, nil
}

// plan splits the selection in root into "go test" invocations.
func plan(classes []testrun.Candidate, root testrun.Description) []invocation {
	runnable := make(map[string]int, len(classes))
	for _, c := range classes {
		runnable[c.Name] = len(testrun.Runnable(c))
	}

	var (
		full     invocation
		partials []invocation
	)
	for _, class := range root.Children {
		if len(class.Children) == runnable[class.ClassName] {
			full.packages = append(full.packages, class.ClassName)
			continue
		}
		names := make([]string, len(class.Children))
		for i, d := range class.Children {
			names[i] = regexp.QuoteMeta(d.MethodName)
		}
		partials = append(partials, invocation{
			packages: []string{class.ClassName},
			run:      "^(" + strings.Join(names, "|") + ")$",
		})
	}
	if len(full.packages) == 0 {
		return partials
	}
	return append([]invocation{full}, partials...)
}

func (r *Runtime) args(inv invocation) []string {
	args := []string{"test", "-json"}
	if r.opts.race {
		args = append(args, "-race")
	}
	if r.opts.p != 0 {
		args = append(args, "-p="+strconv.Itoa(r.opts.p))
	}
	if r.opts.tags != "" {
		args = append(args, "-tags="+r.opts.tags)
	}
	if r.opts.short {
		args = append(args, "-short")
	}
	if r.opts.timeout != 0 {
		args = append(args, "-timeout="+r.opts.timeout.String())
	}
	if inv.run != "" {
		args = append(args, "-run="+inv.run)
	}
	return append(args, inv.packages...)
}

// invoke runs one "go test" command, streaming its output through the
// result pipeline into grouper as it is produced.
func (r *Runtime) invoke(ctx context.Context, inv invocation, grouper *orderedPackageGrouper) error {
	failures := &failureCounter{next: grouper}

	pr, pw := io.Pipe()
	var parser errgroup.Group
	parser.Go(func() error {
		aggregator := newResultAggregator(newMisattributedPackageFailAccepter(failures))
		err := newEventStreamParser(aggregator).Parse(pr)
		if err == nil {
			err = aggregator.CheckAllEventsConsumed()
		}
		// Keep the command from blocking on a full pipe.
		_, _ = io.Copy(io.Discard, pr)
		return err
	})

	opts := []run.Option{
		run.Stdout(pw),
		run.SuppressStdout(),
		run.Log(r.opts.log),
	}
	if r.opts.dir != "" {
		opts = append(opts, run.Dir(r.opts.dir))
	}
	if len(r.opts.env) > 0 {
		opts = append(opts, run.Env(r.opts.env...))
	}
	_, stderr, cmdErr := run.Cmd(ctx, "go", r.args(inv), opts...)
	_ = pw.Close()
	parseErr := parser.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if parseErr != nil {
		return fmt.Errorf("failed to parse go test output: %w", parseErr)
	}
	if cmdErr != nil && failures.n == 0 {
		if msg := strings.TrimSpace(stderr); msg != "" {
			return fmt.Errorf("go test failed: %w: %s", cmdErr, msg)
		}
		return fmt.Errorf("go test failed: %w", cmdErr)
	}
	return nil
}

// failureCounter is a resultAccepter counting failed results on their way
// to the next resultAccepter.
type failureCounter struct {
	next resultAccepter
	n    int
}

func (c *failureCounter) Accept(res result) error {
	if res.Outcome == outcomeFail {
		c.n++
	}
	return c.next.Accept(res)
}
