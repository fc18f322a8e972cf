package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/google/subcommands"

	"oss.indeed.com/go/go-verdict/internal/gotest"
	"oss.indeed.com/go/go-verdict/internal/junit"
	"oss.indeed.com/go/go-verdict/internal/printing"
	"oss.indeed.com/go/go-verdict/internal/props"
	"oss.indeed.com/go/go-verdict/internal/testrun"
)

// TestCmd returns a subcommand that selects, runs and reports on the
// tests of a go project.
func TestCmd() subcommands.Command {
	return &testCmd{
		out:        os.Stdout,
		isTerminal: isTerminal,
	}
}

type testCmd struct {
	out        io.Writer
	isTerminal func(w io.Writer) bool

	match            string
	matchGiven       bool
	config           string
	reportsDir       string
	norace           bool
	p                int
	tags             string
	short            bool
	timeout          time.Duration
	logLevels        string
	nocolor          bool
	undecorated      bool
	outputLog        string
	reprintThreshold int
}

func (*testCmd) Name() string {
	return "test"
}

func (*testCmd) Synopsis() string {
	return "run selected Go tests and report on them"
}

func (*testCmd) Usage() string {
	return `test [-match <patterns>] [-reports-dir <dir>] [flags] [packages]:
  Run the tests of the given packages (default ./...) matching the
  comma or space separated -match patterns, print their progress and
  failures, and write one JUnit XML report per package.
`
}

func (t *testCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&t.match, "match", "", "only run tests whose name matches one of these patterns (`*` and `?` are globs)")
	f.StringVar(&t.config, "config", props.DefaultFile, "properties file")
	f.StringVar(&t.reportsDir, "reports-dir", "", "write JUnit XML reports to this directory (overrides project/"+props.ReportsDir+")")
	f.BoolVar(&t.norace, "norace", false, "compile tests with race detector disabled")
	f.IntVar(&t.p, "p", runtime.GOMAXPROCS(0), "number of test binaries that can run in parallel")
	f.StringVar(&t.tags, "tags", "", "comma separated build tags")
	f.BoolVar(&t.short, "short", false, "tell long-running tests to shorten their run time")
	f.DurationVar(&t.timeout, "timeout", 0, "panic a test binary after this long (0 uses the go test default)")
	f.StringVar(&t.logLevels, "log-levels", "", "enabled output levels, e.g. warn,info,debug (overrides output/"+props.LogLevels+")")
	f.BoolVar(&t.nocolor, "nocolor", false, "disable colours")
	f.BoolVar(&t.undecorated, "undecorated", false, "print plain text without progress lines")
	f.StringVar(&t.outputLog, "output-log", "", "write the raw test output and command log to this file")
	f.IntVar(&t.reprintThreshold, "reprint-threshold", testrun.DefaultReprintThreshold, "reprint failures before the summary when more tests than this ran")
}

//revive:disable:unused-parameter
func (t *testCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	t.matchGiven = flagWasSet(f, "match")
	return executePatterns(ctx, f, t.impl)
}

func (t *testCmd) impl(ctx context.Context, patterns []string) (err error) {
	store, err := props.Load(t.config)
	if err != nil {
		return err
	}
	t.override(store)

	var log io.Writer = io.Discard
	if t.outputLog != "" {
		logFile, createErr := os.Create(t.outputLog)
		if createErr != nil {
			return fmt.Errorf("failed to create output log: %w", createErr)
		}
		defer func() {
			if closeErr := logFile.Close(); closeErr != nil {
				err = CombineErrors(err, fmt.Errorf("failed to write output log: %w", closeErr))
			}
		}()
		log = logFile
	}
	pw := printing.NewPrivilegedWriter(t.out, log)
	out := newOutput(pw, store, t.isTerminal != nil && t.isTerminal(t.out))
	debugProperties(out, store)

	options := []gotest.Option{
		gotest.P(t.p),
		gotest.Tags(t.tags),
		gotest.Timeout(t.timeout),
		gotest.Log(pw),
		gotest.TestOutput(pw),
	}
	if !t.norace {
		options = append(options, gotest.Race())
	}
	if t.short {
		options = append(options, gotest.Short())
	}
	rt, err := gotest.NewRuntime(options...)
	if err != nil {
		return err
	}

	candidates, err := rt.Discover(ctx, patterns...)
	if err != nil {
		return err
	}

	invOptions := []testrun.Option{
		testrun.WithPrinter(out),
		testrun.WithReprintThreshold(t.reprintThreshold),
	}
	if dir, ok := store.Get(props.ReportsDir, props.Project); ok {
		invOptions = append(invOptions,
			testrun.WithReporter(junit.NewReporter(dir)),
			testrun.WithReportDir(dir, junit.ReportName),
		)
	}

	summary, err := testrun.NewInvoker(rt, invOptions...).Run(ctx, candidates, t.selection())
	if summary == nil {
		return err
	}
	if summary.ExitCode() != 0 {
		return CombineErrors(err, errTestsFailed)
	}
	return err
}

// override applies the command line flags on top of the properties file.
func (t *testCmd) override(store *props.Store) {
	if t.reportsDir != "" {
		store.Set(props.Project, props.ReportsDir, t.reportsDir)
	}
	if t.logLevels != "" {
		store.Set(props.Output, props.LogLevels, t.logLevels)
	}
	if t.nocolor {
		store.Set(props.Output, props.Color, "false")
	}
	if t.undecorated {
		store.Set(props.Output, props.Decorated, "false")
	}
}

func (t *testCmd) selection() testrun.Selection {
	if !t.matchGiven {
		return testrun.Selection{}
	}
	return testrun.ParseSelection(t.match)
}

// newOutput builds the user facing printer. Colours need both the color
// property and a terminal.
func newOutput(to io.Writer, store *props.Store, terminal bool) *printing.Output {
	return printing.NewOutput(to,
		printing.Levels(store.GetOr(props.LogLevels, props.Output, props.DefaultLogLevels)),
		printing.Decorated(store.Bool(props.Decorated, props.Output, true)),
		printing.Color(terminal && store.Bool(props.Color, props.Output, true)),
	)
}

func debugProperties(out *printing.Output, store *props.Store) {
	if !out.IsDebug() {
		return
	}
	for _, ctx := range []props.Context{props.Project, props.Output} {
		for _, key := range store.Keys(ctx) {
			value, _ := store.Get(key, ctx)
			out.Print("^dbug^ property ^b^%s/%s^r^ = %s", ctx, key, value)
		}
	}
}
