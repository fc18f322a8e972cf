package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/subcommands"
	"github.com/jedib0t/go-pretty/v6/table"

	"oss.indeed.com/go/go-verdict/internal/gotest"
	"oss.indeed.com/go/go-verdict/internal/testrun"
)

// ListCmd returns a subcommand that shows which tests a -match selection
// would run, without running them.
func ListCmd() subcommands.Command {
	return &listCmd{out: os.Stdout}
}

type listCmd struct {
	out io.Writer

	match      string
	matchGiven bool
	tags       string
	all        bool
}

func (*listCmd) Name() string {
	return "list"
}

func (*listCmd) Synopsis() string {
	return "list the tests a selection would run"
}

func (*listCmd) Usage() string {
	return `list [-match <patterns>] [-tags <tags>] [-all] [packages]:
  List the runnable tests of the given packages (default ./...) and
  whether -match selects them.
`
}

func (l *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&l.match, "match", "", "only list tests whose name matches one of these patterns")
	f.StringVar(&l.tags, "tags", "", "comma separated build tags")
	f.BoolVar(&l.all, "all", false, "also list tests -match does not select")
}

//revive:disable:unused-parameter
func (l *listCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	l.matchGiven = flagWasSet(f, "match")
	return executePatterns(ctx, f, l.impl)
}

func (l *listCmd) impl(ctx context.Context, patterns []string) error {
	rt, err := gotest.NewRuntime(gotest.Tags(l.tags))
	if err != nil {
		return err
	}
	candidates, err := rt.Discover(ctx, patterns...)
	if err != nil {
		return err
	}

	classes := testrun.Prune(candidates)
	if len(classes) == 0 {
		_, _ = fmt.Fprintln(l.out, "No tests found, nothing to list.")
		return nil
	}
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].Name < classes[j].Name
	})

	var sel testrun.Selection
	if l.matchGiven {
		sel = testrun.ParseSelection(l.match)
	}
	filter, _ := testrun.BuildFilter(sel.Patterns)
	selected := make(map[testrun.DescriptionKey]bool)
	for _, class := range testrun.Select(classes, filter).Children {
		for _, d := range class.Children {
			selected[d.Key()] = true
		}
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(l.out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Package", "Test", "Selected"})
	total := 0
	for _, c := range classes {
		for _, m := range testrun.Runnable(c) {
			total++
			d := testrun.Description{ClassName: c.Name, MethodName: m.Name}
			mark := ""
			if selected[d.Key()] {
				mark = "yes"
			} else if !l.all {
				continue
			}
			tw.AppendRow(table.Row{c.Name, m.Name, mark})
		}
	}
	tw.Render()
	_, _ = fmt.Fprintf(l.out, "%d of %d tests selected\n", len(selected), total)
	return nil
}
