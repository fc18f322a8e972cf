package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"golang.org/x/term"
)

// executePatterns runs impl with the positional arguments of f as package
// patterns.
//
// A flag found among the patterns is a usage error and
// subcommands.ExitUsageError is returned without calling impl.
//
// If impl returns errTestsFailed, subcommands.ExitFailure is returned
// silently since the failures have already been reported. Any other error
// is written to f.Output() first. Otherwise subcommands.ExitSuccess is
// returned.
func executePatterns(ctx context.Context, f *flag.FlagSet, impl func(ctx context.Context, patterns []string) error) subcommands.ExitStatus {
	if !ensureNoFlagsAfterPatterns(f) {
		return subcommands.ExitUsageError
	}
	err := impl(ctx, f.Args())
	if err == nil {
		return subcommands.ExitSuccess
	}
	if err != errTestsFailed {
		_, _ = fmt.Fprintln(f.Output(), err)
	}
	return subcommands.ExitFailure
}

// ensureNoFlagsAfterPatterns checks that nothing that looks like a flag was
// left among the positional arguments.
func ensureNoFlagsAfterPatterns(f *flag.FlagSet) bool {
	for _, arg := range f.Args() {
		if strings.HasPrefix(arg, "-") {
			_, _ = fmt.Fprintf(f.Output(), "%v: %q\n", errFlagAfterPackages, arg)
			f.Usage()
			return false
		}
	}
	return true
}

// flagWasSet reports whether the flag called name was given on the
// command line, as opposed to holding its default.
func flagWasSet(f *flag.FlagSet, name string) bool {
	set := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
