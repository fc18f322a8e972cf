// Package gotest runs tests with "go test -json" as a testrun.Runtime, and
// discovers test candidates with golang.org/x/tools/go/packages.
//
// This package contains a LOT of code to
//
//  1. reassemble test events into test results (each test is reported as
//     a bunch of "output" actions followed by a "pass", "fail", or "skip"
//     action),
//  2. order the results so that each package's tests are reported together
//     and packages are reported in a stable order, and
//  3. turn results into testrun events, extracting a failure message and
//     stack frames from the output of failed tests.
//
// However, all of the above complexity is hidden behind a relatively
// simple API. Here is an example:
//
//	rt, err := gotest.NewRuntime(gotest.Race(), gotest.TestOutput(logFile))
//	if err != nil {
//		return err
//	}
//	candidates, err := rt.Discover(ctx, "./...")
//	if err != nil {
//		return err
//	}
//	summary, err := testrun.NewInvoker(rt).Run(ctx, candidates, selection)
//
// Note that output is held in memory until a package completes. Since
// "go test" also buffers output this is not likely to be an issue.
package gotest
