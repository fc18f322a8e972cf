// Package testrun selects test packages, runs them and reports on the run.
//
// The flow through the package is one-directional:
//
//	candidates -> Prune -> sorted -> Runtime.Run (Filter + Listener) -> AggregateResult -> Summary
//
// The Runtime is the only piece that knows how tests are actually executed
// (see the gotest package for the "go test" implementation). Everything else
// here works on Descriptions and Events, so it can be driven by a canned
// event stream in tests:
//
//	inv := testrun.NewInvoker(runtime, testrun.WithPrinter(out))
//	summary, err := inv.Run(ctx, candidates, testrun.ParseSelection("Foo,Bar"))
//	if err != nil {
//	    return err
//	}
//	os.Exit(summary.ExitCode())
//
// A single Invoker.Run owns its filter tree and listener state. The
// Runtime must deliver events one at a time; nothing in this package locks.
package testrun
