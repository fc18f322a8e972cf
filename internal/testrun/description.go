package testrun

import "time"

// PackageMethod is the method name used for failures that belong to a
// package rather than to one of its tests (build failures, a panic in
// TestMain, and so on).
const PackageMethod = "(package)"

// DescriptionKey is the structural identity of a Description.
type DescriptionKey struct {
	ClassName  string
	MethodName string
}

// Description identifies a test unit. A description without a MethodName is
// a container (a package, or the root of a run) and may have Children.
type Description struct {
	ClassName  string
	MethodName string
	Children   []Description
}

// Key returns the identity of the description.
func (d Description) Key() DescriptionKey {
	return DescriptionKey{ClassName: d.ClassName, MethodName: d.MethodName}
}

// QualifiedName is the class name, followed by "." and the method name when
// there is one.
func (d Description) QualifiedName() string {
	if d.MethodName == "" {
		return d.ClassName
	}
	return d.ClassName + "." + d.MethodName
}

// Frame is a single call stack frame captured with a failure. ClassName is
// the package declaring the function.
type Frame struct {
	ClassName string
	Function  string
	File      string
	Line      int
}

// Failure is a failed test and whatever detail the runtime could recover
// about it. Message and Frames may be empty.
type Failure struct {
	Description Description
	Message     string
	Frames      []Frame
	Trace       string
}

// AggregateResult is produced once by a Runtime when a run completes. The
// counters are the runtime's own and include any synthetic descriptions it
// reported.
type AggregateResult struct {
	RunCount     int
	FailureCount int
	IgnoreCount  int
	Elapsed      time.Duration
	Failures     []Failure
}
