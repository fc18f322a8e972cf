package testrun

import "strings"

// syntheticNamespaces are class name prefixes reserved for placeholder
// descriptions fabricated by a runtime. Go import paths cannot start with
// an underscore.
var syntheticNamespaces = []string{
	"_verdict.",
	"_testmain.",
}

// NoTestsMatched is the placeholder a runtime reports when the filter left
// nothing to run.
var NoTestsMatched = Description{
	ClassName:  "_verdict.Filter",
	MethodName: "initializationError",
}

// IsSynthetic reports whether d was injected by the runtime rather than
// written by a user.
func IsSynthetic(d Description) bool {
	for _, ns := range syntheticNamespaces {
		if strings.HasPrefix(d.ClassName, ns) {
			return true
		}
	}
	return false
}

// CountSynthetic counts the failures whose description is synthetic.
func CountSynthetic(failures []Failure) int {
	n := 0
	for _, f := range failures {
		if IsSynthetic(f.Description) {
			n++
		}
	}
	return n
}
