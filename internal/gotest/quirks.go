package gotest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var misattributedPackageFailRegexp = regexp.MustCompile(`\n((?:exit status \d+\n)?FAIL\s+(\S+)\s+(\S+)\n)$`)

const (
	misattributedOutput  = 1
	misattributedPackage = 2
	misattributedElapsed = 3
)

// misattributedPackageFailAccepter detects when a failed test result ends
// with output normally associated with a package result, splits that output
// off, and injects the package result. A test that panics or calls os.Exit
// takes the package result with it otherwise, see
// https://github.com/golang/go/issues/35180.
type misattributedPackageFailAccepter struct {
	next resultAccepter
}

var _ resultAccepter = (*misattributedPackageFailAccepter)(nil)

func newMisattributedPackageFailAccepter(next resultAccepter) *misattributedPackageFailAccepter {
	return &misattributedPackageFailAccepter{next: next}
}

func (m *misattributedPackageFailAccepter) Accept(res result) error {
	if res.Outcome != outcomeFail || res.Key.Test == "" {
		return m.next.Accept(res)
	}

	match := misattributedPackageFailRegexp.FindStringSubmatch(res.Output)
	if match == nil || match[misattributedPackage] != res.Key.Package {
		return m.next.Accept(res)
	}
	pkgOutput := match[misattributedOutput]

	res.Output = res.Output[:len(res.Output)-len(pkgOutput)]
	if err := m.next.Accept(res); err != nil {
		return err
	}

	return m.next.Accept(result{
		Key:     resultKey{Package: res.Key.Package},
		Outcome: outcomeFail,
		Output:  pkgOutput,
		Elapsed: parseSeconds(match[misattributedElapsed]),
	})
}

// parseSeconds parses durations such as "3.452s" as printed on package
// result lines. Anything else, such as "(cached)", is zero.
func parseSeconds(s string) time.Duration {
	if !strings.HasSuffix(s, "s") {
		return 0
	}
	secs, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
