package testrun

import "strings"

// MarkerTest marks a method the runtime knows how to execute as a test.
const MarkerTest = "test"

// legacyTestPrefix is the naming convention accepted in place of a marker.
const legacyTestPrefix = "test"

// Method is a function or method declared by a candidate.
type Method struct {
	Name    string
	Markers []string
}

// HasMarker reports whether the method carries marker.
func (m Method) HasMarker(marker string) bool {
	for _, mk := range m.Markers {
		if mk == marker {
			return true
		}
	}
	return false
}

// Candidate is a package considered for testing, with every method it
// declares.
type Candidate struct {
	Name    string
	Methods []Method
}

// Prune returns the candidates that may contain tests, in input order. A
// candidate survives if any of its methods carries MarkerTest or has a name
// starting with "test". False positives are fine; the runtime re-validates.
func Prune(candidates []Candidate) []Candidate {
	pruned := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		for _, m := range c.Methods {
			if m.HasMarker(MarkerTest) || strings.HasPrefix(m.Name, legacyTestPrefix) {
				pruned = append(pruned, c)
				break
			}
		}
	}
	return pruned
}

// Runnable returns the methods of c carrying MarkerTest, in declaration
// order and without duplicates.
func Runnable(c Candidate) []Method {
	var methods []Method
	seen := make(map[string]struct{}, len(c.Methods))
	for _, m := range c.Methods {
		if !m.HasMarker(MarkerTest) {
			continue
		}
		if _, ok := seen[m.Name]; ok {
			continue
		}
		seen[m.Name] = struct{}{}
		methods = append(methods, m)
	}
	return methods
}
