package testrun

import "strings"

// Selection is the user's name matchers for a run.
type Selection struct {
	// Raw is the matcher argument exactly as the user gave it.
	Raw string
	// Given is true when the user supplied a matcher argument at all, even
	// one that splits into no patterns.
	Given bool
	// Patterns are the individual matchers.
	Patterns []string
}

// ParseSelection splits raw on commas and whitespace.
func ParseSelection(raw string) Selection {
	return Selection{
		Raw:   raw,
		Given: true,
		Patterns: strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}),
	}
}
