package cmd

import (
	"errors"
	"strings"
)

var (
	// errTestsFailed is returned by the "test" subcommand when at least one
	// test failed. The failures themselves have already been printed.
	errTestsFailed = errors.New("tests failed")

	// errFlagAfterPackages is returned when a flag follows the package
	// patterns, where the flag package would silently treat it as a pattern.
	errFlagAfterPackages = errors.New("flags must come before package patterns")
)

// CombineErrors returns nil when every error is nil, the error itself when
// exactly one is non-nil, and otherwise an error listing all of them. The
// combined error matches each of its parts with errors.Is.
func CombineErrors(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}
	return multiError(nonNil)
}

type multiError []error

func (m multiError) Error() string {
	var sb strings.Builder
	sb.WriteString("multiple errors occurred:\n")
	for _, err := range m {
		sb.WriteString("  * " + err.Error() + "\n")
	}
	return sb.String()
}

func (m multiError) Unwrap() []error {
	return m
}
