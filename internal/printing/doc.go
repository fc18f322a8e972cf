// Package printing writes user-facing output.
//
// Output renders lines containing inline markup tags such as ^b^ (bold),
// ^red^ (colour), ^r^ (reset) and ^warn^ (a level label). Lines carrying the
// tag of a disabled level are dropped. PrivilegedWriter splits a single
// stream in two: lines written through an Output reach the terminal, while
// anything else written to it (the tests' own stdout, command logs) goes to
// a log file.
package printing
