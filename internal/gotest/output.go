package gotest

import "io"

// testOutput is a resultAccepter that writes the raw "go test -v" output
// of every result to an io.Writer, one package at a time.
type testOutput struct {
	to io.Writer
}

var _ resultAccepter = (*testOutput)(nil)

func (o *testOutput) Accept(res result) error {
	_, err := io.WriteString(o.to, res.Output)
	return err
}
