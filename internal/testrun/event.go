package testrun

import (
	"fmt"
	"time"
)

// EventKind is the kind of a runtime lifecycle event.
type EventKind int

const (
	RunStarted EventKind = iota
	TestStarted
	TestFailed
	TestIgnored
	TestFinished
)

func (k EventKind) String() string {
	switch k {
	case RunStarted:
		return "run-started"
	case TestStarted:
		return "test-started"
	case TestFailed:
		return "test-failed"
	case TestIgnored:
		return "test-ignored"
	case TestFinished:
		return "test-finished"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a single lifecycle event emitted by a Runtime. Failure is set only
// for TestFailed. Elapsed is set, when known, for TestFinished and
// TestIgnored.
type Event struct {
	Kind        EventKind
	Description Description
	Failure     *Failure
	Elapsed     time.Duration
}

// EventAccepter consumes events in the order a Runtime emits them.
type EventAccepter interface {
	Accept(e Event) error
}

// EventAccepterFunc adapts a function to an EventAccepter.
type EventAccepterFunc func(e Event) error

func (f EventAccepterFunc) Accept(e Event) error {
	return f(e)
}

// Flusher is implemented by accepters with work left to do once the run has
// finished, such as writing report files.
type Flusher interface {
	Flush() error
}

// MultiEventAccepter forwards every event to each of its accepters in turn.
type MultiEventAccepter struct {
	accepters []EventAccepter
}

var _ EventAccepter = (*MultiEventAccepter)(nil)

// NewMultiEventAccepter returns an accepter fanning out to accepters.
func NewMultiEventAccepter(accepters ...EventAccepter) *MultiEventAccepter {
	return &MultiEventAccepter{accepters: accepters}
}

// Accept forwards the event. Processing stops at the first error, which is
// returned to the caller.
func (m *MultiEventAccepter) Accept(e Event) error {
	for _, a := range m.accepters {
		if err := a.Accept(e); err != nil {
			return err
		}
	}
	return nil
}
