package gotest

import (
	"bufio"
	"encoding/json"
	"io"
	"regexp"
	"time"
)

var buildFailedLineRegexp = regexp.MustCompile(`^FAIL\s+(\S+)\s+\[(?:build|setup) failed\]$`)

// maxLineSize bounds a single "go test -json" line. Tests that log very
// large values produce long output events.
const maxLineSize = 4 * 1024 * 1024

// event is a test event printed by "go test -json". See "go doc test2json"
// for more details. ImportPath and FailedBuild are only set by Go 1.24 and
// later, for build output and for packages whose build failed.
type event struct {
	Time        time.Time // encodes as an RFC3339-format string
	Action      string
	Package     string
	Test        string
	Elapsed     float64 // seconds
	Output      string
	ImportPath  string
	FailedBuild string
}

// eventAccepter accepts events created by an eventStreamParser.
type eventAccepter interface {
	Accept(e event) error
}

// eventConverter converts a single line (without the newline) to events.
type eventConverter interface {
	Convert(line []byte) ([]event, error)
}

// jsonEventConverter converts JSON event lines into singleton lists with
// the corresponding event.
type jsonEventConverter struct {
}

var _ eventConverter = jsonEventConverter{}

func (jsonEventConverter) Convert(line []byte) ([]event, error) {
	var e event
	if err := json.Unmarshal(line, &e); err != nil {
		return nil, err
	}
	return []event{e}, nil
}

// buildFailedEventConverter first calls the primary eventConverter and, if
// that fails, falls back to converting lines like
// "FAIL	example.com [build failed]" into an output and a fail event for the
// package. Go versions before 1.24 print those lines as plain text in the
// middle of the JSON stream (https://github.com/golang/go/issues/35169).
type buildFailedEventConverter struct {
	primary eventConverter
	now     func() time.Time
}

var _ eventConverter = (*buildFailedEventConverter)(nil)

func (c *buildFailedEventConverter) Convert(line []byte) ([]event, error) {
	events, err := c.primary.Convert(line)
	if err == nil {
		return events, nil
	}

	match := buildFailedLineRegexp.FindSubmatch(line)
	if match == nil {
		return nil, err
	}
	ts := c.now()
	pkg := string(match[1])
	return []event{
		{
			Time:    ts,
			Action:  "output",
			Package: pkg,
			Output:  string(line) + "\n", // bufio.Scanner removes the newline
		},
		{
			Time:    ts,
			Action:  "fail",
			Package: pkg,
		},
	}, nil
}

// eventStreamParser reads "go test -json" output, converts each line to
// events, and passes each event to the eventAccepter.
type eventStreamParser struct {
	to        eventAccepter
	converter eventConverter
}

func newEventStreamParser(to eventAccepter) *eventStreamParser {
	return &eventStreamParser{
		to:        to,
		converter: &buildFailedEventConverter{primary: jsonEventConverter{}, now: time.Now},
	}
}

// Parse "go test -json" output into events and pass them to the
// eventAccepter.
//
// If any line cannot be converted, or if the eventAccepter returns an
// error, Parse stops immediately and returns the error.
func (esp *eventStreamParser) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		events, err := esp.converter.Convert(scanner.Bytes())
		if err != nil {
			return err
		}
		for _, e := range events {
			if err := esp.to.Accept(e); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}
