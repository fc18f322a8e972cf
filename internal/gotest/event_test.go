package gotest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type eventAccepterFunc func(e event) error

func (f eventAccepterFunc) Accept(e event) error {
	return f(e)
}

func Test_eventStreamParser_Parse(t *testing.T) {
	type testcase struct {
		Description  string
		GoTestOutput string

		ExpectedEvent event
		ExpectedError bool
	}
	testcases := []testcase{
		{
			Description:  "output event",
			GoTestOutput: `{"Time":"2024-03-11T09:12:44.182763011Z","Action":"output","Package":"example.com/shop/cart","Test":"TestCart_Add","Output":"--- PASS: TestCart_Add (0.01s)\n"}`,

			ExpectedEvent: event{
				Time:    time.Date(2024, 3, 11, 9, 12, 44, 182763011, time.UTC),
				Action:  "output",
				Package: "example.com/shop/cart",
				Test:    "TestCart_Add",
				Output:  "--- PASS: TestCart_Add (0.01s)\n",
			},
		},
		{
			Description:  "pass event",
			GoTestOutput: `{"Time":"2024-03-11T09:12:44.18277Z","Action":"pass","Package":"example.com/shop/cart","Test":"TestCart_Add","Elapsed":0.01}`,

			ExpectedEvent: event{
				Time:    time.Date(2024, 3, 11, 9, 12, 44, 182770000, time.UTC),
				Action:  "pass",
				Package: "example.com/shop/cart",
				Test:    "TestCart_Add",
				Elapsed: 0.01,
			},
		},
		{
			Description:  "empty event",
			GoTestOutput: `{}`,

			ExpectedEvent: event{},
		},
		{
			Description:  "build-output event",
			GoTestOutput: `{"ImportPath":"example.com/shop/cart [example.com/shop/cart.test]","Action":"build-output","Output":"# example.com/shop/cart [example.com/shop/cart.test]\n"}`,

			ExpectedEvent: event{
				Action:     "build-output",
				ImportPath: "example.com/shop/cart [example.com/shop/cart.test]",
				Output:     "# example.com/shop/cart [example.com/shop/cart.test]\n",
			},
		},
		{
			Description:  "package fail after a failed build",
			GoTestOutput: `{"Action":"fail","Package":"example.com/shop/cart","Elapsed":0,"FailedBuild":"example.com/shop/cart [example.com/shop/cart.test]"}`,

			ExpectedEvent: event{
				Action:      "fail",
				Package:     "example.com/shop/cart",
				FailedBuild: "example.com/shop/cart [example.com/shop/cart.test]",
			},
		},
		{
			Description:  "plain text build failed line",
			GoTestOutput: "FAIL\texample.com/shop/cart [build failed]",

			ExpectedEvent: event{
				Action:  "fail",
				Package: "example.com/shop/cart",
			},
		},
		{
			Description:  "plain text line",
			GoTestOutput: `=== RUN   TestCart_Add`,

			ExpectedError: true,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.Description, func(t *testing.T) {
			var observedEvent event
			parser := newEventStreamParser(eventAccepterFunc(func(e event) error {
				observedEvent = e
				return nil
			}))
			parser.converter = &buildFailedEventConverter{primary: jsonEventConverter{}, now: func() time.Time { return time.Time{} }}
			err := parser.Parse(strings.NewReader(tc.GoTestOutput))
			if tc.ExpectedError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.ExpectedEvent, observedEvent)
			}
		})
	}
}

func Test_buildFailedEventConverter_Convert(t *testing.T) {
	ts := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	tested := &buildFailedEventConverter{primary: jsonEventConverter{}, now: func() time.Time { return ts }}

	events, err := tested.Convert([]byte("FAIL\texample.com/shop/cart [setup failed]"))
	require.NoError(t, err)
	require.Equal(t,
		[]event{
			{Time: ts, Action: "output", Package: "example.com/shop/cart", Output: "FAIL\texample.com/shop/cart [setup failed]\n"},
			{Time: ts, Action: "fail", Package: "example.com/shop/cart"},
		},
		events,
	)
}

func Test_eventStreamParser_Parse_accepterError(t *testing.T) {
	expectedErr := errors.New("fail boat")
	calls := 0
	parser := newEventStreamParser(eventAccepterFunc(func(e event) error {
		calls++
		return expectedErr
	}))
	err := parser.Parse(strings.NewReader("{}\n{}\n"))
	require.Equal(t, expectedErr, err)
	require.Equal(t, 1, calls)
}
