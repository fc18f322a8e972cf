package gotest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_misattributedPackageFailAccepter_Accept(t *testing.T) {
	type testcase struct {
		Description string
		Output      string

		ExpectedTestOutput    string
		ExpectedPackageOutput string
	}
	testcases := []testcase{
		{
			Description:           "package line",
			Output:                "panic: runtime error: index out of range\n... stack\n    trace ...\nFAIL\texample.com/shop/cart\t3.452s\n",
			ExpectedTestOutput:    "panic: runtime error: index out of range\n... stack\n    trace ...\n",
			ExpectedPackageOutput: "FAIL\texample.com/shop/cart\t3.452s\n",
		},
		{
			Description:           "exit status and package line",
			Output:                "panic: boom\n... stack\nexit status 2\nFAIL\texample.com/shop/cart\t3.452s\n",
			ExpectedTestOutput:    "panic: boom\n... stack\n",
			ExpectedPackageOutput: "exit status 2\nFAIL\texample.com/shop/cart\t3.452s\n",
		},
	}
	for _, tc := range testcases {
		t.Run(tc.Description, func(t *testing.T) {
			issueRes := result{
				Key:     resultKey{Package: "example.com/shop/cart", Test: "TestCart_Panic"},
				Outcome: outcomeFail,
				Output:  tc.Output,
			}
			var results []result
			require.NoError(t, newMisattributedPackageFailAccepter(collectResults(&results)).Accept(issueRes))
			require.Equal(t,
				[]result{
					{Key: issueRes.Key, Outcome: outcomeFail, Output: tc.ExpectedTestOutput},
					{
						Key:     resultKey{Package: "example.com/shop/cart"},
						Outcome: outcomeFail,
						Output:  tc.ExpectedPackageOutput,
						Elapsed: 3452 * time.Millisecond,
					},
				},
				results,
			)
		})
	}
}

func Test_misattributedPackageFailAccepter_Accept_passthrough(t *testing.T) {
	testcases := map[string]result{
		"not a failure": {
			Key:     resultKey{Package: "example.com/shop/cart", Test: "TestCart_Add"},
			Outcome: outcomePass,
			Output:  "some output",
		},
		"ordinary failure": {
			Key:     resultKey{Package: "example.com/shop/cart", Test: "TestCart_Add"},
			Outcome: outcomeFail,
			Output:  "\n=== RUN   TestCart_Add\n--- FAIL: TestCart_Add (0.00s)\n",
		},
		"package mismatch": {
			Key:     resultKey{Package: "example.com/shop/cart", Test: "TestCart_Add"},
			Outcome: outcomeFail,
			Output:  "panic: boom\nFAIL\texample.com/shop/tax\t3.452s\n",
		},
		"package result": {
			Key:     resultKey{Package: "example.com/shop/cart"},
			Outcome: outcomeFail,
			Output:  "panic: boom\nFAIL\texample.com/shop/cart\t3.452s\n",
		},
	}
	for name, res := range testcases {
		t.Run(name, func(t *testing.T) {
			var results []result
			require.NoError(t, newMisattributedPackageFailAccepter(collectResults(&results)).Accept(res))
			require.Equal(t, []result{res}, results)
		})
	}
}

func Test_parseSeconds(t *testing.T) {
	require.Equal(t, 1500*time.Millisecond, parseSeconds("1.5s"))
	require.Equal(t, time.Duration(0), parseSeconds("(cached)"))
	require.Equal(t, time.Duration(0), parseSeconds("xs"))
}
