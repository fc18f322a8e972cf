package gotest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"oss.indeed.com/go/go-verdict/internal/testrun"
)

var descAdd = testrun.Description{ClassName: "example.com/shop/cart", MethodName: "TestCart_Add"}

func Test_parseFailure(t *testing.T) {
	type testcase struct {
		Description string
		Output      string

		ExpectedMessage string
		ExpectedFrames  []testrun.Frame
	}
	testcases := []testcase{
		{
			Description: "t.Errorf",
			Output: "=== RUN   TestCart_Add\n" +
				"    cart_test.go:17: expected 7, got 6\n" +
				"--- FAIL: TestCart_Add (0.00s)\n",
			ExpectedMessage: "expected 7, got 6",
			ExpectedFrames: []testrun.Frame{
				{ClassName: "example.com/shop/cart", Function: "TestCart_Add", File: "cart_test.go", Line: 17},
			},
		},
		{
			Description: "multi-line message and a second block",
			Output: "=== RUN   TestCart_Add\n" +
				"    cart_test.go:17: first\n" +
				"        second\n" +
				"    cart_test.go:18: third\n" +
				"--- FAIL: TestCart_Add (0.00s)\n",
			ExpectedMessage: "first\nsecond\nthird",
			ExpectedFrames: []testrun.Frame{
				{ClassName: "example.com/shop/cart", Function: "TestCart_Add", File: "cart_test.go", Line: 17},
				{ClassName: "example.com/shop/cart", Function: "TestCart_Add", File: "cart_test.go", Line: 18},
			},
		},
		{
			Description: "testify",
			Output: "=== RUN   TestCart_Add\n" +
				"    cart_test.go:14: \n" +
				"        \tError Trace:\t/src/shop/cart/cart_test.go:14\n" +
				"        \tError:      \tNot equal: \n" +
				"        \t            \texpected: 1\n" +
				"        \t            \tactual  : 2\n" +
				"        \tTest:       \tTestCart_Add\n" +
				"--- FAIL: TestCart_Add (0.00s)\n",
			ExpectedMessage: "Not equal:\nexpected: 1\nactual  : 2",
			ExpectedFrames: []testrun.Frame{
				{ClassName: "example.com/shop/cart", Function: "TestCart_Add", File: "cart_test.go", Line: 14},
			},
		},
		{
			Description: "panic",
			Output: "=== RUN   TestCart_Add\n" +
				"--- FAIL: TestCart_Add (0.00s)\n" +
				"panic: boom [recovered]\n" +
				"\tpanic: boom\n" +
				"\n" +
				"goroutine 7 [running]:\n" +
				"testing.tRunner.func1.2({0x5f4b20, 0x6b1d30})\n" +
				"\t/usr/local/go/src/testing/testing.go:1632 +0x230\n" +
				"panic({0x5f4b20?, 0x6b1d30?})\n" +
				"\t/usr/local/go/src/runtime/panic.go:785 +0x132\n" +
				"example.com/shop/cart.(*Cart).Add(...)\n" +
				"\t/src/shop/cart/cart.go:9\n" +
				"example.com/shop/cart_test.TestCart_Add(0xc0000a6820?)\n" +
				"\t/src/shop/cart/cart_test.go:30 +0x25\n" +
				"created by testing.(*T).Run in goroutine 1\n" +
				"\t/usr/local/go/src/testing/testing.go:1742 +0x390\n",
			ExpectedMessage: "panic: boom",
			ExpectedFrames: []testrun.Frame{
				{ClassName: "testing", Function: "tRunner.func1.2", File: "/usr/local/go/src/testing/testing.go", Line: 1632},
				{ClassName: "example.com/shop/cart", Function: "(*Cart).Add", File: "/src/shop/cart/cart.go", Line: 9},
				{ClassName: "example.com/shop/cart", Function: "TestCart_Add", File: "/src/shop/cart/cart_test.go", Line: 30},
				{ClassName: "testing", Function: "(*T).Run", File: "/usr/local/go/src/testing/testing.go", Line: 1742},
			},
		},
		{
			Description: "build failure",
			Output: "# example.com/shop/cart [example.com/shop/cart.test]\n" +
				"./cart_test.go:9:2: undefined: nope\n" +
				"FAIL\texample.com/shop/cart [build failed]\n",
			ExpectedMessage: "undefined: nope",
			ExpectedFrames: []testrun.Frame{
				{ClassName: "example.com/shop/cart", Function: "TestCart_Add", File: "./cart_test.go", Line: 9},
			},
		},
		{
			Description: "no explanation",
			Output: "=== RUN   TestCart_Add\n" +
				"--- FAIL: TestCart_Add (0.00s)\n",
			ExpectedMessage: "",
		},
		{
			Description: "plain output",
			Output: "setting up the database failed\n" +
				"FAIL\texample.com/shop/cart\t0.010s\n",
			ExpectedMessage: "setting up the database failed",
		},
	}
	for _, tc := range testcases {
		t.Run(tc.Description, func(t *testing.T) {
			f := parseFailure(descAdd, tc.Output)
			require.Equal(t, descAdd, f.Description)
			require.Equal(t, tc.ExpectedMessage, f.Message)
			require.Equal(t, tc.ExpectedFrames, f.Frames)
			require.Equal(t, tc.Output, f.Trace)
		})
	}
}

func Test_parseFailure_diffMessage(t *testing.T) {
	output := "panic: boom\n\n" +
		"goroutine 7 [running]:\n" +
		"example.com/shop/cart.TestCart_Add(0xc0000a6820?)\n" +
		"\t/src/shop/cart/cart_test.go:30 +0x25\n"
	require.Equal(t, "@ ^b^line 30^r^ [ panic: boom ]", testrun.DiffMessage(parseFailure(descAdd, output)))
}

func Test_splitStackFunc(t *testing.T) {
	type testcase struct {
		Line        string
		ExpectedPkg string
		ExpectedFn  string
		ExpectedOk  bool
	}
	testcases := []testcase{
		{Line: "example.com/shop/cart.Total(...)", ExpectedPkg: "example.com/shop/cart", ExpectedFn: "Total", ExpectedOk: true},
		{Line: "example.com/shop/cart.(*Cart).Add(0xc0, 0x1)", ExpectedPkg: "example.com/shop/cart", ExpectedFn: "(*Cart).Add", ExpectedOk: true},
		{Line: "example.com/shop/cart_test.TestX(0xc0)", ExpectedPkg: "example.com/shop/cart", ExpectedFn: "TestX", ExpectedOk: true},
		{Line: "main.main()", ExpectedPkg: "main", ExpectedFn: "main", ExpectedOk: true},
		{Line: "created by example.com/shop/cart.Start in goroutine 1", ExpectedPkg: "example.com/shop/cart", ExpectedFn: "Start", ExpectedOk: true},
		{Line: "panic({0x5f4b20?, 0x6b1d30?})", ExpectedOk: false},
		{Line: "goroutine 7 [running]:", ExpectedOk: false},
		{Line: "", ExpectedOk: false},
	}
	for _, tc := range testcases {
		pkg, fn, ok := splitStackFunc(tc.Line)
		require.Equal(t, tc.ExpectedOk, ok, tc.Line)
		require.Equal(t, tc.ExpectedPkg, pkg, tc.Line)
		require.Equal(t, tc.ExpectedFn, fn, tc.Line)
	}
}
