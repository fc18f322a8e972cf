package testrun

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	descFoo    = Description{ClassName: "example.com/foo", MethodName: "TestFoo"}
	descBar    = Description{ClassName: "example.com/foo", MethodName: "TestBar"}
	descBaz    = Description{ClassName: "example.com/baz", MethodName: "TestBaz"}
	descPkgBaz = Description{ClassName: "example.com/baz"}
)

func Test_Description_QualifiedName(t *testing.T) {
	require.Equal(t, "example.com/foo.TestFoo", descFoo.QualifiedName())
	require.Equal(t, "example.com/baz", descPkgBaz.QualifiedName())
}

func Test_MatchName(t *testing.T) {
	type testcase struct {
		Pattern     string
		Description Description
		Expected    bool
	}
	testcases := []testcase{
		{"TestFoo", descFoo, true},
		{"foo.Test", descBar, true},
		{"example.com/foo", descBar, true},
		{"TestFoo", descBar, false},
		{"testfoo", descFoo, false},
		{"Test*", descFoo, true},
		{"Test?ar", descBar, true},
		{"Test?ar", descFoo, false},
		{"*/foo.*", descFoo, true},
		{"*/foo.*", descBaz, false},
		{"example.com/*", descPkgBaz, true},
		{"Baz*", descBaz, false},
		{"*Baz", descBaz, true},
		{"example.com/foo", descPkgBaz, false},
		{"a.b", Description{ClassName: "axb"}, false},
		{"example*TestFoo", descFoo, true},
		{"Test[12]*", Description{ClassName: "example.com/foo", MethodName: "Test[12]_x"}, true},
		{"Test[12]*", Description{ClassName: "example.com/foo", MethodName: "Test1_x"}, false},
		{"*{a,b}", Description{ClassName: "example.com/foo", MethodName: "Test{a,b}"}, true},
	}
	for _, tc := range testcases {
		require.Equal(t, tc.Expected, Evaluate(MatchName(tc.Pattern), tc.Description), "%q against %q", tc.Pattern, tc.Description.QualifiedName())
	}
}

func Test_Union(t *testing.T) {
	operands := [][]*Filter{
		{MatchName("TestFoo"), MatchName("TestBar")},
		{MatchName("TestFoo"), MatchName("nope")},
		{MatchName("nope"), MatchName("TestBaz")},
	}
	for _, ops := range operands {
		for _, d := range []Description{descFoo, descBar, descBaz} {
			expected := Evaluate(ops[0], d) || Evaluate(ops[1], d)
			require.Equal(t, expected, Evaluate(Union(ops...), d))
		}
	}
}

func Test_Union_empty(t *testing.T) {
	require.False(t, Evaluate(Union(), descFoo))
}

func Test_Intersect_collectsEvenWhenRightRejects(t *testing.T) {
	collector := CollectAll()
	tested := Intersect(collector, MatchName("TestFoo"))
	require.True(t, Evaluate(tested, descFoo))
	require.False(t, Evaluate(tested, descBar))
	require.False(t, Evaluate(tested, descBaz))
	require.Equal(t, []Description{descFoo, descBar, descBaz}, collector.Collected())
}

func Test_CollectAll(t *testing.T) {
	tested := CollectAll()
	for _, d := range []Description{descFoo, descBar, descFoo, descBaz} {
		require.True(t, Evaluate(tested, d))
	}
	require.Equal(t, []Description{descFoo, descBar, descBaz}, tested.Collected())
}

func Test_Collected_notCollectAll(t *testing.T) {
	require.Nil(t, MatchName("x").Collected())
	var f *Filter
	require.Nil(t, f.Collected())
}

func Test_Evaluate_nil(t *testing.T) {
	require.True(t, Evaluate(nil, descFoo))
}

func Test_BuildFilter_noPatterns(t *testing.T) {
	effective, collector := BuildFilter(nil)
	require.Same(t, collector, effective)
	for _, d := range []Description{descFoo, descBar, descBaz} {
		require.True(t, Evaluate(effective, d))
	}
	require.Equal(t, []Description{descFoo, descBar, descBaz}, collector.Collected())
}

func Test_BuildFilter_patterns(t *testing.T) {
	effective, collector := BuildFilter([]string{"TestFoo", "baz"})
	require.Equal(t, "all(all-tests, any(name(TestFoo), name(baz)))", effective.String())
	require.True(t, Evaluate(effective, descFoo))
	require.False(t, Evaluate(effective, descBar))
	require.True(t, Evaluate(effective, descBaz))
	require.Len(t, collector.Collected(), 3)
}

func Test_Select(t *testing.T) {
	classes := []Candidate{
		{Name: "example.com/foo", Methods: []Method{marked("TestFoo"), {Name: "testHelper"}, marked("TestBar")}},
		{Name: "example.com/baz", Methods: []Method{marked("TestBaz")}},
		{Name: "example.com/legacy", Methods: []Method{{Name: "testOld"}}},
	}
	filter, collector := BuildFilter([]string{"TestBa"})
	root := Select(classes, filter)
	require.Equal(t, Description{
		Children: []Description{
			{ClassName: "example.com/foo", Children: []Description{descBar}},
			{ClassName: "example.com/baz", Children: []Description{descBaz}},
		},
	}, root)
	require.Equal(t, []Description{descFoo, descBar, descBaz}, collector.Collected())
}

func Test_Select_nothingSelected(t *testing.T) {
	filter, _ := BuildFilter([]string{"nope"})
	root := Select([]Candidate{{Name: "example.com/foo", Methods: []Method{marked("TestFoo")}}}, filter)
	require.Empty(t, root.Children)
}
