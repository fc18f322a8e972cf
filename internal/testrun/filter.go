package testrun

import (
	"strings"

	"github.com/gobwas/glob"
)

type filterKind int

const (
	filterMatchName filterKind = iota
	filterUnion
	filterIntersect
	filterCollectAll
)

// Filter is a boolean expression over descriptions. Build one with
// MatchName, Union, Intersect, and CollectAll, and evaluate it with
// Evaluate. A Filter is not safe for concurrent evaluation because
// CollectAll records what it sees.
type Filter struct {
	kind     filterKind
	pattern  string
	glob     glob.Glob
	operands []*Filter

	seen      map[DescriptionKey]struct{}
	collected []Description
}

// MatchName matches descriptions whose qualified name satisfies pattern.
//
// A pattern containing "*" or "?" is a glob anchored at both ends, where "*"
// matches any run of characters, "/" and "." included, and "?" a single
// one. Every other character is literal. It is tried against the qualified
// name and against the method name alone. Any other pattern matches when it
// is a substring of the qualified name.
func MatchName(pattern string) *Filter {
	f := &Filter{kind: filterMatchName, pattern: pattern}
	if strings.ContainsAny(pattern, "*?") {
		if g, err := glob.Compile(quoteGlob(pattern)); err == nil {
			f.glob = g
		}
	}
	return f
}

// Union matches when any operand matches.
func Union(operands ...*Filter) *Filter {
	return &Filter{kind: filterUnion, operands: operands}
}

// Intersect matches when both left and right match. left is always
// evaluated, and evaluated first.
func Intersect(left, right *Filter) *Filter {
	return &Filter{kind: filterIntersect, operands: []*Filter{left, right}}
}

// CollectAll matches everything and remembers every description it was
// asked about.
func CollectAll() *Filter {
	return &Filter{kind: filterCollectAll, seen: make(map[DescriptionKey]struct{})}
}

// Collected returns the descriptions a CollectAll filter has evaluated, in
// first-seen order. It returns nil for any other kind of filter.
func (f *Filter) Collected() []Description {
	if f == nil || f.kind != filterCollectAll {
		return nil
	}
	return append([]Description(nil), f.collected...)
}

// String renders the filter expression, mostly for debug output.
func (f *Filter) String() string {
	switch f.kind {
	case filterMatchName:
		return "name(" + f.pattern + ")"
	case filterUnion:
		parts := make([]string, len(f.operands))
		for i, op := range f.operands {
			parts[i] = op.String()
		}
		return "any(" + strings.Join(parts, ", ") + ")"
	case filterIntersect:
		return "all(" + f.operands[0].String() + ", " + f.operands[1].String() + ")"
	case filterCollectAll:
		return "all-tests"
	}
	return "unknown"
}

// Evaluate reports whether d passes f. A nil filter passes everything.
func Evaluate(f *Filter, d Description) bool {
	if f == nil {
		return true
	}
	switch f.kind {
	case filterMatchName:
		return f.matches(d)
	case filterUnion:
		for _, op := range f.operands {
			if Evaluate(op, d) {
				return true
			}
		}
		return false
	case filterIntersect:
		// The left side carries the CollectAll side effect, so it must run
		// before the right side gets a chance to short-circuit.
		if !Evaluate(f.operands[0], d) {
			return false
		}
		return Evaluate(f.operands[1], d)
	case filterCollectAll:
		if _, ok := f.seen[d.Key()]; !ok {
			f.seen[d.Key()] = struct{}{}
			f.collected = append(f.collected, d)
		}
		return true
	}
	return false
}

func (f *Filter) matches(d Description) bool {
	name := d.QualifiedName()
	if f.glob == nil {
		return strings.Contains(name, f.pattern)
	}
	return f.glob.Match(name) || (d.MethodName != "" && f.glob.Match(d.MethodName))
}

// quoteGlob escapes the glob syntax of pattern other than "*" and "?".
func quoteGlob(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		if r == '*' || r == '?' {
			sb.WriteRune(r)
			continue
		}
		sb.WriteString(glob.QuoteMeta(string(r)))
	}
	return sb.String()
}

// BuildFilter builds the filter for a run. With no patterns the effective
// filter is a lone CollectAll. Otherwise it is
//
//	Intersect(CollectAll, Union(MatchName(p) for each p))
//
// Either way collector is the CollectAll, which ends up holding every
// description the runtime considered.
func BuildFilter(patterns []string) (effective, collector *Filter) {
	collector = CollectAll()
	if len(patterns) == 0 {
		return collector, collector
	}
	matchers := make([]*Filter, len(patterns))
	for i, p := range patterns {
		matchers[i] = MatchName(p)
	}
	return Intersect(collector, Union(matchers...)), collector
}

// Select evaluates filter against every runnable method of every class and
// returns a root description whose children are the classes with at least
// one method left. Classes keep their input order; methods keep declaration
// order.
func Select(classes []Candidate, filter *Filter) Description {
	root := Description{}
	for _, c := range classes {
		class := Description{ClassName: c.Name}
		for _, m := range Runnable(c) {
			d := Description{ClassName: c.Name, MethodName: m.Name}
			if Evaluate(filter, d) {
				class.Children = append(class.Children, d)
			}
		}
		if len(class.Children) > 0 {
			root.Children = append(root.Children, class)
		}
	}
	return root
}
