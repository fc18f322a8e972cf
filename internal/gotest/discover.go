package gotest

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/go/packages"

	"oss.indeed.com/go/go-verdict/internal/testrun"
)

// Discover loads the packages matching patterns, with their tests, and
// returns one candidate per package that has _test.go files. Every function
// and method declared in those files is listed in declaration order, and
// the ones "go test" would run get testrun.MarkerTest.
//
// Candidates are sorted by import path. The tests of an external _test
// package belong to the package they test.
func (r *Runtime) Discover(ctx context.Context, patterns ...string) ([]testrun.Candidate, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:     r.opts.dir,
		Fset:    fset,
		Tests:   true,
	}
	if r.opts.tags != "" {
		cfg.BuildFlags = []string{"-tags=" + r.opts.tags}
	}
	if len(r.opts.env) > 0 {
		cfg.Env = append(os.Environ(), r.opts.env...)
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })

	byName := make(map[string]*testrun.Candidate)
	var names []string
	for _, p := range pkgs {
		class := p.PkgPath
		if strings.HasSuffix(p.Name, "_test") {
			class = strings.TrimSuffix(class, "_test")
		}
		for _, f := range p.Syntax {
			if !strings.HasSuffix(fset.File(f.Pos()).Name(), "_test.go") {
				continue
			}
			c, ok := byName[class]
			if !ok {
				c = &testrun.Candidate{Name: class}
				byName[class] = c
				names = append(names, class)
			}
			c.Methods = append(c.Methods, fileMethods(f)...)
		}
	}

	sort.Strings(names)
	candidates := make([]testrun.Candidate, len(names))
	for i, name := range names {
		candidates[i] = *byName[name]
	}
	return candidates, nil
}

// fileMethods lists the functions and methods declared in f.
func fileMethods(f *ast.File) []testrun.Method {
	var methods []testrun.Method
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		m := testrun.Method{Name: fd.Name.Name}
		if isGoTest(f, fd) {
			m.Markers = []string{testrun.MarkerTest}
		}
		methods = append(methods, m)
	}
	return methods
}

// isGoTest reports whether "go test" runs fd: a TestXxx(*testing.T),
// a FuzzXxx(*testing.F), or an ExampleXxx() with an output comment.
func isGoTest(f *ast.File, fd *ast.FuncDecl) bool {
	if fd.Recv != nil || fd.Type.TypeParams != nil || fd.Type.Results != nil {
		return false
	}
	name := fd.Name.Name
	switch {
	case hasTestPrefix(name, "Test"):
		return hasSingleParam(fd, "T")
	case hasTestPrefix(name, "Fuzz"):
		return hasSingleParam(fd, "F")
	case hasTestPrefix(name, "Example"):
		return fd.Type.Params.NumFields() == 0 && hasOutputComment(f, fd)
	}
	return false
}

// hasTestPrefix applies the "go test" naming rule: name is prefix, or
// prefix followed by something that does not start with a lower case
// letter.
func hasTestPrefix(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	if len(name) == len(prefix) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name[len(prefix):])
	return !unicode.IsLower(r)
}

// hasSingleParam reports whether fd takes exactly one parameter of type
// *testing.<typ>, or *<typ> when testing is dot-imported.
func hasSingleParam(fd *ast.FuncDecl, typ string) bool {
	params := fd.Type.Params.List
	if len(params) != 1 || len(params[0].Names) > 1 {
		return false
	}
	star, ok := params[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	switch x := star.X.(type) {
	case *ast.SelectorExpr:
		return x.Sel.Name == typ
	case *ast.Ident:
		return x.Name == typ
	}
	return false
}

// hasOutputComment reports whether the body of fd ends with an
// "Output:" or "Unordered output:" comment.
func hasOutputComment(f *ast.File, fd *ast.FuncDecl) bool {
	if fd.Body == nil {
		return false
	}
	var last *ast.CommentGroup
	for _, cg := range f.Comments {
		if cg.Pos() > fd.Body.Lbrace && cg.End() < fd.Body.Rbrace {
			last = cg
		}
	}
	if last == nil {
		return false
	}
	text := strings.TrimSpace(last.Text())
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "output:") || strings.HasPrefix(lower, "unordered output:")
}
