// Package optimize holds the tree-to-tree passes that run between the
// front end and the evaluator: closure analysis, function elimination,
// dead-code elimination and frame slot allocation. Every pass is built on
// ast.Rewrite and leaves its input untouched.
package optimize

import (
	"maps"
	"slices"

	"github.com/livecodelang/lcl/ast"
)

// ClosureScope is the analysis environment of one closure body.
type ClosureScope struct {
	bound  map[string]bool // bound by the closure itself
	parent map[string]bool // bound by enclosing closures
	free   []string
}

// NewClosureScope creates a scope whose own bindings are bound and whose
// enclosing closures bind parent.
func NewClosureScope(bound, parent []string) *ClosureScope {
	s := &ClosureScope{
		bound:  make(map[string]bool, len(bound)),
		parent: make(map[string]bool, len(parent)),
		free:   []string{},
	}
	for _, n := range bound {
		s.bound[n] = true
	}
	for _, n := range parent {
		s.parent[n] = true
	}
	return s
}

// Free returns the names recorded as free in this scope so far, in
// discovery order.
func (s *ClosureScope) Free() []string {
	return slices.Clone(s.free)
}

// enclose returns the scope for a closure nested in s.
func (s *ClosureScope) enclose(params []string) *ClosureScope {
	inner := NewClosureScope(params, nil)
	maps.Copy(inner.parent, s.parent)
	maps.Copy(inner.parent, s.bound)
	return inner
}

// AnalyzeClosures annotates every Lambda with the names it references
// but does not bind. A Variable is free when the current closure has not
// bound it. An Assignment to a name an enclosing closure binds mutates
// that outer variable, so it is free too; any other Assignment binds
// locally. Free names of a nested closure propagate outwards unless the
// enclosing closure binds them.
func AnalyzeClosures(root ast.Node) (ast.Node, error) {
	return AnalyzeClosuresIn(root, NewClosureScope(nil, nil))
}

// AnalyzeClosuresIn is AnalyzeClosures starting from an existing scope,
// which also collects the free names of the top level.
func AnalyzeClosuresIn(root ast.Node, scope *ClosureScope) (ast.Node, error) {
	return ast.Rewrite(root, closureHandlers, scope)
}

var closureHandlers = map[ast.Kind]ast.Handler[*ClosureScope]{
	ast.KindVariable: func(n ast.Node, _ ast.Handlers[*ClosureScope], s *ClosureScope) (ast.Node, error) {
		v, err := ast.As[*ast.Variable](n)
		if err != nil {
			return nil, err
		}
		if !s.bound[v.Name] {
			s.free = append(s.free, v.Name)
		}
		return &ast.Variable{Name: v.Name, Ref: v.Ref}, nil
	},

	ast.KindAssignment: func(n ast.Node, hs ast.Handlers[*ClosureScope], s *ClosureScope) (ast.Node, error) {
		a, err := ast.As[*ast.Assignment](n)
		if err != nil {
			return nil, err
		}
		expr, err := ast.Traverse(a.Expr, hs, s)
		if err != nil {
			return nil, err
		}
		if s.parent[a.Name] {
			s.free = append(s.free, a.Name)
		} else {
			s.bound[a.Name] = true
		}
		return &ast.Assignment{Name: a.Name, Expr: expr, Ref: a.Ref}, nil
	},

	ast.KindLambda: func(n ast.Node, hs ast.Handlers[*ClosureScope], s *ClosureScope) (ast.Node, error) {
		l, err := ast.As[*ast.Lambda](n)
		if err != nil {
			return nil, err
		}
		inner := s.enclose(l.Params)
		body, err := ast.Traverse(l.Body, hs, inner)
		if err != nil {
			return nil, err
		}
		for _, name := range inner.free {
			if !s.bound[name] {
				s.free = append(s.free, name)
			}
		}
		return &ast.Lambda{
			Params:    slices.Clone(l.Params),
			Body:      body,
			Inlinable: l.Inlinable,
			Free:      inner.free,
		}, nil
	},
}
