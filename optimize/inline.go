package optimize

import (
	"slices"

	"github.com/livecodelang/lcl/ast"
)

// funcScope maps names to the Lambda they are statically bound to. A nil
// entry means the name is bound to something else here and hides any
// outer function of the same name.
type funcScope struct {
	funcs  map[string]*ast.Lambda
	parent *funcScope
}

func newFuncScope(parent *funcScope) *funcScope {
	return &funcScope{funcs: map[string]*ast.Lambda{}, parent: parent}
}

func (s *funcScope) lookup(name string) *ast.Lambda {
	l, _ := s.bound(name)
	return l
}

// bound is lookup that also reports whether any scope binds name, so a
// name hidden by a non-function binding can be told from an unknown one.
func (s *funcScope) bound(name string) (*ast.Lambda, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if l, ok := sc.funcs[name]; ok {
			return l, true
		}
	}
	return nil, false
}

// inlineRun is the state shared by one sweep over the tree.
type inlineRun struct {
	// retain names definitions whose binding must survive because some
	// call could not be resolved statically.
	retain map[string]bool
	// unresolved collects the names of calls left without a cache and of
	// functions read as values.
	unresolved map[string]bool
}

type inlineState struct {
	run   *inlineRun
	scope *funcScope
}

func (st *inlineState) nested() *inlineState {
	return &inlineState{run: st.run, scope: newFuncScope(st.scope)}
}

// EliminateFunctions replaces every Assignment of a Lambda with Null and
// attaches a fresh copy of the Lambda to each Application that calls it,
// so the evaluator can dispatch without a name-to-function environment.
// Function scopes nest per Block; Lambda parameters, Times loop variables
// and non-function assignments hide outer functions of the same name.
//
// Calls the pass cannot resolve at their position (recursion, mutual
// recursion, forward references, definitions on another control-flow
// branch) are found by a first sweep, together with Variables that read
// a function as a value. A definition named by either keeps its
// Assignment, so the evaluator still finds it by name.
func EliminateFunctions(root ast.Node) (ast.Node, error) {
	first := &inlineRun{unresolved: map[string]bool{}}
	if _, err := first.rewrite(root); err != nil {
		return nil, err
	}
	run := &inlineRun{retain: first.unresolved, unresolved: map[string]bool{}}
	return run.rewrite(root)
}

func (r *inlineRun) rewrite(root ast.Node) (ast.Node, error) {
	return ast.Rewrite(root, inlineHandlers, &inlineState{run: r, scope: newFuncScope(nil)})
}

var inlineHandlers = map[ast.Kind]ast.Handler[*inlineState]{
	ast.KindBlock: func(n ast.Node, hs ast.Handlers[*inlineState], st *inlineState) (ast.Node, error) {
		b, err := ast.As[*ast.Block](n)
		if err != nil {
			return nil, err
		}
		elems, err := ast.TraverseAll(b.Elements, hs, st.nested())
		if err != nil {
			return nil, err
		}
		return &ast.Block{Elements: elems}, nil
	},

	ast.KindLambda: func(n ast.Node, hs ast.Handlers[*inlineState], st *inlineState) (ast.Node, error) {
		l, err := ast.As[*ast.Lambda](n)
		if err != nil {
			return nil, err
		}
		inner := st.nested()
		for _, p := range l.Params {
			inner.scope.funcs[p] = nil
		}
		body, err := ast.Traverse(l.Body, hs, inner)
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{
			Params:    slices.Clone(l.Params),
			Body:      body,
			Inlinable: l.Inlinable,
			Free:      slices.Clone(l.Free),
		}, nil
	},

	ast.KindTimes: func(n ast.Node, hs ast.Handlers[*inlineState], st *inlineState) (ast.Node, error) {
		t, err := ast.As[*ast.Times](n)
		if err != nil {
			return nil, err
		}
		count, err := ast.Traverse(t.Count, hs, st)
		if err != nil {
			return nil, err
		}
		inner := st.nested()
		if t.LoopVar != "" {
			inner.scope.funcs[t.LoopVar] = nil
		}
		body, err := ast.Traverse(t.Body, hs, inner)
		if err != nil {
			return nil, err
		}
		return &ast.Times{Count: count, Body: body, LoopVar: t.LoopVar}, nil
	},

	ast.KindVariable: func(n ast.Node, _ ast.Handlers[*inlineState], st *inlineState) (ast.Node, error) {
		v, err := ast.As[*ast.Variable](n)
		if err != nil {
			return nil, err
		}
		// A name that is a function here, or not bound yet, may be a
		// function read as a value.
		if l, ok := st.scope.bound(v.Name); l != nil || !ok {
			st.run.unresolved[v.Name] = true
		}
		return &ast.Variable{Name: v.Name, Ref: v.Ref}, nil
	},

	ast.KindAssignment: func(n ast.Node, hs ast.Handlers[*inlineState], st *inlineState) (ast.Node, error) {
		a, err := ast.As[*ast.Assignment](n)
		if err != nil {
			return nil, err
		}
		expr, err := ast.Traverse(a.Expr, hs, st)
		if err != nil {
			return nil, err
		}
		l, ok := expr.(*ast.Lambda)
		st.scope.funcs[a.Name] = l
		if ok && !st.run.retain[a.Name] {
			return &ast.Null{}, nil
		}
		return &ast.Assignment{Name: a.Name, Expr: expr, Ref: a.Ref}, nil
	},

	ast.KindApplication: func(n ast.Node, hs ast.Handlers[*inlineState], st *inlineState) (ast.Node, error) {
		app, err := ast.As[*ast.Application](n)
		if err != nil {
			return nil, err
		}
		cache := app.Cache
		if l := st.scope.lookup(app.Name); l != nil {
			cache = l
		} else if cache == nil {
			st.run.unresolved[app.Name] = true
		}
		if cache != nil {
			if cache, err = ast.CopyLambda(cache); err != nil {
				return nil, err
			}
		}
		args, err := ast.TraverseAll(app.Args, hs, st)
		if err != nil {
			return nil, err
		}
		block, err := ast.Traverse(app.Block, hs, st)
		if err != nil {
			return nil, err
		}
		return &ast.Application{
			Name:     app.Name,
			Args:     args,
			Block:    block,
			Cache:    cache,
			ArgSlots: slices.Clone(app.ArgSlots),
		}, nil
	},
}
