package optimize

import (
	"slices"

	"github.com/livecodelang/lcl/ast"
)

// EliminateDeadCode removes the Null placeholders left by function
// elimination together with inert nodes, bottom-up. A node collapses to
// Null when something it cannot do without collapsed: an empty Block, an
// Assignment of Null, an If with neither branch left, a Lambda without a
// body, a Times without count or body, an inactive DoOnce, an operator
// missing an operand, and every Comment. Lists drop Null elements.
//
// Applications, Variables, DeIndex and Str nodes are never removed, even
// when their value is unused. Applications still have their arguments,
// trailing block and cached callee cleaned, but keep their shape: a
// trailing block or callee body that empties out becomes an empty Block
// so call arity and dispatch are unchanged. EliminateDeadCode is
// idempotent.
func EliminateDeadCode(root ast.Node) (ast.Node, error) {
	return ast.Rewrite(root, deadCodeHandlers, struct{}{})
}

type dceHandler = ast.Handler[struct{}]
type dceHandlers = ast.Handlers[struct{}]

func emptyBlock() *ast.Block { return &ast.Block{Elements: []ast.Node{}} }

// keepShape turns a collapsed node into an empty Block.
func keepShape(n ast.Node) ast.Node {
	if ast.IsNull(n) {
		return emptyBlock()
	}
	return n
}

func dropNulls(nodes []ast.Node) []ast.Node {
	out := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if !ast.IsNull(n) {
			out = append(out, n)
		}
	}
	return out
}

var deadCodeHandlers = map[ast.Kind]dceHandler{
	ast.KindComment: func(ast.Node, dceHandlers, struct{}) (ast.Node, error) {
		return &ast.Null{}, nil
	},

	ast.KindNum: func(n ast.Node, _ dceHandlers, _ struct{}) (ast.Node, error) {
		return n, nil
	},

	ast.KindBlock: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		b, err := ast.As[*ast.Block](n)
		if err != nil {
			return nil, err
		}
		elems, err := ast.TraverseAll(b.Elements, hs, st)
		if err != nil {
			return nil, err
		}
		elems = dropNulls(elems)
		if len(elems) == 0 {
			return &ast.Null{}, nil
		}
		return &ast.Block{Elements: elems}, nil
	},

	ast.KindAssignment: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		a, err := ast.As[*ast.Assignment](n)
		if err != nil {
			return nil, err
		}
		expr, err := ast.Traverse(a.Expr, hs, st)
		if err != nil {
			return nil, err
		}
		if ast.IsNull(expr) {
			return &ast.Null{}, nil
		}
		return &ast.Assignment{Name: a.Name, Expr: expr, Ref: a.Ref}, nil
	},

	ast.KindIf: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		i, err := ast.As[*ast.If](n)
		if err != nil {
			return nil, err
		}
		pred, err := ast.Traverse(i.Predicate, hs, st)
		if err != nil {
			return nil, err
		}
		then, err := ast.Traverse(i.Then, hs, st)
		if err != nil {
			return nil, err
		}
		els, err := ast.Traverse(i.Else, hs, st)
		if err != nil {
			return nil, err
		}
		if ast.IsNull(els) {
			els = nil
		}
		if (then == nil || ast.IsNull(then)) && els == nil {
			return &ast.Null{}, nil
		}
		return &ast.If{Predicate: pred, Then: keepShape(then), Else: els}, nil
	},

	ast.KindLambda: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		l, err := ast.As[*ast.Lambda](n)
		if err != nil {
			return nil, err
		}
		body, err := ast.Traverse(l.Body, hs, st)
		if err != nil {
			return nil, err
		}
		if ast.IsNull(body) {
			return &ast.Null{}, nil
		}
		return &ast.Lambda{
			Params:    slices.Clone(l.Params),
			Body:      body,
			Inlinable: l.Inlinable,
			Free:      slices.Clone(l.Free),
		}, nil
	},

	ast.KindTimes: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		t, err := ast.As[*ast.Times](n)
		if err != nil {
			return nil, err
		}
		count, err := ast.Traverse(t.Count, hs, st)
		if err != nil {
			return nil, err
		}
		body, err := ast.Traverse(t.Body, hs, st)
		if err != nil {
			return nil, err
		}
		if ast.IsNull(count) || ast.IsNull(body) {
			return &ast.Null{}, nil
		}
		return &ast.Times{Count: count, Body: body, LoopVar: t.LoopVar}, nil
	},

	ast.KindDoOnce: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		d, err := ast.As[*ast.DoOnce](n)
		if err != nil {
			return nil, err
		}
		if !d.Active {
			return &ast.Null{}, nil
		}
		body, err := ast.Traverse(d.Body, hs, st)
		if err != nil {
			return nil, err
		}
		if ast.IsNull(body) {
			return &ast.Null{}, nil
		}
		return &ast.DoOnce{Active: true, Body: body}, nil
	},

	ast.KindUnaryOp: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		u, err := ast.As[*ast.UnaryOp](n)
		if err != nil {
			return nil, err
		}
		x, err := ast.Traverse(u.X, hs, st)
		if err != nil {
			return nil, err
		}
		if ast.IsNull(x) {
			return &ast.Null{}, nil
		}
		return &ast.UnaryOp{Op: u.Op, X: x}, nil
	},

	ast.KindBinaryOp: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		b, err := ast.As[*ast.BinaryOp](n)
		if err != nil {
			return nil, err
		}
		x, err := ast.Traverse(b.X, hs, st)
		if err != nil {
			return nil, err
		}
		y, err := ast.Traverse(b.Y, hs, st)
		if err != nil {
			return nil, err
		}
		if ast.IsNull(x) || ast.IsNull(y) {
			return &ast.Null{}, nil
		}
		return &ast.BinaryOp{Op: b.Op, X: x, Y: y}, nil
	},

	ast.KindList: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		l, err := ast.As[*ast.List](n)
		if err != nil {
			return nil, err
		}
		elems, err := ast.TraverseAll(l.Elements, hs, st)
		if err != nil {
			return nil, err
		}
		return &ast.List{Elements: dropNulls(elems)}, nil
	},

	ast.KindApplication: func(n ast.Node, hs dceHandlers, st struct{}) (ast.Node, error) {
		app, err := ast.As[*ast.Application](n)
		if err != nil {
			return nil, err
		}
		args, err := ast.TraverseAll(app.Args, hs, st)
		if err != nil {
			return nil, err
		}
		var block ast.Node
		if app.Block != nil {
			if block, err = ast.Traverse(app.Block, hs, st); err != nil {
				return nil, err
			}
			block = keepShape(block)
		}
		var cache *ast.Lambda
		if app.Cache != nil {
			body, err := ast.Traverse(app.Cache.Body, hs, st)
			if err != nil {
				return nil, err
			}
			cache = &ast.Lambda{
				Params:    slices.Clone(app.Cache.Params),
				Body:      keepShape(body),
				Inlinable: app.Cache.Inlinable,
				Free:      slices.Clone(app.Cache.Free),
			}
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
