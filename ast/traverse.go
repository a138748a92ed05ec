package ast

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownKind is returned when a traversal or decoder meets a node it
// has no rule for.
var ErrUnknownKind = errors.New("unrecognized node kind")

// Handler rewrites a single node. It receives the complete handler set so
// it can recurse into its own children with Traverse, and the per-run
// state. State is shared by every handler invocation of one run; use a
// pointer type when handlers need to write to it.
type Handler[S any] func(n Node, hs Handlers[S], state S) (Node, error)

// Handlers maps node kinds to the handler that rewrites them. Default,
// when set, handles every kind without a specific entry.
type Handlers[S any] struct {
	Kinds   map[Kind]Handler[S]
	Default Handler[S]
}

// Traverse rewrites n with the handler registered for its kind, falling
// back to hs.Default. Without either, leaf nodes pass through unchanged
// and structural nodes fail with ErrUnknownKind. A nil node (an absent
// optional child) stays nil.
func Traverse[S any](n Node, hs Handlers[S], state S) (Node, error) {
	if n == nil {
		return nil, nil
	}
	if h, ok := hs.Kinds[n.Kind()]; ok {
		return h(n, hs, state)
	}
	if hs.Default != nil {
		return hs.Default(n, hs, state)
	}
	if n.Kind().IsLeaf() {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, n.Kind())
}

// TraverseAll rewrites each node of a slice in order. A nil slice stays nil.
func TraverseAll[S any](nodes []Node, hs Handlers[S], state S) ([]Node, error) {
	if nodes == nil {
		return nil, nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		nn, err := Traverse(n, hs, state)
		if err != nil {
			return nil, err
		}
		out[i] = nn
	}
	return out, nil
}

// Rewrite traverses n with the default structural-copy handlers,
// replacing the handlers for the kinds present in overrides.
func Rewrite[S any](n Node, overrides map[Kind]Handler[S], state S) (Node, error) {
	hs := DefaultHandlers[S]()
	maps.Copy(hs.Kinds, overrides)
	return Traverse(n, hs, state)
}

// Copy returns a deep structural copy of n. Copy(n) is deeply equal to n.
func Copy(n Node) (Node, error) {
	return Rewrite[struct{}](n, nil, struct{}{})
}

// CopyLambda is Copy for a Lambda.
func CopyLambda(l *Lambda) (*Lambda, error) {
	n, err := Copy(l)
	if err != nil {
		return nil, err
	}
	return n.(*Lambda), nil
}

// DefaultHandlers returns handlers that rebuild every node kind from its
// recursively traversed children.
func DefaultHandlers[S any]() Handlers[S] {
	return Handlers[S]{Kinds: map[Kind]Handler[S]{
		KindNull:    func(Node, Handlers[S], S) (Node, error) { return &Null{}, nil },
		KindComment: func(Node, Handlers[S], S) (Node, error) { return &Comment{}, nil },
		KindNum: func(n Node, _ Handlers[S], _ S) (Node, error) {
			num, err := as[*Num](n)
			if err != nil {
				return nil, err
			}
			return &Num{Value: num.Value}, nil
		},
		KindStr: func(n Node, _ Handlers[S], _ S) (Node, error) {
			str, err := as[*Str](n)
			if err != nil {
				return nil, err
			}
			return &Str{Value: str.Value}, nil
		},
		KindVariable: func(n Node, _ Handlers[S], _ S) (Node, error) {
			v, err := as[*Variable](n)
			if err != nil {
				return nil, err
			}
			return &Variable{Name: v.Name, Ref: v.Ref}, nil
		},
		KindBlock: func(n Node, hs Handlers[S], state S) (Node, error) {
			b, err := as[*Block](n)
			if err != nil {
				return nil, err
			}
			elems, err := TraverseAll(b.Elements, hs, state)
			if err != nil {
				return nil, err
			}
			return &Block{Elements: elems}, nil
		},
		KindAssignment: func(n Node, hs Handlers[S], state S) (Node, error) {
			a, err := as[*Assignment](n)
			if err != nil {
				return nil, err
			}
			expr, err := Traverse(a.Expr, hs, state)
			if err != nil {
				return nil, err
			}
			return &Assignment{Name: a.Name, Expr: expr, Ref: a.Ref}, nil
		},
		KindApplication: func(n Node, hs Handlers[S], state S) (Node, error) {
			app, err := as[*Application](n)
			if err != nil {
				return nil, err
			}
			args, err := TraverseAll(app.Args, hs, state)
			if err != nil {
				return nil, err
			}
			block, err := Traverse(app.Block, hs, state)
			if err != nil {
				return nil, err
			}
			cache, err := TraverseCache(app, hs, state)
			if err != nil {
				return nil, err
			}
			return &Application{
				Name:     app.Name,
				Args:     args,
				Block:    block,
				Cache:    cache,
				ArgSlots: slices.Clone(app.ArgSlots),
			}, nil
		},
		KindIf: func(n Node, hs Handlers[S], state S) (Node, error) {
			i, err := as[*If](n)
			if err != nil {
				return nil, err
			}
			pred, err := Traverse(i.Predicate, hs, state)
			if err != nil {
				return nil, err
			}
			then, err := Traverse(i.Then, hs, state)
			if err != nil {
				return nil, err
			}
			els, err := Traverse(i.Else, hs, state)
			if err != nil {
				return nil, err
			}
			return &If{Predicate: pred, Then: then, Else: els}, nil
		},
		KindLambda: func(n Node, hs Handlers[S], state S) (Node, error) {
			l, err := as[*Lambda](n)
			if err != nil {
				return nil, err
			}
			body, err := Traverse(l.Body, hs, state)
			if err != nil {
				return nil, err
			}
			return &Lambda{
				Params:    slices.Clone(l.Params),
				Body:      body,
				Inlinable: l.Inlinable,
				Free:      slices.Clone(l.Free),
			}, nil
		},
		KindTimes: func(n Node, hs Handlers[S], state S) (Node, error) {
			t, err := as[*Times](n)
			if err != nil {
				return nil, err
			}
			count, err := Traverse(t.Count, hs, state)
			if err != nil {
				return nil, err
			}
			body, err := Traverse(t.Body, hs, state)
			if err != nil {
				return nil, err
			}
			return &Times{Count: count, Body: body, LoopVar: t.LoopVar}, nil
		},
		KindDoOnce: func(n Node, hs Handlers[S], state S) (Node, error) {
			d, err := as[*DoOnce](n)
			if err != nil {
				return nil, err
			}
			body, err := Traverse(d.Body, hs, state)
			if err != nil {
				return nil, err
			}
			return &DoOnce{Active: d.Active, Body: body}, nil
		},
		KindUnaryOp: func(n Node, hs Handlers[S], state S) (Node, error) {
			u, err := as[*UnaryOp](n)
			if err != nil {
				return nil, err
			}
			x, err := Traverse(u.X, hs, state)
			if err != nil {
				return nil, err
			}
			return &UnaryOp{Op: u.Op, X: x}, nil
		},
		KindBinaryOp: func(n Node, hs Handlers[S], state S) (Node, error) {
			b, err := as[*BinaryOp](n)
			if err != nil {
				return nil, err
			}
			x, err := Traverse(b.X, hs, state)
			if err != nil {
				return nil, err
			}
			y, err := Traverse(b.Y, hs, state)
			if err != nil {
				return nil, err
			}
			return &BinaryOp{Op: b.Op, X: x, Y: y}, nil
		},
		KindDeIndex: func(n Node, hs Handlers[S], state S) (Node, error) {
			d, err := as[*DeIndex](n)
			if err != nil {
				return nil, err
			}
			coll, err := Traverse(d.Collection, hs, state)
			if err != nil {
				return nil, err
			}
			idx, err := Traverse(d.Index, hs, state)
			if err != nil {
				return nil, err
			}
			return &DeIndex{Collection: coll, Index: idx}, nil
		},
		KindList: func(n Node, hs Handlers[S], state S) (Node, error) {
			l, err := as[*List](n)
			if err != nil {
				return nil, err
			}
			elems, err := TraverseAll(l.Elements, hs, state)
			if err != nil {
				return nil, err
			}
			return &List{Elements: elems}, nil
		},
	}}
}

// TraverseCache rewrites the cached callee of app. The result must still
// be a Lambda; a cache rewritten to Null is dropped.
func TraverseCache[S any](app *Application, hs Handlers[S], state S) (*Lambda, error) {
	if app.Cache == nil {
		return nil, nil
	}
	n, err := Traverse(Node(app.Cache), hs, state)
	if err != nil {
		return nil, err
	}
	switch c := n.(type) {
	case *Lambda:
		return c, nil
	case *Null:
		return nil, nil
	}
	return nil, fmt.Errorf("application %s: cache rewritten to %s", app.Name, n.Kind())
}

// As converts n to the concrete node type T, failing with ErrUnknownKind
// when n is some other implementation of Node.
func As[T Node](n Node) (T, error) {
	return as[T](n)
}

func as[T Node](n Node) (T, error) {
	t, ok := n.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %T reports kind %s", ErrUnknownKind, n, n.Kind())
	}
	return t, nil
}
