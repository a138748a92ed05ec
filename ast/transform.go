package ast

import "fmt"

// Transform rewrites a tree. Implementations must not mutate the input.
type Transform interface {
	Name() string
	Transform(n Node) (Node, error)
}

// TransformFunc adapts a named function to the Transform interface.
type TransformFunc struct {
	N string
	F func(Node) (Node, error)
}

func (t TransformFunc) Name() string                   { return t.N }
func (t TransformFunc) Transform(n Node) (Node, error) { return t.F(n) }

// Chain composes transforms left-to-right into a single Transform.
// Each transform receives the output of the previous one; the first
// failure stops the chain and is reported with the failing pass's name.
func Chain(transforms ...Transform) Transform {
	return TransformFunc{
		N: "chain",
		F: func(n Node) (Node, error) {
			for _, t := range transforms {
				out, err := t.Transform(n)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", t.Name(), err)
				}
				n = out
			}
			return n, nil
		},
	}
}

// Observe wraps t so that fn is called with its name before it runs.
func Observe(t Transform, fn func(name string)) Transform {
	return TransformFunc{
		N: t.Name(),
		F: func(n Node) (Node, error) {
			fn(t.Name())
			return t.Transform(n)
		},
	}
}
