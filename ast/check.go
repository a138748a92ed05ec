package ast

import "fmt"

// Check validates a tree without modifying it.
type Check interface {
	Name() string
	Check(n Node) error
}

// CheckChain runs checks in order, stopping at the first error.
type CheckChain []Check

// Run executes each check in sequence. Returns nil if all pass.
func (cc CheckChain) Run(n Node) error {
	for _, c := range cc {
		if err := c.Check(n); err != nil {
			return err
		}
	}
	return nil
}

// AsTransform turns the chain into an identity Transform that fails when
// any check fails, so checks can sit inside a pass Chain.
func (cc CheckChain) AsTransform() Transform {
	return TransformFunc{
		N: "check",
		F: func(n Node) (Node, error) {
			if err := cc.Run(n); err != nil {
				return nil, err
			}
			return n, nil
		},
	}
}

// CheckFunc adapts a named function to the Check interface.
type CheckFunc struct {
	N string
	F func(Node) error
}

func (c CheckFunc) Name() string       { return c.N }
func (c CheckFunc) Check(n Node) error { return c.F(n) }

// DuplicateParamError reports a Lambda that binds the same name twice.
type DuplicateParamError struct {
	Param  string
	Params []string
}

func (e *DuplicateParamError) Error() string {
	return fmt.Sprintf("duplicate parameter %q in lambda %v", e.Param, e.Params)
}

// UniqueParams rejects any Lambda, including cached call-site copies,
// whose parameter names are not unique.
func UniqueParams() Check {
	return CheckFunc{
		N: "unique-params",
		F: func(root Node) error {
			var err error
			Inspect(root, func(n Node) bool {
				l, ok := n.(*Lambda)
				if !ok || err != nil {
					return err == nil
				}
				seen := make(map[string]bool, len(l.Params))
				for _, p := range l.Params {
					if seen[p] {
						err = &DuplicateParamError{Param: p, Params: l.Params}
						return false
					}
					seen[p] = true
				}
				return true
			})
			return err
		},
	}
}
