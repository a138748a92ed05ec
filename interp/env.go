package interp

import (
	"maps"
	"slices"
)

// Env is one layer of bindings. Lookups fall back to the parent chain;
// writes always go to the layer they are made on.
type Env struct {
	vars   map[string]Value
	parent *Env
	ev     *evaluator
}

// NewEnv creates a root environment.
func NewEnv() *Env {
	return &Env{vars: map[string]Value{}}
}

// Child creates a layer whose lookups fall back to e.
func (e *Env) Child() *Env {
	return &Env{vars: map[string]Value{}, parent: e, ev: e.ev}
}

// Parent returns the enclosing layer, nil for a root.
func (e *Env) Parent() *Env { return e.parent }

// Get resolves name through the chain, innermost layer first.
func (e *Env) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name in this layer, shadowing any outer binding.
func (e *Env) Set(name string, v Value) {
	e.vars[name] = v
}

// Names returns the names bound in this layer, sorted.
func (e *Env) Names() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// Call invokes fn with args as if from a call site in e. Builtins use it
// to run closures and trailing blocks handed to them.
func (e *Env) Call(fn Value, args ...Value) (Value, error) {
	ev := e.ev
	if ev == nil {
		ev = &evaluator{}
	}
	return ev.call("", fn, args, e)
}
