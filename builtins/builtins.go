// Package builtins provides the host functions a program can call by name.
// Functions are grouped into modules that register themselves; Install
// binds every registered function into an environment.
package builtins

import (
	"fmt"
	"io"
	"sort"

	"github.com/livecodelang/lcl/interp"
	"src.elv.sh/pkg/persistent/vector"
)

// ArgType represents the expected type of a function argument.
type ArgType int

const (
	Number ArgType = iota
	String
	List
	Callable
	Any
)

func (t ArgType) String() string {
	switch t {
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Callable:
		return "callable"
	}
	return "any"
}

// Host is what a builtin can reach besides its arguments.
type Host struct {
	Env *interp.Env
	Out io.Writer
}

// FuncDef describes a function exposed by a module.
type FuncDef struct {
	// Name is the name programs call it by.
	Name string
	// Args lists the leading arguments and their types. They are checked
	// before Fn runs.
	Args []ArgType
	// Variadic, when true, allows any number of arguments beyond Args.
	Variadic bool
	Fn       func(h Host, args []interp.Value) (interp.Value, error)
}

// Module is a named group of functions.
type Module struct {
	Name  string
	Funcs []FuncDef
}

var registry = make(map[string]*Module)

// Register adds a module to the global registry.
func Register(m *Module) {
	registry[m.Name] = m
}

// Get returns a registered module by name.
func Get(name string) (*Module, bool) {
	m, ok := registry[name]
	return m, ok
}

// Names returns sorted names of all registered modules.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install binds every function of every registered module into env,
// writing output to w. Modules are installed in name order, so a later
// module wins a name clash.
func Install(env *interp.Env, w io.Writer) {
	for _, name := range Names() {
		for _, f := range registry[name].Funcs {
			env.Set(f.Name, f.builtin(w))
		}
	}
}

func (f FuncDef) builtin(w io.Writer) *interp.Builtin {
	return &interp.Builtin{
		Name: f.Name,
		Invoke: func(args []interp.Value, env *interp.Env) (interp.Value, error) {
			if err := f.check(args); err != nil {
				return nil, err
			}
			return f.Fn(Host{Env: env, Out: w}, args)
		},
	}
}

func (f FuncDef) check(args []interp.Value) error {
	if len(args) < len(f.Args) || (!f.Variadic && len(args) > len(f.Args)) {
		want := fmt.Sprintf("%d", len(f.Args))
		if f.Variadic {
			want = "at least " + want
		}
		return fmt.Errorf("%s: requires %s argument(s), got %d", f.Name, want, len(args))
	}
	for i, t := range f.Args {
		if !accepts(t, args[i]) {
			return fmt.Errorf("%s: argument %d must be a %s, got %s", f.Name, i+1, t, interp.Format(args[i]))
		}
	}
	return nil
}

func accepts(t ArgType, v interp.Value) bool {
	switch t {
	case Number:
		_, ok := v.(float64)
		return ok
	case String:
		_, ok := v.(string)
		return ok
	case List:
		_, ok := v.(vector.Vector)
		return ok
	case Callable:
		switch v.(type) {
		case *interp.Closure, *interp.Builtin, interp.Thunk:
			return true
		}
		return false
	}
	return true
}
