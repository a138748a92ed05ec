package builtins

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/livecodelang/lcl/interp"
	"src.elv.sh/pkg/persistent/vector"
)

func init() {
	Register(&Module{
		Name: "core",
		Funcs: []FuncDef{
			{Name: "print", Variadic: true, Fn: corePrint},
			{Name: "length", Args: []ArgType{Any}, Fn: coreLength},
			{Name: "call", Args: []ArgType{Any}, Variadic: true, Fn: coreCall},
			{Name: "range", Args: []ArgType{Number}, Fn: coreRange},
		},
	})
}

// print writes its arguments space-separated and returns the last one.
// A trailing block is run first and its value printed in its place.
func corePrint(h Host, args []interp.Value) (interp.Value, error) {
	parts := make([]string, len(args))
	last := interp.Undefined
	for i, a := range args {
		if thunk, ok := a.(interp.Thunk); ok {
			v, err := thunk()
			if err != nil {
				return nil, err
			}
			a = v
		}
		parts[i] = interp.Format(a)
		last = a
	}
	if _, err := fmt.Fprintln(h.Out, strings.Join(parts, " ")); err != nil {
		return nil, err
	}
	return last, nil
}

func coreLength(_ Host, args []interp.Value) (interp.Value, error) {
	switch v := args[0].(type) {
	case vector.Vector:
		return float64(v.Len()), nil
	case string:
		return float64(utf8.RuneCountInString(v)), nil
	}
	return nil, fmt.Errorf("length: argument must be a list or string, got %s", interp.Format(args[0]))
}

// call invokes its last argument with the ones before it.
func coreCall(h Host, args []interp.Value) (interp.Value, error) {
	fn := args[len(args)-1]
	if !accepts(Callable, fn) {
		return nil, fmt.Errorf("call: last argument must be callable, got %s", interp.Format(fn))
	}
	return h.Env.Call(fn, args[:len(args)-1]...)
}

// range returns the list 0, 1, ..., n-1.
func coreRange(_ Host, args []interp.Value) (interp.Value, error) {
	n := args[0].(float64)
	list := vector.Empty
	for i := 0.0; i < math.Floor(n); i++ {
		list = list.Conj(i)
	}
	return list, nil
}
