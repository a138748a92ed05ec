// Package interp evaluates optimised trees. Values are plain Go values:
// float64 numbers, strings, bools, persistent vectors for lists, and the
// callable descriptors defined here.
package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/livecodelang/lcl/ast"
	"src.elv.sh/pkg/persistent/vector"
)

// Value is anything the evaluator produces.
type Value any

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the absent value: the result of an out-of-range DeIndex,
// an empty Block, an If or a Times loop.
var Undefined Value = undefined{}

// Closure is a user function value wrapping its Lambda node.
type Closure struct {
	Node *ast.Lambda
}

// Builtin is a host function. It receives fully evaluated arguments
// (with the trailing block, if any, appended as a Thunk) and the
// environment of the call site.
type Builtin struct {
	Name   string
	Invoke func(args []Value, env *Env) (Value, error)
}

// Thunk is the zero-argument callable wrapping a call's trailing block.
// Calling it evaluates the block in the calling environment.
type Thunk func() (Value, error)

// EmptyList is the list with no elements.
var EmptyList Value = vector.Empty

// NewList builds a list value from vals.
func NewList(vals ...Value) vector.Vector {
	list := vector.Empty
	for _, v := range vals {
		list = list.Conj(v)
	}
	return list
}

// ListValues returns the elements of list in order.
func ListValues(list vector.Vector) []Value {
	out := make([]Value, 0, list.Len())
	for it := list.Iterator(); it.HasElem(); it.Next() {
		out = append(out, it.Elem())
	}
	return out
}

// Truthy reports whether v counts as true in a condition. false, 0, NaN,
// the empty string and Undefined are false; everything else, the empty
// list included, is true.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil, undefined:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}

// Equal is strict equality: same type and same value, with lists and
// callables compared by identity. Thunks are never equal.
func Equal(x, y Value) bool {
	if _, ok := x.(Thunk); ok {
		return false
	}
	if _, ok := y.(Thunk); ok {
		return false
	}
	return x == y
}

// Format renders v for display.
func Format(v Value) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case vector.Vector:
		parts := make([]string, 0, x.Len())
		for _, e := range ListValues(x) {
			parts = append(parts, Format(e))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Closure:
		return fmt.Sprintf("<lambda(%s)>", strings.Join(x.Node.Params, ", "))
	case *Builtin:
		return "<builtin " + x.Name + ">"
	case Thunk:
		return "<block>"
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}
