package builtins

import (
	"math"

	"github.com/livecodelang/lcl/interp"
)

func init() {
	Register(&Module{
		Name: "math",
		Funcs: []FuncDef{
			{Name: "abs", Args: []ArgType{Number}, Fn: unaryMath(math.Abs)},
			{Name: "floor", Args: []ArgType{Number}, Fn: unaryMath(math.Floor)},
			{Name: "ceil", Args: []ArgType{Number}, Fn: unaryMath(math.Ceil)},
			{Name: "round", Args: []ArgType{Number}, Fn: unaryMath(math.Round)},
			{Name: "sqrt", Args: []ArgType{Number}, Fn: unaryMath(math.Sqrt)},
			{Name: "sin", Args: []ArgType{Number}, Fn: unaryMath(math.Sin)},
			{Name: "cos", Args: []ArgType{Number}, Fn: unaryMath(math.Cos)},
			{Name: "tan", Args: []ArgType{Number}, Fn: unaryMath(math.Tan)},
			{Name: "min", Args: []ArgType{Number, Number}, Fn: binaryMath(math.Min)},
			{Name: "max", Args: []ArgType{Number, Number}, Fn: binaryMath(math.Max)},
		},
	})
}

func unaryMath(f func(float64) float64) func(Host, []interp.Value) (interp.Value, error) {
	return func(_ Host, args []interp.Value) (interp.Value, error) {
		return f(args[0].(float64)), nil
	}
}

func binaryMath(f func(a, b float64) float64) func(Host, []interp.Value) (interp.Value, error) {
	return func(_ Host, args []interp.Value) (interp.Value, error) {
		return f(args[0].(float64), args[1].(float64)), nil
	}
}
