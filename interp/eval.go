package interp

import (
	"cmp"
	"math"

	"github.com/livecodelang/lcl/ast"
	"src.elv.sh/pkg/persistent/vector"
)

// State is the outcome of Run.
type State struct {
	// ExitCode is 0 after a normal run and 1 when the tree was not a
	// Block and nothing was evaluated.
	ExitCode int
	// DoOnceTriggered is set once any active DoOnce body has run.
	DoOnceTriggered bool
}

// Run evaluates a program. The top level must be a Block; anything else
// yields exit code 1 without evaluating. Evaluation errors abort the run
// and are returned as *Error.
func Run(root ast.Node, env *Env) (State, error) {
	if _, ok := root.(*ast.Block); !ok {
		return State{ExitCode: 1}, nil
	}
	ev := &evaluator{}
	_, err := ev.eval(root, env)
	return State{DoOnceTriggered: ev.doOnce}, err
}

// Eval evaluates a single expression against env.
func Eval(n ast.Node, env *Env) (Value, error) {
	ev := env.ev
	if ev == nil {
		ev = &evaluator{}
	}
	return ev.eval(n, env)
}

type evaluator struct {
	doOnce bool
}

func (ev *evaluator) child(env *Env) *Env {
	return &Env{vars: map[string]Value{}, parent: env, ev: ev}
}

func (ev *evaluator) eval(n ast.Node, env *Env) (Value, error) {
	switch n := n.(type) {
	case *ast.Block:
		inner := ev.child(env)
		last := Undefined
		for _, e := range n.Elements {
			v, err := ev.eval(e, inner)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil

	case *ast.Assignment:
		v, err := ev.eval(n.Expr, env)
		if err != nil {
			return nil, err
		}
		env.Set(n.Name, v)
		return v, nil

	case *ast.Application:
		return ev.apply(n, env)

	case *ast.If:
		pred, err := ev.eval(n.Predicate, env)
		if err != nil {
			return nil, err
		}
		branch := n.Else
		if Truthy(pred) {
			branch = n.Then
		}
		if branch != nil {
			if _, err := ev.eval(branch, env); err != nil {
				return nil, err
			}
		}
		return Undefined, nil

	case *ast.Lambda:
		return &Closure{Node: n}, nil

	case *ast.Times:
		return ev.times(n, env)

	case *ast.DoOnce:
		if !n.Active {
			return EmptyList, nil
		}
		ev.doOnce = true
		return ev.eval(n.Body, env)

	case *ast.UnaryOp:
		x, err := ev.eval(n.X, env)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, x)

	case *ast.BinaryOp:
		x, err := ev.eval(n.X, env)
		if err != nil {
			return nil, err
		}
		y, err := ev.eval(n.Y, env)
		if err != nil {
			return nil, err
		}
		return binary(n.Op, x, y)

	case *ast.Variable:
		v, ok := env.Get(n.Name)
		if !ok {
			return nil, &Error{Kind: UndefinedVariable, Name: n.Name}
		}
		return v, nil

	case *ast.DeIndex:
		return ev.deindex(n, env)

	case *ast.Num:
		return n.Value, nil

	case *ast.Str:
		return n.Value, nil

	case *ast.List:
		list := vector.Empty
		for _, e := range n.Elements {
			v, err := ev.eval(e, env)
			if err != nil {
				return nil, err
			}
			list = list.Conj(v)
		}
		return list, nil
	}
	if n == nil {
		return nil, &Error{Kind: UnknownNodeKind, Name: "<nil>"}
	}
	return nil, &Error{Kind: UnknownNodeKind, Name: n.Kind().String()}
}

func (ev *evaluator) apply(app *ast.Application, env *Env) (Value, error) {
	var fn Value
	if app.Cache != nil {
		fn = &Closure{Node: app.Cache}
	} else {
		v, ok := env.Get(app.Name)
		if !ok {
			return nil, &Error{Kind: FunctionNotDefined, Name: app.Name}
		}
		fn = v
	}

	args := make([]Value, 0, len(app.Args)+1)
	for _, a := range app.Args {
		v, err := ev.eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if app.Block != nil {
		block := app.Block
		args = append(args, Thunk(func() (Value, error) {
			return ev.eval(block, env)
		}))
	}
	return ev.call(app.Name, fn, args, env)
}

// call dispatches fn. Closures get a child of the calling environment
// with parameters bound positionally; missing arguments are Undefined.
func (ev *evaluator) call(name string, fn Value, args []Value, env *Env) (Value, error) {
	switch f := fn.(type) {
	case *Builtin:
		return f.Invoke(args, env)
	case *Closure:
		frame := ev.child(env)
		for i, p := range f.Node.Params {
			if i < len(args) {
				frame.Set(p, args[i])
			} else {
				frame.Set(p, Undefined)
			}
		}
		return ev.eval(f.Node.Body, frame)
	case Thunk:
		return f()
	}
	return nil, &Error{Kind: InvalidFunctionBinding, Name: name}
}

func (ev *evaluator) times(t *ast.Times, env *Env) (Value, error) {
	count, err := ev.eval(t.Count, env)
	if err != nil {
		return nil, err
	}
	n, ok := count.(float64)
	if !ok {
		return nil, &Error{Kind: NonNumericCount, Name: Format(count)}
	}
	loop := ev.child(env)
	for i := 0; float64(i) < n; i++ {
		if t.LoopVar != "" {
			loop.Set(t.LoopVar, float64(i))
		}
		if _, err := ev.eval(t.Body, loop); err != nil {
			return nil, err
		}
	}
	return Undefined, nil
}

func (ev *evaluator) deindex(d *ast.DeIndex, env *Env) (Value, error) {
	coll, err := ev.eval(d.Collection, env)
	if err != nil {
		return nil, err
	}
	list, ok := coll.(vector.Vector)
	if !ok {
		return nil, &Error{Kind: NonListDeindexTarget}
	}
	idx, err := ev.eval(d.Index, env)
	if err != nil {
		return nil, err
	}
	f, ok := idx.(float64)
	if !ok {
		return nil, &Error{Kind: NonNumericIndex}
	}
	if f != math.Trunc(f) || f < 0 || f >= float64(list.Len()) {
		return Undefined, nil
	}
	v, ok := list.Index(int(f))
	if !ok {
		return Undefined, nil
	}
	return v, nil
}

func unary(op string, x Value) (Value, error) {
	switch op {
	case "-":
		n, ok := x.(float64)
		if !ok {
			return nil, &Error{Kind: InvalidOperand, Name: op}
		}
		return -n, nil
	case "!":
		return !Truthy(x), nil
	}
	return nil, &Error{Kind: UnknownOperator, Name: op}
}

func binary(op string, x, y Value) (Value, error) {
	switch op {
	case "==":
		return Equal(x, y), nil
	case "&&":
		if !Truthy(x) {
			return x, nil
		}
		return y, nil
	case "||":
		if Truthy(x) {
			return x, nil
		}
		return y, nil
	case "+":
		if a, ok := x.(string); ok {
			if b, ok := y.(string); ok {
				return a + b, nil
			}
		}
		return arith(op, x, y, func(a, b float64) float64 { return a + b })
	case "-":
		return arith(op, x, y, func(a, b float64) float64 { return a - b })
	case "*":
		return arith(op, x, y, func(a, b float64) float64 { return a * b })
	case "/":
		return arith(op, x, y, func(a, b float64) float64 { return a / b })
	case "%":
		return arith(op, x, y, math.Mod)
	case "^":
		return arith(op, x, y, math.Pow)
	case ">", "<", ">=", "<=":
		return compare(op, x, y)
	}
	return nil, &Error{Kind: UnknownOperator, Name: op}
}

func arith(op string, x, y Value, f func(a, b float64) float64) (Value, error) {
	a, ok := x.(float64)
	b, ok2 := y.(float64)
	if !ok || !ok2 {
		return nil, &Error{Kind: InvalidOperand, Name: op}
	}
	return f(a, b), nil
}

func compare(op string, x, y Value) (Value, error) {
	var c int
	switch a := x.(type) {
	case float64:
		b, ok := y.(float64)
		if !ok {
			return nil, &Error{Kind: InvalidOperand, Name: op}
		}
		if math.IsNaN(a) || math.IsNaN(b) {
			return false, nil
		}
		c = cmp.Compare(a, b)
	case string:
		b, ok := y.(string)
		if !ok {
			return nil, &Error{Kind: InvalidOperand, Name: op}
		}
		c = cmp.Compare(a, b)
	default:
		return nil, &Error{Kind: InvalidOperand, Name: op}
	}
	switch op {
	case ">":
		return c > 0, nil
	case "<":
		return c < 0, nil
	case ">=":
		return c >= 0, nil
	}
	return c <= 0, nil
}
