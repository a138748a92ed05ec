package ast

// Constructors for the node kinds. They mirror the shapes the front end
// produces and leave pass-populated fields (slots, caches, free lists)
// unset.

func NewBlock(elements ...Node) *Block {
	if elements == nil {
		elements = []Node{}
	}
	return &Block{Elements: elements}
}

func NewAssignment(name string, expr Node) *Assignment {
	return &Assignment{Name: name, Expr: expr}
}

// NewApplication creates a call without a trailing block.
func NewApplication(name string, args ...Node) *Application {
	if args == nil {
		args = []Node{}
	}
	return &Application{Name: name, Args: args}
}

// NewApplicationWithBlock creates a call whose trailing block is passed to
// the callee as an extra zero-argument callable.
func NewApplicationWithBlock(name string, block Node, args ...Node) *Application {
	app := NewApplication(name, args...)
	app.Block = block
	return app
}

func NewIf(predicate, then, els Node) *If {
	return &If{Predicate: predicate, Then: then, Else: els}
}

func NewLambda(params []string, body Node) *Lambda {
	if params == nil {
		params = []string{}
	}
	return &Lambda{Params: params, Body: body}
}

func NewTimes(count, body Node, loopVar string) *Times {
	return &Times{Count: count, Body: body, LoopVar: loopVar}
}

func NewDoOnce(active bool, body Node) *DoOnce {
	return &DoOnce{Active: active, Body: body}
}

func NewUnaryOp(op string, x Node) *UnaryOp {
	return &UnaryOp{Op: op, X: x}
}

func NewBinaryOp(op string, x, y Node) *BinaryOp {
	return &BinaryOp{Op: op, X: x, Y: y}
}

func NewDeIndex(collection, index Node) *DeIndex {
	return &DeIndex{Collection: collection, Index: index}
}

func NewNum(v float64) *Num { return &Num{Value: v} }

func NewStr(v string) *Str { return &Str{Value: v} }

func NewVariable(name string) *Variable { return &Variable{Name: name} }

// NewSlotVariable creates a Variable already resolved to a global slot.
func NewSlotVariable(name string, slot int) *Variable {
	return &Variable{Name: name, Ref: Ref{Slot: slot, Resolved: true}}
}

// NewLocalVariable creates a Variable resolved to a closure-frame slot.
func NewLocalVariable(name string, slot int) *Variable {
	return &Variable{Name: name, Ref: Ref{Slot: slot, Resolved: true, Local: true}}
}

func NewList(elements ...Node) *List {
	if elements == nil {
		elements = []Node{}
	}
	return &List{Elements: elements}
}

func NewComment() *Comment { return &Comment{} }

func NewNull() *Null { return &Null{} }

// --- Copy helpers ---

// WithCache returns a shallow copy of app carrying the given callee copy.
func WithCache(app *Application, cache *Lambda) *Application {
	cp := *app
	cp.Cache = cache
	return &cp
}

// WithArgSlots returns a shallow copy of app carrying argument slots.
func WithArgSlots(app *Application, slots []int) *Application {
	cp := *app
	cp.ArgSlots = slots
	return &cp
}

// WithFree returns a shallow copy of l carrying a free-variable list.
func WithFree(l *Lambda, free []string) *Lambda {
	cp := *l
	cp.Free = free
	return &cp
}
