package optimize

import (
	"slices"

	"github.com/livecodelang/lcl/ast"
)

// SlotTable assigns frame slots to names in first-allocation order,
// starting at 0.
type SlotTable struct {
	names  []string
	lookup map[string]int
}

// NewSlotTable creates a table with names already occupying slots
// 0..len(names)-1. Repeated names keep their first slot.
func NewSlotTable(names ...string) *SlotTable {
	t := &SlotTable{lookup: make(map[string]int, len(names))}
	for _, n := range names {
		t.Allocate(n)
	}
	return t
}

// Lookup returns the slot of name, if it has one.
func (t *SlotTable) Lookup(name string) (int, bool) {
	slot, ok := t.lookup[name]
	return slot, ok
}

// Allocate returns the slot of name, giving it the next free slot first
// if it has none.
func (t *SlotTable) Allocate(name string) int {
	if slot, ok := t.lookup[name]; ok {
		return slot
	}
	slot := len(t.names)
	t.names = append(t.names, name)
	t.lookup[name] = slot
	return slot
}

// Names returns the allocated names indexed by slot.
func (t *SlotTable) Names() []string { return slices.Clone(t.names) }

// Len is the number of slots in use, i.e. the frame size.
func (t *SlotTable) Len() int { return len(t.names) }

// AllocateGlobalSlots gives every variable of the program a slot in one
// flat frame shared by the whole tree. Assignment targets and the
// parameters of each Application's cached callee get the next free slot
// on first sight; Variables are resolved against the table as it stands
// when they are reached. Each cached Application records the slots of
// its callee's parameters in parameter order. The table is updated in
// place so callers can read the frame layout afterwards.
func AllocateGlobalSlots(root ast.Node, table *SlotTable) (ast.Node, error) {
	return ast.Rewrite(root, globalSlotHandlers, table)
}

// FlattenSlots is AllocateGlobalSlots with an empty table.
func FlattenSlots(root ast.Node) (ast.Node, error) {
	return AllocateGlobalSlots(root, NewSlotTable())
}

var globalSlotHandlers = map[ast.Kind]ast.Handler[*SlotTable]{
	ast.KindVariable: func(n ast.Node, _ ast.Handlers[*SlotTable], t *SlotTable) (ast.Node, error) {
		v, err := ast.As[*ast.Variable](n)
		if err != nil {
			return nil, err
		}
		slot, ok := t.Lookup(v.Name)
		return &ast.Variable{Name: v.Name, Ref: ast.Ref{Slot: slot, Resolved: ok}}, nil
	},

	ast.KindAssignment: func(n ast.Node, hs ast.Handlers[*SlotTable], t *SlotTable) (ast.Node, error) {
		a, err := ast.As[*ast.Assignment](n)
		if err != nil {
			return nil, err
		}
		expr, err := ast.Traverse(a.Expr, hs, t)
		if err != nil {
			return nil, err
		}
		slot := t.Allocate(a.Name)
		return &ast.Assignment{Name: a.Name, Expr: expr, Ref: ast.Ref{Slot: slot, Resolved: true}}, nil
	},

	ast.KindApplication: func(n ast.Node, hs ast.Handlers[*SlotTable], t *SlotTable) (ast.Node, error) {
		app, err := ast.As[*ast.Application](n)
		if err != nil {
			return nil, err
		}
		var argSlots []int
		if app.Cache != nil {
			argSlots = make([]int, len(app.Cache.Params))
			for i, p := range app.Cache.Params {
				argSlots[i] = t.Allocate(p)
			}
		}
		args, err := ast.TraverseAll(app.Args, hs, t)
		if err != nil {
			return nil, err
		}
		block, err := ast.Traverse(app.Block, hs, t)
		if err != nil {
			return nil, err
		}
		cache, err := ast.TraverseCache(app, hs, t)
		if err != nil {
			return nil, err
		}
		return &ast.Application{Name: app.Name, Args: args, Block: block, Cache: cache, ArgSlots: argSlots}, nil
	},
}

// AllocateLocalSlots addresses variables relative to the frame of the
// closure that binds them. Each Lambda gets a fresh table with its
// parameters at slots 0..n-1, and assignments inside its body extend
// that table. Names a closure does not bind keep whatever slot and flag
// they already carried; resolving them is up to whatever holds the
// enclosing frame. The top level uses table as its frame.
func AllocateLocalSlots(root ast.Node, table *SlotTable) (ast.Node, error) {
	return ast.Rewrite(root, localSlotHandlers, table)
}

// LocalizeSlots is AllocateLocalSlots with an empty top-level frame.
func LocalizeSlots(root ast.Node) (ast.Node, error) {
	return AllocateLocalSlots(root, NewSlotTable())
}

func localRef(slot int) ast.Ref {
	return ast.Ref{Slot: slot, Resolved: true, Local: true}
}

var localSlotHandlers = map[ast.Kind]ast.Handler[*SlotTable]{
	ast.KindVariable: func(n ast.Node, _ ast.Handlers[*SlotTable], t *SlotTable) (ast.Node, error) {
		v, err := ast.As[*ast.Variable](n)
		if err != nil {
			return nil, err
		}
		if slot, ok := t.Lookup(v.Name); ok {
			return &ast.Variable{Name: v.Name, Ref: localRef(slot)}, nil
		}
		return &ast.Variable{Name: v.Name, Ref: v.Ref}, nil
	},

	ast.KindAssignment: func(n ast.Node, hs ast.Handlers[*SlotTable], t *SlotTable) (ast.Node, error) {
		a, err := ast.As[*ast.Assignment](n)
		if err != nil {
			return nil, err
		}
		expr, err := ast.Traverse(a.Expr, hs, t)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Name: a.Name, Expr: expr, Ref: localRef(t.Allocate(a.Name))}, nil
	},

	ast.KindLambda: func(n ast.Node, hs ast.Handlers[*SlotTable], _ *SlotTable) (ast.Node, error) {
		l, err := ast.As[*ast.Lambda](n)
		if err != nil {
			return nil, err
		}
		body, err := ast.Traverse(l.Body, hs, NewSlotTable(l.Params...))
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{
			Params:    slices.Clone(l.Params),
			Body:      body,
			Inlinable: l.Inlinable,
			Free:      slices.Clone(l.Free),
		}, nil
	},
}
