package ast

// Children returns the direct child nodes of n in evaluation order.
// Absent optional children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	switch n := n.(type) {
	case *Block:
		for _, e := range n.Elements {
			add(e)
		}
	case *Assignment:
		add(n.Expr)
	case *Application:
		for _, a := range n.Args {
			add(a)
		}
		add(n.Block)
		if n.Cache != nil {
			add(n.Cache)
		}
	case *If:
		add(n.Predicate)
		add(n.Then)
		add(n.Else)
	case *Lambda:
		add(n.Body)
	case *Times:
		add(n.Count)
		add(n.Body)
	case *DoOnce:
		add(n.Body)
	case *UnaryOp:
		add(n.X)
	case *BinaryOp:
		add(n.X)
		add(n.Y)
	case *DeIndex:
		add(n.Collection)
		add(n.Index)
	case *List:
		for _, e := range n.Elements {
			add(e)
		}
	}
	return out
}

// Inspect walks the tree depth-first, calling fn for each node. When fn
// returns false the node's children are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, fn)
	}
}
