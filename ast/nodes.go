package ast

import "fmt"

// Kind identifies the variant of a Node.
type Kind int

const (
	KindNull Kind = iota
	KindBlock
	KindAssignment
	KindApplication
	KindIf
	KindLambda
	KindTimes
	KindDoOnce
	KindUnaryOp
	KindBinaryOp
	KindDeIndex
	KindNum
	KindStr
	KindVariable
	KindList
	KindComment
)

var kindNames = [...]string{
	KindNull:        "NULL",
	KindBlock:       "BLOCK",
	KindAssignment:  "ASSIGNMENT",
	KindApplication: "APPLICATION",
	KindIf:          "IF",
	KindLambda:      "LAMBDA",
	KindTimes:       "TIMES",
	KindDoOnce:      "DOONCE",
	KindUnaryOp:     "UNARYOP",
	KindBinaryOp:    "BINARYOP",
	KindDeIndex:     "DEINDEX",
	KindNum:         "NUMBER",
	KindStr:         "STRING",
	KindVariable:    "VARIABLE",
	KindList:        "LIST",
	KindComment:     "COMMENT",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsLeaf reports whether nodes of this kind have no child nodes.
func (k Kind) IsLeaf() bool {
	switch k {
	case KindNull, KindNum, KindStr, KindVariable, KindComment:
		return true
	}
	return false
}

// Node is the interface for all AST nodes. Nodes are never mutated after
// construction; passes build new nodes for anything they rewrite.
type Node interface {
	Kind() Kind
}

// Ref is the frame slot a name was resolved to by slot allocation.
// The zero value means "not resolved".
type Ref struct {
	Slot     int
	Resolved bool
	Local    bool // slot is relative to the enclosing closure's frame
}

// Block is an ordered sequence of elements. It evaluates to its last element.
type Block struct {
	Elements []Node
}

// Assignment binds Expr to Name in the current environment.
type Assignment struct {
	Name string
	Expr Node
	Ref  Ref
}

// Application calls the function bound to Name.
type Application struct {
	Name  string
	Args  []Node
	Block Node    // optional trailing block, passed as a zero-argument callable
	Cache *Lambda // call-site copy of the callee, set by function elimination

	// ArgSlots holds one frame slot per Cache parameter, set by global
	// slot allocation. Nil when unset.
	ArgSlots []int
}

// If runs Then when Predicate is truthy, otherwise Else. Else is nil, a
// Block, or another If for else-if chains.
type If struct {
	Predicate Node
	Then      Node
	Else      Node
}

// Lambda is a closure literal.
type Lambda struct {
	Params    []string
	Body      Node
	Inlinable bool

	// Free lists the names the closure references but does not bind, in
	// discovery order. Nil until closure analysis has run.
	Free []string
}

// Times runs Body Count times, binding LoopVar (when set) to the
// iteration index.
type Times struct {
	Count   Node
	Body    Node
	LoopVar string
}

// DoOnce runs Body only when Active is set.
type DoOnce struct {
	Active bool
	Body   Node
}

// UnaryOp applies Op ("-" or "!") to X.
type UnaryOp struct {
	Op string
	X  Node
}

// BinaryOp applies Op to X and Y.
type BinaryOp struct {
	Op string
	X  Node
	Y  Node
}

// DeIndex reads element Index of the list Collection.
type DeIndex struct {
	Collection Node
	Index      Node
}

type Num struct {
	Value float64
}

type Str struct {
	Value string
}

// Variable reads the value bound to Name.
type Variable struct {
	Name string
	Ref  Ref
}

type List struct {
	Elements []Node
}

// Comment carries no payload and is always removed by dead-code elimination.
type Comment struct{}

// Null is the placeholder left behind by passes that erase a node.
type Null struct{}

func (*Block) Kind() Kind       { return KindBlock }
func (*Assignment) Kind() Kind  { return KindAssignment }
func (*Application) Kind() Kind { return KindApplication }
func (*If) Kind() Kind          { return KindIf }
func (*Lambda) Kind() Kind      { return KindLambda }
func (*Times) Kind() Kind       { return KindTimes }
func (*DoOnce) Kind() Kind      { return KindDoOnce }
func (*UnaryOp) Kind() Kind     { return KindUnaryOp }
func (*BinaryOp) Kind() Kind    { return KindBinaryOp }
func (*DeIndex) Kind() Kind     { return KindDeIndex }
func (*Num) Kind() Kind         { return KindNum }
func (*Str) Kind() Kind         { return KindStr }
func (*Variable) Kind() Kind    { return KindVariable }
func (*List) Kind() Kind        { return KindList }
func (*Comment) Kind() Kind     { return KindComment }
func (*Null) Kind() Kind        { return KindNull }

// IsNull reports whether n is the Null placeholder.
func IsNull(n Node) bool {
	return n != nil && n.Kind() == KindNull
}
