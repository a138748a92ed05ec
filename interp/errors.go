package interp

import (
	"fmt"

	"github.com/livecodelang/lcl/ast"
)

// ErrorKind classifies evaluation failures. All of them abort the run.
type ErrorKind int

const (
	UnknownNodeKind ErrorKind = iota + 1
	FunctionNotDefined
	InvalidFunctionBinding
	UnknownOperator
	UndefinedVariable
	NonListDeindexTarget
	NonNumericIndex
	InvalidOperand
	NonNumericCount
)

var kindNames = map[ErrorKind]string{
	UnknownNodeKind:        "UnknownNodeKind",
	FunctionNotDefined:     "FunctionNotDefined",
	InvalidFunctionBinding: "InvalidFunctionBinding",
	UnknownOperator:        "UnknownOperator",
	UndefinedVariable:      "UndefinedVariable",
	NonListDeindexTarget:   "NonListDeindexTarget",
	NonNumericIndex:        "NonNumericIndex",
	InvalidOperand:         "InvalidOperand",
	NonNumericCount:        "NonNumericCount",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is an evaluation failure. Name is the offending identifier,
// operator or node kind, when there is one.
type Error struct {
	Kind ErrorKind
	Name string
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnknownNodeKind:
		return "Unknown Symbol: " + e.Name
	case FunctionNotDefined:
		return "Function not defined: " + e.Name
	case InvalidFunctionBinding:
		return "Error interpreting function: " + e.Name
	case UnknownOperator:
		return "Unknown Operator: " + e.Name
	case UndefinedVariable:
		return "Undefined Variable: " + e.Name
	case NonListDeindexTarget:
		return "Must deindex lists"
	case NonNumericIndex:
		return "Index must be a number"
	case InvalidOperand:
		return "Invalid operands for " + e.Name
	case NonNumericCount:
		return "Times count must be a number"
	}
	return e.Kind.String()
}

// Is matches any *Error of the same kind, so the Err* sentinels work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Unwrap links unknown-kind failures to the traversal engine's sentinel.
func (e *Error) Unwrap() error {
	if e.Kind == UnknownNodeKind {
		return ast.ErrUnknownKind
	}
	return nil
}

var (
	ErrUnknownNodeKind        = &Error{Kind: UnknownNodeKind}
	ErrFunctionNotDefined     = &Error{Kind: FunctionNotDefined}
	ErrInvalidFunctionBinding = &Error{Kind: InvalidFunctionBinding}
	ErrUnknownOperator        = &Error{Kind: UnknownOperator}
	ErrUndefinedVariable      = &Error{Kind: UndefinedVariable}
	ErrNonListDeindexTarget   = &Error{Kind: NonListDeindexTarget}
	ErrNonNumericIndex        = &Error{Kind: NonNumericIndex}
	ErrInvalidOperand         = &Error{Kind: InvalidOperand}
	ErrNonNumericCount        = &Error{Kind: NonNumericCount}
)
