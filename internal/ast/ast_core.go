// Package ast defines the syntax tree consumed by the evaluator.
//
// A tree is made of uniform nodes: every node carries a Kind from a closed set,
// an ordered list of children and an optional literal text (numeric literal,
// string payload, identifier or member name). Source positions and raw tokens
// belong to the parser and never reach this package.
package ast

import (
	"fmt"
	"strings"
)

// Kind tags a node. The set is closed: Kinds() lists every member.
type Kind uint8

const (
	Invalid Kind = iota

	// Literals
	NilLit
	Null // omitted operand (slice bound, for-loop clause)
	Number
	String
	Identifier
	Vector
	Hash
	Pair // hash literal member: Text is the key, child 0 the value
	Function
	Params
	Param
	DefaultParam
	VariadicParam

	// Call chain
	Call // child 0 is the base, the rest are Index/Member/Invoke steps
	Index
	Slice
	Member
	Invoke
	NamedArg

	// Operators
	Add
	Sub
	Mul
	Div
	Link
	Eq
	Neq
	Lt
	Leq
	Gt
	Geq
	And
	Or
	Neg
	Not
	Ternary

	// Assignment
	Assign
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	LinkAssign
	Multi
	MultiAssign

	// Statements
	Definition
	NewVar
	Conditional
	If
	Elsif
	Else
	While
	For
	ForIndex
	ForEach
	Break
	Continue
	Return
	Block

	kindCount
)

var kindNames = [...]string{
	Invalid:       "invalid",
	NilLit:        "nil",
	Null:          "null",
	Number:        "number",
	String:        "string",
	Identifier:    "identifier",
	Vector:        "vector",
	Hash:          "hash",
	Pair:          "pair",
	Function:      "function",
	Params:        "params",
	Param:         "param",
	DefaultParam:  "default_param",
	VariadicParam: "variadic_param",
	Call:          "call",
	Index:         "index",
	Slice:         "slice",
	Member:        "member",
	Invoke:        "invoke",
	NamedArg:      "named_arg",
	Add:           "add",
	Sub:           "sub",
	Mul:           "mul",
	Div:           "div",
	Link:          "link",
	Eq:            "eq",
	Neq:           "neq",
	Lt:            "lt",
	Leq:           "leq",
	Gt:            "gt",
	Geq:           "geq",
	And:           "and",
	Or:            "or",
	Neg:           "neg",
	Not:           "not",
	Ternary:       "ternary",
	Assign:        "assign",
	AddAssign:     "add_assign",
	SubAssign:     "sub_assign",
	MulAssign:     "mul_assign",
	DivAssign:     "div_assign",
	LinkAssign:    "link_assign",
	Multi:         "multi",
	MultiAssign:   "multi_assign",
	Definition:    "definition",
	NewVar:        "new_var",
	Conditional:   "conditional",
	If:            "if",
	Elsif:         "elsif",
	Else:          "else",
	While:         "while",
	For:           "for",
	ForIndex:      "forindex",
	ForEach:       "foreach",
	Break:         "break",
	Continue:      "continue",
	Return:        "return",
	Block:         "block",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		if Kind(k) != Invalid {
			m[name] = Kind(k)
		}
	}
	return m
}()

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a serialized kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[strings.ToLower(name)]
	return k, ok
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := Invalid + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// IsBinary reports whether k is a two-operand arithmetic, comparison or logical operator.
func (k Kind) IsBinary() bool {
	return k >= Add && k <= Or
}

// IsUnary reports whether k is a one-operand operator.
func (k Kind) IsUnary() bool {
	return k == Neg || k == Not
}

// IsAssignment reports whether k rebinds a cell.
func (k Kind) IsAssignment() bool {
	return k >= Assign && k <= LinkAssign
}

// IsLoop reports whether k is one of the loop statements.
func (k Kind) IsLoop() bool {
	return k >= While && k <= ForEach
}

// Node is one syntax tree node.
type Node struct {
	Kind     Kind
	Text     string
	Children []*Node
}

// Child returns the i-th child or nil when absent.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Omitted reports whether n stands for an absent operand.
func (n *Node) Omitted() bool {
	return n == nil || n.Kind == Null
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	sb.WriteString(n.Kind.String())
	if n.Text != "" {
		fmt.Fprintf(sb, "(%q)", n.Text)
	}
	if len(n.Children) == 0 {
		return
	}
	sb.WriteString("[")
	for i, c := range n.Children {
		if i > 0 {
			sb.WriteString(" ")
		}
		if c == nil {
			sb.WriteString("<nil>")
			continue
		}
		c.write(sb)
	}
	sb.WriteString("]")
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn skips the children of the current node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
