package heap

import "github.com/funvibe/nasal/internal/ast"

// Kind is the tag of a heap value.
type Kind uint8

const (
	KindNil Kind = iota
	KindNumber
	KindString
	KindVector
	KindHash
	KindFunction
	KindClosure
)

var kindNames = [...]string{
	KindNil:      "nil",
	KindNumber:   "number",
	KindString:   "string",
	KindVector:   "vector",
	KindHash:     "hash",
	KindFunction: "func",
	KindClosure:  "closure",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether values of kind k are copied on load.
func (k Kind) IsScalar() bool {
	return k == KindNil || k == KindNumber || k == KindString
}

// Value is a runtime datum stored in the heap.
type Value interface {
	Kind() Kind
}

type Nil struct{}

func (Nil) Kind() Kind { return KindNil }

type Number struct {
	Value float64
}

func (*Number) Kind() Kind { return KindNumber }

type String struct {
	Value string
}

func (*String) Kind() Kind { return KindString }

// Vector is an ordered sequence of cells.
type Vector struct {
	Elems []CellRef
}

func (*Vector) Kind() Kind { return KindVector }

// Len returns the number of elements.
func (v *Vector) Len() int { return len(v.Elems) }

// Cell resolves i, counting negative indices from the end.
func (v *Vector) Cell(i int) (CellRef, bool) {
	n := len(v.Elems)
	if i < -n || i >= n {
		return CellRef{}, false
	}
	if i < 0 {
		i += n
	}
	return v.Elems[i], true
}

// Hash maps member names to cells.
type Hash struct {
	Members map[string]CellRef
}

func (*Hash) Kind() Kind { return KindHash }

// Param is one declared function parameter.
type Param struct {
	Name     string
	Default  *ast.Node // nil when the parameter has no default
	Variadic bool
}

// NativeFunc implements a builtin. Arguments stay owned by the caller; the
// result is an owned reference.
type NativeFunc func(args []Ref) (Ref, error)

// Function is a callable. User functions carry a body and the closure they
// captured; builtins carry a Native implementation instead.
type Function struct {
	Name    string
	Params  []Param
	Body    *ast.Node
	Closure Ref
	Native  NativeFunc
}

func (*Function) Kind() Kind { return KindFunction }

// Variadic reports whether the last parameter absorbs extra arguments.
func (f *Function) Variadic() bool {
	return len(f.Params) > 0 && f.Params[len(f.Params)-1].Variadic
}

// Closure is one lexical frame linked to its enclosing frame. A chain of
// closures is the frame stack searched by name lookup.
type Closure struct {
	Frame  map[string]CellRef
	Parent Ref
}

func (*Closure) Kind() Kind { return KindClosure }
