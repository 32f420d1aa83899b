package evaluator

import (
	"testing"

	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/diagnostics"
)

func vec10to40() *ast.Node {
	return def("v", ast.Vec(num("10"), num("20"), num("30"), num("40")))
}

func TestVectorSlicing(t *testing.T) {
	tests := []struct {
		name string
		expr *ast.Node
		want string
	}{
		{"open end", index(id("v"), ast.Range(num("1"), ast.Omit())), "[20, 30, 40]"},
		{"negative end", index(id("v"), ast.Range(ast.Omit(), num("-1"))), "[10, 20, 30]"},
		{"single element is a scalar", index(id("v"), ast.Range(num("-2"), num("-1"))), "30"},
		{"negative open end", index(id("v"), ast.Range(num("-2"), ast.Omit())), "[30, 40]"},
		{"whole", index(id("v"), ast.Range(ast.Omit(), ast.Omit())), "[10, 20, 30, 40]"},
		{"several keys", index(id("v"), num("0"), num("2")), "[10, 30]"},
		{"key and slice", index(id("v"), num("0"), ast.Range(num("1"), num("3"))), "[10, 20, 30]"},
		{"empty tail", index(id("v"), ast.Range(num("4"), ast.Omit())), "[]"},
		{"negative index", index(id("v"), num("-1")), "40"},
		{"numerable string index", index(id("v"), str("1")), "20"},
		{"string byte", index(str("abc"), num("1")), "98"},
		{"string negative byte", index(str("abc"), num("-1")), "99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runProgram(t, vec10to40(), printOf(tt.expr))
			expectOutput(t, r, tt.want+"\n")
		})
	}
}

func TestSliceErrors(t *testing.T) {
	tests := []struct {
		name string
		expr *ast.Node
		want error
	}{
		{"empty explicit range", index(id("v"), ast.Range(num("0"), num("0"))), diagnostics.ErrInvalidSliceBounds},
		{"reversed range", index(id("v"), ast.Range(num("3"), num("1"))), diagnostics.ErrInvalidSliceBounds},
		{"negative begin meets end", index(id("v"), ast.Range(num("-1"), num("3"))), diagnostics.ErrInvalidSliceBounds},
		{"negative begin past end", index(id("v"), ast.Range(num("-1"), num("2"))), diagnostics.ErrInvalidSliceBounds},
		{"index past end", index(id("v"), num("9")), diagnostics.ErrIndexOutOfRange},
		{"index before start", index(id("v"), num("-5")), diagnostics.ErrIndexOutOfRange},
		{"slice past end", index(id("v"), ast.Range(num("1"), num("9"))), diagnostics.ErrIndexOutOfRange},
		{"slice hash", index(ast.HashLit(), ast.Range(num("0"), num("1"))), diagnostics.ErrTypeMismatch},
		{"slice string", index(str("abc"), ast.Range(num("0"), num("1"))), diagnostics.ErrTypeMismatch},
		{"index number", index(num("1"), num("0")), diagnostics.ErrTypeMismatch},
		{"non-numerable index", index(id("v"), str("x")), diagnostics.ErrNonNumerableCoercion},
		{"string past end", index(str("abc"), num("3")), diagnostics.ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, runProgram(t, vec10to40(), printOf(tt.expr)), tt.want)
		})
	}
}

func TestSliceSharesContainers(t *testing.T) {
	r := runProgram(t,
		def("w", ast.Vec(ast.Vec(num("1")), num("2"))),
		assign(ast.CallChain(id("w"), ast.At(ast.Range(num("0"), num("1"))), ast.At(num("0"))), num("5")),
		def("s", index(id("w"), ast.Range(num("1"), ast.Omit()))),
		assign(id("s"), num("9")),
		printOf(id("w")),
	)
	expectOutput(t, r, "[[5], 2]\n")
}

func TestVectorElementAssignment(t *testing.T) {
	r := runProgram(t,
		vec10to40(),
		assign(index(id("v"), num("-1")), str("last")),
		ast.Assignment(ast.AddAssign, index(id("v"), num("0")), num("1")),
		printOf(id("v")),
	)
	expectOutput(t, r, "[11, 20, 30, last]\n")

	expectError(t, runProgram(t, vec10to40(), assign(index(id("v"), num("4")), num("1"))), diagnostics.ErrIndexOutOfRange)
	expectError(t, runProgram(t, vec10to40(), assign(index(id("v"), num("0"), num("1")), num("1"))), diagnostics.ErrTypeMismatch)
	expectError(t, runProgram(t, def("s", str("abc")), assign(index(id("s"), num("0")), num("1"))), diagnostics.ErrTypeMismatch)
}
