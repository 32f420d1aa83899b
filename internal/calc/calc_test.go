package calc

import (
	"errors"
	"math"
	"testing"

	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{"-12", -12, true},
		{"+3", 3, true},
		{"1.5", 1.5, true},
		{".5", 0.5, true},
		{"5.", 5, true},
		{"1e3", 1000, true},
		{"1.5e-2", 0.015, true},
		{"0x1f", 31, true},
		{"0xFF", 255, true},
		{"-0x10", -16, true},
		{"0o17", 15, true},
		{"0", 0, true},
		{"", 0, false},
		{"-", 0, false},
		{".", 0, false},
		{"1e", 0, false},
		{"0x", 0, false},
		{"0o8", 0, false},
		{"0xg", 0, false},
		{" 1", 0, false},
		{"1 ", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func number(t *testing.T, h *heap.Heap, r heap.Ref) float64 {
	t.Helper()
	n, ok := h.Get(r).(*heap.Number)
	if !ok {
		t.Fatalf("result is %s, want number", h.Kind(r))
	}
	return n.Value
}

func TestArithmetic(t *testing.T) {
	h := heap.New()
	c := New(h)
	tests := []struct {
		op   ast.Kind
		a, b heap.Ref
		want float64
	}{
		{ast.Add, h.NewNumber(2), h.NewNumber(3), 5},
		{ast.Sub, h.NewNumber(2), h.NewString("0x10"), -14},
		{ast.Mul, h.NewString("1.5"), h.NewNumber(4), 6},
		{ast.Div, h.NewNumber(1), h.NewNumber(4), 0.25},
		{ast.Lt, h.NewNumber(1), h.NewString("2"), 1},
		{ast.Geq, h.NewNumber(1), h.NewNumber(2), 0},
		{ast.Lt, h.NewString("abc"), h.NewString("abd"), 1},
		{ast.Gt, h.NewString("10"), h.NewString("9"), 0}, // two strings compare lexically
		{ast.Eq, h.NewNumber(10), h.NewString("10"), 1},
		{ast.Eq, h.NewString("1e1"), h.NewString("10"), 0},
		{ast.Neq, h.NewNil(), h.NewNil(), 0},
		{ast.Eq, h.NewNil(), h.NewNumber(0), 0},
		{ast.And, h.NewNumber(1), h.NewString("x"), 1},
		{ast.Or, h.NewString("0"), h.NewString(""), 0},
	}
	for _, tt := range tests {
		before := h.Stats().Live
		r, err := c.Binary(tt.op, tt.a, tt.b)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.op, err)
			continue
		}
		if got := number(t, h, r); got != tt.want {
			t.Errorf("%s(%s, %s) = %v, want %v", tt.op, h.Format(tt.a), h.Format(tt.b), got, tt.want)
		}
		if r == tt.a || r == tt.b {
			t.Errorf("%s returned an operand instead of a fresh value", tt.op)
		}
		if h.Stats().Live != before+1 {
			t.Errorf("%s allocated %d values", tt.op, h.Stats().Live-before)
		}
	}
}

func TestDivByZero(t *testing.T) {
	h := heap.New()
	c := New(h)
	r, err := c.Div(h.NewNumber(1), h.NewNumber(0))
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(number(t, h, r), 1) {
		t.Errorf("1/0 = %v", number(t, h, r))
	}
}

func TestLink(t *testing.T) {
	h := heap.New()
	c := New(h)
	r, err := c.Link(h.NewString("n="), h.NewNumber(2.5))
	if err != nil {
		t.Fatal(err)
	}
	if got := h.Get(r).(*heap.String).Value; got != "n=2.5" {
		t.Errorf("Link = %q", got)
	}
	if _, err := c.Link(h.NewString("x"), h.NewVector()); !errors.Is(err, diagnostics.ErrTypeMismatch) {
		t.Errorf("link with vector: %v", err)
	}
}

func TestOperandErrors(t *testing.T) {
	h := heap.New()
	c := New(h)
	tests := []struct {
		name string
		run  func() (heap.Ref, error)
		want error
	}{
		{"non-numerable", func() (heap.Ref, error) { return c.Add(h.NewString("abc"), h.NewNumber(1)) }, diagnostics.ErrNonNumerableCoercion},
		{"nil operand", func() (heap.Ref, error) { return c.Mul(h.NewNil(), h.NewNumber(1)) }, diagnostics.ErrTypeMismatch},
		{"hash operand", func() (heap.Ref, error) { return c.Sub(h.NewNumber(1), h.NewHash()) }, diagnostics.ErrTypeMismatch},
		{"negate string", func() (heap.Ref, error) { return c.Neg(h.NewString("x")) }, diagnostics.ErrNonNumerableCoercion},
		{"order mixed", func() (heap.Ref, error) { return c.Lt(h.NewString("a"), h.NewNumber(1)) }, diagnostics.ErrNonNumerableCoercion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if r.Valid() {
				t.Errorf("failed operation returned a value")
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	h := heap.New()
	c := New(h)
	tests := []struct {
		v    heap.Ref
		want bool
	}{
		{h.NewNil(), false},
		{h.NewNumber(0), false},
		{h.NewNumber(-1), true},
		{h.NewString(""), false},
		{h.NewString("0"), false},
		{h.NewString("0.0"), false},
		{h.NewString("1"), true},
		{h.NewString("false"), true},
		{h.NewVector(), true},
		{h.NewHash(), true},
	}
	for _, tt := range tests {
		if got := c.Truthy(tt.v); got != tt.want {
			t.Errorf("Truthy(%s %s) = %v", h.Kind(tt.v), h.Format(tt.v), got)
		}
	}
}

func TestContainerEquality(t *testing.T) {
	h := heap.New()
	c := New(h)
	a := h.NewVector(h.NewNumber(1))
	b := h.NewVector(h.NewNumber(1))
	if c.Equal(a, b) {
		t.Errorf("distinct vectors compared equal")
	}
	if !c.Equal(a, a) {
		t.Errorf("vector not equal to itself")
	}
}

func TestUnaryAndCompound(t *testing.T) {
	h := heap.New()
	c := New(h)
	r, err := c.Unary(ast.Neg, h.NewString("-4"))
	if err != nil || number(t, h, r) != 4 {
		t.Errorf("neg: %v %v", err, h.Format(r))
	}
	r, err = c.Unary(ast.Not, h.NewNil())
	if err != nil || number(t, h, r) != 1 {
		t.Errorf("not: %v %v", err, h.Format(r))
	}
	if _, err := c.Unary(ast.Add, h.NewNil()); err == nil {
		t.Errorf("Unary accepted add")
	}
	if op, ok := Compound(ast.LinkAssign); !ok || op != ast.Link {
		t.Errorf("Compound(link_assign) = %v, %v", op, ok)
	}
	if _, ok := Compound(ast.Assign); ok {
		t.Errorf("plain assignment has no operator")
	}
}
