// Package calc implements the scalar operators of the language. Every
// operation reads its operands and allocates a fresh heap value for the
// result; operands are never modified.
package calc

import (
	"fmt"

	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

// Calculator evaluates operators over values of one heap.
type Calculator struct {
	h *heap.Heap
}

func New(h *heap.Heap) *Calculator {
	return &Calculator{h: h}
}

// Number coerces r to a number for op. Strings must be numerable.
func (c *Calculator) Number(r heap.Ref, op string) (float64, error) {
	switch v := c.h.Get(r).(type) {
	case *heap.Number:
		return v.Value, nil
	case *heap.String:
		f, ok := ParseNumber(v.Value)
		if !ok {
			return 0, diagnostics.New(diagnostics.NonNumerableCoercion, op, "cannot convert string %q to a number", v.Value)
		}
		return f, nil
	}
	return 0, diagnostics.New(diagnostics.TypeMismatch, op, "expected a number, got %s", c.h.Kind(r))
}

// Text returns the string form of a number or string operand.
func (c *Calculator) Text(r heap.Ref, op string) (string, error) {
	switch v := c.h.Get(r).(type) {
	case *heap.Number:
		return heap.FormatNumber(v.Value), nil
	case *heap.String:
		return v.Value, nil
	}
	return "", diagnostics.New(diagnostics.TypeMismatch, op, "expected a number or string, got %s", c.h.Kind(r))
}

// Truthy is the language's notion of a true condition.
func (c *Calculator) Truthy(r heap.Ref) bool {
	switch v := c.h.Get(r).(type) {
	case heap.Nil:
		return false
	case *heap.Number:
		return v.Value != 0
	case *heap.String:
		if v.Value == "" {
			return false
		}
		if f, ok := ParseNumber(v.Value); ok {
			return f != 0
		}
		return true
	}
	return true
}

func (c *Calculator) bool(b bool) heap.Ref {
	if b {
		return c.h.NewNumber(1)
	}
	return c.h.NewNumber(0)
}

func (c *Calculator) arith(op ast.Kind, a, b heap.Ref, fn func(x, y float64) float64) (heap.Ref, error) {
	x, err := c.Number(a, op.String())
	if err != nil {
		return heap.Ref{}, err
	}
	y, err := c.Number(b, op.String())
	if err != nil {
		return heap.Ref{}, err
	}
	return c.h.NewNumber(fn(x, y)), nil
}

func (c *Calculator) Add(a, b heap.Ref) (heap.Ref, error) {
	return c.arith(ast.Add, a, b, func(x, y float64) float64 { return x + y })
}

func (c *Calculator) Sub(a, b heap.Ref) (heap.Ref, error) {
	return c.arith(ast.Sub, a, b, func(x, y float64) float64 { return x - y })
}

func (c *Calculator) Mul(a, b heap.Ref) (heap.Ref, error) {
	return c.arith(ast.Mul, a, b, func(x, y float64) float64 { return x * y })
}

// Div follows IEEE-754: division by zero yields an infinity or NaN.
func (c *Calculator) Div(a, b heap.Ref) (heap.Ref, error) {
	return c.arith(ast.Div, a, b, func(x, y float64) float64 { return x / y })
}

// Link concatenates the string forms of a and b.
func (c *Calculator) Link(a, b heap.Ref) (heap.Ref, error) {
	x, err := c.Text(a, ast.Link.String())
	if err != nil {
		return heap.Ref{}, err
	}
	y, err := c.Text(b, ast.Link.String())
	if err != nil {
		return heap.Ref{}, err
	}
	return c.h.NewString(x + y), nil
}

// Equal compares two values without allocating.
func (c *Calculator) Equal(a, b heap.Ref) bool {
	va, vb := c.h.Get(a), c.h.Get(b)
	switch x := va.(type) {
	case heap.Nil:
		_, ok := vb.(heap.Nil)
		return ok
	case *heap.Number:
		switch y := vb.(type) {
		case *heap.Number:
			return x.Value == y.Value
		case *heap.String:
			f, ok := ParseNumber(y.Value)
			return ok && x.Value == f
		}
		return false
	case *heap.String:
		switch y := vb.(type) {
		case *heap.String:
			return x.Value == y.Value
		case *heap.Number:
			f, ok := ParseNumber(x.Value)
			return ok && f == y.Value
		}
		return false
	}
	return a == b
}

func (c *Calculator) Eq(a, b heap.Ref) (heap.Ref, error) {
	return c.bool(c.Equal(a, b)), nil
}

func (c *Calculator) Neq(a, b heap.Ref) (heap.Ref, error) {
	return c.bool(!c.Equal(a, b)), nil
}

// compare orders a and b: two strings compare lexically, anything else numerically.
func (c *Calculator) compare(op ast.Kind, a, b heap.Ref) (int, error) {
	if x, ok := c.h.Get(a).(*heap.String); ok {
		if y, ok := c.h.Get(b).(*heap.String); ok {
			switch {
			case x.Value < y.Value:
				return -1, nil
			case x.Value > y.Value:
				return 1, nil
			}
			return 0, nil
		}
	}
	x, err := c.Number(a, op.String())
	if err != nil {
		return 0, err
	}
	y, err := c.Number(b, op.String())
	if err != nil {
		return 0, err
	}
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	case x == y:
		return 0, nil
	}
	return 2, nil // unordered (NaN)
}

func (c *Calculator) order(op ast.Kind, a, b heap.Ref, accept func(int) bool) (heap.Ref, error) {
	n, err := c.compare(op, a, b)
	if err != nil {
		return heap.Ref{}, err
	}
	return c.bool(n != 2 && accept(n)), nil
}

func (c *Calculator) Lt(a, b heap.Ref) (heap.Ref, error) {
	return c.order(ast.Lt, a, b, func(n int) bool { return n < 0 })
}

func (c *Calculator) Leq(a, b heap.Ref) (heap.Ref, error) {
	return c.order(ast.Leq, a, b, func(n int) bool { return n <= 0 })
}

func (c *Calculator) Gt(a, b heap.Ref) (heap.Ref, error) {
	return c.order(ast.Gt, a, b, func(n int) bool { return n > 0 })
}

func (c *Calculator) Geq(a, b heap.Ref) (heap.Ref, error) {
	return c.order(ast.Geq, a, b, func(n int) bool { return n >= 0 })
}

func (c *Calculator) And(a, b heap.Ref) (heap.Ref, error) {
	return c.bool(c.Truthy(a) && c.Truthy(b)), nil
}

func (c *Calculator) Or(a, b heap.Ref) (heap.Ref, error) {
	return c.bool(c.Truthy(a) || c.Truthy(b)), nil
}

func (c *Calculator) Neg(a heap.Ref) (heap.Ref, error) {
	x, err := c.Number(a, ast.Neg.String())
	if err != nil {
		return heap.Ref{}, err
	}
	return c.h.NewNumber(-x), nil
}

func (c *Calculator) Not(a heap.Ref) (heap.Ref, error) {
	return c.bool(!c.Truthy(a)), nil
}

// Binary applies the binary operator k.
func (c *Calculator) Binary(k ast.Kind, a, b heap.Ref) (heap.Ref, error) {
	switch k {
	case ast.Add:
		return c.Add(a, b)
	case ast.Sub:
		return c.Sub(a, b)
	case ast.Mul:
		return c.Mul(a, b)
	case ast.Div:
		return c.Div(a, b)
	case ast.Link:
		return c.Link(a, b)
	case ast.Eq:
		return c.Eq(a, b)
	case ast.Neq:
		return c.Neq(a, b)
	case ast.Lt:
		return c.Lt(a, b)
	case ast.Leq:
		return c.Leq(a, b)
	case ast.Gt:
		return c.Gt(a, b)
	case ast.Geq:
		return c.Geq(a, b)
	case ast.And:
		return c.And(a, b)
	case ast.Or:
		return c.Or(a, b)
	}
	return heap.Ref{}, fmt.Errorf("calc: %s is not a binary operator", k)
}

// Unary applies the unary operator k.
func (c *Calculator) Unary(k ast.Kind, a heap.Ref) (heap.Ref, error) {
	switch k {
	case ast.Neg:
		return c.Neg(a)
	case ast.Not:
		return c.Not(a)
	}
	return heap.Ref{}, fmt.Errorf("calc: %s is not a unary operator", k)
}

// Compound maps a compound assignment kind to its operator.
func Compound(k ast.Kind) (ast.Kind, bool) {
	switch k {
	case ast.AddAssign:
		return ast.Add, true
	case ast.SubAssign:
		return ast.Sub, true
	case ast.MulAssign:
		return ast.Mul, true
	case ast.DivAssign:
		return ast.Div, true
	case ast.LinkAssign:
		return ast.Link, true
	}
	return ast.Invalid, false
}
