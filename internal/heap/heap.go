// Package heap implements the value runtime: a reference-counted store of
// tagged values, the cell table that backs every binding, and the lexical
// frames that make up a scope.
//
// Ownership rules:
//   - Alloc returns a reference owned by the caller (refcount 1).
//   - NewCell consumes the caller's reference to its target.
//   - Rebind retains the new target and releases the old one.
//   - Freeing a container or closure releases every cell it owns.
//
// A Heap is not safe for concurrent use.
package heap

import (
	"fmt"
	"log/slog"
)

type entry struct {
	gen  uint32
	refs int
	val  Value // nil while the slot is free
}

type cellEntry struct {
	gen    uint32
	live   bool
	target Ref
}

// Stats summarises heap activity.
type Stats struct {
	Allocs    int
	Frees     int
	Live      int
	LiveCells int
}

type Heap struct {
	entries   []entry
	free      []uint32
	cells     []cellEntry
	freeCells []uint32
	stats     Stats
	log       *slog.Logger
}

// Option configures a Heap.
type Option func(*Heap)

// WithLogger traces allocation, release and frame activity at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(h *Heap) { h.log = l }
}

func New(opts ...Option) *Heap {
	h := &Heap{
		entries: make([]entry, 0, 256),
		cells:   make([]cellEntry, 0, 256),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Alloc stores v and returns an owned reference to it.
func (h *Heap) Alloc(v Value) Ref {
	if v == nil {
		v = Nil{}
	}
	var slot uint32
	if n := len(h.free); n > 0 {
		slot = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		h.entries = append(h.entries, entry{})
		slot = uint32(len(h.entries) - 1)
	}
	e := &h.entries[slot]
	e.gen = nextGen(e.gen)
	e.refs = 1
	e.val = v
	h.stats.Allocs++
	h.stats.Live++
	r := Ref{slot: slot, gen: e.gen}
	if h.log != nil {
		h.log.Debug("heap alloc", slog.String("ref", r.String()), slog.String("kind", v.Kind().String()))
	}
	return r
}

func (h *Heap) lookup(r Ref) *entry {
	if !r.Valid() {
		panic(&StaleRefError{Handle: r.String(), Reason: "invalid handle"})
	}
	if int(r.slot) >= len(h.entries) {
		panic(&StaleRefError{Handle: r.String(), Reason: "unknown slot"})
	}
	e := &h.entries[r.slot]
	if e.gen != r.gen || e.val == nil {
		panic(&StaleRefError{Handle: r.String(), Reason: "use after free"})
	}
	return e
}

// Live reports whether r still addresses an allocated entry.
func (h *Heap) Live(r Ref) bool {
	if !r.Valid() || int(r.slot) >= len(h.entries) {
		return false
	}
	e := &h.entries[r.slot]
	return e.gen == r.gen && e.val != nil
}

func (h *Heap) Get(r Ref) Value {
	return h.lookup(r).val
}

func (h *Heap) Kind(r Ref) Kind {
	return h.lookup(r).val.Kind()
}

// RefCount returns the number of holders of r.
func (h *Heap) RefCount(r Ref) int {
	return h.lookup(r).refs
}

func (h *Heap) Retain(r Ref) {
	h.lookup(r).refs++
}

// Release drops one reference and frees the entry when none remain.
// Releasing the zero Ref is a no-op so error paths can release blindly.
func (h *Heap) Release(r Ref) {
	if !r.Valid() {
		return
	}
	e := h.lookup(r)
	e.refs--
	if e.refs > 0 {
		return
	}
	if e.refs < 0 {
		panic(&StaleRefError{Handle: r.String(), Reason: "refcount underflow"})
	}
	val := e.val
	e.val = nil
	h.free = append(h.free, r.slot)
	h.stats.Frees++
	h.stats.Live--
	if h.log != nil {
		h.log.Debug("heap free", slog.String("ref", r.String()), slog.String("kind", val.Kind().String()))
	}
	h.dispose(val)
}

// dispose releases everything a freed value owned.
func (h *Heap) dispose(v Value) {
	switch v := v.(type) {
	case *Vector:
		for _, c := range v.Elems {
			h.freeCell(c)
		}
		v.Elems = nil
	case *Hash:
		for _, c := range v.Members {
			h.freeCell(c)
		}
		v.Members = nil
	case *Function:
		h.Release(v.Closure)
	case *Closure:
		for _, c := range v.Frame {
			h.freeCell(c)
		}
		v.Frame = nil
		h.Release(v.Parent)
	}
}

// NewCell creates a cell targeting v, taking over the caller's reference.
func (h *Heap) NewCell(target Ref) CellRef {
	h.lookup(target)
	var slot uint32
	if n := len(h.freeCells); n > 0 {
		slot = h.freeCells[n-1]
		h.freeCells = h.freeCells[:n-1]
	} else {
		h.cells = append(h.cells, cellEntry{})
		slot = uint32(len(h.cells) - 1)
	}
	c := &h.cells[slot]
	c.gen = nextGen(c.gen)
	c.live = true
	c.target = target
	h.stats.LiveCells++
	return CellRef{slot: slot, gen: c.gen}
}

func (h *Heap) cell(c CellRef) *cellEntry {
	if !c.Valid() || int(c.slot) >= len(h.cells) {
		panic(&StaleRefError{Handle: c.String(), Reason: "invalid cell"})
	}
	e := &h.cells[c.slot]
	if e.gen != c.gen || !e.live {
		panic(&StaleRefError{Handle: c.String(), Reason: "cell used after free"})
	}
	return e
}

// Read returns the heap address c currently targets. No reference is added.
func (h *Heap) Read(c CellRef) Ref {
	return h.cell(c).target
}

// Rebind points c at v. v is retained, the previous target released.
func (h *Heap) Rebind(c CellRef, v Ref) {
	e := h.cell(c)
	h.Retain(v)
	old := e.target
	e.target = v
	h.Release(old)
}

func (h *Heap) freeCell(c CellRef) {
	e := h.cell(c)
	target := e.target
	e.live = false
	e.target = Ref{}
	h.freeCells = append(h.freeCells, c.slot)
	h.stats.LiveCells--
	h.Release(target)
}

// Stats returns a snapshot of allocation counters.
func (h *Heap) Stats() Stats {
	return h.stats
}

// Load yields the value bound in a cell for use as an rvalue: scalars are
// copied so later writes through another binding cannot alias them, while
// vectors, hashes and functions are shared by reference.
func (h *Heap) Load(r Ref) Ref {
	switch v := h.Get(r).(type) {
	case Nil:
		return h.Alloc(Nil{})
	case *Number:
		return h.Alloc(&Number{Value: v.Value})
	case *String:
		return h.Alloc(&String{Value: v.Value})
	}
	h.Retain(r)
	return r
}

// NewNil, NewNumber and NewString allocate scalars.
func (h *Heap) NewNil() Ref             { return h.Alloc(Nil{}) }
func (h *Heap) NewNumber(f float64) Ref { return h.Alloc(&Number{Value: f}) }
func (h *Heap) NewString(s string) Ref  { return h.Alloc(&String{Value: s}) }
func (h *Heap) NewHash() Ref            { return h.Alloc(&Hash{Members: map[string]CellRef{}}) }

// NewVector allocates a vector whose elements take over the given references.
func (h *Heap) NewVector(elems ...Ref) Ref {
	vec := &Vector{Elems: make([]CellRef, 0, len(elems))}
	for _, e := range elems {
		vec.Elems = append(vec.Elems, h.NewCell(e))
	}
	return h.Alloc(vec)
}

// Append adds v as a new element of vec, taking over the caller's reference.
func (h *Heap) Append(vec Ref, v Ref) error {
	vv, ok := h.Get(vec).(*Vector)
	if !ok {
		return fmt.Errorf("append to %s", h.Kind(vec))
	}
	vv.Elems = append(vv.Elems, h.NewCell(v))
	return nil
}

// SetMember binds name in hash to v, taking over the caller's reference.
// An existing member keeps its cell and is rebound.
func (h *Heap) SetMember(hash Ref, name string, v Ref) (CellRef, error) {
	hv, ok := h.Get(hash).(*Hash)
	if !ok {
		return CellRef{}, fmt.Errorf("set member %q on %s", name, h.Kind(hash))
	}
	if c, exists := hv.Members[name]; exists {
		h.Rebind(c, v)
		h.Release(v)
		return c, nil
	}
	c := h.NewCell(v)
	hv.Members[name] = c
	return c, nil
}

// DeleteMember removes name from hash and frees its cell. It reports whether
// the member existed.
func (h *Heap) DeleteMember(hash Ref, name string) bool {
	hv, ok := h.Get(hash).(*Hash)
	if !ok {
		return false
	}
	c, ok := hv.Members[name]
	if !ok {
		return false
	}
	delete(hv.Members, name)
	h.freeCell(c)
	return true
}
