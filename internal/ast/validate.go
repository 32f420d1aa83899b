package ast

import "fmt"

// ValidationError describes a structurally malformed node.
type ValidationError struct {
	Path string
	Kind Kind
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Path, e.Kind, e.Msg)
}

type shape struct {
	min, max int // max < 0: unbounded
	text     bool
}

var shapes = map[Kind]shape{
	NilLit:        {0, 0, false},
	Null:          {0, 0, false},
	Number:        {0, 0, true},
	String:        {0, 0, false},
	Identifier:    {0, 0, true},
	Vector:        {0, -1, false},
	Hash:          {0, -1, false},
	Pair:          {1, 1, true},
	Function:      {2, 2, false},
	Params:        {0, -1, false},
	Param:         {0, 0, true},
	DefaultParam:  {1, 1, true},
	VariadicParam: {0, 0, true},
	Call:          {2, -1, false},
	Index:         {1, -1, false},
	Slice:         {2, 2, false},
	Member:        {0, 0, true},
	Invoke:        {0, -1, false},
	NamedArg:      {1, 1, true},
	Ternary:       {3, 3, false},
	Multi:         {1, -1, false},
	MultiAssign:   {2, 2, false},
	Definition:    {2, 2, false},
	NewVar:        {0, 0, true},
	Conditional:   {1, -1, false},
	If:            {2, 2, false},
	Elsif:         {2, 2, false},
	Else:          {1, 1, false},
	While:         {2, 2, false},
	For:           {4, 4, false},
	ForIndex:      {3, 3, false},
	ForEach:       {3, 3, false},
	Break:         {0, 0, false},
	Continue:      {0, 0, false},
	Return:        {0, 1, false},
	Block:         {0, -1, false},
}

func shapeOf(k Kind) (shape, bool) {
	switch {
	case k.IsBinary():
		return shape{2, 2, false}, true
	case k.IsUnary():
		return shape{1, 1, false}, true
	case k.IsAssignment():
		return shape{2, 2, false}, true
	}
	s, ok := shapes[k]
	return s, ok
}

// contexts restricts where helper kinds may appear.
var contexts = map[Kind][]Kind{
	Pair:          {Hash},
	Params:        {Function},
	Param:         {Params},
	DefaultParam:  {Params},
	VariadicParam: {Params},
	Slice:         {Index},
	Index:         {Call},
	Member:        {Call},
	Invoke:        {Call},
	NamedArg:      {Invoke},
	If:            {Conditional},
	Elsif:         {Conditional},
	Else:          {Conditional},
	NewVar:        {ForIndex, ForEach},
}

type validator struct {
	problems []*ValidationError
}

// Validate checks child counts, literal text and placement of every node
// below root. It returns nil for a well-formed tree.
func Validate(root *Node) []*ValidationError {
	v := &validator{}
	if root == nil {
		v.fail("root", Invalid, "empty tree")
		return v.problems
	}
	v.node(root, Invalid, "root")
	return v.problems
}

func (v *validator) fail(path string, k Kind, format string, a ...interface{}) {
	v.problems = append(v.problems, &ValidationError{Path: path, Kind: k, Msg: fmt.Sprintf(format, a...)})
}

func (v *validator) node(n *Node, parent Kind, path string) {
	if n == nil {
		v.fail(path, Invalid, "missing node")
		return
	}
	s, ok := shapeOf(n.Kind)
	if !ok {
		v.fail(path, n.Kind, "unknown kind")
		return
	}
	if len(n.Children) < s.min || (s.max >= 0 && len(n.Children) > s.max) {
		v.fail(path, n.Kind, "has %d children, want %s", len(n.Children), bounds(s))
	}
	if s.text && n.Text == "" {
		v.fail(path, n.Kind, "missing text")
	}
	if allowed, restricted := contexts[n.Kind]; restricted && !contains(allowed, parent) {
		v.fail(path, n.Kind, "not allowed under %s", parent)
	}
	v.specific(n, path)
	for i, c := range n.Children {
		v.node(c, n.Kind, fmt.Sprintf("%s.%d", path, i))
	}
}

func (v *validator) specific(n *Node, path string) {
	switch n.Kind {
	case Hash:
		for i, c := range n.Children {
			if c != nil && c.Kind != Pair {
				v.fail(fmt.Sprintf("%s.%d", path, i), c.Kind, "hash member must be a pair")
			}
		}
	case Function:
		if p := n.Child(0); p != nil && p.Kind != Params {
			v.fail(path, n.Kind, "first child must be params")
		}
		if b := n.Child(1); b != nil && b.Kind != Block {
			v.fail(path, n.Kind, "second child must be a block")
		}
	case Params:
		seen := map[string]bool{}
		for i, c := range n.Children {
			if c == nil {
				continue
			}
			if c.Kind == VariadicParam && i != len(n.Children)-1 {
				v.fail(path, n.Kind, "variadic parameter %q must be last", c.Text)
			}
			if seen[c.Text] {
				v.fail(path, n.Kind, "duplicate parameter %q", c.Text)
			}
			seen[c.Text] = true
		}
	case Call:
		for i, c := range n.Children {
			if i > 0 && c != nil && c.Kind != Index && c.Kind != Member && c.Kind != Invoke {
				v.fail(fmt.Sprintf("%s.%d", path, i), c.Kind, "call step must be index, member or invoke")
			}
		}
	case Invoke:
		named := 0
		for _, c := range n.Children {
			if c != nil && c.Kind == NamedArg {
				named++
			}
		}
		if named > 0 && named != len(n.Children) {
			v.fail(path, n.Kind, "named and positional arguments cannot be mixed")
		}
	case Assign, AddAssign, SubAssign, MulAssign, DivAssign, LinkAssign:
		if t := n.Child(0); t != nil && !isTarget(t) {
			v.fail(path, n.Kind, "cannot assign to %s", t.Kind)
		}
	case MultiAssign:
		if t := n.Child(0); t != nil {
			if t.Kind != Multi {
				v.fail(path, n.Kind, "targets must be a multi node")
			} else {
				for _, c := range t.Children {
					if c != nil && !isTarget(c) {
						v.fail(path, n.Kind, "cannot assign to %s", c.Kind)
					}
				}
			}
		}
	case Definition:
		if t := n.Child(0); t != nil {
			switch t.Kind {
			case Identifier:
			case Multi:
				for _, c := range t.Children {
					if c != nil && c.Kind != Identifier {
						v.fail(path, n.Kind, "can only declare identifiers")
					}
				}
			default:
				v.fail(path, n.Kind, "can only declare identifiers")
			}
		}
	case Conditional:
		for i, c := range n.Children {
			if c == nil {
				continue
			}
			switch {
			case i == 0 && c.Kind != If:
				v.fail(path, n.Kind, "must start with if")
			case i > 0 && c.Kind == If:
				v.fail(path, n.Kind, "if may only appear first")
			case c.Kind == Else && i != len(n.Children)-1:
				v.fail(path, n.Kind, "else must be last")
			}
		}
	case If, Elsif, While:
		v.block(n, 1, path)
	case Else:
		v.block(n, 0, path)
	case For:
		v.block(n, 3, path)
	case ForIndex, ForEach:
		if c := n.Child(0); c != nil && c.Kind != NewVar && c.Kind != Identifier {
			v.fail(path, n.Kind, "loop variable must be new_var or identifier")
		}
		v.block(n, 2, path)
	}
}

func (v *validator) block(n *Node, i int, path string) {
	if c := n.Child(i); c != nil && c.Kind != Block {
		v.fail(path, n.Kind, "child %d must be a block", i)
	}
}

func isTarget(n *Node) bool {
	return n.Kind == Identifier || n.Kind == Call
}

func bounds(s shape) string {
	switch {
	case s.max < 0:
		return fmt.Sprintf("at least %d", s.min)
	case s.min == s.max:
		return fmt.Sprintf("exactly %d", s.min)
	}
	return fmt.Sprintf("%d to %d", s.min, s.max)
}

func contains(ks []Kind, k Kind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}
