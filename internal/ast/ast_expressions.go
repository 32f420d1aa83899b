package ast

// Constructors for expression nodes. They are what the parser would emit and
// are used directly by tests and embedders.

func leaf(k Kind, text string) *Node { return &Node{Kind: k, Text: text} }

func branch(k Kind, text string, children ...*Node) *Node {
	return &Node{Kind: k, Text: text, Children: children}
}

func Nil() *Node                   { return leaf(NilLit, "") }
func Omit() *Node                  { return leaf(Null, "") }
func Num(text string) *Node        { return leaf(Number, text) }
func Str(s string) *Node           { return leaf(String, s) }
func Ident(name string) *Node      { return leaf(Identifier, name) }
func Vec(items ...*Node) *Node     { return branch(Vector, "", items...) }
func HashLit(pairs ...*Node) *Node { return branch(Hash, "", pairs...) }

// Entry is one member of a hash literal.
func Entry(name string, value *Node) *Node { return branch(Pair, name, value) }

// Func builds a function literal from its parameter list and body block.
func Func(params *Node, body *Node) *Node { return branch(Function, "", params, body) }

func ParamList(params ...*Node) *Node { return branch(Params, "", params...) }
func Arg(name string) *Node           { return leaf(Param, name) }
func DefaultArg(name string, def *Node) *Node {
	return branch(DefaultParam, name, def)
}
func Rest(name string) *Node { return leaf(VariadicParam, name) }

// CallChain applies steps left to right to base.
func CallChain(base *Node, steps ...*Node) *Node {
	return branch(Call, "", append([]*Node{base}, steps...)...)
}

func At(keys ...*Node) *Node           { return branch(Index, "", keys...) }
func Range(begin, end *Node) *Node     { return branch(Slice, "", begin, end) }
func Dot(name string) *Node            { return leaf(Member, name) }
func Args(args ...*Node) *Node         { return branch(Invoke, "", args...) }
func Named(name string, v *Node) *Node { return branch(NamedArg, name, v) }

// Binary builds a two-operand operator node; k must satisfy IsBinary.
func Binary(k Kind, left, right *Node) *Node { return branch(k, "", left, right) }

// Unary builds Neg or Not.
func Unary(k Kind, operand *Node) *Node { return branch(k, "", operand) }

func Cond3(cond, then, otherwise *Node) *Node { return branch(Ternary, "", cond, then, otherwise) }

// Assignment builds an assignment of kind k (Assign, AddAssign, ...).
func Assignment(k Kind, target, value *Node) *Node { return branch(k, "", target, value) }

func Tuple(items ...*Node) *Node { return branch(Multi, "", items...) }

func MultiAssignment(targets *Node, value *Node) *Node {
	return branch(MultiAssign, "", targets, value)
}
