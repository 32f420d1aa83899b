package ast

func Program(stmts ...*Node) *Node { return branch(Block, "", stmts...) }
func Body(stmts ...*Node) *Node    { return branch(Block, "", stmts...) }

// Def declares target (an Identifier or a Multi of identifiers) in the current frame.
func Def(target, value *Node) *Node { return branch(Definition, "", target, value) }

// Var declares a fresh loop variable.
func Var(name string) *Node { return leaf(NewVar, name) }

func IfChain(branches ...*Node) *Node { return branch(Conditional, "", branches...) }
func IfBranch(cond, body *Node) *Node { return branch(If, "", cond, body) }
func ElsifBranch(cond, body *Node) *Node {
	return branch(Elsif, "", cond, body)
}
func ElseBranch(body *Node) *Node { return branch(Else, "", body) }

func WhileLoop(cond, body *Node) *Node { return branch(While, "", cond, body) }

// ForLoop builds for(init; cond; step) body. Absent clauses are Omit().
func ForLoop(init, cond, step, body *Node) *Node {
	return branch(For, "", init, cond, step, body)
}

func ForIndexLoop(v, seq, body *Node) *Node { return branch(ForIndex, "", v, seq, body) }
func ForEachLoop(v, seq, body *Node) *Node  { return branch(ForEach, "", v, seq, body) }

func BreakStmt() *Node    { return leaf(Break, "") }
func ContinueStmt() *Node { return leaf(Continue, "") }

// ReturnStmt returns value, or nil when value is omitted.
func ReturnStmt(value ...*Node) *Node { return branch(Return, "", value...) }
