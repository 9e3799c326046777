// frames.go: execution-stack frames.
package amlang

// ExecFrame is one frame of the agent's execution stack: the meaning node
// being applied plus the local substitutions bound during that application.
// Insertion never overwrites; the first binding of a node wins.
type ExecFrame struct {
	context Node
	table   map[Node]Sexp
}

func NewExecFrame(context Node) *ExecFrame {
	return &ExecFrame{context: context, table: make(map[Node]Sexp)}
}

func (f *ExecFrame) Context() Node { return f.context }

// Insert binds node -> val; returns false if node was already bound.
func (f *ExecFrame) Insert(node Node, val Sexp) bool {
	if _, ok := f.table[node]; ok {
		return false
	}
	f.table[node] = val
	return true
}

func (f *ExecFrame) Lookup(node Node) (Sexp, bool) {
	s, ok := f.table[node]
	return s, ok
}
