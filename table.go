// table.go: table primitives with deterministic iteration order.
package amlang

import "sort"

// SymNodeTable maps symbols to nodes. Used for interpreter binding frames.
type SymNodeTable struct {
	m map[Symbol]Node
}

func NewSymNodeTable() *SymNodeTable {
	return &SymNodeTable{m: make(map[Symbol]Node)}
}

func (t *SymNodeTable) Len() int { return len(t.m) }

func (t *SymNodeTable) Contains(sym Symbol) bool {
	_, ok := t.m[sym]
	return ok
}

func (t *SymNodeTable) Insert(sym Symbol, n Node) {
	t.m[sym] = n
}

func (t *SymNodeTable) Lookup(sym Symbol) (Node, bool) {
	n, ok := t.m[sym]
	return n, ok
}

// Pairs returns entries sorted by symbol.
func (t *SymNodeTable) Pairs() []struct {
	Sym  Symbol
	Node Node
} {
	out := make([]struct {
		Sym  Symbol
		Node Node
	}, 0, len(t.m))
	for sym, n := range t.m {
		out = append(out, struct {
			Sym  Symbol
			Node Node
		}{sym, n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sym < out[j].Sym })
	return out
}

func (t *SymNodeTable) copy() *SymNodeTable {
	out := NewSymNodeTable()
	for k, v := range t.m {
		out.m[k] = v
	}
	return out
}

func (t *SymNodeTable) equal(o *SymNodeTable) bool {
	if len(t.m) != len(o.m) {
		return false
	}
	for k, v := range t.m {
		if ov, ok := o.m[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// LocalNodeTable maps local nodes to local nodes. Used as the object of
// import-table triples in the meta-env.
type LocalNodeTable struct {
	m map[LocalNode]LocalNode
}

func NewLocalNodeTable() *LocalNodeTable {
	return &LocalNodeTable{m: make(map[LocalNode]LocalNode)}
}

func (t *LocalNodeTable) Len() int { return len(t.m) }

func (t *LocalNodeTable) Insert(k, v LocalNode) {
	t.m[k] = v
}

func (t *LocalNodeTable) Lookup(k LocalNode) (LocalNode, bool) {
	v, ok := t.m[k]
	return v, ok
}

// Pairs returns entries sorted by key.
func (t *LocalNodeTable) Pairs() []struct{ Key, Val LocalNode } {
	out := make([]struct{ Key, Val LocalNode }, 0, len(t.m))
	for k, v := range t.m {
		out = append(out, struct{ Key, Val LocalNode }{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (t *LocalNodeTable) copy() *LocalNodeTable {
	out := NewLocalNodeTable()
	for k, v := range t.m {
		out.m[k] = v
	}
	return out
}

func (t *LocalNodeTable) equal(o *LocalNodeTable) bool {
	if len(t.m) != len(o.m) {
		return false
	}
	for k, v := range t.m {
		if ov, ok := o.m[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// SymSexpTable maps symbols to arbitrary structures.
type SymSexpTable struct {
	m map[Symbol]Sexp
}

func NewSymSexpTable() *SymSexpTable {
	return &SymSexpTable{m: make(map[Symbol]Sexp)}
}

func (t *SymSexpTable) Len() int { return len(t.m) }

func (t *SymSexpTable) Insert(sym Symbol, s Sexp) {
	t.m[sym] = s
}

func (t *SymSexpTable) Lookup(sym Symbol) (Sexp, bool) {
	s, ok := t.m[sym]
	return s, ok
}

// Pairs returns entries sorted by symbol.
func (t *SymSexpTable) Pairs() []struct {
	Sym Symbol
	Val Sexp
} {
	out := make([]struct {
		Sym Symbol
		Val Sexp
	}, 0, len(t.m))
	for sym, s := range t.m {
		out = append(out, struct {
			Sym Symbol
			Val Sexp
		}{sym, s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sym < out[j].Sym })
	return out
}

func (t *SymSexpTable) copy() *SymSexpTable {
	out := NewSymSexpTable()
	for k, v := range t.m {
		out.m[k] = v.Copy()
	}
	return out
}

func (t *SymSexpTable) equal(o *SymSexpTable) bool {
	if len(t.m) != len(o.m) {
		return false
	}
	for k, v := range t.m {
		ov, ok := o.m[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}
