// environment.go: the triple-store environment.
//
// What this file does
// -------------------
// An Environment owns a dense arena of nodes and triples. Node ids are issued
// from 0; triple ids live in the same 64-bit space with the top bit set, so a
// triple is itself addressable as a node (meta-triples work uniformly). Each
// node and each triple maintains edge sets (as_subject / as_predicate /
// as_object) holding triple ids in ascending order. Symbol bindings live in
// bijective designator maps keyed by a context node, conventionally the
// designation prelude node.
//
// All references between nodes are LocalNode handles into the arena; nothing
// holds an owning pointer to anything else, so cyclic structure is
// representable without cyclic ownership.
package amlang

import "sort"

// LocalNode is an id scoped to one environment. The top bit discriminates
// triple ids from node ids.
type LocalNode uint64

const tripleIDBit = LocalNode(1) << 63

func (n LocalNode) IsTriple() bool { return n&tripleIDBit != 0 }

func tripleIDFromIndex(idx uint64) LocalNode {
	return LocalNode(idx) | tripleIDBit
}

func tripleIndexFromID(id LocalNode) uint64 {
	return uint64(id &^ tripleIDBit)
}

// Node is a globally-addressable reference: the environment's node in the
// meta-env plus a local id within that environment.
type Node struct {
	Env   LocalNode
	Local LocalNode
}

func NewNode(env, local LocalNode) Node { return Node{Env: env, Local: local} }

// Triple is an ordered (subject, predicate, object) of locals within one
// environment.
type Triple struct {
	Subject   LocalNode
	Predicate LocalNode
	Object    LocalNode
}

// TripleSet is a set of triple ids in ascending order.
type TripleSet []LocalNode

func (ts TripleSet) Len() int { return len(ts) }

func (ts TripleSet) insert(id LocalNode) TripleSet {
	i := sort.Search(len(ts), func(i int) bool { return ts[i] >= id })
	if i < len(ts) && ts[i] == id {
		return ts
	}
	ts = append(ts, 0)
	copy(ts[i+1:], ts[i:])
	ts[i] = id
	return ts
}

func (ts TripleSet) intersect(other TripleSet) TripleSet {
	var out TripleSet
	i, j := 0, 0
	for i < len(ts) && j < len(other) {
		switch {
		case ts[i] == other[j]:
			out = append(out, ts[i])
			i++
			j++
		case ts[i] < other[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// First returns the lowest triple id in the set.
func (ts TripleSet) First() (LocalNode, bool) {
	if len(ts) == 0 {
		return 0, false
	}
	return ts[0], true
}

type edges struct {
	asSubject   TripleSet
	asPredicate TripleSet
	asObject    TripleSet
}

type nodeRepr struct {
	hasStructure bool
	structure    Sexp
}

type designator struct {
	fwd map[Symbol]LocalNode
	rev map[LocalNode]Symbol
}

func newDesignator() *designator {
	return &designator{
		fwd: make(map[Symbol]LocalNode),
		rev: make(map[LocalNode]Symbol),
	}
}

// Environment is the simple in-memory backend. It is not safe for concurrent
// mutation; the runtime is single-threaded by contract.
type Environment struct {
	nodes       []nodeRepr
	triples     []Triple
	nodeEdges   []edges
	tripleEdges []edges
	designators map[LocalNode]*designator
}

func NewEnvironment() *Environment {
	return &Environment{designators: make(map[LocalNode]*designator)}
}

func (e *Environment) NodeCount() uint64   { return uint64(len(e.nodes)) }
func (e *Environment) TripleCount() uint64 { return uint64(len(e.triples)) }

// AllNodes returns every issued node id in ascending order.
func (e *Environment) AllNodes() []LocalNode {
	out := make([]LocalNode, len(e.nodes))
	for i := range e.nodes {
		out[i] = LocalNode(i)
	}
	return out
}

// InsertAtom appends an atomic node and returns its id.
func (e *Environment) InsertAtom() LocalNode {
	return e.insertNode(nodeRepr{})
}

// InsertStructure appends a node owning the given structure.
func (e *Environment) InsertStructure(s Sexp) LocalNode {
	return e.insertNode(nodeRepr{hasStructure: true, structure: s})
}

func (e *Environment) insertNode(r nodeRepr) LocalNode {
	id := LocalNode(len(e.nodes))
	if id&tripleIDBit != 0 {
		panic("environment node id space overflow")
	}
	e.nodes = append(e.nodes, r)
	e.nodeEdges = append(e.nodeEdges, edges{})
	return id
}

// InsertTriple appends (s, p, o) and links it into the edge sets of all
// three constituents. No deduplication happens at this layer.
func (e *Environment) InsertTriple(s, p, o LocalNode) LocalNode {
	idx := uint64(len(e.triples))
	if LocalNode(idx)&tripleIDBit != 0 {
		panic("environment triple id space overflow")
	}
	id := tripleIDFromIndex(idx)
	e.triples = append(e.triples, Triple{Subject: s, Predicate: p, Object: o})
	e.tripleEdges = append(e.tripleEdges, edges{})

	se := e.edgesFor(s)
	se.asSubject = se.asSubject.insert(id)
	pe := e.edgesFor(p)
	pe.asPredicate = pe.asPredicate.insert(id)
	oe := e.edgesFor(o)
	oe.asObject = oe.asObject.insert(id)
	return id
}

func (e *Environment) edgesFor(id LocalNode) *edges {
	if id.IsTriple() {
		return &e.tripleEdges[tripleIndexFromID(id)]
	}
	return &e.nodeEdges[id]
}

func (e *Environment) hasID(id LocalNode) bool {
	if id.IsTriple() {
		return tripleIndexFromID(id) < uint64(len(e.triples))
	}
	return uint64(id) < uint64(len(e.nodes))
}

// Triple accessors. The argument must be a triple id issued by this env.

func (e *Environment) NodeAsTriple(id LocalNode) (Triple, bool) {
	if !id.IsTriple() || tripleIndexFromID(id) >= uint64(len(e.triples)) {
		return Triple{}, false
	}
	return e.triples[tripleIndexFromID(id)], true
}

func (e *Environment) TripleSubject(id LocalNode) LocalNode {
	return e.triples[tripleIndexFromID(id)].Subject
}
func (e *Environment) TriplePredicate(id LocalNode) LocalNode {
	return e.triples[tripleIndexFromID(id)].Predicate
}
func (e *Environment) TripleObject(id LocalNode) LocalNode {
	return e.triples[tripleIndexFromID(id)].Object
}

// TripleIndex converts a triple id to its dense external index.
func (e *Environment) TripleIndex(id LocalNode) uint64 {
	return tripleIndexFromID(id)
}

// TripleFromIndex converts a dense external index back to a triple id.
func (e *Environment) TripleFromIndex(idx uint64) (LocalNode, bool) {
	if idx >= uint64(len(e.triples)) {
		return 0, false
	}
	return tripleIDFromIndex(idx), true
}

// Matching.

func (e *Environment) MatchSubject(n LocalNode) TripleSet {
	if !e.hasID(n) {
		return nil
	}
	return e.edgesFor(n).asSubject
}

func (e *Environment) MatchPredicate(n LocalNode) TripleSet {
	if !e.hasID(n) {
		return nil
	}
	return e.edgesFor(n).asPredicate
}

func (e *Environment) MatchObject(n LocalNode) TripleSet {
	if !e.hasID(n) {
		return nil
	}
	return e.edgesFor(n).asObject
}

// MatchButSubject matches triples with the given predicate and object.
func (e *Environment) MatchButSubject(p, o LocalNode) TripleSet {
	return e.MatchPredicate(p).intersect(e.MatchObject(o))
}

// MatchButPredicate matches triples with the given subject and object.
func (e *Environment) MatchButPredicate(s, o LocalNode) TripleSet {
	return e.MatchSubject(s).intersect(e.MatchObject(o))
}

// MatchButObject matches triples with the given subject and predicate.
func (e *Environment) MatchButObject(s, p LocalNode) TripleSet {
	return e.MatchSubject(s).intersect(e.MatchPredicate(p))
}

// MatchTriple returns the triple id of (s, p, o) if present.
func (e *Environment) MatchTriple(s, p, o LocalNode) (LocalNode, bool) {
	for _, id := range e.MatchButObject(s, p) {
		if e.TripleObject(id) == o {
			return id, true
		}
	}
	return 0, false
}

// MatchAll returns every triple id in insertion order.
func (e *Environment) MatchAll() TripleSet {
	out := make(TripleSet, len(e.triples))
	for i := range e.triples {
		out[i] = tripleIDFromIndex(uint64(i))
	}
	return out
}

// Entry returns the node's structure, if it has one. The payload is shared;
// callers needing isolation copy it themselves. Triple ids have no
// structure.
func (e *Environment) Entry(n LocalNode) (Sexp, bool) {
	if n.IsTriple() || uint64(n) >= uint64(len(e.nodes)) {
		return Sexp{}, false
	}
	r := e.nodes[n]
	if !r.hasStructure {
		return Sexp{}, false
	}
	return r.structure, true
}

// SetEntry replaces the node's structure.
func (e *Environment) SetEntry(n LocalNode, s Sexp) {
	e.nodes[n] = nodeRepr{hasStructure: true, structure: s}
}

// ClearEntry makes the node atomic again.
func (e *Environment) ClearEntry(n LocalNode) {
	e.nodes[n] = nodeRepr{}
}

// Designation.

// InsertDesignation binds symbol <-> node under the given context,
// displacing any stale pairing so the map stays bijective.
func (e *Environment) InsertDesignation(n LocalNode, sym Symbol, context LocalNode) {
	d, ok := e.designators[context]
	if !ok {
		d = newDesignator()
		e.designators[context] = d
	}
	if old, ok := d.fwd[sym]; ok {
		delete(d.rev, old)
	}
	if old, ok := d.rev[n]; ok {
		delete(d.fwd, old)
	}
	d.fwd[sym] = n
	d.rev[n] = sym
}

// MatchDesignation looks a symbol up under the given context.
func (e *Environment) MatchDesignation(sym Symbol, context LocalNode) (LocalNode, bool) {
	d, ok := e.designators[context]
	if !ok {
		return 0, false
	}
	n, ok := d.fwd[sym]
	return n, ok
}

// FindDesignation is the reverse lookup.
func (e *Environment) FindDesignation(n LocalNode, context LocalNode) (Symbol, bool) {
	d, ok := e.designators[context]
	if !ok {
		return "", false
	}
	sym, ok := d.rev[n]
	return sym, ok
}

// DesignationPair is one symbol binding.
type DesignationPair struct {
	Sym  Symbol
	Node LocalNode
}

// DesignationPairs returns the bindings of a context, sorted by symbol.
func (e *Environment) DesignationPairs(context LocalNode) []DesignationPair {
	d, ok := e.designators[context]
	if !ok {
		return nil
	}
	out := make([]DesignationPair, 0, len(d.fwd))
	for sym, n := range d.fwd {
		out = append(out, DesignationPair{Sym: sym, Node: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sym < out[j].Sym })
	return out
}
