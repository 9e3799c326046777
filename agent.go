// agent.go: the agent runtime.
//
// What this file does
// -------------------
// An Agent is a cursor over the federation of environments: it has a current
// position (a node), an execution stack of substitution frames, and a
// designation chain for symbol resolution. All knowledge-level operations
// live here: resolve/designate, naming, tell/ask over the triple store, node
// definition, cross-env import, and env lookup by serialize path. The
// interpreters drive an Agent; they never touch environments directly.
package amlang

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Agent struct {
	meta    *MetaEnv
	ctxMeta *MetaEnvContext
	ctx     *AmlangContext
	log     *zap.Logger

	pos       Node
	execStack []*ExecFrame
	// chain holds designation contexts consulted after the current env,
	// front to back.
	chain []Node

	// historyEnv receives top-level meanings; implEnv receives procedure
	// internals (bodies, params, anonymous structures).
	historyEnv LocalNode
	implEnv    LocalNode
}

// NewAgent positions a fresh agent at pos. The lang env is always on the
// designation chain.
func NewAgent(meta *MetaEnv, ctxMeta *MetaEnvContext, ctx *AmlangContext, pos Node, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{
		meta:    meta,
		ctxMeta: ctxMeta,
		ctx:     ctx,
		log:     log,
		pos:     pos,
		chain:   []Node{NewNode(ctx.LangEnv, NodeDesignation)},
	}
}

func (a *Agent) Meta() *MetaEnv            { return a.meta }
func (a *Agent) MetaContext() *MetaEnvContext { return a.ctxMeta }
func (a *Agent) Context() *AmlangContext   { return a.ctx }
func (a *Agent) Logger() *zap.Logger       { return a.log }

func (a *Agent) HistoryEnv() LocalNode     { return a.historyEnv }
func (a *Agent) ImplEnv() LocalNode        { return a.implEnv }
func (a *Agent) SetHistoryEnv(n LocalNode) { a.historyEnv = n }
func (a *Agent) SetImplEnv(n LocalNode)    { a.implEnv = n }

// Position and environment access.

func (a *Agent) Pos() Node { return a.pos }

// Jump moves the agent to any node; the current env becomes that node's env.
func (a *Agent) Jump(n Node) { a.pos = n }

// JumpEnv moves to the self node of the given env.
func (a *Agent) JumpEnv(env LocalNode) Node {
	a.pos = NewNode(env, NodeSelfEnv)
	return a.pos
}

// AccessEnv returns the environment designated by a meta-env node. Node 0 is
// the meta base itself.
func (a *Agent) AccessEnv(env LocalNode) (*Environment, bool) {
	if env == 0 {
		return a.meta.Base(), true
	}
	return a.meta.Env(env)
}

// Env returns the current environment.
func (a *Agent) Env() *Environment {
	e, ok := a.AccessEnv(a.pos.Env)
	if !ok {
		panic("agent positioned in unknown environment")
	}
	return e
}

// Globalize pairs a local id of the current env with the env's handle.
func (a *Agent) Globalize(l LocalNode) Node { return NewNode(a.pos.Env, l) }

// Execution stack.

func (a *Agent) PushFrame(f *ExecFrame) { a.execStack = append(a.execStack, f) }

func (a *Agent) PopFrame() {
	if len(a.execStack) > 0 {
		a.execStack = a.execStack[:len(a.execStack)-1]
	}
}

func (a *Agent) ExecDepth() int { return len(a.execStack) }

// TopFrame returns the newest frame, or nil.
func (a *Agent) TopFrame() *ExecFrame {
	if len(a.execStack) == 0 {
		return nil
	}
	return a.execStack[len(a.execStack)-1]
}

// Concretize maps a node to its current meaning: exec-stack substitutions
// newest-first, falling back to the node's designation.
func (a *Agent) Concretize(n Node) (Sexp, error) {
	for i := len(a.execStack) - 1; i >= 0; i-- {
		if s, ok := a.execStack[i].Lookup(n); ok {
			return s.Copy(), nil
		}
	}
	return a.DesignateNode(n)
}

// Resolution and designation.

// Resolve maps a symbol to a node: prelude names bind to the current env's
// reserved nodes, then the current env's designations, then the chain.
func (a *Agent) Resolve(sym Symbol) (Node, error) {
	if local, ok := PreludeFromName(sym); ok {
		return a.Globalize(local), nil
	}
	if local, ok := a.Env().MatchDesignation(sym, NodeDesignation); ok {
		return a.Globalize(local), nil
	}
	for _, c := range a.chain {
		e, ok := a.AccessEnv(c.Env)
		if !ok {
			continue
		}
		if local, ok := e.MatchDesignation(sym, c.Local); ok {
			return NewNode(c.Env, local), nil
		}
	}
	return Node{}, newError(a, &UnboundSymbol{Name: sym})
}

// Designate maps surface structure to meaning. Symbols resolve to nodes;
// everything else already designates itself.
func (a *Agent) Designate(s Sexp) (Sexp, error) {
	if sym, ok := s.AsSymbol(); ok {
		n, err := a.Resolve(sym)
		if err != nil {
			return Sexp{}, err
		}
		return NodeSexp(n), nil
	}
	return s, nil
}

// DesignateNode maps a node to its meaning: its owned structure if any, a
// reified (s p o) list for triples, or the node itself when atomic.
func (a *Agent) DesignateNode(n Node) (Sexp, error) {
	e, ok := a.AccessEnv(n.Env)
	if !ok {
		return Sexp{}, newError(a, &InvalidArgument{
			Given: NodeSexp(n), Expected: "node of a known environment"})
	}
	if n.Local.IsTriple() {
		t, ok := e.NodeAsTriple(n.Local)
		if !ok {
			return Sexp{}, newError(a, &InvalidArgument{
				Given: NodeSexp(n), Expected: "triple issued by its environment"})
		}
		return List(
			NodeSexp(NewNode(n.Env, t.Subject)),
			NodeSexp(NewNode(n.Env, t.Predicate)),
			NodeSexp(NewNode(n.Env, t.Object))), nil
	}
	if s, ok := e.Entry(n.Local); ok {
		return s.Copy(), nil
	}
	return NodeSexp(n), nil
}

// NameNode binds name to target in the current env and records the naming as
// a (target amlang_designator nameNode) triple. Fails if the name already
// resolves.
func (a *Agent) NameNode(target Node, name Symbol) (Node, error) {
	if err := PolicyBase(string(name)); err != nil {
		return Node{}, newError(a, &InvalidArgument{
			Given: SymSexp(name), Expected: "name admissible outside the reserved namespace"})
	}
	if target.Env != a.pos.Env {
		return Node{}, newError(a, &InvalidArgument{
			Given: NodeSexp(target), Expected: "node local to the current environment"})
	}
	if _, err := a.Resolve(name); err == nil {
		return Node{}, newError(a, &AlreadyBoundSymbol{Name: name})
	}
	e := a.Env()
	nameNode := e.InsertStructure(SymSexp(name))
	e.InsertTriple(target.Local, NodeDesignation, nameNode)
	e.InsertDesignation(target.Local, name, NodeDesignation)
	return target, nil
}

// Define inserts a node into the current env: atomic when structure is nil.
func (a *Agent) Define(structure *Sexp) Node {
	return a.DefineTo(a.pos.Env, structure)
}

// DefineTo inserts a node into the given env.
func (a *Agent) DefineTo(env LocalNode, structure *Sexp) Node {
	e, ok := a.AccessEnv(env)
	if !ok {
		panic("define into unknown environment")
	}
	if structure == nil {
		return NewNode(env, e.InsertAtom())
	}
	return NewNode(env, e.InsertStructure(*structure))
}

// SetStructure replaces a node's structure. Triples and the env self node
// are not assignable; tell_handler and the other reserved atoms are.
func (a *Agent) SetStructure(n Node, s Sexp) error {
	if n.Local.IsTriple() || n.Local == NodeSelfEnv {
		return newError(a, &InvalidArgument{
			Given: NodeSexp(n), Expected: "assignable node"})
	}
	e, ok := a.AccessEnv(n.Env)
	if !ok || uint64(n.Local) >= e.NodeCount() {
		return newError(a, &InvalidArgument{
			Given: NodeSexp(n), Expected: "node of a known environment"})
	}
	e.SetEntry(n.Local, s)
	return nil
}

// ClearStructure removes the node's structure, making it atomic again. The
// same nodes that resist SetStructure resist clearing.
func (a *Agent) ClearStructure(n Node) error {
	if n.Local.IsTriple() || n.Local == NodeSelfEnv {
		return newError(a, &InvalidArgument{
			Given: NodeSexp(n), Expected: "assignable node"})
	}
	e, ok := a.AccessEnv(n.Env)
	if !ok || uint64(n.Local) >= e.NodeCount() {
		return newError(a, &InvalidArgument{
			Given: NodeSexp(n), Expected: "node of a known environment"})
	}
	e.ClearEntry(n.Local)
	return nil
}

// Tell and ask.

// Tell asserts (s, p, o) in the current env.
func (a *Agent) Tell(s, p, o Node) (Node, error) {
	return a.TellTo(a.pos.Env, s, p, o)
}

// TellTo asserts (s, p, o) in the given env. Duplicates are rejected; when
// the env's tell_handler node holds a structure, that procedure vets the
// triple and a false verdict rejects it.
func (a *Agent) TellTo(env LocalNode, s, p, o Node) (Node, error) {
	e, ok := a.AccessEnv(env)
	if !ok {
		return Node{}, newError(a, &InvalidArgument{
			Given: USizeSexp(uint64(env)), Expected: "known environment"})
	}
	sl, err := a.localTo(env, s)
	if err != nil {
		return Node{}, err
	}
	pl, err := a.localTo(env, p)
	if err != nil {
		return Node{}, err
	}
	ol, err := a.localTo(env, o)
	if err != nil {
		return Node{}, err
	}

	reified := List(NodeSexp(s), NodeSexp(p), NodeSexp(o))
	if _, exists := e.MatchTriple(sl, pl, ol); exists {
		return Node{}, newError(a, &DuplicateTriple{Triple: reified})
	}

	if handler, ok := e.Entry(NodeTellHandler); ok {
		verdict, err := applyMeaning(a, handler,
			[]Sexp{NodeSexp(s), NodeSexp(p), NodeSexp(o)})
		if err != nil {
			return Node{}, err
		}
		if vn, ok := verdict.AsNode(); ok && vn == a.falseNode() {
			return Node{}, newError(a, &RejectedTriple{Triple: reified, Result: verdict})
		}
	}

	id := e.InsertTriple(sl, pl, ol)
	return NewNode(env, id), nil
}

// localTo checks that n belongs to env and returns its local id.
func (a *Agent) localTo(env LocalNode, n Node) (LocalNode, error) {
	if n.Env != env {
		return 0, newError(a, &InvalidArgument{
			Given: NodeSexp(n), Expected: "node local to the target environment"})
	}
	return n.Local, nil
}

// IsPlaceholder reports whether n is the `_` wildcard.
func (a *Agent) IsPlaceholder(n Node) bool {
	return n == NewNode(a.ctx.LangEnv, a.ctx.Placeholder)
}

// Ask queries the current env. Placeholder nodes match anything.
func (a *Agent) Ask(s, p, o Node) ([]Node, error) {
	return a.AskFrom(a.pos.Env, s, p, o)
}

// AskFrom queries the given env, dispatching on which of (s, p, o) are
// wildcards.
func (a *Agent) AskFrom(env LocalNode, s, p, o Node) ([]Node, error) {
	e, ok := a.AccessEnv(env)
	if !ok {
		return nil, newError(a, &InvalidArgument{
			Given: USizeSexp(uint64(env)), Expected: "known environment"})
	}

	local := func(n Node) (LocalNode, bool, error) {
		if a.IsPlaceholder(n) {
			return 0, false, nil
		}
		l, err := a.localTo(env, n)
		return l, true, err
	}
	sl, sc, err := local(s)
	if err != nil {
		return nil, err
	}
	pl, pc, err := local(p)
	if err != nil {
		return nil, err
	}
	ol, oc, err := local(o)
	if err != nil {
		return nil, err
	}

	var set TripleSet
	switch {
	case !sc && !pc && !oc:
		set = e.MatchAll()
	case sc && !pc && !oc:
		set = e.MatchSubject(sl)
	case !sc && pc && !oc:
		set = e.MatchPredicate(pl)
	case !sc && !pc && oc:
		set = e.MatchObject(ol)
	case !sc && pc && oc:
		set = e.MatchButSubject(pl, ol)
	case sc && !pc && oc:
		set = e.MatchButPredicate(sl, ol)
	case sc && pc && !oc:
		set = e.MatchButObject(sl, pl)
	default:
		if id, found := e.MatchTriple(sl, pl, ol); found {
			set = TripleSet{id}
		}
	}

	out := make([]Node, 0, len(set))
	for _, id := range set {
		out = append(out, NewNode(env, id))
	}
	return out, nil
}

// AskAny reports whether any triple matches.
func (a *Agent) AskAny(s, p, o Node) (bool, error) {
	matches, err := a.Ask(s, p, o)
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

// Import.

// Import makes original available in the current env, reusing a previous
// import when one exists.
func (a *Agent) Import(original Node) (Node, error) {
	return a.ImportTo(a.pos.Env, original)
}

// ImportTo makes original available in env. Import bookkeeping lives in the
// meta-env: an (env __imports origEnv) triple carries an (triple
// __import_table tableNode) triple whose node holds the local mapping.
func (a *Agent) ImportTo(env LocalNode, original Node) (Node, error) {
	if original.Env == env {
		return original, nil
	}
	e, ok := a.AccessEnv(env)
	if !ok {
		return Node{}, newError(a, &InvalidArgument{
			Given: USizeSexp(uint64(env)), Expected: "known environment"})
	}
	table, err := a.getOrCreateImportTable(env, original.Env)
	if err != nil {
		return Node{}, err
	}
	if imported, ok := table.Lookup(original.Local); ok {
		return NewNode(env, imported), nil
	}
	imported := e.InsertStructure(NodeSexp(original))
	table.Insert(original.Local, imported)
	return NewNode(env, imported), nil
}

// GetImported looks up a previous import of original into env without
// creating one.
func (a *Agent) GetImported(env LocalNode, original Node) (Node, bool) {
	if original.Env == env {
		return original, true
	}
	table, ok := a.findImportTable(env, original.Env)
	if !ok {
		return Node{}, false
	}
	imported, ok := table.Lookup(original.Local)
	if !ok {
		return Node{}, false
	}
	return NewNode(env, imported), true
}

func (a *Agent) findImportTable(from, to LocalNode) (*LocalNodeTable, bool) {
	meta := a.meta.Base()
	importTriple, ok := meta.MatchTriple(from, a.ctxMeta.Imports, to)
	if !ok {
		return nil, false
	}
	id, ok := meta.MatchButObject(importTriple, a.ctxMeta.ImportTable).First()
	if !ok {
		return nil, false
	}
	entry, ok := meta.Entry(meta.TripleObject(id))
	if !ok {
		return nil, false
	}
	return entry.AsLocalNodeTable()
}

func (a *Agent) getOrCreateImportTable(from, to LocalNode) (*LocalNodeTable, error) {
	if table, ok := a.findImportTable(from, to); ok {
		return table, nil
	}
	meta := a.meta.Base()
	importTriple, ok := meta.MatchTriple(from, a.ctxMeta.Imports, to)
	if !ok {
		importTriple = meta.InsertTriple(from, a.ctxMeta.Imports, to)
	}
	table := NewLocalNodeTable()
	tableNode := meta.InsertStructure(LocalNodeTableSexp(table))
	meta.InsertTriple(importTriple, a.ctxMeta.ImportTable, tableNode)
	return table, nil
}

// FindEnv returns the meta node of the env whose serialize path ends with
// suffix.
func (a *Agent) FindEnv(suffix string) (LocalNode, bool) {
	meta := a.meta.Base()
	for _, id := range meta.MatchPredicate(a.ctxMeta.SerializePath) {
		entry, ok := meta.Entry(meta.TripleObject(id))
		if !ok {
			continue
		}
		path, ok := entry.AsPath()
		if !ok {
			continue
		}
		if strings.HasSuffix(path, suffix) {
			return meta.TripleSubject(id), true
		}
	}
	return 0, false
}

// Booleans.

func (a *Agent) trueNode() Node  { return NewNode(a.ctx.LangEnv, a.ctx.True) }
func (a *Agent) falseNode() Node { return NewNode(a.ctx.LangEnv, a.ctx.False) }

// BoolNode maps a verdict to the lang true/false node.
func (a *Agent) BoolNode(v bool) Node {
	if v {
		return a.trueNode()
	}
	return a.falseNode()
}

// Printing.

// LookupDesignation finds a printable name for n: its env's designations
// first, then the chain contexts.
func (a *Agent) LookupDesignation(n Node) (Symbol, bool) {
	if e, ok := a.AccessEnv(n.Env); ok {
		if sym, ok := e.FindDesignation(n.Local, NodeDesignation); ok {
			return sym, true
		}
	}
	for _, c := range a.chain {
		if c.Env != n.Env {
			continue
		}
		e, ok := a.AccessEnv(c.Env)
		if !ok {
			continue
		}
		if sym, ok := e.FindDesignation(n.Local, c.Local); ok {
			return sym, true
		}
	}
	return "", false
}

// SexpString renders s with designated nodes printed by name; undesignated
// nodes fall back to sigils, local when in the current env.
func (a *Agent) SexpString(s Sexp) string {
	var b strings.Builder
	var prim primWriter
	prim = func(b *strings.Builder, s Sexp) {
		if n, ok := s.AsNode(); ok {
			if sym, found := a.LookupDesignation(n); found {
				b.WriteString(string(sym))
				return
			}
			if n.Env == 0 && !n.Local.IsTriple() {
				if _, isEnv := a.meta.Env(n.Local); isEnv {
					fmt.Fprintf(b, "[Env %d]", uint64(n.Local))
					return
				}
			}
			if n.Env == a.pos.Env {
				b.WriteString(localSigil(n.Local))
				return
			}
			b.WriteString(globalSigil(n))
			return
		}
		if p, ok := s.AsProcedure(); ok {
			writeSexp(b, p.Reify(func(n Node) Sexp { return NodeSexp(n) }), prim)
			return
		}
		writePrimitivePlain(b, s)
	}
	writeSexp(&b, s, prim)
	return b.String()
}
