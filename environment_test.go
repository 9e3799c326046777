package amlang

import "testing"

func TestNodeIDDensity(t *testing.T) {
	e := NewEnvironment()
	const n = 100
	for i := 0; i < n; i++ {
		if got := e.InsertAtom(); got != LocalNode(i) {
			t.Fatalf("node %d issued id %d", i, got)
		}
	}
	if e.NodeCount() != n {
		t.Fatalf("node count %d, want %d", e.NodeCount(), n)
	}
	ids := e.AllNodes()
	for i, id := range ids {
		if id != LocalNode(i) {
			t.Fatalf("AllNodes[%d] = %d", i, id)
		}
	}
}

func TestTripleIDDiscriminator(t *testing.T) {
	e := NewEnvironment()
	a, b, c := e.InsertAtom(), e.InsertAtom(), e.InsertAtom()
	id := e.InsertTriple(a, b, c)

	if !id.IsTriple() {
		t.Fatalf("triple id %d lacks the discriminator bit", id)
	}
	for _, n := range []LocalNode{a, b, c} {
		if n.IsTriple() {
			t.Fatalf("node id %d carries the discriminator bit", n)
		}
	}
	if idx := e.TripleIndex(id); idx != 0 {
		t.Fatalf("triple index %d, want 0", idx)
	}
	back, ok := e.TripleFromIndex(0)
	if !ok || back != id {
		t.Fatalf("TripleFromIndex(0) = %d, want %d", back, id)
	}
	if _, ok := e.TripleFromIndex(1); ok {
		t.Fatalf("TripleFromIndex(1) should fail")
	}
}

func TestEdgeConsistency(t *testing.T) {
	e := NewEnvironment()
	var nodes []LocalNode
	for i := 0; i < 4; i++ {
		nodes = append(nodes, e.InsertAtom())
	}
	e.InsertTriple(nodes[0], nodes[1], nodes[2])
	e.InsertTriple(nodes[0], nodes[1], nodes[3])
	e.InsertTriple(nodes[2], nodes[1], nodes[0])

	for _, id := range e.MatchAll() {
		tr, ok := e.NodeAsTriple(id)
		if !ok {
			t.Fatalf("MatchAll yielded non-triple %d", id)
		}
		found := e.MatchSubject(tr.Subject).
			intersect(e.MatchPredicate(tr.Predicate)).
			intersect(e.MatchObject(tr.Object))
		if len(found) != 1 || found[0] != id {
			t.Fatalf("edge sets disagree for triple %d", id)
		}
	}
}

func TestMetaTriple(t *testing.T) {
	e := NewEnvironment()
	a, b, c := e.InsertAtom(), e.InsertAtom(), e.InsertAtom()
	first := e.InsertTriple(a, b, c)
	// A triple about a triple.
	meta := e.InsertTriple(first, b, a)

	set := e.MatchSubject(first)
	if len(set) != 1 || set[0] != meta {
		t.Fatalf("triple-as-subject edges broken: %v", set)
	}
}

func TestMatchDispatch(t *testing.T) {
	e := NewEnvironment()
	a, b, c, d := e.InsertAtom(), e.InsertAtom(), e.InsertAtom(), e.InsertAtom()
	t1 := e.InsertTriple(a, b, c)
	t2 := e.InsertTriple(a, b, d)

	if got := e.MatchButObject(a, b); len(got) != 2 {
		t.Fatalf("MatchButObject: %v", got)
	}
	if got := e.MatchButSubject(b, d); len(got) != 1 || got[0] != t2 {
		t.Fatalf("MatchButSubject: %v", got)
	}
	if got := e.MatchButPredicate(a, c); len(got) != 1 || got[0] != t1 {
		t.Fatalf("MatchButPredicate: %v", got)
	}
	if id, ok := e.MatchTriple(a, b, c); !ok || id != t1 {
		t.Fatalf("MatchTriple: %v %v", id, ok)
	}
	if _, ok := e.MatchTriple(d, b, a); ok {
		t.Fatalf("MatchTriple matched a missing triple")
	}
}

func TestDesignatorBijectivity(t *testing.T) {
	e := NewEnvironment()
	n1, n2 := e.InsertAtom(), e.InsertAtom()
	e.InsertDesignation(n1, "alpha", NodeDesignation)

	if got, ok := e.MatchDesignation("alpha", NodeDesignation); !ok || got != n1 {
		t.Fatalf("MatchDesignation: %v %v", got, ok)
	}
	if got, ok := e.FindDesignation(n1, NodeDesignation); !ok || got != "alpha" {
		t.Fatalf("FindDesignation: %v %v", got, ok)
	}

	// Rebinding the symbol displaces the old node pairing.
	e.InsertDesignation(n2, "alpha", NodeDesignation)
	if _, ok := e.FindDesignation(n1, NodeDesignation); ok {
		t.Fatalf("stale reverse mapping survived rebinding")
	}
	if got, _ := e.MatchDesignation("alpha", NodeDesignation); got != n2 {
		t.Fatalf("rebinding did not take: %v", got)
	}

	pairs := e.DesignationPairs(NodeDesignation)
	if len(pairs) != 1 || pairs[0].Sym != "alpha" || pairs[0].Node != n2 {
		t.Fatalf("DesignationPairs: %v", pairs)
	}
}

func TestEntryLifecycle(t *testing.T) {
	e := NewEnvironment()
	n := e.InsertStructure(Int(7))
	if s, ok := e.Entry(n); !ok || !Equal(s, Int(7)) {
		t.Fatalf("Entry: %v %v", s, ok)
	}
	e.SetEntry(n, Str("x"))
	if s, _ := e.Entry(n); !Equal(s, Str("x")) {
		t.Fatalf("SetEntry did not take: %v", s)
	}
	e.ClearEntry(n)
	if _, ok := e.Entry(n); ok {
		t.Fatalf("ClearEntry left a structure")
	}

	atom := e.InsertAtom()
	if _, ok := e.Entry(atom); ok {
		t.Fatalf("atoms have no structure")
	}
}

func TestPreludeSeeding(t *testing.T) {
	e := NewEnvironment()
	seedPrelude(e, 5)
	if e.NodeCount() != preludeReserved {
		t.Fatalf("prelude count %d", e.NodeCount())
	}
	s, ok := e.Entry(NodeSelfEnv)
	if !ok {
		t.Fatalf("self node lacks its handle")
	}
	n, _ := s.AsNode()
	if n != NewNode(0, 5) {
		t.Fatalf("self handle %v", n)
	}
	if _, ok := e.Entry(NodeTellHandler); ok {
		t.Fatalf("tell_handler should start atomic")
	}
}
