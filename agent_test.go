package amlang

import (
	"errors"
	"testing"
)

func TestResolveOrder(t *testing.T) {
	a := newTestManager(t).Agent()

	// Prelude names bind to the current env's reserved nodes.
	n, err := a.Resolve("tell_handler")
	if err != nil {
		t.Fatalf("resolve tell_handler: %v", err)
	}
	if n != a.Globalize(NodeTellHandler) {
		t.Fatalf("tell_handler resolved to %v", n)
	}
	if alias, _ := a.Resolve("self_des"); alias != a.Globalize(NodeDesignation) {
		t.Fatalf("self_des alias resolved to %v", alias)
	}

	// Language names come off the chain.
	lam, err := a.Resolve("lambda")
	if err != nil {
		t.Fatalf("resolve lambda: %v", err)
	}
	if lam.Env != a.Context().LangEnv {
		t.Fatalf("lambda resolved outside the lang env: %v", lam)
	}

	// NameNode refuses names that already resolve, chain bindings included.
	local := a.Define(nil)
	_, err = a.NameNode(local, "lambda")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("renaming lambda: %v", err)
	}
	if _, ok := e.Kind.(*AlreadyBoundSymbol); !ok {
		t.Fatalf("kind %T, want *AlreadyBoundSymbol", e.Kind)
	}

	// A designation in the current env shadows the chain.
	a.Env().InsertDesignation(local.Local, "lambda", NodeDesignation)
	if got, err := a.Resolve("lambda"); err != nil || got != local {
		t.Fatalf("local designation did not shadow the chain: %v %v", got, err)
	}

	if _, err := a.Resolve("no_such_name"); err == nil {
		t.Fatalf("unbound name resolved")
	}
}

func TestNameNodeGuards(t *testing.T) {
	a := newTestManager(t).Agent()
	target := a.Define(nil)

	if _, err := a.NameNode(target, "__hidden"); err == nil {
		t.Fatalf("reserved namespace accepted as a name")
	}
	foreign := NewNode(a.Context().LangEnv, NodeTellHandler)
	if _, err := a.NameNode(foreign, "alias"); err == nil {
		t.Fatalf("naming a foreign node accepted")
	}

	if _, err := a.NameNode(target, "thing"); err != nil {
		t.Fatalf("name node: %v", err)
	}
	// The naming is itself knowledge: a (target designator name) triple.
	set := a.Env().MatchButObject(target.Local, NodeDesignation)
	if set.Len() != 1 {
		t.Fatalf("naming triple missing: %v", set)
	}
	if got, err := a.Resolve("thing"); err != nil || got != target {
		t.Fatalf("resolve thing: %v %v", got, err)
	}
}

func TestDesignateNodeShapes(t *testing.T) {
	a := newTestManager(t).Agent()

	// Structured node designates its structure, copied.
	s := List(Int(1), Int(2))
	n := a.Define(&s)
	got, err := a.DesignateNode(n)
	if err != nil || !Equal(got, s) {
		t.Fatalf("designate structured: %v %v", got, err)
	}

	// Atomic node designates itself.
	atom := a.Define(nil)
	got, err = a.DesignateNode(atom)
	if err != nil || !Equal(got, NodeSexp(atom)) {
		t.Fatalf("designate atomic: %v %v", got, err)
	}

	// Triple node designates its reified (s p o).
	x, y := a.Define(nil), a.Define(nil)
	tr, err := a.Tell(x, y, atom)
	if err != nil {
		t.Fatalf("tell: %v", err)
	}
	got, err = a.DesignateNode(tr)
	if err != nil {
		t.Fatalf("designate triple: %v", err)
	}
	want := List(NodeSexp(x), NodeSexp(y), NodeSexp(atom))
	if !Equal(got, want) {
		t.Fatalf("triple designation %s, want %s", got, want)
	}
}

func TestConcretizePrefersExecStack(t *testing.T) {
	a := newTestManager(t).Agent()
	s := Int(10)
	n := a.Define(&s)

	f := NewExecFrame(n)
	f.Insert(n, Int(99))
	a.PushFrame(f)
	got, err := a.Concretize(n)
	if err != nil || !Equal(got, Int(99)) {
		t.Fatalf("concretize under frame: %v %v", got, err)
	}
	a.PopFrame()

	got, err = a.Concretize(n)
	if err != nil || !Equal(got, Int(10)) {
		t.Fatalf("concretize after pop: %v %v", got, err)
	}
}

func TestTellGuards(t *testing.T) {
	a := newTestManager(t).Agent()
	x, y, z := a.Define(nil), a.Define(nil), a.Define(nil)

	if _, err := a.Tell(x, y, z); err != nil {
		t.Fatalf("tell: %v", err)
	}
	_, err := a.Tell(x, y, z)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("duplicate tell: %v", err)
	}
	if _, ok := e.Kind.(*DuplicateTriple); !ok {
		t.Fatalf("kind %T, want *DuplicateTriple", e.Kind)
	}

	// Constituents must be local to the target env.
	foreign := NewNode(a.Context().LangEnv, a.Context().True)
	if _, err := a.Tell(x, y, foreign); err == nil {
		t.Fatalf("foreign constituent accepted")
	}
}

func TestSetStructureGuards(t *testing.T) {
	a := newTestManager(t).Agent()

	if err := a.SetStructure(a.Globalize(NodeSelfEnv), Int(1)); err == nil {
		t.Fatalf("self node assignable")
	}
	x, y, z := a.Define(nil), a.Define(nil), a.Define(nil)
	tr, _ := a.Tell(x, y, z)
	if err := a.SetStructure(tr, Int(1)); err == nil {
		t.Fatalf("triple assignable")
	}

	// The tell handler slot is assignable; that is how vetting is installed.
	if err := a.SetStructure(a.Globalize(NodeTellHandler), Int(1)); err != nil {
		t.Fatalf("tell_handler not assignable: %v", err)
	}
	if err := a.SetStructure(x, Str("v")); err != nil {
		t.Fatalf("set structure: %v", err)
	}
	got, _ := a.DesignateNode(x)
	if !Equal(got, Str("v")) {
		t.Fatalf("structure did not take: %s", got)
	}

	// Clearing obeys the same guards and restores atomicity.
	if err := a.ClearStructure(a.Globalize(NodeSelfEnv)); err == nil {
		t.Fatalf("self node clearable")
	}
	if err := a.ClearStructure(tr); err == nil {
		t.Fatalf("triple clearable")
	}
	if err := a.ClearStructure(x); err != nil {
		t.Fatalf("clear structure: %v", err)
	}
	got, _ = a.DesignateNode(x)
	if !Equal(got, NodeSexp(x)) {
		t.Fatalf("node not atomic after clear: %s", got)
	}
}

func TestJumpAndGlobalize(t *testing.T) {
	m := newTestManager(t)
	a := m.Agent()

	if a.Pos().Env != m.WorkEnv() {
		t.Fatalf("agent starts at %v, want work env", a.Pos())
	}
	pos := a.JumpEnv(m.LangEnv())
	if pos != NewNode(m.LangEnv(), NodeSelfEnv) || a.Pos() != pos {
		t.Fatalf("jump env: %v", pos)
	}
	if a.Globalize(7) != NewNode(m.LangEnv(), 7) {
		t.Fatalf("globalize tracks the current env")
	}
	// The env self node's structure is its meta handle.
	got, err := a.DesignateNode(pos)
	if err != nil || !Equal(got, NodeSexp(NewNode(0, m.LangEnv()))) {
		t.Fatalf("self designation: %v %v", got, err)
	}
}

func TestFindEnvBySuffix(t *testing.T) {
	m := newTestManager(t)
	a := m.Agent()

	env, ok := a.FindEnv(DefaultLangFile)
	if !ok || env != m.LangEnv() {
		t.Fatalf("FindEnv lang: %v %v", env, ok)
	}
	env, ok = a.FindEnv(DefaultWorkFile)
	if !ok || env != m.WorkEnv() {
		t.Fatalf("FindEnv work: %v %v", env, ok)
	}
	if _, ok := a.FindEnv("no-such.env"); ok {
		t.Fatalf("FindEnv matched a missing suffix")
	}
}

func TestGetImported(t *testing.T) {
	m := newTestManager(t)
	a := m.Agent()
	original := NewNode(m.LangEnv(), a.Context().Quote)

	if _, ok := a.GetImported(m.WorkEnv(), original); ok {
		t.Fatalf("import reported before any import happened")
	}
	imported, err := a.Import(original)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	got, ok := a.GetImported(m.WorkEnv(), original)
	if !ok || got != imported {
		t.Fatalf("GetImported: %v %v", got, ok)
	}
	// The imported node's structure points back at the original.
	s, err := a.DesignateNode(imported)
	if err != nil || !Equal(s, NodeSexp(original)) {
		t.Fatalf("imported structure: %v %v", s, err)
	}
	// Importing a node already local is the identity.
	if same, err := a.ImportTo(original.Env, original); err != nil || same != original {
		t.Fatalf("local import: %v %v", same, err)
	}
}

func TestAgentSexpString(t *testing.T) {
	a := newTestManager(t).Agent()

	// Designated nodes print by name; the lang env designates lambda.
	lam, _ := a.Resolve("lambda")
	if got := a.SexpString(NodeSexp(lam)); got != "lambda" {
		t.Fatalf("designated node printed as %s", got)
	}

	// Undesignated nodes of the current env print as local sigils.
	atom := a.Define(nil)
	want := localSigil(atom.Local)
	if got := a.SexpString(NodeSexp(atom)); got != want {
		t.Fatalf("local node printed as %s, want %s", got, want)
	}

	// Foreign undesignated nodes carry the env prefix.
	foreign := NewNode(0, 4)
	if got := a.SexpString(NodeSexp(foreign)); got != globalSigil(foreign) {
		t.Fatalf("foreign node printed as %s", got)
	}
}
