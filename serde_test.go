package amlang

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// envView is a comparable rendering of an environment's full contents.
type envView struct {
	Nodes        []string
	Triples      [][3]string
	Designations map[string]uint64
}

func viewOf(e *Environment, envNode LocalNode) envView {
	v := envView{Designations: make(map[string]uint64)}
	for _, id := range e.AllNodes() {
		if s, ok := e.Entry(id); ok {
			v.Nodes = append(v.Nodes, serializeStructure(e, envNode, s))
		} else {
			v.Nodes = append(v.Nodes, "")
		}
	}
	for _, id := range e.MatchAll() {
		tr, _ := e.NodeAsTriple(id)
		v.Triples = append(v.Triples, [3]string{
			localSigil(tr.Subject), localSigil(tr.Predicate), localSigil(tr.Object)})
	}
	for _, pair := range e.DesignationPairs(NodeDesignation) {
		v.Designations[string(pair.Sym)] = uint64(pair.Node)
	}
	return v
}

func serializeToString(t *testing.T, e *Environment, envNode LocalNode) string {
	t.Helper()
	var b strings.Builder
	if err := SerializeEnv(&b, e, envNode, nil); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return b.String()
}

func roundTrip(t *testing.T, e *Environment, envNode LocalNode) *Environment {
	t.Helper()
	src := serializeToString(t, e, envNode)
	fresh := NewEnvironment()
	seedPrelude(fresh, envNode)
	if _, err := DeserializeEnv(src, fresh, envNode); err != nil {
		t.Fatalf("deserialize: %v\nfile:\n%s", err, src)
	}
	return fresh
}

func TestRoundTripEveryStructureKind(t *testing.T) {
	const envNode = 3
	e := NewEnvironment()
	seedPrelude(e, envNode)

	num := e.InsertStructure(Int(42))
	e.InsertStructure(Sym("stored-symbol"))
	e.InsertStructure(Str("a \"quoted\"\nstring"))
	e.InsertStructure(PathSexp("/data/work.env"))
	e.InsertStructure(List(Int(1), NodeSexp(NewNode(envNode, num)), Sym("x")))
	e.InsertStructure(Cons2(Sym("a"), Sym("b")))
	e.InsertStructure(VectorSexp([]Sexp{Int(1), Str("s")}))
	e.InsertStructure(NodeSexp(NewNode(envNode, num)))
	e.InsertStructure(NodeSexp(NewNode(1, 4)))

	car, _ := LookupBuiltIn("car")
	e.InsertStructure(BuiltInSexp(car))

	snt := NewSymNodeTable()
	snt.Insert("n", NewNode(envNode, num))
	snt.Insert("far", NewNode(1, 2))
	e.InsertStructure(SymNodeSexp(snt))

	lnt := NewLocalNodeTable()
	lnt.Insert(num, NodeTellHandler)
	e.InsertStructure(LocalNodeTableSexp(lnt))

	sst := NewSymSexpTable()
	sst.Insert("k", List(Int(7)))
	sst.Insert("ref", NodeSexp(NewNode(envNode, num)))
	e.InsertStructure(SymSexpTableSexp(sst))

	param := e.InsertAtom()
	body := e.InsertStructure(Int(0))
	e.InsertStructure(ProcSexp(NewAbstraction(
		[]Node{NewNode(envNode, param)}, NewNode(envNode, body), false)))
	e.InsertStructure(ProcSexp(NewApplication(
		NewNode(envNode, body), []Node{NewNode(envNode, param)})))
	e.InsertStructure(ProcSexp(NewSequence(
		[]Node{NewNode(envNode, body), NewNode(envNode, param)})))
	e.InsertStructure(ProcSexp(NewBranch(
		NewNode(envNode, body), NewNode(envNode, param), NewNode(envNode, body))))

	e.InsertTriple(num, NodeDesignation, param)
	tr := e.InsertTriple(param, num, body)
	e.InsertTriple(tr, num, param)

	e.InsertDesignation(num, "answer", NodeDesignation)

	got := roundTrip(t, e, envNode)
	if diff := cmp.Diff(viewOf(e, envNode), viewOf(got, envNode)); diff != "" {
		t.Fatalf("round trip drift (-want +got):\n%s", diff)
	}
}

func TestRoundTripDesignatedReferences(t *testing.T) {
	const envNode = 2
	e := NewEnvironment()
	seedPrelude(e, envNode)

	named := e.InsertStructure(Int(1))
	e.InsertDesignation(named, "one", NodeDesignation)
	ref := e.InsertStructure(NodeSexp(NewNode(envNode, named)))

	src := serializeToString(t, e, envNode)
	if !strings.Contains(src, "("+localSigil(ref)+" one)") {
		t.Fatalf("designated reference not written by name:\n%s", src)
	}

	got := roundTrip(t, e, envNode)
	s, ok := got.Entry(ref)
	if !ok || !Equal(s, NodeSexp(NewNode(envNode, named))) {
		t.Fatalf("reference did not resolve by name: %v %v", s, ok)
	}
}

func TestRoundTripHeaderExtra(t *testing.T) {
	const envNode = 4
	e := NewEnvironment()
	seedPrelude(e, envNode)

	var b strings.Builder
	extra := []Sexp{List(Sym("generator"), Str("test"))}
	if err := SerializeEnv(&b, e, envNode, extra); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	fresh := NewEnvironment()
	seedPrelude(fresh, envNode)
	header, err := DeserializeEnv(b.String(), fresh, envNode)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if len(header.Extra) != 1 || !Equal(header.Extra[0], extra[0]) {
		t.Fatalf("header extra lost: %v", header.Extra)
	}
	if header.Version != FormatVersion {
		t.Fatalf("header version %q", header.Version)
	}
}

func TestDeserializeErrors(t *testing.T) {
	const envNode = 5
	e := NewEnvironment()
	seedPrelude(e, envNode)
	baseline := serializeToString(t, e, envNode)

	reason := func(src string) DeserializeReason {
		t.Helper()
		fresh := NewEnvironment()
		seedPrelude(fresh, envNode)
		_, err := DeserializeEnv(src, fresh, envNode)
		if err == nil {
			t.Fatalf("no error for:\n%s", src)
		}
		var wrapped *Error
		if !errors.As(err, &wrapped) {
			t.Fatalf("error %v is not an *Error", err)
		}
		de, ok := wrapped.Kind.(*DeserializeError)
		if !ok {
			t.Fatalf("kind %T, want *DeserializeError", wrapped.Kind)
		}
		return de.Reason
	}

	if r := reason(strings.Replace(baseline, FormatVersion, "9.0.0", 1)); r != DeserializeVersionMismatch {
		t.Errorf("version mismatch: %v", r)
	}
	if r := reason(baseline + "\n(bogus-section)\n"); r != DeserializeUnexpectedCommand {
		t.Errorf("unknown section: %v", r)
	}
	if r := reason(strings.Replace(baseline, "(node-count 10)", "(node-count 11)", 1)); r != DeserializeTypeMismatch {
		t.Errorf("node-count mismatch: %v", r)
	}
	if r := reason(strings.Replace(baseline, "(triples\n)", "", 1)); r != DeserializeMissingTripleSection {
		t.Errorf("missing triples: %v", r)
	}
	if r := reason(strings.Replace(baseline, "\t^4", "\t^6", 1)); r != DeserializeInvalidNodeEntry {
		t.Errorf("non-dense node ids: %v", r)
	}
}
