// procedure.go: the procedure model produced by syntactic lowering. A
// Procedure is pure data; every constituent is a Node, so procedures persist
// in environments like any other structure.
package amlang

// ProcKind discriminates the closed set of procedure forms.
type ProcKind uint8

const (
	// ProcApplication applies a meaning node to argument nodes.
	ProcApplication ProcKind = iota
	// ProcAbstraction is a lambda or, when Reflect is set, a fexpr.
	ProcAbstraction
	// ProcSequence evaluates body nodes in order, yielding the last.
	ProcSequence
	// ProcBranch picks one of two nodes by a predicate node.
	ProcBranch
)

type Procedure struct {
	Kind ProcKind

	// Application.
	Func Node
	Args []Node

	// Abstraction. Reflect marks a fexpr: arguments reach the body
	// unevaluated.
	Params  []Node
	Body    Node
	Reflect bool

	// Sequence.
	Seq []Node

	// Branch.
	Cond, Then, Else Node
}

func NewApplication(f Node, args []Node) *Procedure {
	return &Procedure{Kind: ProcApplication, Func: f, Args: args}
}

func NewAbstraction(params []Node, body Node, reflect bool) *Procedure {
	return &Procedure{Kind: ProcAbstraction, Params: params, Body: body, Reflect: reflect}
}

func NewSequence(seq []Node) *Procedure {
	return &Procedure{Kind: ProcSequence, Seq: seq}
}

func NewBranch(cond, then, els Node) *Procedure {
	return &Procedure{Kind: ProcBranch, Cond: cond, Then: then, Else: els}
}

func nodesEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (p *Procedure) equal(o *Procedure) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case ProcApplication:
		return p.Func == o.Func && nodesEqual(p.Args, o.Args)
	case ProcAbstraction:
		return p.Reflect == o.Reflect && p.Body == o.Body && nodesEqual(p.Params, o.Params)
	case ProcSequence:
		return nodesEqual(p.Seq, o.Seq)
	case ProcBranch:
		return p.Cond == o.Cond && p.Then == o.Then && p.Else == o.Else
	}
	return false
}

func (p *Procedure) copy() *Procedure {
	out := *p
	out.Args = append([]Node(nil), p.Args...)
	out.Params = append([]Node(nil), p.Params...)
	out.Seq = append([]Node(nil), p.Seq...)
	return &out
}

// Reify renders the procedure as surface syntax, rendering each constituent
// node through render (typically designation-aware). Abstractions print as
// (lambda (params...) body) or (fexpr ...), sequences as (progn ...),
// branches as (if cond then else), applications as (apply func (args...)).
func (p *Procedure) Reify(render func(Node) Sexp) Sexp {
	renderAll := func(nodes []Node) Sexp {
		out := Nil()
		for i := len(nodes) - 1; i >= 0; i-- {
			out = Cons2(render(nodes[i]), out)
		}
		return out
	}
	switch p.Kind {
	case ProcApplication:
		return List(Sym("apply"), render(p.Func), renderAll(p.Args))
	case ProcAbstraction:
		head := Sym("lambda")
		if p.Reflect {
			head = Sym("fexpr")
		}
		return List(head, renderAll(p.Params), render(p.Body))
	case ProcSequence:
		return Cons2(Sym("progn"), renderAll(p.Seq))
	case ProcBranch:
		return List(Sym("if"), render(p.Cond), render(p.Then), render(p.Else))
	}
	return Nil()
}
