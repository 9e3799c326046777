// interp.go: syntactic lowering (internalize) and execution (exec/apply).
//
// What this file does
// -------------------
// Internalize lowers surface structure into meanings: nodes, self-evaluating
// primitives, and Procedure IR whose constituents are nodes. Contemplate
// anchors a meaning at a node in the history env and executes it. Execution
// substitutes through the agent's exec stack: applying an abstraction binds
// argument values to param nodes in the current frame, so concretize sees
// them while the body runs.
//
// Special forms split in two: quote/lambda/fexpr/let/letrec/if/progn are
// consumed during lowering; tell/ask/def/node/set!/curr/jump/import/env-find/
// apply/eval/exec are lang nodes dispatched at execution time.
package amlang

import (
	"fmt"
)

type Interpreter struct {
	agent *Agent
	// evalState maps in-flight param/def symbols to their nodes during
	// lowering, newest frame last.
	evalState []*SymNodeTable
}

func NewInterpreter(a *Agent) *Interpreter {
	return &Interpreter{agent: a}
}

func (itp *Interpreter) Agent() *Agent { return itp.agent }

// Interpret lowers and executes one top-level structure.
func (itp *Interpreter) Interpret(s Sexp) (Sexp, error) {
	meaning, err := itp.Internalize(s)
	if err != nil {
		return Sexp{}, err
	}
	return itp.contemplate(meaning)
}

// contemplate anchors meaning at a node and executes it. Meanings that are
// already nodes execute directly; others are recorded in the history env.
func (itp *Interpreter) contemplate(meaning Sexp) (Sexp, error) {
	var node Node
	if n, ok := meaning.AsNode(); ok {
		node = n
	} else {
		node = itp.agent.DefineTo(itp.agent.HistoryEnv(), &meaning)
	}
	return itp.exec(node)
}

// subInterpret runs a fresh interpreter over structure, optionally seeded
// with a lowering frame.
func (itp *Interpreter) subInterpret(structure Sexp, frame *SymNodeTable) (Sexp, error) {
	sub := NewInterpreter(itp.agent)
	if frame != nil {
		sub.evalState = append(sub.evalState, frame)
	}
	return sub.Interpret(structure)
}

// applyMeaning applies an already-designated procedure meaning to evaluated
// arguments. The tell handler protocol runs through here.
func applyMeaning(a *Agent, meaning Sexp, args []Sexp) (Sexp, error) {
	itp := NewInterpreter(a)
	procNode, err := itp.nodeOrInsert(meaning)
	if err != nil {
		return Sexp{}, err
	}
	argNodes := make([]Node, len(args))
	for i, arg := range args {
		n, err := itp.nodeOrInsert(arg)
		if err != nil {
			return Sexp{}, err
		}
		argNodes[i] = n
	}
	a.PushFrame(NewExecFrame(procNode))
	res, err := itp.apply(procNode, argNodes)
	a.PopFrame()
	return res, err
}

// Lowering.

// Internalize maps surface structure to meaning without executing it.
func (itp *Interpreter) Internalize(s Sexp) (Sexp, error) {
	a := itp.agent
	if s.Tag != TagCons {
		if sym, ok := s.AsSymbol(); ok {
			for i := len(itp.evalState) - 1; i >= 0; i-- {
				if n, found := itp.evalState[i].Lookup(sym); found {
					return NodeSexp(n), nil
				}
			}
		}
		return a.Designate(s)
	}
	if s.IsNil() {
		return Sexp{}, newError(a, &InvalidSexp{Val: s})
	}

	c, _ := s.AsCons()
	if c.Car == nil {
		return Sexp{}, newError(a, &InvalidSexp{Val: s})
	}
	head, err := itp.Internalize(*c.Car)
	if err != nil {
		return Sexp{}, err
	}
	var headNode Node
	switch head.Tag {
	case TagNode, TagProcedure:
		headNode, err = itp.nodeOrInsert(head)
		if err != nil {
			return Sexp{}, err
		}
	default:
		return Sexp{}, newError(a, &InvalidArgument{
			Given: s, Expected: "special form or Procedure application"})
	}

	cdr := Nil()
	if c.Cdr != nil {
		cdr = *c.Cdr
	}
	ctx := a.Context()
	langNode := func(local LocalNode) Node { return NewNode(ctx.LangEnv, local) }

	switch headNode {
	case langNode(ctx.Quote):
		elems, err := itp.properArgs(cdr)
		if err != nil {
			return Sexp{}, err
		}
		if len(elems) != 1 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(elems), Expected: Exactly(1)})
		}
		return elems[0], nil

	case langNode(ctx.Lambda), langNode(ctx.Fexpr):
		params, body, err := itp.lambdaParts(cdr)
		if err != nil {
			return Sexp{}, err
		}
		proc, _, err := itp.makeLambda(params, body, headNode == langNode(ctx.Fexpr))
		if err != nil {
			return Sexp{}, err
		}
		return ProcSexp(proc), nil

	case langNode(ctx.Let), langNode(ctx.Letrec):
		params, exprs, body, err := itp.letParts(cdr)
		if err != nil {
			return Sexp{}, err
		}
		proc, frame, err := itp.makeLambda(params, body, false)
		if err != nil {
			return Sexp{}, err
		}
		procNode, err := itp.nodeOrInsert(ProcSexp(proc))
		if err != nil {
			return Sexp{}, err
		}
		var args []Node
		if headNode == langNode(ctx.Letrec) {
			// Recursive bindings see their own names while lowering.
			itp.evalState = append(itp.evalState, frame)
			args, err = itp.evlis(exprs, true)
			itp.evalState = itp.evalState[:len(itp.evalState)-1]
		} else {
			args, err = itp.evlis(exprs, true)
		}
		if err != nil {
			return Sexp{}, err
		}
		return ProcSexp(NewApplication(procNode, args)), nil

	case langNode(ctx.Branch):
		args, err := itp.evlisSexp(cdr, true)
		if err != nil {
			return Sexp{}, err
		}
		if len(args) != 3 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(args), Expected: Exactly(3)})
		}
		return ProcSexp(NewBranch(args[0], args[1], args[2])), nil

	case langNode(ctx.Progn):
		args, err := itp.evlisSexp(cdr, true)
		if err != nil {
			return Sexp{}, err
		}
		return ProcSexp(NewSequence(args)), nil
	}

	// Everything else becomes an Application. Args of def/node and of
	// reflective abstractions are captured raw.
	shouldInternalize := headNode != langNode(ctx.Def) && headNode != langNode(ctx.Node)
	if shouldInternalize {
		des, err := a.DesignateNode(headNode)
		if err == nil {
			if p, ok := des.AsProcedure(); ok && p.Kind == ProcAbstraction && p.Reflect {
				shouldInternalize = false
			}
		}
	}
	args, err := itp.evlisSexp(cdr, shouldInternalize)
	if err != nil {
		return Sexp{}, err
	}
	return ProcSexp(NewApplication(headNode, args)), nil
}

// makeLambda issues param nodes in the impl env, labels them, and lowers the
// body with params in scope. Returns the abstraction and its lowering frame.
func (itp *Interpreter) makeLambda(params []Symbol, body []Sexp, reflect bool) (*Procedure, *SymNodeTable, error) {
	a := itp.agent
	frame := NewSymNodeTable()
	surface := make([]Node, 0, len(params))
	labelPred, err := a.ImportTo(a.ImplEnv(), NewNode(a.Context().LangEnv, a.Context().Label))
	if err != nil {
		return nil, nil, err
	}
	for _, sym := range params {
		if frame.Contains(sym) {
			return nil, nil, newError(a, &InvalidArgument{
				Given: SymSexp(sym), Expected: "unique name within argument list"})
		}
		node := a.DefineTo(a.ImplEnv(), nil)
		frame.Insert(sym, node)
		surface = append(surface, node)
		nameStructure := SymSexp(sym)
		name := a.DefineTo(a.ImplEnv(), &nameStructure)
		if _, err := a.TellTo(a.ImplEnv(), node, labelPred, name); err != nil {
			return nil, nil, err
		}
	}

	itp.evalState = append(itp.evalState, frame)
	bodyNodes, err := func() ([]Node, error) {
		var out []Node
		for _, elem := range body {
			meaning, err := itp.Internalize(elem)
			if err != nil {
				return nil, err
			}
			node, err := itp.nodeOrInsert(meaning)
			if err != nil {
				return nil, err
			}
			out = append(out, node)
		}
		return out, nil
	}()
	itp.evalState = itp.evalState[:len(itp.evalState)-1]
	if err != nil {
		return nil, nil, err
	}

	if len(bodyNodes) == 1 {
		return NewAbstraction(surface, bodyNodes[0], reflect), frame, nil
	}
	seq := ProcSexp(NewSequence(bodyNodes))
	seqNode := a.DefineTo(a.ImplEnv(), &seq)
	return NewAbstraction(surface, seqNode, reflect), frame, nil
}

// nodeOrInsert anchors a meaning at a node, reusing the meaning itself when
// it already is one.
func (itp *Interpreter) nodeOrInsert(meaning Sexp) (Node, error) {
	if n, ok := meaning.AsNode(); ok {
		return n, nil
	}
	return itp.agent.DefineTo(itp.agent.ImplEnv(), &meaning), nil
}

// evlisSexp lowers (or raw-captures) each element of a list into a node.
func (itp *Interpreter) evlisSexp(list Sexp, shouldInternalize bool) ([]Node, error) {
	elems, err := itp.properArgs(list)
	if err != nil {
		return nil, err
	}
	return itp.evlis(elems, shouldInternalize)
}

func (itp *Interpreter) evlis(elems []Sexp, shouldInternalize bool) ([]Node, error) {
	args := make([]Node, 0, len(elems))
	for _, elem := range elems {
		var node Node
		if shouldInternalize {
			meaning, err := itp.Internalize(elem)
			if err != nil {
				return nil, err
			}
			node, err = itp.nodeOrInsert(meaning)
			if err != nil {
				return nil, err
			}
		} else {
			e := elem
			node = itp.agent.DefineTo(itp.agent.ImplEnv(), &e)
		}
		args = append(args, node)
	}
	return args, nil
}

func (itp *Interpreter) properArgs(list Sexp) ([]Sexp, error) {
	elems, tail := list.Elements()
	if tail != nil {
		return nil, newError(itp.agent, &InvalidSexp{Val: *tail})
	}
	return elems, nil
}

func (itp *Interpreter) lambdaParts(cdr Sexp) ([]Symbol, []Sexp, error) {
	elems, err := itp.properArgs(cdr)
	if err != nil {
		return nil, nil, err
	}
	if len(elems) < 2 {
		return nil, nil, newError(itp.agent, &WrongArgumentCount{
			Given: len(elems), Expected: AtLeast(2)})
	}
	params, err := itp.paramList(elems[0])
	if err != nil {
		return nil, nil, err
	}
	return params, elems[1:], nil
}

func (itp *Interpreter) paramList(s Sexp) ([]Symbol, error) {
	elems, err := itp.properArgs(s)
	if err != nil {
		return nil, err
	}
	params := make([]Symbol, 0, len(elems))
	for _, e := range elems {
		sym, ok := e.AsSymbol()
		if !ok {
			return nil, newError(itp.agent, &InvalidArgument{
				Given: e, Expected: "symbol in parameter list"})
		}
		params = append(params, sym)
	}
	return params, nil
}

func (itp *Interpreter) letParts(cdr Sexp) ([]Symbol, []Sexp, []Sexp, error) {
	elems, err := itp.properArgs(cdr)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(elems) < 2 {
		return nil, nil, nil, newError(itp.agent, &WrongArgumentCount{
			Given: len(elems), Expected: AtLeast(2)})
	}
	bindings, err := itp.properArgs(elems[0])
	if err != nil {
		return nil, nil, nil, err
	}
	var params []Symbol
	var exprs []Sexp
	for _, binding := range bindings {
		parts, err := itp.properArgs(binding)
		if err != nil {
			return nil, nil, nil, err
		}
		if len(parts) != 2 {
			return nil, nil, nil, newError(itp.agent, &InvalidArgument{
				Given: binding, Expected: "(name value) binding pair"})
		}
		sym, ok := parts[0].AsSymbol()
		if !ok {
			return nil, nil, nil, newError(itp.agent, &InvalidArgument{
				Given: parts[0], Expected: "symbol in binding pair"})
		}
		params = append(params, sym)
		exprs = append(exprs, parts[1])
	}
	return params, exprs, elems[1:], nil
}

// Execution.

func (itp *Interpreter) exec(meaningNode Node) (Sexp, error) {
	a := itp.agent
	meaning, err := a.Concretize(meaningNode)
	if err != nil {
		return Sexp{}, err
	}
	proc, ok := meaning.AsProcedure()
	if !ok {
		return meaning, nil
	}
	switch proc.Kind {
	case ProcApplication:
		a.PushFrame(NewExecFrame(meaningNode))
		res, err := itp.apply(proc.Func, proc.Args)
		a.PopFrame()
		return res, err

	case ProcBranch:
		cond, err := itp.exec(proc.Cond)
		if err != nil {
			return Sexp{}, err
		}
		if n, ok := cond.AsNode(); ok {
			switch n {
			case a.trueNode():
				return itp.exec(proc.Then)
			case a.falseNode():
				return itp.exec(proc.Else)
			}
		}
		return Sexp{}, newError(a, &InvalidArgument{
			Given: cond, Expected: "true or false Node"})

	case ProcSequence:
		result := Nil()
		for _, elem := range proc.Seq {
			result, err = itp.exec(elem)
			if err != nil {
				return Sexp{}, err
			}
		}
		return result, nil

	default: // Abstractions evaluate to themselves.
		return meaning, nil
	}
}

// execToNode executes a node and, when the result is itself a node, chases
// it; otherwise the original node stands.
func (itp *Interpreter) execToNode(node Node) (Node, error) {
	structure, err := itp.exec(node)
	if err != nil {
		return Node{}, err
	}
	if n, ok := structure.AsNode(); ok {
		return n, nil
	}
	return node, nil
}

func (itp *Interpreter) apply(procNode Node, argNodes []Node) (Sexp, error) {
	a := itp.agent
	meaning, err := a.Concretize(procNode)
	if err != nil {
		return Sexp{}, err
	}
	switch meaning.Tag {
	case TagNode:
		n, _ := meaning.AsNode()
		if n.Env == a.Context().LangEnv {
			return itp.applySpecial(n.Local, argNodes)
		}
		return Sexp{}, newError(a, &InvalidArgument{
			Given: meaning, Expected: "Procedure or special Amlang Node"})

	case TagBuiltIn:
		builtin, _ := meaning.AsBuiltIn()
		args := make([]Sexp, 0, len(argNodes))
		for _, node := range argNodes {
			val, err := itp.exec(node)
			if err != nil {
				return Sexp{}, err
			}
			args = append(args, val)
		}
		return builtin.Call(a, args)

	case TagProcedure:
		proc, _ := meaning.AsProcedure()
		if proc.Kind != ProcAbstraction {
			break
		}
		if len(argNodes) != len(proc.Params) {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: Exactly(len(proc.Params))})
		}
		for i, node := range argNodes {
			val, err := itp.exec(node)
			if err != nil {
				return Sexp{}, err
			}
			if frame := a.TopFrame(); frame != nil {
				frame.Insert(proc.Params[i], val)
			}
		}
		return itp.exec(proc.Body)
	}
	return Sexp{}, newError(a, &InvalidArgument{
		Given: meaning, Expected: "Procedure"})
}

func (itp *Interpreter) applySpecial(special LocalNode, argNodes []Node) (Sexp, error) {
	a := itp.agent
	ctx := a.Context()
	switch special {
	case ctx.Tell, ctx.Ask:
		if len(argNodes) != 3 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: Exactly(3)})
		}
		s, err := itp.execToNode(argNodes[0])
		if err != nil {
			return Sexp{}, err
		}
		p, err := itp.execToNode(argNodes[1])
		if err != nil {
			return Sexp{}, err
		}
		o, err := itp.execToNode(argNodes[2])
		if err != nil {
			return Sexp{}, err
		}
		if special == ctx.Tell {
			triple, err := a.Tell(s, p, o)
			if err != nil {
				return Sexp{}, err
			}
			return NodeSexp(triple), nil
		}
		matches, err := a.Ask(s, p, o)
		if err != nil {
			return Sexp{}, err
		}
		out := Nil()
		for i := len(matches) - 1; i >= 0; i-- {
			out = Cons2(NodeSexp(matches[i]), out)
		}
		return out, nil

	case ctx.Def, ctx.Node:
		return itp.applyDef(special == ctx.Def, argNodes)

	case ctx.Set:
		if len(argNodes) == 0 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: AtLeast(1)})
		}
		if len(argNodes) > 2 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: AtMost(2)})
		}
		node := argNodes[0]
		// Without a value, the node becomes atomic again.
		if len(argNodes) == 1 {
			if err := a.ClearStructure(node); err != nil {
				return Sexp{}, err
			}
			return NodeSexp(node), nil
		}
		raw, err := a.DesignateNode(argNodes[1])
		if err != nil {
			return Sexp{}, err
		}
		final, err := itp.subInterpret(raw, nil)
		if err != nil {
			return Sexp{}, err
		}
		if err := a.SetStructure(node, final); err != nil {
			return Sexp{}, err
		}
		return NodeSexp(node), nil

	case ctx.Curr:
		if len(argNodes) != 0 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: Exactly(0)})
		}
		itp.printCurrTriples()
		return NodeSexp(a.Pos()), nil

	case ctx.Jump:
		if len(argNodes) != 1 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: Exactly(1)})
		}
		dest, err := itp.execToNode(argNodes[0])
		if err != nil {
			return Sexp{}, err
		}
		// A meta node designating an env jumps to that env's self node.
		if dest.Env == 0 && !dest.Local.IsTriple() {
			if _, isEnv := a.Meta().Env(dest.Local); isEnv {
				dest = NewNode(dest.Local, NodeSelfEnv)
			}
		}
		a.Jump(dest)
		itp.printCurrTriples()
		return NodeSexp(a.Pos()), nil

	case ctx.Import:
		if len(argNodes) != 1 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: Exactly(1)})
		}
		original, err := itp.execToNode(argNodes[0])
		if err != nil {
			return Sexp{}, err
		}
		imported, err := a.Import(original)
		if err != nil {
			return Sexp{}, err
		}
		return NodeSexp(imported), nil

	case ctx.EnvFind:
		if len(argNodes) != 1 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: Exactly(1)})
		}
		des, err := a.DesignateNode(argNodes[0])
		if err != nil {
			return Sexp{}, err
		}
		path, ok := des.AsString()
		if !ok {
			return Sexp{}, newError(a, &InvalidArgument{
				Given: des, Expected: "Node containing string"})
		}
		if env, found := a.FindEnv(path); found {
			return NodeSexp(NewNode(0, env)), nil
		}
		return Nil(), nil

	case ctx.Apply:
		if len(argNodes) != 2 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: Exactly(2)})
		}
		procSexp, err := a.DesignateNode(argNodes[0])
		if err != nil {
			return Sexp{}, err
		}
		argsSexp, err := a.DesignateNode(argNodes[1])
		if err != nil {
			return Sexp{}, err
		}
		procNode, err := itp.nodeOrInsert(procSexp)
		if err != nil {
			return Sexp{}, err
		}
		elems, tail := argsSexp.Elements()
		if tail != nil {
			return Sexp{}, newError(a, &InvalidSexp{Val: *tail})
		}
		args := make([]Node, 0, len(elems))
		for _, arg := range elems {
			n, err := itp.nodeOrInsert(arg)
			if err != nil {
				return Sexp{}, err
			}
			args = append(args, n)
		}
		return itp.apply(procNode, args)

	case ctx.Eval, ctx.Exec:
		if len(argNodes) != 1 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: Exactly(1)})
		}
		arg, err := a.DesignateNode(argNodes[0])
		if err != nil {
			return Sexp{}, err
		}
		inner, err := itp.contemplate(arg)
		if err != nil {
			return Sexp{}, err
		}
		if special == ctx.Exec {
			return inner, nil
		}
		return itp.subInterpret(inner, nil)
	}

	return Sexp{}, newError(a, &InvalidArgument{
		Given: NodeSexp(NewNode(ctx.LangEnv, special)),
		Expected: "special Amlang Node"})
}

// applyDef handles both named (def) and anonymous (node) definition. Args
// arrive raw: the name node's structure is the bare symbol and the value
// node's structure is the unlowered expression.
func (itp *Interpreter) applyDef(named bool, argNodes []Node) (Sexp, error) {
	a := itp.agent
	var sym Symbol
	var valArg *Node
	if named {
		if len(argNodes) < 1 || len(argNodes) > 2 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: AtMost(2)})
		}
		nameStructure, err := a.DesignateNode(argNodes[0])
		if err != nil {
			return Sexp{}, err
		}
		s, ok := nameStructure.AsSymbol()
		if !ok {
			return Sexp{}, newError(a, &InvalidArgument{
				Given: nameStructure, Expected: "symbol to define"})
		}
		sym = s
		if len(argNodes) == 2 {
			valArg = &argNodes[1]
		}
	} else {
		if len(argNodes) > 1 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(argNodes), Expected: AtMost(1)})
		}
		if len(argNodes) == 1 {
			valArg = &argNodes[0]
		}
	}

	var valNode Node
	if valArg != nil {
		// Slot first so the value expression can refer to its own name.
		slot := a.Define(nil)
		frame := NewSymNodeTable()
		if named {
			frame.Insert(sym, slot)
		}
		raw, err := a.DesignateNode(*valArg)
		if err != nil {
			return Sexp{}, err
		}
		final, err := itp.subInterpret(raw, frame)
		if err != nil {
			return Sexp{}, err
		}
		if n, ok := final.AsNode(); ok {
			valNode = n
		} else {
			if err := a.SetStructure(slot, final); err != nil {
				return Sexp{}, err
			}
			valNode = slot
		}
	} else {
		valNode = a.Define(nil)
	}

	if named {
		if _, err := a.NameNode(valNode, sym); err != nil {
			return Sexp{}, err
		}
	}
	return NodeSexp(valNode), nil
}

func (itp *Interpreter) printCurrTriples() {
	a := itp.agent
	placeholder := NewNode(a.Context().LangEnv, a.Context().Placeholder)
	matches, err := a.Ask(a.Pos(), placeholder, placeholder)
	if err != nil {
		return
	}
	for _, triple := range matches {
		structure, err := a.DesignateNode(triple)
		if err != nil {
			continue
		}
		fmt.Printf("    %s\n", a.SexpString(structure))
	}
}
