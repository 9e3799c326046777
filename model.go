// model.go: the structure reification protocol used by env files.
//
// What this file does
// -------------------
// Serialization renders each node structure as read syntax; reflection
// rebuilds the in-memory form. The mapping is explicit per tag, never
// reflective:
//
//   node reference   -> designated symbol when its env names it, else a
//                       sigil (^id local, ^env^id global, t-forms for
//                       triples)
//   built-in         -> (__builtin NAME), rebound from the registry on load
//   path             -> (__path "…")
//   tables           -> (__sym_node_table (k . v)…) and friends
//   procedure        -> its reified surface form (lambda/fexpr/progn/if/
//                       apply) with node constituents as references
//   plain data       -> quote-wrapped, so a stored symbol or list is never
//                       mistaken for a reference or command
package amlang

import (
	"fmt"
	"strings"
)

// refString renders a node reference relative to the env being serialized.
func refString(e *Environment, envNode LocalNode, n Node) string {
	if n.Env == envNode {
		if sym, ok := e.FindDesignation(n.Local, NodeDesignation); ok {
			return string(sym)
		}
		return localSigil(n.Local)
	}
	return globalSigil(n)
}

// resolveRef maps a serialized reference back to a node. Sigils decode
// positionally; bare identifiers resolve through the env's designations,
// which load before structures.
func resolveRef(sym Symbol, e *Environment, envNode LocalNode) (Node, error) {
	if info, ok := ParseSigil(sym); ok {
		local := LocalNode(info.ID)
		if info.Triple {
			local = tripleIDFromIndex(info.ID)
		}
		if info.Global {
			return NewNode(LocalNode(info.Env), local), nil
		}
		return NewNode(envNode, local), nil
	}
	if local, ok := PreludeFromName(sym); ok {
		return NewNode(envNode, local), nil
	}
	if local, ok := e.MatchDesignation(sym, NodeDesignation); ok {
		return NewNode(envNode, local), nil
	}
	return Node{}, &Error{Kind: &DeserializeError{
		Reason: DeserializeExpectedSymbol,
		Detail: fmt.Sprintf("unresolvable reference %q", sym)}}
}

// serializePrim is the env-relative leaf writer for structures.
func serializePrim(e *Environment, envNode LocalNode) primWriter {
	var prim primWriter
	prim = func(b *strings.Builder, s Sexp) {
		switch s.Tag {
		case TagNode:
			n, _ := s.AsNode()
			b.WriteString(refString(e, envNode, n))
		case TagProcedure:
			p, _ := s.AsProcedure()
			writeSexp(b, p.Reify(func(n Node) Sexp { return NodeSexp(n) }), prim)
		case TagSymNodeTable:
			t, _ := s.AsSymNodeTable()
			b.WriteString("(__sym_node_table")
			for _, pair := range t.Pairs() {
				fmt.Fprintf(b, " (%s . %s)", pair.Sym, refString(e, envNode, pair.Node))
			}
			b.WriteByte(')')
		case TagSymSexpTable:
			// Values take the same quote-wrapping as top-level structures,
			// so stored data is never misread as a reference on reload.
			t, _ := s.AsSymSexpTable()
			b.WriteString("(__sym_sexp_table")
			for _, pair := range t.Pairs() {
				b.WriteString(" (")
				b.WriteString(string(pair.Sym))
				b.WriteString(" . ")
				if plainData(pair.Val) {
					b.WriteByte('\'')
				}
				writeSexp(b, pair.Val, prim)
				b.WriteByte(')')
			}
			b.WriteByte(')')
		case TagVector:
			v, _ := s.AsVector()
			b.WriteString("(__vector")
			for _, item := range v {
				b.WriteByte(' ')
				if plainData(item) {
					b.WriteByte('\'')
				}
				writeSexp(b, item, prim)
			}
			b.WriteByte(')')
		default:
			writePrimitivePlain(b, s)
		}
	}
	return prim
}

// plainData reports whether a structure must be quote-wrapped on disk.
// Vectors are excluded: they always reload through the __vector command.
func plainData(s Sexp) bool {
	switch s.Tag {
	case TagCons, TagSymbol, TagNumber:
		return !s.IsNil()
	}
	return false
}

// serializeStructure renders one node structure as a read-syntax string.
func serializeStructure(e *Environment, envNode LocalNode, s Sexp) string {
	var b strings.Builder
	if plainData(s) {
		b.WriteByte('\'')
	}
	writeSexp(&b, s, serializePrim(e, envNode))
	return b.String()
}

// reflectStructure rebuilds a node structure from its parsed serialization.
func reflectStructure(s Sexp, e *Environment, envNode LocalNode) (Sexp, error) {
	if sym, ok := s.AsSymbol(); ok {
		n, err := resolveRef(sym, e, envNode)
		if err != nil {
			return Sexp{}, err
		}
		return NodeSexp(n), nil
	}
	if s.Tag != TagCons || s.IsNil() {
		return s, nil
	}

	elems, tail := s.Elements()
	if tail != nil || len(elems) == 0 {
		return Sexp{}, &Error{Kind: &DeserializeError{
			Reason: DeserializeUnexpectedCommand, Detail: s.String()}}
	}
	head, ok := elems[0].AsSymbol()
	if !ok {
		return Sexp{}, &Error{Kind: &DeserializeError{
			Reason: DeserializeUnexpectedCommand, Detail: s.String()}}
	}

	switch head {
	case "quote":
		if len(elems) != 2 {
			return Sexp{}, &Error{Kind: &DeserializeError{
				Reason: DeserializeUnexpectedCommand, Detail: s.String()}}
		}
		return reflectData(elems[1], envNode)

	case "__builtin":
		if len(elems) != 2 {
			return Sexp{}, &Error{Kind: &DeserializeError{
				Reason: DeserializeUnrecognizedBuiltIn, Detail: s.String()}}
		}
		name, ok := elems[1].AsSymbol()
		if !ok {
			return Sexp{}, &Error{Kind: &DeserializeError{
				Reason: DeserializeUnrecognizedBuiltIn, Detail: s.String()}}
		}
		b, found := LookupBuiltIn(string(name))
		if !found {
			return Sexp{}, &Error{Kind: &DeserializeError{
				Reason: DeserializeUnrecognizedBuiltIn, Detail: string(name)}}
		}
		return BuiltInSexp(b), nil

	case "__path":
		if len(elems) != 2 {
			return Sexp{}, &Error{Kind: &DeserializeError{
				Reason: DeserializeTypeMismatch, Detail: s.String()}}
		}
		path, ok := elems[1].AsString()
		if !ok {
			return Sexp{}, &Error{Kind: &DeserializeError{
				Reason: DeserializeTypeMismatch, Detail: "__path takes a string"}}
		}
		return PathSexp(path), nil

	case "__sym_node_table":
		table := NewSymNodeTable()
		for _, entry := range elems[1:] {
			key, val, err := reflectPair(entry)
			if err != nil {
				return Sexp{}, err
			}
			sym, ok := key.AsSymbol()
			if !ok {
				return Sexp{}, &Error{Kind: &DeserializeError{
					Reason: DeserializeExpectedSymbol, Detail: entry.String()}}
			}
			refSym, ok := val.AsSymbol()
			if !ok {
				return Sexp{}, &Error{Kind: &DeserializeError{
					Reason: DeserializeExpectedSymbol, Detail: entry.String()}}
			}
			n, err := resolveRef(refSym, e, envNode)
			if err != nil {
				return Sexp{}, err
			}
			table.Insert(sym, n)
		}
		return SymNodeSexp(table), nil

	case "__local_node_table":
		table := NewLocalNodeTable()
		for _, entry := range elems[1:] {
			key, val, err := reflectPair(entry)
			if err != nil {
				return Sexp{}, err
			}
			k, err := reflectLocal(key, e, envNode)
			if err != nil {
				return Sexp{}, err
			}
			v, err := reflectLocal(val, e, envNode)
			if err != nil {
				return Sexp{}, err
			}
			table.Insert(k, v)
		}
		return LocalNodeTableSexp(table), nil

	case "__sym_sexp_table":
		table := NewSymSexpTable()
		for _, entry := range elems[1:] {
			key, val, err := reflectPair(entry)
			if err != nil {
				return Sexp{}, err
			}
			sym, ok := key.AsSymbol()
			if !ok {
				return Sexp{}, &Error{Kind: &DeserializeError{
					Reason: DeserializeExpectedSymbol, Detail: entry.String()}}
			}
			structure, err := reflectStructure(val, e, envNode)
			if err != nil {
				return Sexp{}, err
			}
			table.Insert(sym, structure)
		}
		return SymSexpTableSexp(table), nil

	case "__vector":
		items := make([]Sexp, 0, len(elems)-1)
		for _, entry := range elems[1:] {
			item, err := reflectStructure(entry, e, envNode)
			if err != nil {
				return Sexp{}, err
			}
			items = append(items, item)
		}
		return VectorSexp(items), nil

	case "lambda", "fexpr":
		if len(elems) != 3 {
			return Sexp{}, &Error{Kind: &DeserializeError{
				Reason: DeserializeTypeMismatch, Detail: s.String()}}
		}
		params, err := reflectRefList(elems[1], e, envNode)
		if err != nil {
			return Sexp{}, err
		}
		body, err := reflectRef(elems[2], e, envNode)
		if err != nil {
			return Sexp{}, err
		}
		return ProcSexp(NewAbstraction(params, body, head == "fexpr")), nil

	case "progn":
		seq, err := reflectRefs(elems[1:], e, envNode)
		if err != nil {
			return Sexp{}, err
		}
		return ProcSexp(NewSequence(seq)), nil

	case "if":
		if len(elems) != 4 {
			return Sexp{}, &Error{Kind: &DeserializeError{
				Reason: DeserializeTypeMismatch, Detail: s.String()}}
		}
		refs, err := reflectRefs(elems[1:], e, envNode)
		if err != nil {
			return Sexp{}, err
		}
		return ProcSexp(NewBranch(refs[0], refs[1], refs[2])), nil

	case "apply":
		if len(elems) != 3 {
			return Sexp{}, &Error{Kind: &DeserializeError{
				Reason: DeserializeTypeMismatch, Detail: s.String()}}
		}
		f, err := reflectRef(elems[1], e, envNode)
		if err != nil {
			return Sexp{}, err
		}
		args, err := reflectRefList(elems[2], e, envNode)
		if err != nil {
			return Sexp{}, err
		}
		return ProcSexp(NewApplication(f, args)), nil
	}

	return Sexp{}, &Error{Kind: &DeserializeError{
		Reason: DeserializeUnexpectedCommand, Detail: string(head)}}
}

// reflectData walks quoted data, decoding only embedded sigils into nodes.
func reflectData(s Sexp, envNode LocalNode) (Sexp, error) {
	switch s.Tag {
	case TagSymbol:
		sym, _ := s.AsSymbol()
		if info, ok := ParseSigil(sym); ok {
			local := LocalNode(info.ID)
			if info.Triple {
				local = tripleIDFromIndex(info.ID)
			}
			env := envNode
			if info.Global {
				env = LocalNode(info.Env)
			}
			return NodeSexp(NewNode(env, local)), nil
		}
		return s, nil
	case TagCons:
		if s.IsNil() {
			return s, nil
		}
		c, _ := s.AsCons()
		out := &Cons{}
		if c.Car != nil {
			car, err := reflectData(*c.Car, envNode)
			if err != nil {
				return Sexp{}, err
			}
			out.Car = &car
		}
		if c.Cdr != nil {
			cdr, err := reflectData(*c.Cdr, envNode)
			if err != nil {
				return Sexp{}, err
			}
			out.Cdr = &cdr
		}
		return ConsSexp(out), nil
	default:
		return s, nil
	}
}

func reflectPair(s Sexp) (Sexp, Sexp, error) {
	c, ok := s.AsCons()
	if !ok || c.Car == nil || c.Cdr == nil {
		return Sexp{}, Sexp{}, &Error{Kind: &DeserializeError{
			Reason: DeserializeTypeMismatch, Detail: "expected dotted pair"}}
	}
	return *c.Car, *c.Cdr, nil
}

func reflectRef(s Sexp, e *Environment, envNode LocalNode) (Node, error) {
	sym, ok := s.AsSymbol()
	if !ok {
		return Node{}, &Error{Kind: &DeserializeError{
			Reason: DeserializeExpectedSymbol, Detail: s.String()}}
	}
	return resolveRef(sym, e, envNode)
}

func reflectRefs(elems []Sexp, e *Environment, envNode LocalNode) ([]Node, error) {
	out := make([]Node, 0, len(elems))
	for _, elem := range elems {
		n, err := reflectRef(elem, e, envNode)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func reflectRefList(s Sexp, e *Environment, envNode LocalNode) ([]Node, error) {
	elems, tail := s.Elements()
	if tail != nil {
		return nil, &Error{Kind: &DeserializeError{
			Reason: DeserializeTypeMismatch, Detail: "improper reference list"}}
	}
	return reflectRefs(elems, e, envNode)
}

func reflectLocal(s Sexp, e *Environment, envNode LocalNode) (LocalNode, error) {
	n, err := reflectRef(s, e, envNode)
	if err != nil {
		return 0, err
	}
	if n.Env != envNode {
		return 0, &Error{Kind: &DeserializeError{
			Reason: DeserializeTypeMismatch,
			Detail: fmt.Sprintf("non-local reference %s", globalSigil(n))}}
	}
	return n.Local, nil
}
